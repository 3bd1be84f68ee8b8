// Package composer assembles oracle analysis requests from collected
// tool declarations: grouping by server origin, computing combinatorial
// scale metrics, and stripping collection provenance so the oracle sees
// only what the declaring server published.
package composer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/triage-ai/composcan/internal/model"
)

var (
	// ErrTooFewTools is returned when fewer than two tools are available.
	ErrTooFewTools = errors.New("composition analysis needs at least 2 tools")
	// ErrSingleOrigin is returned when all tools come from one server and
	// the builder was not told to accept the degenerate case.
	ErrSingleOrigin = errors.New("composition analysis needs tools from at least 2 servers")
)

// Request is a fully assembled oracle request: prompt text, the target
// schema, and the combinatorial metrics reported alongside the verdict.
type Request struct {
	System     string
	Prompt     string
	SchemaName string
	Schema     string

	Servers              []string
	TotalTools           int
	PairwiseCombinations int
}

// promptTool is the provenance-free view of a declaration embedded in
// the outbound prompt.
type promptTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// Builder turns a combined tool set into a composition analysis request.
type Builder struct {
	// AllowSingleOrigin permits the degenerate-but-valid case of ≥2 tools
	// from one server. Cross-server findings are impossible there, so
	// callers should warn before opting in.
	AllowSingleOrigin bool
}

// Build groups the tools by server origin (preserving arrival order),
// computes n and n*(n-1)/2, and assembles the prompt. Precondition
// violations return ErrTooFewTools or ErrSingleOrigin and no request.
func (b *Builder) Build(tools []model.ToolDeclaration) (*Request, error) {
	if len(tools) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewTools, len(tools))
	}

	servers, byServer := groupByOrigin(tools)
	if len(servers) < 2 && !b.AllowSingleOrigin {
		return nil, fmt.Errorf("%w: got %d", ErrSingleOrigin, len(servers))
	}

	n := len(tools)
	pairwise := n * (n - 1) / 2

	var sb strings.Builder
	sb.WriteString("COMPOSITION ANALYSIS REQUEST\n\n")
	fmt.Fprintf(&sb, "Servers: %s\n", strings.Join(servers, ", "))
	fmt.Fprintf(&sb, "Total tools: %d\n", n)
	fmt.Fprintf(&sb, "Pairwise combinations: %d\n\n", pairwise)
	sb.WriteString("--- Tool declarations by server ---\n")

	for _, server := range servers {
		group := byServer[server]
		fmt.Fprintf(&sb, "\n### Server: %s (%d tools)\n", server, len(group))
		clean := make([]promptTool, len(group))
		for i, t := range group {
			clean[i] = promptTool{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
		}
		encoded, err := json.MarshalIndent(clean, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		sb.Write(encoded)
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\n--- Analysis request ---\n"+
		"Analyze the COMBINED tool set above for composition risks.\n"+
		"Focus on CROSS-SERVER compositions: capabilities that emerge from "+
		"combining tools from %s that would NOT be detected by analyzing each "+
		"server independently.\n"+
		"For each dangerous pair or group, identify the composition surplus — "+
		"the capability that exists ONLY in the composition and is invisible "+
		"to per-tool governance. Consider chains of 3 or more tools, and "+
		"temporal composition where tools used at different times are combined "+
		"through the agent's memory.",
		strings.Join(servers, " + "))

	return &Request{
		System:               compositionSystemPrompt,
		Prompt:               sb.String(),
		SchemaName:           "composition_analysis",
		Schema:               model.CompositionAnalysisSchema,
		Servers:              servers,
		TotalTools:           n,
		PairwiseCombinations: pairwise,
	}, nil
}

// BuildIntent assembles a per-server analysis request for one server's
// tool declarations.
func BuildIntent(tools []model.ToolDeclaration) (*Request, error) {
	if len(tools) == 0 {
		return nil, fmt.Errorf("%w: got 0", ErrTooFewTools)
	}

	clean := make([]promptTool, len(tools))
	for i, t := range tools {
		clean[i] = promptTool{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
	}
	encoded, err := json.MarshalIndent(clean, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("build intent request: %w", err)
	}

	servers, _ := groupByOrigin(tools)

	return &Request{
		System:     intentSystemPrompt,
		Prompt:     "Analyse these tool declarations:\n\n" + string(encoded),
		SchemaName: "structured_analysis",
		Schema:     model.StructuredAnalysisSchema,
		Servers:    servers,
		TotalTools: len(tools),
	}, nil
}

// groupByOrigin buckets tools by server origin, keeping the order in
// which origins (and tools within an origin) first appeared.
func groupByOrigin(tools []model.ToolDeclaration) ([]string, map[string][]model.ToolDeclaration) {
	order := make([]string, 0, 2)
	byServer := make(map[string][]model.ToolDeclaration)
	for _, t := range tools {
		origin := t.ServerOrigin
		if origin == "" {
			origin = "unknown"
		}
		if _, ok := byServer[origin]; !ok {
			order = append(order, origin)
		}
		byServer[origin] = append(byServer[origin], t)
	}
	return order, byServer
}
