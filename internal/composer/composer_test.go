package composer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/triage-ai/composcan/internal/model"
)

func declarations(counts map[string]int) []model.ToolDeclaration {
	var tools []model.ToolDeclaration
	for _, server := range []string{"alpha", "beta", "gamma"} {
		for i := 0; i < counts[server]; i++ {
			tools = append(tools, model.ToolDeclaration{
				Name:         server + "_tool_" + string(rune('a'+i)),
				Description:  "does something",
				ServerOrigin: server,
				SourceURL:    "http://example/" + server,
			})
		}
	}
	return tools
}

func TestBuild_PairwiseMetric(t *testing.T) {
	b := &Builder{}
	req, err := b.Build(declarations(map[string]int{"alpha": 3, "beta": 4}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.TotalTools != 7 {
		t.Fatalf("expected 7 tools, got %d", req.TotalTools)
	}
	if req.PairwiseCombinations != 21 {
		t.Fatalf("expected 21 pairwise combinations, got %d", req.PairwiseCombinations)
	}
	if want := req.TotalTools * (req.TotalTools - 1) / 2; req.PairwiseCombinations != want {
		t.Fatalf("pairwise metric must equal n*(n-1)/2, got %d want %d", req.PairwiseCombinations, want)
	}
}

func TestBuild_TooFewTools(t *testing.T) {
	b := &Builder{}
	_, err := b.Build(declarations(map[string]int{"alpha": 1}))
	if !errors.Is(err, ErrTooFewTools) {
		t.Fatalf("expected ErrTooFewTools, got %v", err)
	}
}

func TestBuild_SingleOrigin(t *testing.T) {
	tools := declarations(map[string]int{"alpha": 3})

	b := &Builder{}
	if _, err := b.Build(tools); !errors.Is(err, ErrSingleOrigin) {
		t.Fatalf("expected ErrSingleOrigin, got %v", err)
	}

	// Degenerate-but-valid when the caller opts in.
	b.AllowSingleOrigin = true
	req, err := b.Build(tools)
	if err != nil {
		t.Fatalf("expected single-origin build to succeed when allowed, got %v", err)
	}
	if len(req.Servers) != 1 || req.Servers[0] != "alpha" {
		t.Fatalf("expected servers [alpha], got %v", req.Servers)
	}
}

func TestBuild_StripsProvenance(t *testing.T) {
	tools := declarations(map[string]int{"alpha": 2, "beta": 2})
	tools[0].SourceFile = "results/20250101-120000-alpha.json"
	tools[0].OriginalRiskLevel = "High"

	b := &Builder{}
	req, err := b.Build(tools)
	if err != nil {
		t.Fatal(err)
	}

	for _, leaked := range []string{"server_origin", "source_url", "source_file", "original_risk_level", "http://example/"} {
		if strings.Contains(req.Prompt, leaked) {
			t.Errorf("prompt leaks provenance field %q", leaked)
		}
	}
	if !strings.Contains(req.Prompt, "### Server: alpha (2 tools)") {
		t.Error("prompt missing per-server section header")
	}
	if !strings.Contains(req.Prompt, "alpha_tool_a") {
		t.Error("prompt missing tool declarations")
	}
}

func TestBuild_GroupOrderFollowsArrival(t *testing.T) {
	tools := []model.ToolDeclaration{
		{Name: "z1", ServerOrigin: "zeta"},
		{Name: "a1", ServerOrigin: "alpha"},
		{Name: "z2", ServerOrigin: "zeta"},
	}
	b := &Builder{}
	req, err := b.Build(tools)
	if err != nil {
		t.Fatal(err)
	}
	if req.Servers[0] != "zeta" || req.Servers[1] != "alpha" {
		t.Fatalf("expected arrival order [zeta alpha], got %v", req.Servers)
	}
	if strings.Index(req.Prompt, "### Server: zeta") > strings.Index(req.Prompt, "### Server: alpha") {
		t.Error("prompt sections out of arrival order")
	}
}

func TestBuild_SchemaIsValidJSON(t *testing.T) {
	b := &Builder{}
	req, err := b.Build(declarations(map[string]int{"alpha": 2, "beta": 2}))
	if err != nil {
		t.Fatal(err)
	}
	var doc any
	if err := json.Unmarshal([]byte(req.Schema), &doc); err != nil {
		t.Fatalf("request schema is not valid JSON: %v", err)
	}
	if req.SchemaName != "composition_analysis" {
		t.Fatalf("unexpected schema name %q", req.SchemaName)
	}
}

func TestBuildIntent(t *testing.T) {
	tools := declarations(map[string]int{"alpha": 2})
	req, err := BuildIntent(tools)
	if err != nil {
		t.Fatal(err)
	}
	if req.SchemaName != "structured_analysis" {
		t.Fatalf("unexpected schema name %q", req.SchemaName)
	}
	if !strings.Contains(req.Prompt, "alpha_tool_a") {
		t.Error("intent prompt missing declarations")
	}
	if strings.Contains(req.Prompt, "server_origin") {
		t.Error("intent prompt leaks provenance")
	}

	if _, err := BuildIntent(nil); !errors.Is(err, ErrTooFewTools) {
		t.Fatalf("expected ErrTooFewTools for empty set, got %v", err)
	}
}
