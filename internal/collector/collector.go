// Package collector gathers tool declarations for analysis, either live
// from an MCP server or reconstructed from a previously saved per-server
// result artifact. Collection is partial-failure tolerant: each source
// yields an explicit Collection record and a failed source never aborts
// the surrounding batch.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/triage-ai/composcan/internal/model"
	"go.uber.org/zap"
)

// ToolLister is the external tool-listing transport: given a server
// address it returns the server's tool declarations or fails.
type ToolLister interface {
	ListTools(ctx context.Context, serverURL string) ([]model.ToolDeclaration, error)
}

// Collection is the outcome of collecting from one source. Err is set
// on failure and Tools is empty; the caller aggregates Collections and
// decides whether enough sources survived.
type Collection struct {
	ServerName string
	Source     string // URL or file path
	Tools      []model.ToolDeclaration
	Err        error
}

// resultFilePattern matches saved result artifacts named
// YYYYMMDD-HHMMSS-<name>.json.
var resultFilePattern = regexp.MustCompile(`^\d{8}-\d{6}-(.+)\.json$`)

// ServerNameFromFile derives the logical server name from a result file
// path. Non-matching filenames fall back to the bare stem.
func ServerNameFromFile(path string) string {
	base := filepath.Base(path)
	if m := resultFilePattern.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Collector fetches or reconstructs tool declarations.
type Collector struct {
	lister ToolLister
	logger *zap.Logger
}

func New(lister ToolLister, logger *zap.Logger) *Collector {
	return &Collector{lister: lister, logger: logger}
}

// CollectLive lists tools from a running server and tags each with the
// server's logical name and address. Transport failures are returned in
// the Collection, not propagated.
func (c *Collector) CollectLive(ctx context.Context, serverURL, serverName string) Collection {
	col := Collection{ServerName: serverName, Source: serverURL}

	tools, err := c.lister.ListTools(ctx, serverURL)
	if err != nil {
		c.logger.Warn("tool collection failed",
			zap.String("server", serverName),
			zap.String("url", serverURL),
			zap.Error(err),
		)
		col.Err = fmt.Errorf("collect %s: %w", serverName, err)
		return col
	}

	for i := range tools {
		tools[i].ServerOrigin = serverName
		tools[i].SourceURL = serverURL
	}
	col.Tools = tools

	c.logger.Info("tools collected",
		zap.String("server", serverName),
		zap.Int("count", len(tools)),
	)
	return col
}

// savedAssessment is the slice of a per-server result artifact the
// offline path needs. Any other fields are ignored.
type savedAssessment struct {
	ToolAssessments []struct {
		ToolName    string `json:"tool_name"`
		RiskSummary string `json:"risk_summary"`
		RiskLevel   string `json:"risk_level"`
	} `json:"tool_assessments"`
}

// CollectFromFile reconstructs minimal tool declarations from a saved
// per-server result artifact. The reconstruction is lossy: the risk
// summary stands in for the description, the input schema is empty, and
// the originally assessed risk level is kept as provenance.
func (c *Collector) CollectFromFile(path string) Collection {
	name := ServerNameFromFile(path)
	col := Collection{ServerName: name, Source: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		col.Err = fmt.Errorf("collect from file: %w", err)
		return col
	}

	var saved savedAssessment
	if err := json.Unmarshal(raw, &saved); err != nil {
		col.Err = fmt.Errorf("collect from file %s: %w", path, err)
		return col
	}

	for _, a := range saved.ToolAssessments {
		level := a.RiskLevel
		if level == "" {
			level = "Unknown"
		}
		col.Tools = append(col.Tools, model.ToolDeclaration{
			Name:              a.ToolName,
			Description:       a.RiskSummary,
			ServerOrigin:      name,
			SourceFile:        path,
			OriginalRiskLevel: level,
		})
	}

	c.logger.Info("tools reconstructed from artifact",
		zap.String("server", name),
		zap.String("file", path),
		zap.Int("count", len(col.Tools)),
	)
	return col
}

// Merge flattens the surviving collections into a combined tool slice
// and the ordered, deduplicated list of server names that contributed.
func Merge(cols []Collection) (tools []model.ToolDeclaration, servers []string) {
	seen := make(map[string]bool, len(cols))
	for _, col := range cols {
		if col.Err != nil {
			continue
		}
		tools = append(tools, col.Tools...)
		if !seen[col.ServerName] {
			seen[col.ServerName] = true
			servers = append(servers, col.ServerName)
		}
	}
	return tools, servers
}
