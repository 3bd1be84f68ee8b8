// Package summary aggregates composition analysis artifacts from an
// evaluation run into a report: one row per artifact, classified against
// the known benign control pairings, plus distribution statistics.
package summary

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/triage-ai/composcan/internal/model"
)

// Categories assigned to each evaluated pairing.
const (
	CategoryControl  = "CONTROL"
	CategoryHighRisk = "HIGH-RISK"
)

// controlPairs are the server pairings with no meaningful composition
// surface, used as the negative baseline of an evaluation run. Keys are
// normalized server names sorted and joined with '+'.
var controlPairs = map[string]bool{
	"google-maps+memory": true,
	"fetch+google-maps":  true,
	"postgres+sqlite":    true,
}

var timestampPrefix = regexp.MustCompile(`^\d{8}-\d{6}-`)

// Row is the per-artifact line of the evaluation report.
type Row struct {
	Filename             string         `json:"filename"`
	Category             string         `json:"category"`
	Servers              []string       `json:"servers"`
	Tools                int            `json:"tools"`
	PairwiseCombinations int            `json:"pairwise_combinations"`
	Surpluses            int            `json:"surpluses"`
	CrossServer          int            `json:"cross_server_surpluses"`
	Chains               int            `json:"attack_chains"`
	SeverityCounts       map[string]int `json:"severity_counts"`
	RiskScore            string         `json:"risk_score"`
	Action               string         `json:"action"`
}

// Report is the aggregate evaluation summary.
type Report struct {
	GeneratedAt          time.Time      `json:"generated_at"`
	ArtifactsScanned     int            `json:"artifacts_scanned"`
	ControlRuns          int            `json:"control_runs"`
	HighRiskRuns         int            `json:"high_risk_runs"`
	Rows                 []Row          `json:"rows"`
	SeverityDistribution map[string]int `json:"severity_distribution"`
	ActionDistribution   map[string]int `json:"action_distribution"`
	CrossServerRatio     float64        `json:"cross_server_ratio"`
}

// normalizeServer strips any result-artifact timestamp prefix and
// lowercases, so "20250110-093011-Google-Maps" matches "google-maps".
func normalizeServer(name string) string {
	return strings.ToLower(timestampPrefix.ReplaceAllString(name, ""))
}

// pairKey builds the canonical classification key for a server set.
func pairKey(servers []string) string {
	norm := make([]string, len(servers))
	for i, s := range servers {
		norm[i] = normalizeServer(s)
	}
	sort.Strings(norm)
	return strings.Join(norm, "+")
}

// Classify returns CONTROL for the known benign pairings, HIGH-RISK for
// everything else.
func Classify(servers []string) string {
	if controlPairs[pairKey(servers)] {
		return CategoryControl
	}
	return CategoryHighRisk
}

// Summarize scans dir (recursively) for COMPOSITION artifacts and builds
// the report. Unreadable artifacts are logged and skipped.
func Summarize(dir string, logger *zap.Logger) (*Report, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if !d.IsDir() && strings.Contains(name, "COMPOSITION") && strings.HasSuffix(name, ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Summarize: %w", err)
	}
	sort.Strings(paths)

	report := &Report{
		GeneratedAt:          time.Now().UTC(),
		SeverityDistribution: map[string]int{},
		ActionDistribution:   map[string]int{},
	}

	var surpluses, crossServer int
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable artifact", zap.String("path", path), zap.Error(err))
			continue
		}
		var a model.CompositionAnalysis
		if err := json.Unmarshal(raw, &a); err != nil {
			logger.Warn("skipping malformed artifact", zap.String("path", path), zap.Error(err))
			continue
		}

		row := Row{
			Filename:             filepath.Base(path),
			Category:             Classify(a.ServersAnalyzed),
			Servers:              a.ServersAnalyzed,
			Tools:                a.TotalTools,
			PairwiseCombinations: a.PairwiseCombinations,
			Surpluses:            len(a.CompositionSurpluses),
			Chains:               len(a.AttackChains),
			SeverityCounts:       map[string]int{},
			RiskScore:            orUnknown(string(a.CompositionRiskScore)),
			Action:               orUnknown(string(a.Action)),
		}
		for _, s := range a.CompositionSurpluses {
			row.SeverityCounts[string(s.Severity)]++
			report.SeverityDistribution[string(s.Severity)]++
			if s.IsCrossServer {
				row.CrossServer++
			}
		}
		surpluses += row.Surpluses
		crossServer += row.CrossServer
		report.ActionDistribution[row.Action]++
		if row.Category == CategoryControl {
			report.ControlRuns++
		} else {
			report.HighRiskRuns++
		}
		report.Rows = append(report.Rows, row)
	}

	report.ArtifactsScanned = len(report.Rows)
	if surpluses > 0 {
		report.CrossServerRatio = float64(crossServer) / float64(surpluses)
	}
	return report, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// Markdown renders the report as a table plus aggregate statistics.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Composition Evaluation Summary\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Artifacts: %d (%d control, %d high-risk)\n\n",
		r.ArtifactsScanned, r.ControlRuns, r.HighRiskRuns)

	b.WriteString("| Category | Servers | Tools | Pairs | Surpluses | Cross-server | Chains | Risk | Action |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|\n")
	for _, row := range r.Rows {
		fmt.Fprintf(&b, "| %s | %s | %d | %d | %d | %d | %d | %s | %s |\n",
			row.Category, strings.Join(row.Servers, ", "),
			row.Tools, row.PairwiseCombinations,
			row.Surpluses, row.CrossServer, row.Chains,
			row.RiskScore, row.Action)
	}

	b.WriteString("\n## Severity distribution\n\n")
	for _, sev := range []string{"Low", "Medium", "High", "Critical"} {
		if n := r.SeverityDistribution[sev]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", sev, n)
		}
	}

	b.WriteString("\n## Action distribution\n\n")
	actions := make([]string, 0, len(r.ActionDistribution))
	for a := range r.ActionDistribution {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	for _, a := range actions {
		fmt.Fprintf(&b, "- %s: %d\n", a, r.ActionDistribution[a])
	}

	fmt.Fprintf(&b, "\nCross-server surplus ratio: %.2f\n", r.CrossServerRatio)
	return b.String()
}

// WriteJSON writes the report to path as indented JSON.
func (r *Report) WriteJSON(path string) error {
	raw, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("WriteJSON: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("WriteJSON: %w", err)
	}
	return nil
}
