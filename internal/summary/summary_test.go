package summary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/triage-ai/composcan/internal/model"
	"github.com/triage-ai/composcan/internal/results"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		servers []string
		want    string
	}{
		{[]string{"google-maps", "memory"}, CategoryControl},
		{[]string{"memory", "google-maps"}, CategoryControl},
		{[]string{"Fetch", "Google-Maps"}, CategoryControl},
		{[]string{"postgres", "sqlite"}, CategoryControl},
		{[]string{"20250110-093011-postgres", "sqlite"}, CategoryControl},
		{[]string{"filesystem", "fetch"}, CategoryHighRisk},
		{[]string{"postgres", "sqlite", "fetch"}, CategoryHighRisk},
		{[]string{}, CategoryHighRisk},
	}
	for _, tc := range cases {
		if got := Classify(tc.servers); got != tc.want {
			t.Errorf("Classify(%v) = %s, want %s", tc.servers, got, tc.want)
		}
	}
}

func writeArtifacts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	store := results.NewStore(dir, zap.NewNop())

	control := &model.CompositionAnalysis{
		ServersAnalyzed:      []string{"google-maps", "memory"},
		TotalTools:           5,
		PairwiseCombinations: 10,
		CompositionRiskScore: model.SeverityLow,
		Action:               model.ActionAllow,
	}
	if _, err := store.SaveComposition(control, control.ServersAnalyzed); err != nil {
		t.Fatal(err)
	}

	risky := &model.CompositionAnalysis{
		ServersAnalyzed:      []string{"filesystem", "fetch"},
		TotalTools:           7,
		PairwiseCombinations: 21,
		CompositionSurpluses: []model.CompositionSurplus{
			{ID: "S1", ToolA: "read_file", ToolAServer: "filesystem", ToolB: "fetch", ToolBServer: "fetch",
				Severity: model.SeverityHigh, IsCrossServer: true},
			{ID: "S2", ToolA: "write_file", ToolAServer: "filesystem", ToolB: "read_file", ToolBServer: "filesystem",
				Severity: model.SeverityMedium},
		},
		AttackChains: []model.CompositionAttackChain{
			{ChainID: "C1", CompositionSurplusesUsed: []string{"S1"}, Severity: model.SeverityHigh},
		},
		CompositionRiskScore: model.SeverityHigh,
		Action:               model.ActionBlock,
	}
	if _, err := store.SaveComposition(risky, risky.ServersAnalyzed); err != nil {
		t.Fatal(err)
	}

	// Per-server artifact at the root must be ignored by the summarizer.
	if err := os.WriteFile(filepath.Join(dir, "20260826-100000-filesystem.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestSummarize(t *testing.T) {
	dir := writeArtifacts(t)

	report, err := Summarize(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	if report.ArtifactsScanned != 2 {
		t.Fatalf("scanned %d artifacts, want 2", report.ArtifactsScanned)
	}
	if report.ControlRuns != 1 || report.HighRiskRuns != 1 {
		t.Fatalf("classification counts wrong: %+v", report)
	}
	if report.SeverityDistribution["High"] != 1 || report.SeverityDistribution["Medium"] != 1 {
		t.Fatalf("severity distribution wrong: %v", report.SeverityDistribution)
	}
	if report.ActionDistribution["BLOCK"] != 1 || report.ActionDistribution["ALLOW"] != 1 {
		t.Fatalf("action distribution wrong: %v", report.ActionDistribution)
	}
	if report.CrossServerRatio != 0.5 {
		t.Fatalf("cross-server ratio = %v, want 0.5", report.CrossServerRatio)
	}

	var risky *Row
	for i := range report.Rows {
		if report.Rows[i].Category == CategoryHighRisk {
			risky = &report.Rows[i]
		}
	}
	if risky == nil {
		t.Fatal("no high-risk row")
	}
	if risky.Surpluses != 2 || risky.CrossServer != 1 || risky.Chains != 1 {
		t.Fatalf("unexpected high-risk row %+v", risky)
	}
}

func TestSummarize_SkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "20260826-100000-COMPOSITION-a+b.json")
	if err := os.WriteFile(bad, []byte(`{broken`), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := Summarize(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if report.ArtifactsScanned != 0 {
		t.Fatalf("malformed artifact was not skipped: %+v", report)
	}
}

func TestMarkdown(t *testing.T) {
	dir := writeArtifacts(t)
	report, err := Summarize(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	md := report.Markdown()
	for _, want := range []string{
		"| Category |",
		"HIGH-RISK",
		"CONTROL",
		"google-maps, memory",
		"- High: 1",
		"- BLOCK: 1",
		"Cross-server surplus ratio: 0.50",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	dir := writeArtifacts(t)
	report, err := Summarize(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "summary.json")
	if err := report.WriteJSON(out); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"artifacts_scanned": 2`) {
		t.Fatalf("summary.json missing aggregate fields:\n%s", raw)
	}
}
