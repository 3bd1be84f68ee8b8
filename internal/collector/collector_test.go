package collector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/triage-ai/composcan/internal/model"
	"go.uber.org/zap"
)

// fakeLister is a test double for the tool-listing transport.
type fakeLister struct {
	tools []model.ToolDeclaration
	err   error
}

func (f *fakeLister) ListTools(_ context.Context, _ string) ([]model.ToolDeclaration, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tools, nil
}

func TestServerNameFromFile(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"20250101-120000-ServerX.json", "ServerX"},
		{"results/20250101-120000-ServerX.json", "ServerX"},
		{"custom.json", "custom"},
		{"20250101-120000-with-dashes_v2.json", "with-dashes_v2"},
		{"20250101-12000-short.json", "20250101-12000-short"}, // malformed timestamp
	}
	for _, tc := range cases {
		if got := ServerNameFromFile(tc.path); got != tc.want {
			t.Errorf("ServerNameFromFile(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestCollectLive_TagsOrigin(t *testing.T) {
	lister := &fakeLister{tools: []model.ToolDeclaration{
		{Name: "read_file", Description: "reads a file"},
		{Name: "write_file", Description: "writes a file"},
	}}
	c := New(lister, zap.NewNop())

	col := c.CollectLive(context.Background(), "http://127.0.0.1:8002/mcp", "filesystem")
	if col.Err != nil {
		t.Fatalf("unexpected error: %v", col.Err)
	}
	if len(col.Tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(col.Tools))
	}
	for _, tool := range col.Tools {
		if tool.ServerOrigin != "filesystem" {
			t.Errorf("tool %s missing server origin, got %q", tool.Name, tool.ServerOrigin)
		}
		if tool.SourceURL != "http://127.0.0.1:8002/mcp" {
			t.Errorf("tool %s missing source url, got %q", tool.Name, tool.SourceURL)
		}
	}
}

func TestCollectLive_FailureYieldsZeroTools(t *testing.T) {
	lister := &fakeLister{err: errors.New("connection refused")}
	c := New(lister, zap.NewNop())

	col := c.CollectLive(context.Background(), "http://127.0.0.1:9/mcp", "down")
	if col.Err == nil {
		t.Fatal("expected error for unreachable server")
	}
	if len(col.Tools) != 0 {
		t.Fatalf("expected zero tools on failure, got %d", len(col.Tools))
	}
}

func TestCollectFromFile_Reconstruction(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "20250101-120000-ServerX.json")
	artifact := `{
		"tool_assessments": [
			{"tool_name": "get_weather", "risk_summary": "benign lookup", "risk_level": "Low"},
			{"tool_name": "run_shell", "risk_summary": "unrestricted execution", "risk_level": "High"},
			{"tool_name": "no_level", "risk_summary": "missing level"}
		],
		"overall_risk_score": "High",
		"action": "BLOCK"
	}`
	if err := os.WriteFile(path, []byte(artifact), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New(nil, zap.NewNop())
	col := c.CollectFromFile(path)
	if col.Err != nil {
		t.Fatalf("unexpected error: %v", col.Err)
	}
	if col.ServerName != "ServerX" {
		t.Fatalf("expected server name ServerX, got %q", col.ServerName)
	}
	if len(col.Tools) != 3 {
		t.Fatalf("expected 3 reconstructed tools, got %d", len(col.Tools))
	}

	first := col.Tools[0]
	if first.Name != "get_weather" || first.Description != "benign lookup" {
		t.Errorf("unexpected reconstruction: %+v", first)
	}
	if first.OriginalRiskLevel != "Low" {
		t.Errorf("expected original risk level preserved, got %q", first.OriginalRiskLevel)
	}
	if first.ServerOrigin != "ServerX" || first.SourceFile != path {
		t.Errorf("missing provenance: %+v", first)
	}
	if len(first.InputSchema) != 0 {
		t.Errorf("reconstruction must not invent an input schema")
	}
	if col.Tools[2].OriginalRiskLevel != "Unknown" {
		t.Errorf("missing risk level should degrade to Unknown, got %q", col.Tools[2].OriginalRiskLevel)
	}
}

func TestCollectFromFile_MissingFile(t *testing.T) {
	c := New(nil, zap.NewNop())
	col := c.CollectFromFile(filepath.Join(t.TempDir(), "nope.json"))
	if col.Err == nil {
		t.Fatal("expected error for missing file")
	}
	if col.ServerName != "nope" {
		t.Fatalf("expected bare-stem fallback name, got %q", col.ServerName)
	}
}

func TestMerge_SkipsFailedSourcesAndDeduplicates(t *testing.T) {
	cols := []Collection{
		{ServerName: "a", Tools: []model.ToolDeclaration{{Name: "t1", ServerOrigin: "a"}}},
		{ServerName: "down", Err: errors.New("unreachable")},
		{ServerName: "b", Tools: []model.ToolDeclaration{{Name: "t2", ServerOrigin: "b"}, {Name: "t3", ServerOrigin: "b"}}},
		{ServerName: "a", Tools: []model.ToolDeclaration{{Name: "t4", ServerOrigin: "a"}}},
	}

	tools, servers := Merge(cols)
	if len(tools) != 4 {
		t.Fatalf("expected 4 tools, got %d", len(tools))
	}
	if len(servers) != 2 || servers[0] != "a" || servers[1] != "b" {
		t.Fatalf("expected ordered deduplicated servers [a b], got %v", servers)
	}
}
