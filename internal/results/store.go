// Package results persists completed analyses as timestamped JSON
// artifacts and lists prior artifacts without requiring the full typed
// model. Files are written once and never mutated, so listing and
// writing need no coordination beyond atomic file creation.
package results

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/triage-ai/composcan/internal/model"
	"go.uber.org/zap"
)

const (
	compositionMarker = "COMPOSITION"
	compositionsDir   = "compositions"
	serverTagMaxLen   = 12
	timestampLayout   = "20060102-150405"
)

var unsafeNameChars = regexp.MustCompile(`[^\w\-]`)

// Store owns a results directory: per-server artifacts at the root,
// composition artifacts under compositions/.
type Store struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

func NewStore(dir string, logger *zap.Logger) *Store {
	return &Store{dir: dir, logger: logger, now: time.Now}
}

// Dir returns the root results directory.
func (s *Store) Dir() string { return s.dir }

// SanitizeName replaces everything outside [word, dash] with underscores.
func SanitizeName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// perServerFilename builds <timestamp>-<sanitized name-or-domain>.json.
// When no name is given the host of the server URL stands in.
func (s *Store) perServerFilename(serverURL, serverName string) string {
	ts := s.now().Format(timestampLayout)
	if serverName != "" {
		return fmt.Sprintf("%s-%s.json", ts, SanitizeName(serverName))
	}
	domain := "local"
	if u, err := url.Parse(serverURL); err == nil && u.Hostname() != "" {
		domain = u.Hostname()
	}
	return fmt.Sprintf("%s-%s.json", ts, SanitizeName(domain))
}

// compositionFilename builds <timestamp>-COMPOSITION-<tag+tag>.json with
// each server tag truncated to 12 characters.
func (s *Store) compositionFilename(servers []string) string {
	tags := make([]string, len(servers))
	for i, name := range servers {
		tag := SanitizeName(name)
		if len(tag) > serverTagMaxLen {
			tag = tag[:serverTagMaxLen]
		}
		tags[i] = tag
	}
	return fmt.Sprintf("%s-%s-%s.json", s.now().Format(timestampLayout), compositionMarker, strings.Join(tags, "+"))
}

// SavePerServer writes a per-server analysis artifact and returns its path.
// Same-second saves under the same name overwrite (last write wins).
func (s *Store) SavePerServer(a *model.StructuredAnalysis, serverURL, serverName string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("save result: %w", err)
	}
	path := filepath.Join(s.dir, s.perServerFilename(serverURL, serverName))
	if err := writeIndented(path, a); err != nil {
		return "", err
	}
	s.logger.Info("analysis result saved", zap.String("path", path))
	return path, nil
}

// SaveComposition writes a composition analysis artifact and returns its path.
func (s *Store) SaveComposition(a *model.CompositionAnalysis, servers []string) (string, error) {
	dir := filepath.Join(s.dir, compositionsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("save composition result: %w", err)
	}
	path := filepath.Join(dir, s.compositionFilename(servers))
	if err := writeIndented(path, a); err != nil {
		return "", err
	}
	s.logger.Info("composition result saved", zap.String("path", path))
	return path, nil
}

func writeIndented(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// --- listing ---

// PerServerSummary is the reduced view of a per-server artifact.
type PerServerSummary struct {
	Filename      string `json:"filename"`
	RiskScore     string `json:"risk_score"`
	ToolsAnalyzed int    `json:"tools_analyzed"`
	Action        string `json:"action"`
}

// CompositionSummary is the reduced view of a composition artifact.
type CompositionSummary struct {
	Filename       string   `json:"filename"`
	Servers        []string `json:"servers"`
	RiskScore      string   `json:"risk_score"`
	SurplusesFound int      `json:"surpluses_found"`
	ChainsFound    int      `json:"chains_found"`
	Action         string   `json:"action"`
}

// ListPerServer summarizes per-server artifacts, newest first. Files are
// parsed as generic JSON: any valid shape is tolerated, with absent
// fields degrading to "Unknown" and zero counts.
func (s *Store) ListPerServer() ([]PerServerSummary, error) {
	files, err := jsonFiles(s.dir)
	if err != nil {
		return nil, err
	}

	summaries := make([]PerServerSummary, 0, len(files))
	for _, path := range files {
		name := filepath.Base(path)
		if strings.Contains(name, compositionMarker) {
			continue
		}
		doc, err := readGeneric(path)
		if err != nil {
			s.logger.Warn("skipping unreadable result artifact", zap.String("path", path), zap.Error(err))
			continue
		}
		summaries = append(summaries, PerServerSummary{
			Filename:      name,
			RiskScore:     stringField(doc, "overall_risk_score"),
			ToolsAnalyzed: arrayLen(doc, "tool_assessments"),
			Action:        stringField(doc, "action"),
		})
	}
	return summaries, nil
}

// ListCompositions summarizes composition artifacts, newest first.
func (s *Store) ListCompositions() ([]CompositionSummary, error) {
	files, err := jsonFiles(filepath.Join(s.dir, compositionsDir))
	if err != nil {
		return nil, err
	}

	summaries := make([]CompositionSummary, 0, len(files))
	for _, path := range files {
		doc, err := readGeneric(path)
		if err != nil {
			s.logger.Warn("skipping unreadable composition artifact", zap.String("path", path), zap.Error(err))
			continue
		}
		summaries = append(summaries, CompositionSummary{
			Filename:       filepath.Base(path),
			Servers:        stringSliceField(doc, "servers_analyzed"),
			RiskScore:      stringField(doc, "composition_risk_score"),
			SurplusesFound: arrayLen(doc, "composition_surpluses"),
			ChainsFound:    arrayLen(doc, "attack_chains"),
			Action:         stringField(doc, "action"),
		})
	}
	return summaries, nil
}

// jsonFiles lists *.json under dir in reverse lexicographic order, which
// for timestamp-prefixed names means newest first. A missing directory
// yields an empty listing.
func jsonFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list results: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}

func readGeneric(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func stringField(doc map[string]any, key string) string {
	if v, ok := doc[key].(string); ok && v != "" {
		return v
	}
	return "Unknown"
}

func arrayLen(doc map[string]any, key string) int {
	if v, ok := doc[key].([]any); ok {
		return len(v)
	}
	return 0
}

func stringSliceField(doc map[string]any, key string) []string {
	v, ok := doc[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(v))
	for _, item := range v {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
