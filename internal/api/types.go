package api

import (
	"github.com/triage-ai/composcan/internal/results"
	"github.com/triage-ai/composcan/internal/scheduler"
)

// --- POST /v1/analyze ---

// AnalyzeRequest is the JSON body for POST /v1/analyze. Either a direct
// URL or the name of a registered server must be given.
type AnalyzeRequest struct {
	ServerURL  string `json:"server_url,omitempty"`
	ServerName string `json:"server_name,omitempty"`
}

// --- POST /v1/analyze-composition ---

// AnalyzeCompositionRequest is the JSON body for POST /v1/analyze-composition.
// Servers are registry names; Files are saved per-server artifacts to
// reconstruct declarations from. Empty servers+files means "all
// registered servers".
type AnalyzeCompositionRequest struct {
	Servers []string `json:"servers,omitempty"`
	Files   []string `json:"files,omitempty"`
}

// QueuedResponse acknowledges an accepted analysis submission.
type QueuedResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// --- GET /v1/results, /v1/composition-results ---

type ResultsResponse struct {
	Count   int                        `json:"count"`
	Results []results.PerServerSummary `json:"results"`
}

type CompositionResultsResponse struct {
	Count   int                          `json:"count"`
	Results []results.CompositionSummary `json:"results"`
}

// --- GET /v1/status ---

type StatusResponse struct {
	Queue             scheduler.Status `json:"queue"`
	RegisteredServers int              `json:"registered_servers"`
}

// --- GET / ---

type APIInfo struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// ErrorResp is the uniform error body.
type ErrorResp struct {
	Detail string `json:"detail"`
}
