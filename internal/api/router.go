// Package api exposes the scan control plane over HTTP/JSON: submission
// endpoints that enqueue analysis jobs and read endpoints over the
// result store.
package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/triage-ai/composcan/internal/registry"
	"github.com/triage-ai/composcan/internal/results"
	"github.com/triage-ai/composcan/internal/scanner"
	"github.com/triage-ai/composcan/internal/scheduler"
)

// Version reported by GET /.
const Version = "0.1.0"

// Dependencies holds shared state injected into all HTTP handlers.
type Dependencies struct {
	Scanner  *scanner.Service
	Queue    *scheduler.Scheduler
	Registry registry.ServerRegistry
	Store    *results.Store
	Logger   *zap.Logger
	// APIKeyHash is the bcrypt hash of the csk_ bearer key required on
	// mutating endpoints. Empty disables auth.
	APIKeyHash string
}

// NewRouter builds the HTTP mux with all routes wired up.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	// Submissions (auth required when a key hash is configured)
	mux.HandleFunc("POST /v1/analyze", deps.authMiddleware(deps.handleAnalyze))
	mux.HandleFunc("POST /v1/analyze-all", deps.authMiddleware(deps.handleAnalyzeAll))
	mux.HandleFunc("POST /v1/analyze-composition", deps.authMiddleware(deps.handleAnalyzeComposition))

	// Reads (no auth)
	mux.HandleFunc("GET /v1/results", deps.handleListResults)
	mux.HandleFunc("GET /v1/composition-results", deps.handleListCompositionResults)
	mux.HandleFunc("GET /v1/status", deps.handleStatus)

	mux.HandleFunc("GET /{$}", deps.handleRoot)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return corsMiddleware(requestLogging(mux, deps.Logger))
}
