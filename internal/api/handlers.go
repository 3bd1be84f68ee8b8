package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/triage-ai/composcan/internal/registry"
	"github.com/triage-ai/composcan/internal/scheduler"
)

// handleAnalyze queues a per-server declaration scan.
func (d *Dependencies) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}

	var entry registry.ServerEntry
	switch {
	case req.ServerURL != "":
		entry = registry.ServerEntry{Name: req.ServerName, URL: req.ServerURL}
	case req.ServerName != "":
		found, err := d.Registry.GetServer(r.Context(), req.ServerName)
		if err != nil {
			d.Logger.Error("registry lookup failed", zap.String("server", req.ServerName), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Registry lookup failed"})
			return
		}
		if found == nil {
			writeJSON(w, http.StatusNotFound, ErrorResp{Detail: fmt.Sprintf("Unknown server %q", req.ServerName)})
			return
		}
		entry = *found
	default:
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "server_url or server_name is required"})
		return
	}

	id := uuid.New().String()
	d.Queue.Enqueue(scheduler.Job{ID: id, Kind: "intent", Run: func(ctx context.Context) error {
		return d.Scanner.ScanServer(ctx, id, entry)
	}})

	writeJSON(w, http.StatusAccepted, QueuedResponse{
		RequestID: id,
		Status:    "queued",
		Message:   fmt.Sprintf("Analysis of %s queued", displayName(entry)),
	})
}

// handleAnalyzeAll queues one per-server scan job for every registered server.
func (d *Dependencies) handleAnalyzeAll(w http.ResponseWriter, r *http.Request) {
	servers, err := d.Registry.ListServers(r.Context())
	if err != nil {
		d.Logger.Error("registry listing failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Registry listing failed"})
		return
	}
	if len(servers) == 0 {
		writeJSON(w, http.StatusNotFound, ErrorResp{Detail: "No servers registered"})
		return
	}

	id := uuid.New().String()
	d.Queue.Enqueue(scheduler.Job{ID: id, Kind: "intent", Run: func(ctx context.Context) error {
		var firstErr error
		for _, entry := range servers {
			if err := d.Scanner.ScanServer(ctx, id, entry); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}})

	writeJSON(w, http.StatusAccepted, QueuedResponse{
		RequestID: id,
		Status:    "queued",
		Message:   fmt.Sprintf("Analysis of %d servers queued", len(servers)),
	})
}

// handleAnalyzeComposition queues a cross-server composition scan.
func (d *Dependencies) handleAnalyzeComposition(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeCompositionRequest
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}

	var entries []registry.ServerEntry
	if len(req.Servers) == 0 && len(req.Files) == 0 {
		all, err := d.Registry.ListServers(r.Context())
		if err != nil {
			d.Logger.Error("registry listing failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Registry listing failed"})
			return
		}
		entries = all
	} else {
		for _, name := range req.Servers {
			found, err := d.Registry.GetServer(r.Context(), name)
			if err != nil {
				d.Logger.Error("registry lookup failed", zap.String("server", name), zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Registry lookup failed"})
				return
			}
			if found == nil {
				writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: fmt.Sprintf("Unknown server %q", name)})
				return
			}
			entries = append(entries, *found)
		}
	}

	if len(entries)+len(req.Files) < 2 {
		writeJSON(w, http.StatusBadRequest, ErrorResp{
			Detail: "Composition analysis needs at least 2 sources (servers and/or files)",
		})
		return
	}

	files := req.Files
	id := uuid.New().String()
	d.Queue.Enqueue(scheduler.Job{ID: id, Kind: "composition", Run: func(ctx context.Context) error {
		return d.Scanner.ScanComposition(ctx, id, entries, files)
	}})

	writeJSON(w, http.StatusAccepted, QueuedResponse{
		RequestID: id,
		Status:    "queued",
		Message: fmt.Sprintf("Composition analysis of %d servers and %d files queued",
			len(entries), len(files)),
	})
}

func (d *Dependencies) handleListResults(w http.ResponseWriter, _ *http.Request) {
	listed, err := d.Store.ListPerServer()
	if err != nil {
		d.Logger.Error("result listing failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Result listing failed"})
		return
	}
	writeJSON(w, http.StatusOK, ResultsResponse{Count: len(listed), Results: listed})
}

func (d *Dependencies) handleListCompositionResults(w http.ResponseWriter, _ *http.Request) {
	listed, err := d.Store.ListCompositions()
	if err != nil {
		d.Logger.Error("composition result listing failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Result listing failed"})
		return
	}
	writeJSON(w, http.StatusOK, CompositionResultsResponse{Count: len(listed), Results: listed})
}

func (d *Dependencies) handleStatus(w http.ResponseWriter, r *http.Request) {
	servers, err := d.Registry.ListServers(r.Context())
	if err != nil {
		d.Logger.Warn("registry listing failed for status", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Queue:             d.Queue.Status(),
		RegisteredServers: len(servers),
	})
}

func (d *Dependencies) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, APIInfo{
		Service: "composcan",
		Version: Version,
		Endpoints: map[string]string{
			"POST /v1/analyze":             "queue a per-server declaration scan",
			"POST /v1/analyze-all":         "queue scans for all registered servers",
			"POST /v1/analyze-composition": "queue a cross-server composition scan",
			"GET /v1/results":              "list per-server results",
			"GET /v1/composition-results":  "list composition results",
			"GET /v1/status":               "queue status",
			"GET /healthz":                 "health check",
		},
	})
}

func displayName(entry registry.ServerEntry) string {
	if entry.Name != "" {
		return entry.Name
	}
	return entry.URL
}
