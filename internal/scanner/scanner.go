// Package scanner runs the full analysis pipeline for one job: collect
// tool declarations, assemble the oracle request, evaluate, validate the
// verdict, persist the artifact, and emit an audit event.
package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/triage-ai/composcan/internal/collector"
	"github.com/triage-ai/composcan/internal/composer"
	"github.com/triage-ai/composcan/internal/model"
	"github.com/triage-ai/composcan/internal/oracle"
	"github.com/triage-ai/composcan/internal/registry"
	"github.com/triage-ai/composcan/internal/results"
	"github.com/triage-ai/composcan/internal/storage"
)

// Service wires the pipeline stages together. One Service is shared by
// the HTTP control plane and the CLIs.
type Service struct {
	collector *collector.Collector
	builder   *composer.Builder
	oracle    oracle.Client
	store     *results.Store
	events    storage.EventWriter
	model     string
	logger    *zap.Logger
}

type Config struct {
	Collector *collector.Collector
	Builder   *composer.Builder
	Oracle    oracle.Client
	Store     *results.Store
	Events    storage.EventWriter
	// Model is recorded on audit events; the oracle client owns the
	// actual model selection.
	Model  string
	Logger *zap.Logger
}

func New(cfg Config) *Service {
	builder := cfg.Builder
	if builder == nil {
		builder = &composer.Builder{}
	}
	return &Service{
		collector: cfg.Collector,
		builder:   builder,
		oracle:    cfg.Oracle,
		store:     cfg.Store,
		events:    cfg.Events,
		model:     cfg.Model,
		logger:    cfg.Logger,
	}
}

// ScanServer runs a per-server declaration analysis against a live server.
func (s *Service) ScanServer(ctx context.Context, requestID string, entry registry.ServerEntry) error {
	start := time.Now()
	servers := []string{entry.Name}

	analysis, toolCount, path, err := s.scanServer(ctx, entry)
	if err != nil {
		err = fmt.Errorf("ScanServer %s: %w", entry.Name, err)
		s.emitFailure(requestID, "intent", servers, start, err)
		return err
	}

	s.logger.Info("per-server analysis complete",
		zap.String("request_id", requestID),
		zap.String("server", entry.Name),
		zap.Int("tools", toolCount),
		zap.String("risk_score", string(analysis.OverallRiskScore)),
		zap.String("action", string(analysis.Action)),
		zap.String("result", path),
	)
	s.write(&storage.ScanEvent{
		RequestID:   requestID,
		Timestamp:   start,
		Kind:        "intent",
		Status:      "completed",
		Servers:     servers,
		ToolCount:   int32(toolCount),
		RiskScore:   string(analysis.OverallRiskScore),
		Action:      string(analysis.Action),
		ResultFile:  path,
		OracleModel: s.model,
		DurationMs:  sinceMs(start),
	})
	return nil
}

func (s *Service) scanServer(ctx context.Context, entry registry.ServerEntry) (*model.StructuredAnalysis, int, string, error) {
	col := s.collector.CollectLive(ctx, entry.URL, entry.Name)
	if col.Err != nil {
		return nil, 0, "", col.Err
	}
	if len(col.Tools) == 0 {
		return nil, 0, "", fmt.Errorf("server exposes no tools")
	}

	req, err := composer.BuildIntent(col.Tools)
	if err != nil {
		return nil, 0, "", err
	}

	raw, err := s.oracle.Evaluate(ctx, oracleRequest(req))
	if err != nil {
		return nil, 0, "", err
	}

	var analysis model.StructuredAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, 0, "", fmt.Errorf("decode verdict: %w", err)
	}
	if err := analysis.Validate(); err != nil {
		return nil, 0, "", err
	}

	path, err := s.store.SavePerServer(&analysis, entry.URL, entry.Name)
	if err != nil {
		return nil, 0, "", err
	}
	return &analysis, len(col.Tools), path, nil
}

// ScanComposition collects from live servers and/or saved artifacts,
// merges the declarations, and runs the pairwise composition analysis.
func (s *Service) ScanComposition(ctx context.Context, requestID string, servers []registry.ServerEntry, files []string) error {
	start := time.Now()

	cols := make([]collector.Collection, 0, len(servers)+len(files))
	for _, entry := range servers {
		cols = append(cols, s.collector.CollectLive(ctx, entry.URL, entry.Name))
	}
	for _, path := range files {
		cols = append(cols, s.collector.CollectFromFile(path))
	}
	tools, serverNames := collector.Merge(cols)

	analysis, path, err := s.scanComposition(ctx, requestID, tools)
	if err != nil {
		err = fmt.Errorf("ScanComposition: %w", err)
		s.emitFailure(requestID, "composition", serverNames, start, err)
		return err
	}

	s.logger.Info("composition analysis complete",
		zap.String("request_id", requestID),
		zap.Strings("servers", analysis.ServersAnalyzed),
		zap.Int("surpluses", len(analysis.CompositionSurpluses)),
		zap.Int("attack_chains", len(analysis.AttackChains)),
		zap.String("risk_score", string(analysis.CompositionRiskScore)),
		zap.String("action", string(analysis.Action)),
		zap.String("result", path),
	)
	var crossServer int32
	for _, sp := range analysis.CompositionSurpluses {
		if sp.IsCrossServer {
			crossServer++
		}
	}
	s.write(&storage.ScanEvent{
		RequestID:            requestID,
		Timestamp:            start,
		Kind:                 "composition",
		Status:               "completed",
		Servers:              analysis.ServersAnalyzed,
		ToolCount:            int32(analysis.TotalTools),
		PairwiseCombinations: int32(analysis.PairwiseCombinations),
		RiskScore:            string(analysis.CompositionRiskScore),
		Action:               string(analysis.Action),
		SurplusCount:         int32(len(analysis.CompositionSurpluses)),
		ChainCount:           int32(len(analysis.AttackChains)),
		CrossServerSurpluses: crossServer,
		ResultFile:           path,
		OracleModel:          s.model,
		DurationMs:           sinceMs(start),
	})
	return nil
}

func (s *Service) scanComposition(ctx context.Context, requestID string, tools []model.ToolDeclaration) (*model.CompositionAnalysis, string, error) {
	req, err := s.builder.Build(tools)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("composition analysis starting",
		zap.String("request_id", requestID),
		zap.Strings("servers", req.Servers),
		zap.Int("total_tools", req.TotalTools),
		zap.Int("pairwise_combinations", req.PairwiseCombinations),
	)

	raw, err := s.oracle.Evaluate(ctx, oracleRequest(req))
	if err != nil {
		return nil, "", err
	}

	var analysis model.CompositionAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, "", fmt.Errorf("decode verdict: %w", err)
	}

	// The scale fields are facts about the input, not judgments; the
	// builder's values are authoritative over whatever the oracle echoed.
	analysis.ServersAnalyzed = req.Servers
	analysis.TotalTools = req.TotalTools
	analysis.PairwiseCombinations = req.PairwiseCombinations
	analysis.NormalizeCrossServer()

	if err := analysis.Validate(); err != nil {
		return nil, "", err
	}

	path, err := s.store.SaveComposition(&analysis, req.Servers)
	if err != nil {
		return nil, "", err
	}
	return &analysis, path, nil
}

func oracleRequest(req *composer.Request) oracle.Request {
	return oracle.Request{
		System:     req.System,
		Prompt:     req.Prompt,
		SchemaName: req.SchemaName,
		Schema:     req.Schema,
	}
}

func (s *Service) emitFailure(requestID, kind string, servers []string, start time.Time, failure error) {
	s.write(&storage.ScanEvent{
		RequestID:   requestID,
		Timestamp:   start,
		Kind:        kind,
		Status:      "failed",
		Servers:     servers,
		OracleModel: s.model,
		DurationMs:  sinceMs(start),
		Error:       failure.Error(),
	})
}

func (s *Service) write(event *storage.ScanEvent) {
	if s.events != nil {
		s.events.Write(event)
	}
}

func sinceMs(start time.Time) float32 {
	return float32(time.Since(start).Seconds() * 1000)
}
