package storage

import "time"

// EventWriter is the interface for writing scan audit events.
// Write() must NEVER block the caller.
type EventWriter interface {
	Write(event *ScanEvent)
	Close()
}

// ScanEvent represents one completed (or failed) analysis run to be persisted.
type ScanEvent struct {
	RequestID            string
	Timestamp            time.Time
	Kind                 string // "intent", "composition"
	Status               string // "queued", "completed", "failed"
	Servers              []string
	ToolCount            int32
	PairwiseCombinations int32
	RiskScore            string
	Action               string
	SurplusCount         int32
	ChainCount           int32
	CrossServerSurpluses int32
	ResultFile           string
	OracleModel          string
	DurationMs           float32
	Error                string
}
