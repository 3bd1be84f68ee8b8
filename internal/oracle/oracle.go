// Package oracle is the boundary to the external reasoning capability
// that performs the actual security judgment. The oracle is opaque: this
// package only guarantees that whatever comes back conforms to the
// requested schema, rejecting anything else with a typed error before
// partially-typed data can propagate.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Request carries one evaluation: prompt text plus the target schema the
// answer must satisfy.
type Request struct {
	System     string
	Prompt     string
	SchemaName string
	Schema     string // JSON Schema the response must conform to
}

// Client is the reasoning oracle collaborator: submit request text and a
// target schema, receive a schema-conformant value or a failure.
type Client interface {
	Evaluate(ctx context.Context, req Request) (json.RawMessage, error)
}

// SchemaViolationError reports oracle output that failed boundary
// validation against the target schema.
type SchemaViolationError struct {
	SchemaName string
	Cause      error
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("oracle output violates schema %s: %v", e.SchemaName, e.Cause)
}

func (e *SchemaViolationError) Unwrap() error { return e.Cause }

// ErrEmptyResponse is returned when the oracle produced no content.
var ErrEmptyResponse = errors.New("oracle returned empty response")
