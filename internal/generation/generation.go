// Package generation provides the content-generation collaborator: a
// thin wrapper over the Anthropic API that turns an opaque instruction
// string plus context into one JSON payload. The pipeline treats this
// package as an external capability behind the Generator interface.
package generation

import (
	"context"
	"fmt"
)

// RawPayload is one generated JSON object before repair and validation.
type RawPayload = map[string]any

// Request is one generation call.
type Request struct {
	// System is the session-level system prompt.
	System string
	// Instructions is the opaque stage instruction string.
	Instructions string
	// Context is the accumulated-context slice relevant to the stage,
	// serialized into the prompt as JSON. May be nil.
	Context map[string]any
	// MaxOutputTokens bounds the response size.
	MaxOutputTokens int64
}

// Generator is the capability the pipeline invokes once per stage attempt.
type Generator interface {
	Generate(ctx context.Context, req Request) (RawPayload, error)
}

// GenerationError is a transient upstream failure. It is the retryable
// error kind: the retry controller re-attempts these up to its bound.
type GenerationError struct {
	// Op names the failing operation.
	Op string
	// Err is the underlying cause.
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
