// Package llm defines the narrow boundary to the hosted text-generation
// model. The rest of the agent tier only sees Generator, so tests swap in
// deterministic stubs.
package llm

import (
	"context"
	"fmt"
)

// Generator issues a single request to a text-generation model.
type Generator interface {
	// Generate sends a system instruction plus a user prompt and returns the
	// raw reply text. The reply is never trusted to be valid JSON.
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// StatusError captures a non-200 HTTP status from the model provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Body)
}
