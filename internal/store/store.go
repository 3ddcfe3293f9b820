// Package store persists the optimization history log used by the agent's
// /history endpoint. Nothing in the request path depends on it; failures
// are logged and swallowed.
package store

import (
	"context"
	"time"
)

// Store is the persistence interface for the agent tier.
type Store interface {
	LogOptimization(ctx context.Context, entry OptimizationLog) error
	ListOptimizations(ctx context.Context, limit, offset int) ([]OptimizationLog, error)

	Migrate(ctx context.Context) error
	Close() error
}

// OptimizationLog captures one optimization call for the history view.
type OptimizationLog struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Mode         string    `json:"mode"` // "direct" or "pipeline"
	AddressCount int       `json:"address_count"`
	Outcome      string    `json:"outcome"` // normalization outcome tag
	LatencyMs    int64     `json:"latency_ms"`
	RequestID    string    `json:"request_id,omitempty"`
}
