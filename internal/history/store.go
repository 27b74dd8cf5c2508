package history

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving generation events.
type Store interface {
	// Append records one event, stamping it with the current time.
	Append(ctx context.Context, jobID, repository, eventType string, payload []byte, metadata map[string]string) error

	// GetByJobID retrieves all events for a specific generation job.
	GetByJobID(ctx context.Context, jobID string) ([]Event, error)

	// GetByRepository retrieves all events for a repository in insertion order.
	GetByRepository(ctx context.Context, repository string) ([]Event, error)

	// GetRange retrieves events whose timestamps fall within [start, end].
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close releases the store's underlying resources.
	Close() error
}
