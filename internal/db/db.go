package db

import (
	"context"
	"errors"
	"time"

	"github.com/kailas-cloud/igsrindex/internal/domain/action"
	"github.com/kailas-cloud/igsrindex/internal/domain/batch"
)

// Store is the document store facade combining all sub-interfaces.
type Store interface {
	Pinger
	IndexManager
	BulkWriter
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// BulkWriter submits one chunk of actions and reports a result per action,
// in action order. A non-nil error means the chunk as a whole failed.
type BulkWriter interface {
	Bulk(ctx context.Context, actions []action.Action) ([]batch.Result, error)
}

// WaitForReady polls ping until it succeeds or timeout expires.
func WaitForReady(ctx context.Context, ping func(context.Context) error, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	var last error
	for {
		select {
		case <-ctx.Done():
			if last != nil {
				return &Error{Op: OpPing, Err: errors.Join(ErrUnavailable, last)}
			}
			return &Error{Op: OpPing, Err: errors.Join(ErrUnavailable, ctx.Err())}
		case <-ticker.C:
			if last = ping(ctx); last == nil {
				return nil
			}
		}
	}
}
