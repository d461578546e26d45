package db

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/igsrindex/internal/domain"
)

// Sentinel errors for store operations.
var (
	ErrIndexExists = errors.New("db: index already exists")
	ErrUnavailable = errors.New("db: store unavailable")
	ErrRejected    = errors.New("db: request rejected")

	// ErrInvalidSchema means the descriptor cannot be expressed as this store's index schema.
	ErrInvalidSchema = errors.New("db: index schema not supported")
)

// Op constants name the store command or endpoint for error context.
const (
	OpPing        = "PING"
	OpCreateIndex = "FT.CREATE"
	OpIndexInfo   = "FT.INFO"
	OpJSONSet     = "JSON.SET"
	OpDel         = "DEL"
	OpIndexCreate = "indices.create"
	OpIndexExists = "indices.exists"
	OpBulk        = "_bulk"
	OpInfo        = "info"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// ToDomain maps store errors onto the domain's run-fatal classes, keeping the
// original error in the chain.
func ToDomain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrIndexExists):
		return fmt.Errorf("%w: %w", domain.ErrIndexExists, err)
	case errors.Is(err, ErrUnavailable):
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	case errors.Is(err, ErrRejected):
		return fmt.Errorf("%w: %w", domain.ErrBulkRejected, err)
	case errors.Is(err, ErrInvalidSchema):
		return fmt.Errorf("%w: %w", domain.ErrInvalidDescriptor, err)
	default:
		return err
	}
}
