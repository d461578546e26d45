package main

import (
	"context"
	"errors"

	"github.com/kailas-cloud/igsrindex/internal/domain"
)

// Process exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitIndexExists = 3
	exitUnreachable = 4
	exitMalformed   = 5
	exitPartial     = 6
)

// errPartial marks a run that published with per-item failures under --strict.
var errPartial = errors.New("some documents failed to publish")

// usageError marks invalid command lines.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ue usageError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitFailure
	case errors.As(err, &ue),
		errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, domain.ErrUnknownKind):
		return exitUsage
	case errors.Is(err, domain.ErrIndexExists):
		return exitIndexExists
	case errors.Is(err, domain.ErrStoreUnavailable),
		errors.Is(err, domain.ErrSourceUnavailable):
		return exitUnreachable
	case errors.Is(err, domain.ErrMalformedRow),
		errors.Is(err, domain.ErrInvalidDescriptor):
		return exitMalformed
	case errors.Is(err, errPartial):
		return exitPartial
	default:
		return exitFailure
	}
}
