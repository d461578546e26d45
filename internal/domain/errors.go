package domain

import (
	"errors"
	"fmt"
)

// Run-fatal error classes. Each maps to a distinct operator remediation.
var (
	// ErrIndexExists signals that create mode found an existing index.
	ErrIndexExists = errors.New("index already exists, rerun in update mode")
	// ErrStoreUnavailable signals that the document store could not be reached.
	ErrStoreUnavailable = errors.New("document store unreachable")
	// ErrBulkRejected signals that the store rejected a bulk request as a whole.
	ErrBulkRejected = errors.New("bulk request rejected")
	// ErrInvalidDescriptor signals a malformed settings/mappings descriptor.
	ErrInvalidDescriptor = errors.New("malformed index descriptor")
	// ErrMalformedRow signals a source row that cannot be shaped into a document.
	ErrMalformedRow = errors.New("malformed input row")
	// ErrSourceUnavailable signals a row source failure.
	ErrSourceUnavailable = errors.New("row source unavailable")

	// ErrUnknownKind signals an unsupported entity kind.
	ErrUnknownKind = errors.New("unknown entity kind")
	// ErrInvalidMode signals an unsupported publication mode.
	ErrInvalidMode = errors.New("invalid publication mode")
)

// RowError wraps ErrMalformedRow with the location of the offending value.
type RowError struct {
	Kind     Kind
	Relation string // empty for root rows
	Key      string // root key of the row, if known
	Field    string
	Err      error
}

func (e *RowError) Error() string {
	where := string(e.Kind)
	if e.Relation != "" {
		where += "." + e.Relation
	}
	if e.Key != "" {
		where += fmt.Sprintf("[%s]", e.Key)
	}
	return fmt.Sprintf("%s: %s field %q: %v", ErrMalformedRow.Error(), where, e.Field, e.Err)
}

func (e *RowError) Unwrap() []error { return []error{ErrMalformedRow, e.Err} }
