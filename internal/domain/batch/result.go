// Package batch models per-item outcomes of a bulk publication.
package batch

import "fmt"

// ItemStatus is the processing outcome of a single bulk item.
type ItemStatus string

// Bulk item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// ItemError is the store-reported reason a single item failed.
type ItemError struct {
	Status int    // store status code, 0 when not applicable
	Type   string // store error type, e.g. version_conflict_engine_exception
	Reason string
}

func (e *ItemError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Type, e.Status, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Reason)
}

// Result is the outcome of publishing one document action.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful item result.
func NewOK(id string) Result { return Result{id: id, status: StatusOK} }

// NewError creates a failed item result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the document identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Outcome aggregates the item results of one publication run.
type Outcome struct {
	Total     int
	Succeeded int
	Failures  []Result
}

// Add records one item result.
func (o *Outcome) Add(r Result) {
	o.Total++
	if r.Status() == StatusOK {
		o.Succeeded++
		return
	}
	o.Failures = append(o.Failures, r)
}

// Merge folds other into o.
func (o *Outcome) Merge(other Outcome) {
	o.Total += other.Total
	o.Succeeded += other.Succeeded
	o.Failures = append(o.Failures, other.Failures...)
}

// Failed returns the number of failed items.
func (o Outcome) Failed() int { return len(o.Failures) }
