// Package action describes the store operations produced by the publication planner.
package action

import "github.com/kailas-cloud/igsrindex/internal/domain/document"

// Operation is a per-document store operation.
type Operation string

// Supported operations.
const (
	OpCreate Operation = "create" // fails if the id already exists
	OpUpdate Operation = "update" // partial update, upserting when absent
	OpDelete Operation = "delete"
)

// Action is one bulk entry: operation, target index and document.
type Action struct {
	Op    Operation
	Index string
	ID    string
	Doc   *document.Record // nil for deletes
}

// Create builds a create action for doc.
func Create(index string, doc document.Document) Action {
	return Action{Op: OpCreate, Index: index, ID: doc.ID, Doc: doc.Body}
}

// Update builds an upserting update action for doc.
func Update(index string, doc document.Document) Action {
	return Action{Op: OpUpdate, Index: index, ID: doc.ID, Doc: doc.Body}
}

// Delete builds a delete action for id.
func Delete(index, id string) Action {
	return Action{Op: OpDelete, Index: index, ID: id}
}
