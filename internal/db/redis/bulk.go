package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/igsrindex/internal/db"
	"github.com/kailas-cloud/igsrindex/internal/domain/action"
	"github.com/kailas-cloud/igsrindex/internal/domain/batch"
)

// Bulk applies actions in a single DoMulti round-trip.
// create maps to JSON.SET NX, update replaces the whole document, delete maps to DEL.
func (s *Store) Bulk(ctx context.Context, actions []action.Action) ([]batch.Result, error) {
	if len(actions) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, len(actions))
	for i, a := range actions {
		cmd, err := s.command(a)
		if err != nil {
			return nil, err
		}
		cmds[i] = cmd
	}

	results := make([]batch.Result, len(actions))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		a := actions[i]
		err := res.Error()
		switch {
		case err == nil:
			results[i] = batch.NewOK(a.ID)
		case rueidis.IsRedisNil(err) && a.Op == action.OpCreate:
			results[i] = batch.NewError(a.ID, &batch.ItemError{
				Type:   "document_exists",
				Reason: fmt.Sprintf("key %s already exists", s.key(a.Index, a.ID)),
			})
		case isServerErr(err):
			results[i] = batch.NewError(a.ID, &batch.ItemError{Type: string(a.Op), Reason: err.Error()})
		default:
			return nil, &db.Error{Op: opName(a.Op), Err: fmt.Errorf("%w: %w", db.ErrUnavailable, err)}
		}
	}
	return results, nil
}

func (s *Store) command(a action.Action) (rueidis.Completed, error) {
	key := s.key(a.Index, a.ID)
	switch a.Op {
	case action.OpDelete:
		return s.b().Del().Key(key).Build(), nil
	case action.OpCreate, action.OpUpdate:
		data, err := json.Marshal(a.Doc)
		if err != nil {
			return rueidis.Completed{}, fmt.Errorf("encode %s: %w", a.ID, err)
		}
		args := []string{"$", string(data)}
		if a.Op == action.OpCreate {
			args = append(args, "NX")
		}
		return s.b().Arbitrary("JSON.SET").Keys(key).Args(args...).Build(), nil
	default:
		return rueidis.Completed{}, fmt.Errorf("unsupported operation %q", a.Op)
	}
}

func isServerErr(err error) bool {
	_, ok := rueidis.IsRedisErr(err)
	return ok
}

func opName(op action.Operation) string {
	if op == action.OpDelete {
		return db.OpDel
	}
	return db.OpJSONSet
}
