package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/igsrindex/internal/db"
	"github.com/kailas-cloud/igsrindex/internal/domain/action"
	"github.com/kailas-cloud/igsrindex/internal/domain/batch"
)

type bulkMeta struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type upsertBody struct {
	Doc         any  `json:"doc"`
	DocAsUpsert bool `json:"doc_as_upsert"`
}

type bulkItem struct {
	ID     string    `json:"_id"`
	Status int       `json:"status"`
	Error  *apiError `json:"error,omitempty"`
}

type bulkResponse struct {
	Errors bool                  `json:"errors"`
	Items  []map[string]bulkItem `json:"items"`
}

// Bulk submits actions as one _bulk request and maps every response item
// back to its action. Deleting an absent document counts as success.
func (s *Store) Bulk(ctx context.Context, actions []action.Action) ([]batch.Result, error) {
	if len(actions) == 0 {
		return nil, nil
	}

	body, err := encodeBulk(actions)
	if err != nil {
		return nil, err
	}

	opts := []func(*esapi.BulkRequest){s.client.Bulk.WithContext(ctx)}
	if s.refresh != "" {
		opts = append(opts, s.client.Bulk.WithRefresh(s.refresh))
	}
	res, err := s.client.Bulk(bytes.NewReader(body), opts...)
	if err != nil {
		return nil, &db.Error{Op: db.OpBulk, Err: errors.Join(db.ErrUnavailable, err)}
	}
	defer drain(res)
	if res.IsError() {
		return nil, &db.Error{Op: db.OpBulk, Err: classify(res)}
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return nil, &db.Error{Op: db.OpBulk, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(br.Items) != len(actions) {
		return nil, &db.Error{
			Op:  db.OpBulk,
			Err: fmt.Errorf("response has %d items for %d actions", len(br.Items), len(actions)),
		}
	}

	results := make([]batch.Result, len(actions))
	for i, a := range actions {
		item := br.Items[i][string(a.Op)]
		results[i] = itemResult(a, item)
	}
	return results, nil
}

func itemResult(a action.Action, item bulkItem) batch.Result {
	switch {
	case item.Status >= 200 && item.Status < 300:
		return batch.NewOK(a.ID)
	case a.Op == action.OpDelete && item.Status == http.StatusNotFound:
		return batch.NewOK(a.ID)
	}
	ie := &batch.ItemError{Status: item.Status}
	if item.Error != nil {
		ie.Type = item.Error.Type
		ie.Reason = item.Error.Reason
	}
	return batch.NewError(a.ID, ie)
}

// encodeBulk renders actions as newline-delimited JSON.
func encodeBulk(actions []action.Action) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for _, a := range actions {
		meta := map[string]bulkMeta{string(a.Op): {Index: a.Index, ID: a.ID}}
		if err := enc.Encode(meta); err != nil {
			return nil, fmt.Errorf("encode %s meta: %w", a.ID, err)
		}
		var err error
		switch a.Op {
		case action.OpCreate:
			err = enc.Encode(a.Doc)
		case action.OpUpdate:
			err = enc.Encode(upsertBody{Doc: a.Doc, DocAsUpsert: true})
		case action.OpDelete:
		default:
			return nil, fmt.Errorf("unsupported operation %q", a.Op)
		}
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", a.ID, err)
		}
	}
	return buf.Bytes(), nil
}
