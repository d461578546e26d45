// Package elasticsearch implements db.Store on an Elasticsearch cluster.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/igsrindex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for an Elasticsearch store. Refresh is
// the bulk refresh policy: "", "true", "false" or "wait_for".
type Config struct {
	Addrs     []string
	Username  string
	Password  string
	Refresh   string
	Transport http.RoundTripper
}

// Store implements db.Store via the official Elasticsearch client.
type Store struct {
	client  *elasticsearch.Client
	refresh string
}

// NewStore creates an Elasticsearch store. No request is made until first use.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	esCfg := elasticsearch.Config{
		Addresses: cfg.Addrs,
		Username:  cfg.Username,
		Password:  cfg.Password,
	}
	if cfg.Transport != nil {
		esCfg.Transport = cfg.Transport
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Store{client: client, refresh: cfg.Refresh}, nil
}

// Ping checks connectivity with the cluster info endpoint.
func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Info(s.client.Info.WithContext(ctx))
	if err != nil {
		return &db.Error{Op: db.OpInfo, Err: errors.Join(db.ErrUnavailable, err)}
	}
	defer drain(res)
	if res.IsError() {
		return &db.Error{Op: db.OpInfo, Err: errors.Join(db.ErrUnavailable, responseError(res))}
	}
	return nil
}

// Close is a no-op: the HTTP transport holds no resources needing release.
func (s *Store) Close() {}

// WaitForReady polls Ping until the cluster responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitForReady(ctx, s.Ping, timeout)
}

// IndexExists reports whether name exists: 200 means present, 404 absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := s.client.Indices.Exists([]string{name}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, &db.Error{Op: db.OpIndexExists, Err: errors.Join(db.ErrUnavailable, err)}
	}
	defer drain(res)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, &db.Error{Op: db.OpIndexExists, Err: classify(res)}
	}
}

// CreateIndex creates def.Name with def.Body as settings/mappings.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	opts := []func(*esapi.IndicesCreateRequest){s.client.Indices.Create.WithContext(ctx)}
	if len(def.Body) > 0 {
		opts = append(opts, s.client.Indices.Create.WithBody(bytes.NewReader(def.Body)))
	}

	res, err := s.client.Indices.Create(def.Name, opts...)
	if err != nil {
		return &db.Error{Op: db.OpIndexCreate, Err: errors.Join(db.ErrUnavailable, err)}
	}
	defer drain(res)

	if !res.IsError() {
		return nil
	}
	e := responseError(res)
	if e.Type == "resource_already_exists_exception" {
		return db.ErrIndexExists
	}
	return &db.Error{Op: db.OpIndexCreate, Err: errors.Join(statusClass(res.StatusCode), e)}
}

// apiError is the error object of an Elasticsearch error response.
type apiError struct {
	Status int    `json:"-"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func (e *apiError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("status %d", e.Status)
	}
	return fmt.Sprintf("%s (%d): %s", e.Type, e.Status, e.Reason)
}

func responseError(res *esapi.Response) *apiError {
	var body struct {
		Error json.RawMessage `json:"error"`
	}
	e := &apiError{Status: res.StatusCode}
	if res.Body == nil {
		return e
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil || len(body.Error) == 0 {
		return e
	}
	// Older clusters report the error as a bare string.
	if err := json.Unmarshal(body.Error, e); err != nil {
		_ = json.Unmarshal(body.Error, &e.Reason)
	}
	return e
}

func classify(res *esapi.Response) error {
	return errors.Join(statusClass(res.StatusCode), responseError(res))
}

func statusClass(code int) error {
	if code >= http.StatusInternalServerError || code == http.StatusTooManyRequests {
		return db.ErrUnavailable
	}
	return db.ErrRejected
}

func drain(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
