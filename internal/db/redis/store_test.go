package redis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/igsrindex/internal/db"
	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/domain/action"
	"github.com/kailas-cloud/igsrindex/internal/domain/batch"
	"github.com/kailas-cloud/igsrindex/internal/domain/document"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c, "igsr:")
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, "igsr:")
	err := s.Ping(context.Background())
	if !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestKey(t *testing.T) {
	s := NewStoreForTest(nil, "igsr:")
	if got := s.key("population", "GBR"); got != "igsr:population:GBR" {
		t.Errorf("key = %q", got)
	}
}

// --- index.go tests ---

func TestCreateIndex_DefaultPrefix(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.CREATE", "population", "ON", "JSON", "PREFIX", "1", "igsr:population:",
			"SCHEMA", "$.code", "AS", "code", "TAG", "SEPARATOR", "\x1f", "CASESENSITIVE",
		)).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c, "igsr:")
	def := db.NewIndex("population").OnJSON().TagAs("$.code", "code").MustBuild()
	if err := s.CreateIndex(context.Background(), def); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(def.Prefixes) != 0 {
		t.Error("CreateIndex mutated the definition")
	}
}

func TestCreateIndex_FromDescriptor(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.CREATE", "sample", "ON", "JSON", "PREFIX", "1", "igsr:sample:",
			"SCHEMA", "$.name", "AS", "name", "TAG", "SEPARATOR", "\x1f", "CASESENSITIVE",
			"$.populations[*].code", "AS", "populations_code", "TAG", "SEPARATOR", "\x1f", "CASESENSITIVE",
		)).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c, "igsr:")
	def, err := db.NewIndexDefinition("sample", []byte(`{"mappings":{"properties":{
		"name":{"type":"keyword"},
		"created":{"type":"date"},
		"populations":{"type":"nested","properties":{"code":{"type":"keyword"}}}}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.CreateIndex(context.Background(), def); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateIndex_UnsupportedSchema(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	s := NewStoreForTest(c, "igsr:")
	def, err := db.NewIndexDefinition("sample", []byte(`{"mappings":{"properties":{"created":{"type":"date"}}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = s.CreateIndex(context.Background(), def)
	if !errors.Is(err, db.ErrInvalidSchema) {
		t.Fatalf("expected ErrInvalidSchema, got %v", err)
	}
	if !errors.Is(db.ToDomain(err), domain.ErrInvalidDescriptor) {
		t.Errorf("ToDomain(%v) must classify as an invalid descriptor", err)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	s := NewStoreForTest(c, "")
	idx := &db.IndexDefinition{
		Name:   "sample",
		Fields: []db.IndexField{{Name: "$.name", Type: db.IndexFieldTag}},
	}
	err := s.CreateIndex(context.Background(), idx)
	if !errors.Is(err, db.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestCreateIndex_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, "")
	idx := &db.IndexDefinition{
		Name:   "sample",
		Fields: []db.IndexField{{Name: "$.name", Type: db.IndexFieldTag}},
	}
	if err := s.CreateIndex(context.Background(), idx); !isDBError(err) {
		t.Fatalf("expected db.Error, got %v", err)
	}
}

func TestIndexExists_True(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "file")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("index_name"), mock.RedisString("file"))))

	s := NewStoreForTest(c, "")
	exists, err := s.IndexExists(context.Background(), "file")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected true")
	}
}

func TestIndexExists_False(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "file")).
		Return(mock.Result(mock.RedisError("Unknown index name")))

	s := NewStoreForTest(c, "")
	exists, err := s.IndexExists(context.Background(), "file")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected false")
	}
}

func TestIndexExists_Unavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "file")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c, "")
	_, err := s.IndexExists(context.Background(), "file")
	if !errors.Is(err, db.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestBuildCreateArgs_Validation(t *testing.T) {
	if _, err := buildCreateArgs(&db.IndexDefinition{}); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := buildCreateArgs(&db.IndexDefinition{Name: "x"}); err == nil {
		t.Error("expected error for no fields")
	}
}

// --- bulk.go tests ---

func testDoc(id string) document.Document {
	body := document.NewRecord("code")
	body.Set("code", id)
	return document.Document{ID: id, Body: body}
}

func TestBulk_MixedResults(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("JSON.SET", "igsr:population:GBR", "$", `{"code":"GBR"}`, "NX"),
			mock.Match("JSON.SET", "igsr:population:FIN", "$", `{"code":"FIN"}`, "NX"),
			mock.Match("JSON.SET", "igsr:population:CHB", "$", `{"code":"CHB"}`, "NX"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString("OK")),
			mock.Result(mock.RedisNil()),
			mock.Result(mock.RedisString("OK")),
		})

	s := NewStoreForTest(c, "igsr:")
	results, err := s.Bulk(context.Background(), []action.Action{
		action.Create("population", testDoc("GBR")),
		action.Create("population", testDoc("FIN")),
		action.Create("population", testDoc("CHB")),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if results[0].Status() != batch.StatusOK || results[2].Status() != batch.StatusOK {
		t.Errorf("expected items 1 and 3 ok, got %v, %v", results[0].Status(), results[2].Status())
	}
	if results[1].Status() != batch.StatusError || results[1].ID() != "FIN" {
		t.Fatalf("expected FIN failure, got %+v", results[1])
	}
	var ie *batch.ItemError
	if !errors.As(results[1].Err(), &ie) || ie.Type != "document_exists" {
		t.Errorf("err = %v", results[1].Err())
	}
}

func TestBulk_UpdateAndDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(),
			mock.Match("JSON.SET", "file:ftp://a.cram", "$", `{"code":"ftp://a.cram"}`),
			mock.Match("DEL", "file:ftp://b.cram"),
		).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString("OK")),
			mock.Result(mock.RedisInt64(0)),
		})

	s := NewStoreForTest(c, "")
	results, err := s.Bulk(context.Background(), []action.Action{
		action.Update("file", testDoc("ftp://a.cram")),
		action.Delete("file", "ftp://b.cram"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, r := range results {
		if r.Status() != batch.StatusOK {
			t.Errorf("%s: %v", r.ID(), r.Err())
		}
	}
}

func TestBulk_ServerErrorIsItemFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisError("ERR new objects must be created at the root")),
		})

	s := NewStoreForTest(c, "")
	results, err := s.Bulk(context.Background(), []action.Action{action.Update("sample", testDoc("HG00096"))})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Status() != batch.StatusError || !strings.Contains(results[0].Err().Error(), "root") {
		t.Errorf("result = %+v", results[0])
	}
}

func TestBulk_TransportError(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{mock.ErrorResult(context.DeadlineExceeded)})

	s := NewStoreForTest(c, "")
	_, err := s.Bulk(context.Background(), []action.Action{action.Update("sample", testDoc("HG00096"))})
	if !errors.Is(err, db.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestBulk_Empty(t *testing.T) {
	s := NewStoreForTest(nil, "")
	results, err := s.Bulk(context.Background(), nil)
	if err != nil || results != nil {
		t.Fatalf("got %v, %v", results, err)
	}
}

func isDBError(err error) bool {
	var dbErr *db.Error
	return errors.As(err, &dbErr)
}
