package indexing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/kailas-cloud/igsrindex/internal/db"
	"github.com/kailas-cloud/igsrindex/internal/db/sqldb"
	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/domain/action"
	"github.com/kailas-cloud/igsrindex/internal/domain/batch"
	"github.com/kailas-cloud/igsrindex/internal/metrics"
	"github.com/kailas-cloud/igsrindex/internal/repository/descriptor"
	"github.com/kailas-cloud/igsrindex/internal/repository/source"
	"github.com/kailas-cloud/igsrindex/internal/repository/source/sourcetest"
)

// --- Fakes ---

type fakeStore struct {
	exists  map[string]bool
	created []*db.IndexDefinition
	actions []action.Action
	fail    map[string]string // id -> reason
	bulkErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{exists: map[string]bool{}, fail: map[string]string{}}
}

func (f *fakeStore) IndexExists(_ context.Context, name string) (bool, error) {
	return f.exists[name], nil
}

func (f *fakeStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	f.created = append(f.created, def)
	f.exists[def.Name] = true
	return nil
}

func (f *fakeStore) Bulk(_ context.Context, actions []action.Action) ([]batch.Result, error) {
	if f.bulkErr != nil {
		return nil, f.bulkErr
	}
	out := make([]batch.Result, len(actions))
	for i, a := range actions {
		f.actions = append(f.actions, a)
		if reason, ok := f.fail[a.ID]; ok {
			out[i] = batch.NewError(a.ID, &batch.ItemError{Status: 400, Type: "mapper_parsing_exception", Reason: reason})
			continue
		}
		out[i] = batch.NewOK(a.ID)
	}
	return out, nil
}

func (f *fakeStore) ids(op action.Operation) []string {
	var out []string
	for _, a := range f.actions {
		if a.Op == op {
			out = append(out, a.ID)
		}
	}
	return out
}

func (f *fakeStore) doc(t *testing.T, id string) string {
	t.Helper()
	for _, a := range f.actions {
		if a.ID == id && a.Doc != nil {
			b, err := json.Marshal(a.Doc)
			if err != nil {
				t.Fatalf("marshal %s: %v", id, err)
			}
			return string(b)
		}
	}
	t.Fatalf("no document %s published", id)
	return ""
}

func setup(t *testing.T) (*Service, *fakeStore, *sql.DB) {
	t.Helper()
	conn := sourcetest.Open(t)
	store := newFakeStore()
	loader := descriptor.New(filepath.Join("..", "..", "..", "mappings"))
	return New(source.New(conn, sqldb.SQLite), store, loader), store, conn
}

func lookup(t *testing.T, raw, path string) any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatal(err)
	}
	var cur any = m
	for _, k := range splitPath(path) {
		cur = cur.(map[string]any)[k]
	}
	return cur
}

func splitPath(p string) []string {
	var out []string
	start := 0
	for i := 0; i < len(p); i++ {
		if p[i] == '.' {
			out = append(out, p[start:i])
			start = i + 1
		}
	}
	return append(out, p[start:])
}

// --- Tests ---

func TestRun_PopulationCreate(t *testing.T) {
	svc, store, _ := setup(t)

	sum, err := svc.Run(context.Background(), Options{Kind: domain.KindPopulation, Mode: domain.ModeCreate})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Index != "population" || sum.RunID == "" {
		t.Errorf("summary = %+v", sum)
	}
	if len(store.created) != 1 || store.created[0].Name != "population" {
		t.Fatalf("created = %v", store.created)
	}
	if got := store.ids(action.OpCreate); !reflect.DeepEqual(got, []string{"GBR", "FIN", "CHB"}) {
		t.Errorf("created ids = %v", got)
	}
	if sum.Built != 3 || sum.Outcome.Succeeded != 3 || sum.Outcome.Failed() != 0 {
		t.Errorf("summary = %+v", sum)
	}

	gbr := store.doc(t, "GBR")
	if n := lookup(t, gbr, "samples"); n != float64(2) {
		t.Errorf("GBR samples = %v", n)
	}
	dc, _ := json.Marshal(lookup(t, gbr, "dataCollections"))
	var wantDC any
	_ = json.Unmarshal([]byte(`{"dataTypes":["alignment","sequence"],"dataReusePolicy":"open",`+
		`"title":"1000 Genomes on GRCh38","alignment":["Exome","Low coverage WGS"],"sequence":["Low coverage WGS"]}`), &wantDC)
	if got := lookup(t, gbr, "dataCollections"); !reflect.DeepEqual(got, wantDC) {
		t.Errorf("GBR dataCollections = %s", dc)
	}
	if got := lookup(t, gbr, "overlappingPopulations.populationElasticId"); got != "FIN" {
		t.Errorf("overlap elasticId = %v", got)
	}
	if got := lookup(t, gbr, "overlappingPopulations.sharedSampleCount"); got != float64(1) {
		t.Errorf("sharedSampleCount = %v", got)
	}

	chb := store.doc(t, "CHB")
	if got := lookup(t, chb, "overlappingPopulations.sharedSamples"); !reflect.DeepEqual(got, []any{}) {
		t.Errorf("CHB sharedSamples = %v", got)
	}
}

func TestRun_CreateOnExistingIndex(t *testing.T) {
	svc, store, _ := setup(t)
	store.exists["population"] = true

	_, err := svc.Run(context.Background(), Options{Kind: domain.KindPopulation, Mode: domain.ModeCreate})
	if !errors.Is(err, domain.ErrIndexExists) {
		t.Fatalf("err = %v, want ErrIndexExists", err)
	}
	if len(store.created) != 0 || len(store.actions) != 0 {
		t.Errorf("create on existing index must not create or publish: created=%d actions=%d",
			len(store.created), len(store.actions))
	}
}

func TestRun_UpdateUsesUpserts(t *testing.T) {
	svc, store, _ := setup(t)

	sum, err := svc.Run(context.Background(), Options{
		Kind: domain.KindDataCollection, Mode: domain.ModeUpdate, Index: "dc_v2", BulkBatchSize: 1,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.created) != 0 {
		t.Error("update mode must not create indices")
	}
	if got := store.ids(action.OpUpdate); !reflect.DeepEqual(got, []string{"1kg_grch38", "hgdp"}) {
		t.Errorf("updated ids = %v", got)
	}
	for _, a := range store.actions {
		if a.Index != "dc_v2" {
			t.Errorf("action index = %q", a.Index)
		}
	}
	if sum.Index != "dc_v2" {
		t.Errorf("summary index = %q", sum.Index)
	}

	dc := store.doc(t, "1kg_grch38")
	if got := lookup(t, dc, "samples.count"); got != float64(2) {
		t.Errorf("samples.count = %v", got)
	}
	if got := lookup(t, dc, "populations.count"); got != float64(2) {
		t.Errorf("populations.count = %v", got)
	}
	if got := lookup(t, dc, "dataTypes"); !reflect.DeepEqual(got, []any{"alignment"}) {
		t.Errorf("dataTypes = %v", got)
	}
	if pubs := lookup(t, dc, "publications").([]any); len(pubs) != 1 {
		t.Errorf("publications = %v", pubs)
	}
}

func TestRun_SkipsRowsWithoutID(t *testing.T) {
	svc, store, _ := setup(t)

	sum, err := svc.Run(context.Background(), Options{Kind: domain.KindSuperpopulation, Mode: domain.ModeUpdate})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Roots != 3 || sum.Built != 2 || sum.Skipped != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if got := store.ids(action.OpUpdate); !reflect.DeepEqual(got, []string{"EUR", "EAS"}) {
		t.Errorf("ids = %v", got)
	}
}

func TestRun_PartialFailure(t *testing.T) {
	svc, store, _ := setup(t)
	store.fail["HG00097"] = "failed to parse field [sex]"

	sum, err := svc.Run(context.Background(), Options{Kind: domain.KindSample, Mode: domain.ModeUpdate})
	if err != nil {
		t.Fatalf("partial failure must not fail the run: %v", err)
	}
	if sum.Outcome.Succeeded != 2 || sum.Outcome.Failed() != 1 {
		t.Fatalf("outcome = %+v", sum.Outcome)
	}
	if f := sum.Outcome.Failures[0]; f.ID() != "HG00097" {
		t.Errorf("failure id = %q", f.ID())
	}
	if got := sum.Status(nil); got != metrics.StatusPartial {
		t.Errorf("Status = %q", got)
	}
}

func TestRun_StoreUnavailable(t *testing.T) {
	svc, store, _ := setup(t)
	store.bulkErr = &db.Error{Op: db.OpBulk, Err: db.ErrUnavailable}

	sum, err := svc.Run(context.Background(), Options{Kind: domain.KindAnalysisGroup, Mode: domain.ModeUpdate})
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
	if sum.Built != 2 {
		t.Errorf("built = %d", sum.Built)
	}
	if got := sum.Status(err); got != metrics.StatusFailed {
		t.Errorf("Status = %q", got)
	}
}

func TestRun_MalformedRowAborts(t *testing.T) {
	svc, store, conn := setup(t)
	if _, err := conn.Exec(`UPDATE population SET latitude = 'north' WHERE population_id = 43`); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Run(context.Background(), Options{Kind: domain.KindPopulation, Mode: domain.ModeUpdate})
	if !errors.Is(err, domain.ErrMalformedRow) {
		t.Fatalf("err = %v, want ErrMalformedRow", err)
	}
	var re *domain.RowError
	if !errors.As(err, &re) || re.Field != "latitude" || re.Key != "43" {
		t.Errorf("row error = %+v", re)
	}
	if len(store.actions) != 0 {
		t.Errorf("nothing may be published after a malformed row, got %d actions", len(store.actions))
	}
}

func TestRun_PruneFiles(t *testing.T) {
	svc, store, conn := setup(t)

	sum, err := svc.Run(context.Background(), Options{Kind: domain.KindFile, Mode: domain.ModeUpdate, Prune: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantUpdates := []string{"1", "2", "3", "5"}
	if got := store.ids(action.OpUpdate); !reflect.DeepEqual(got, wantUpdates) {
		t.Errorf("updates = %v", got)
	}
	if got := store.ids(action.OpDelete); !reflect.DeepEqual(got, []string{"4"}) {
		t.Errorf("deletes = %v", got)
	}
	if sum.Roots != 5 || sum.Built != 4 || sum.Pruned != 1 {
		t.Errorf("summary = %+v", sum)
	}

	f2 := store.doc(t, "2")
	if got := lookup(t, f2, "url"); got != "ftp://igsr/HG00097.cram" {
		t.Errorf("url = %v", got)
	}
	if got := lookup(t, f2, "dataCollections"); !reflect.DeepEqual(got,
		[]any{"1000 Genomes on GRCh38", "Human Genome Diversity Project"}) {
		t.Errorf("dataCollections = %v", got)
	}
	if got := lookup(t, f2, "dataReusePolicy"); got != "open" {
		t.Errorf("dataReusePolicy = %v", got)
	}
	if got := lookup(t, f2, "populations"); !reflect.DeepEqual(got, []any{"British in England and Scotland"}) {
		t.Errorf("populations = %v", got)
	}

	var stale int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM file WHERE in_current_tree = 0 AND foreign_file = 0
		AND indexed_in_elasticsearch = 1`).Scan(&stale); err != nil {
		t.Fatal(err)
	}
	if stale != 0 {
		t.Errorf("indexed flags not synchronized, %d stale rows", stale)
	}
}

func TestRun_PruneKeepsFlagsOnFailedDelete(t *testing.T) {
	svc, store, conn := setup(t)
	store.fail["4"] = "cluster_block_exception"

	sum, err := svc.Run(context.Background(), Options{Kind: domain.KindFile, Mode: domain.ModeUpdate, Prune: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Pruned != 0 {
		t.Errorf("pruned = %d", sum.Pruned)
	}
	var indexed int
	if err := conn.QueryRow(`SELECT indexed_in_elasticsearch FROM file WHERE file_id = 4`).Scan(&indexed); err != nil {
		t.Fatal(err)
	}
	if indexed != 1 {
		t.Error("flag of a file still in the index must stay set")
	}
}

func TestRun_InvalidOptions(t *testing.T) {
	svc, store, _ := setup(t)

	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"unknown kind", Options{Kind: "gene", Mode: domain.ModeUpdate}, domain.ErrUnknownKind},
		{"bad mode", Options{Kind: domain.KindFile, Mode: "merge"}, domain.ErrInvalidMode},
		{"prune other kind", Options{Kind: domain.KindSample, Mode: domain.ModeUpdate, Prune: true}, domain.ErrInvalidMode},
		{"prune create", Options{Kind: domain.KindFile, Mode: domain.ModeCreate, Prune: true}, domain.ErrInvalidMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Run(context.Background(), tt.opts); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if len(store.actions) != 0 || len(store.created) != 0 {
		t.Error("invalid options must not touch the store")
	}
}
