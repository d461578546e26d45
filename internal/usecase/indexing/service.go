// Package indexing runs one indexing job: read rows, build documents, prepare
// the index and publish.
package indexing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/domain/action"
	"github.com/kailas-cloud/igsrindex/internal/domain/batch"
	"github.com/kailas-cloud/igsrindex/internal/domain/entity"
	"github.com/kailas-cloud/igsrindex/internal/domain/row"
	"github.com/kailas-cloud/igsrindex/internal/logger"
	"github.com/kailas-cloud/igsrindex/internal/metrics"
	"github.com/kailas-cloud/igsrindex/internal/usecase/build"
	"github.com/kailas-cloud/igsrindex/internal/usecase/plan"
	"github.com/kailas-cloud/igsrindex/internal/usecase/preload"
	"github.com/kailas-cloud/igsrindex/internal/usecase/publish"
)

// Options selects what one run indexes and how.
type Options struct {
	Kind  domain.Kind
	Mode  domain.Mode
	Index string // empty uses the kind's default index
	// Prune removes stale files from the index. File kind in update mode only.
	Prune bool

	PreloadBatchSize int
	BulkBatchSize    int
}

// Summary describes a finished run.
type Summary struct {
	RunID    string
	Kind     domain.Kind
	Mode     domain.Mode
	Index    string
	Roots    int
	Built    int
	Skipped  int
	Pruned   int
	Outcome  batch.Outcome
	Duration time.Duration
}

// Status returns the metrics label for the run given its error.
func (s Summary) Status(err error) string {
	switch {
	case err != nil:
		return metrics.StatusFailed
	case s.Outcome.Failed() > 0:
		return metrics.StatusPartial
	default:
		return metrics.StatusOK
	}
}

// Service orchestrates the indexing pipeline.
type Service struct {
	src         RowSource
	store       Store
	descriptors plan.DescriptorLoader
	now         func() time.Time
}

// New creates the indexing service.
func New(src RowSource, store Store, descriptors plan.DescriptorLoader) *Service {
	return &Service{src: src, store: store, descriptors: descriptors, now: time.Now}
}

// Run executes one indexing job. The returned summary is filled as far as the
// run got, also when an error is returned.
func (s *Service) Run(ctx context.Context, opts Options) (Summary, error) {
	start := s.now()
	sum := Summary{RunID: uuid.NewString(), Kind: opts.Kind, Mode: opts.Mode, Index: opts.Index}

	desc, err := entity.Lookup(opts.Kind)
	if err != nil {
		return sum, err
	}
	if sum.Index == "" {
		sum.Index = desc.Index
	}
	if err := validate(opts); err != nil {
		return sum, err
	}

	log := logger.FromContext(ctx).With(
		zap.String("run_id", sum.RunID),
		zap.String("kind", string(sum.Kind)),
		zap.String("mode", string(sum.Mode)),
		zap.String("index", sum.Index),
	)
	ctx = logger.ContextWithLogger(ctx, log)
	log.Info("indexing run started", zap.Bool("prune", opts.Prune))

	err = s.run(ctx, desc, opts, &sum)
	sum.Duration = s.now().Sub(start)

	metrics.RecordBuild(string(sum.Kind), sum.Built, sum.Skipped)
	metrics.RecordPublish(string(sum.Kind), sum.Outcome.Succeeded, sum.Outcome.Failed())
	metrics.RecordRun(string(sum.Kind), string(sum.Mode), sum.Status(err), sum.Duration)

	fields := []zap.Field{
		zap.Int("roots", sum.Roots),
		zap.Int("built", sum.Built),
		zap.Int("skipped", sum.Skipped),
		zap.Int("pruned", sum.Pruned),
		zap.Int("published", sum.Outcome.Succeeded),
		zap.Int("failed", sum.Outcome.Failed()),
		zap.Duration("duration", sum.Duration),
	}
	if err != nil {
		log.Error("indexing run failed", append(fields, zap.Error(err))...)
		return sum, err
	}
	log.Info("indexing run finished", fields...)
	return sum, nil
}

func (s *Service) run(ctx context.Context, desc *entity.Descriptor, opts Options, sum *Summary) error {
	if err := plan.New(s.store, s.descriptors).Prepare(ctx, opts.Kind, sum.Index, opts.Mode); err != nil {
		return err
	}

	roots, err := s.src.Roots(ctx, opts.Kind)
	if err != nil {
		return err
	}
	sum.Roots = len(roots)

	var stale []string
	if opts.Prune {
		stale, err = s.src.StaleFiles(ctx)
		if err != nil {
			return err
		}
		roots = exclude(roots, desc.IDCol, stale)
	}

	rel, err := preload.New(s.src).WithBatchSize(opts.PreloadBatchSize).Load(ctx, desc, rootKeys(roots))
	if err != nil {
		return err
	}

	docs, skipped, err := build.New(desc).BuildAll(ctx, roots, rel)
	sum.Skipped = skipped
	if err != nil {
		return err
	}
	sum.Built = len(docs)

	actions := plan.Actions(opts.Mode, sum.Index, docs)
	actions = append(actions, plan.Deletes(sum.Index, stale)...)

	pub := publish.New(timedWriter{w: s.store, kind: string(opts.Kind)}).WithBatchSize(opts.BulkBatchSize)
	sum.Outcome, err = pub.Publish(ctx, actions)
	if err != nil {
		return err
	}

	if opts.Prune {
		return s.syncFlags(ctx, stale, sum)
	}
	return nil
}

// syncFlags resynchronizes indexed flags once every stale file is gone from
// the index. A failed delete leaves the flags alone so the next run retries it.
func (s *Service) syncFlags(ctx context.Context, stale []string, sum *Summary) error {
	log := logger.FromContext(ctx)

	staleSet := make(map[string]struct{}, len(stale))
	for _, id := range stale {
		staleSet[id] = struct{}{}
	}
	failedDeletes := 0
	for _, f := range sum.Outcome.Failures {
		if _, ok := staleSet[f.ID()]; ok {
			failedDeletes++
		}
	}
	sum.Pruned = len(stale) - failedDeletes
	if failedDeletes > 0 {
		log.Warn("keeping indexed flags, some stale files were not deleted",
			zap.Int("failed_deletes", failedDeletes))
		return nil
	}

	n, err := s.src.SyncIndexedFlags(ctx)
	if err != nil {
		return err
	}
	log.Info("synchronized indexed flags", zap.Int64("rows", n))
	return nil
}

func validate(opts Options) error {
	switch opts.Mode {
	case domain.ModeCreate, domain.ModeUpdate:
	default:
		return fmt.Errorf("%w: %q", domain.ErrInvalidMode, opts.Mode)
	}
	if !opts.Prune {
		return nil
	}
	if opts.Kind != domain.KindFile {
		return fmt.Errorf("%w: prune applies to the file kind only", domain.ErrInvalidMode)
	}
	if opts.Mode != domain.ModeUpdate {
		return fmt.Errorf("%w: prune requires update mode", domain.ErrInvalidMode)
	}
	return nil
}

func rootKeys(roots []row.Row) []string {
	keys := make([]string, 0, len(roots))
	for _, r := range roots {
		if k, ok := r.Key(entity.KeyCol); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// exclude drops roots whose document id is in ids.
func exclude(roots []row.Row, idCol int, ids []string) []row.Row {
	if len(ids) == 0 {
		return roots
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	out := roots[:0:0]
	for _, r := range roots {
		if id, ok := r.Key(idCol); ok {
			if _, gone := drop[id]; gone {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// timedWriter observes the duration of every bulk request.
type timedWriter struct {
	w    publish.BulkWriter
	kind string
}

func (t timedWriter) Bulk(ctx context.Context, actions []action.Action) ([]batch.Result, error) {
	start := time.Now()
	res, err := t.w.Bulk(ctx, actions)
	metrics.BulkRequestDuration.WithLabelValues(t.kind).Observe(time.Since(start).Seconds())
	return res, err
}
