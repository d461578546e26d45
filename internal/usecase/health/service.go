// Package health runs the preflight checks of an indexing run.
package health

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/igsrindex/internal/db"
	"github.com/kailas-cloud/igsrindex/internal/domain"
	"github.com/kailas-cloud/igsrindex/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names.
const (
	Source = "source"
	Store  = "store"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Errors map[string]error
}

// Err joins the failures of the report as run-fatal domain errors, or returns
// nil when every check passed.
func (r Report) Err() error {
	var errs []error
	if err := r.Errors[Source]; err != nil {
		errs = append(errs, err)
	}
	if err := r.Errors[Store]; err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Service coordinates health checks.
type Service struct {
	source SourcePinger
	store  StorePinger
}

// New creates a Service.
func New(source SourcePinger, store StorePinger) *Service {
	return &Service{source: source, store: store}
}

// Check pings the row source and the document store.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 2)
	errs := make(map[string]error)

	if err := s.source.Ping(ctx); err != nil {
		checks[Source] = CheckError
		if !errors.Is(err, domain.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
		}
		errs[Source] = err
	} else {
		checks[Source] = CheckOK
	}

	if err := s.store.Ping(ctx); err != nil {
		checks[Store] = CheckError
		err = db.ToDomain(err)
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		errs[Store] = err
	} else {
		checks[Store] = CheckOK
	}

	status := Healthy
	switch len(errs) {
	case 0:
	case len(checks):
		status = Unhealthy
	default:
		status = Degraded
	}

	l := logger.FromContext(ctx)
	for name, err := range errs {
		l.Warn("health check failed", zap.String("component", name), zap.Error(err))
	}

	return Report{Status: status, Checks: checks, Errors: errs}
}
