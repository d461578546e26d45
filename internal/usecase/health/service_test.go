package health

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/igsrindex/internal/db"
	"github.com/kailas-cloud/igsrindex/internal/domain"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks[Source] != CheckOK {
		t.Errorf("expected source %q, got %q", CheckOK, r.Checks[Source])
	}
	if r.Checks[Store] != CheckOK {
		t.Errorf("expected store %q, got %q", CheckOK, r.Checks[Store])
	}
	if err := r.Err(); err != nil {
		t.Errorf("Err() = %v", err)
	}
}

func TestCheck_SourceError(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("conn refused")}, &mockPinger{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[Source] != CheckError {
		t.Errorf("expected source %q, got %q", CheckError, r.Checks[Source])
	}
	if !errors.Is(r.Err(), domain.ErrSourceUnavailable) {
		t.Errorf("Err() = %v, want ErrSourceUnavailable", r.Err())
	}
	if errors.Is(r.Err(), domain.ErrStoreUnavailable) {
		t.Error("store is healthy")
	}
}

func TestCheck_StoreError(t *testing.T) {
	storeErr := &db.Error{Op: db.OpPing, Err: db.ErrUnavailable}
	svc := New(&mockPinger{}, &mockPinger{err: storeErr})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[Store] != CheckError {
		t.Errorf("expected store %q, got %q", CheckError, r.Checks[Store])
	}
	if !errors.Is(r.Err(), domain.ErrStoreUnavailable) {
		t.Errorf("Err() = %v, want ErrStoreUnavailable", r.Err())
	}
}

func TestCheck_StoreErrorWithoutClass(t *testing.T) {
	svc := New(&mockPinger{}, &mockPinger{err: errors.New("tls handshake")})
	r := svc.Check(context.Background())

	if !errors.Is(r.Err(), domain.ErrStoreUnavailable) {
		t.Errorf("Err() = %v, want ErrStoreUnavailable", r.Err())
	}
}

func TestCheck_BothFail(t *testing.T) {
	svc := New(
		&mockPinger{err: errors.New("db down")},
		&mockPinger{err: errors.New("es down")},
	)
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks[Source] != CheckError {
		t.Error("expected source error")
	}
	if r.Checks[Store] != CheckError {
		t.Error("expected store error")
	}
	err := r.Err()
	if !errors.Is(err, domain.ErrSourceUnavailable) || !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("Err() = %v, want both classes", err)
	}
}
