package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/source"
	"github.com/subdash/subdash/internal/store"
)

// fakeSource serves in-memory records with optional delay and failure.
type fakeSource struct {
	actuals   map[model.Month]model.ActualRecord
	customers []model.Customer
	delay     time.Duration
	failMonth model.Month
	ignoreCtx bool
	calls     atomic.Int64
}

func (f *fakeSource) wait(ctx context.Context) error {
	f.calls.Add(1)
	if f.delay == 0 {
		return nil
	}
	if f.ignoreCtx {
		time.Sleep(f.delay)
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeSource) Customers(ctx context.Context) ([]model.Customer, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.customers, nil
}

func (f *fakeSource) Actual(ctx context.Context, m model.Month) (model.ActualRecord, error) {
	if err := f.wait(ctx); err != nil {
		return model.ActualRecord{}, err
	}
	if m == f.failMonth {
		return model.ActualRecord{}, errors.New("connection reset")
	}
	a, ok := f.actuals[m]
	if !ok {
		return model.ActualRecord{}, store.ErrNotFound
	}
	return a, nil
}

func (f *fakeSource) DailyActuals(ctx context.Context, m model.Month) ([]model.DailyActual, error) {
	return nil, f.wait(ctx)
}

func (f *fakeSource) Targets(ctx context.Context, m model.Month) ([]model.TargetRecord, error) {
	return nil, f.wait(ctx)
}

func liveSource() *fakeSource {
	f := &fakeSource{actuals: make(map[model.Month]model.ActualRecord)}
	for i, m := range Window(model.Month{Year: 2026, Month: 3}, 4) {
		f.actuals[m] = model.ActualRecord{Month: m, NewAcquisitions: 10 * (i + 1), MRR: 1000 * float64(i+1)}
	}
	f.customers = []model.Customer{{ID: "a", RegisteredAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Status: model.StatusActive}}
	return f
}

func TestLoad_Live(t *testing.T) {
	src := liveSource()
	months := Window(model.Month{Year: 2026, Month: 4}, 5) // 2025-12 .. 2026-04

	var progress atomic.Int64
	ds := Load(context.Background(), src, months, Options{
		Workers:  3,
		Timeout:  time.Second,
		Progress: func(current, total int) { progress.Store(int64(current)) },
	})

	if ds.Fallback {
		t.Fatalf("Fallback = true, cause %v", ds.Cause)
	}
	if ds.SourceLabel() != "live" {
		t.Errorf("SourceLabel = %q, want live", ds.SourceLabel())
	}
	if len(ds.Actuals) != 4 {
		t.Errorf("len(Actuals) = %d, want 4 (April has none)", len(ds.Actuals))
	}
	if len(ds.Customers) != 1 {
		t.Errorf("len(Customers) = %d, want 1", len(ds.Customers))
	}
	if got := progress.Load(); got != int64(len(months)+1) {
		t.Errorf("final progress = %d, want %d", got, len(months)+1)
	}
	h := ds.History()
	if len(h) != 4 || h[0].Month.String() != "2025-12" || h[3].MRR != 4000 {
		t.Errorf("History = %+v", h)
	}
}

func TestLoad_FailureFallsBack(t *testing.T) {
	src := liveSource()
	src.failMonth = model.Month{Year: 2026, Month: 2}

	ds := Load(context.Background(), src, Window(model.Month{Year: 2026, Month: 3}, 4), Options{Timeout: time.Second})
	if !ds.Fallback {
		t.Fatal("Fallback = false after a failed fetch")
	}
	if ds.Cause == nil {
		t.Error("Cause = nil, want the fetch error")
	}
	if ds.SourceLabel() != "fallback" {
		t.Errorf("SourceLabel = %q, want fallback", ds.SourceLabel())
	}
	if len(ds.History()) < 3 {
		t.Errorf("fallback history has %d months, want at least 3", len(ds.History()))
	}
}

func TestLoad_TimeoutFallsBackWithoutBlocking(t *testing.T) {
	for _, ignore := range []bool{false, true} {
		src := liveSource()
		src.delay = 2 * time.Second
		src.ignoreCtx = ignore

		start := time.Now()
		ds := Load(context.Background(), src, Window(model.Month{Year: 2026, Month: 3}, 3), Options{
			Workers: 4,
			Timeout: 50 * time.Millisecond,
		})
		elapsed := time.Since(start)

		if !ds.Fallback {
			t.Fatalf("ignoreCtx=%v: Fallback = false after timeout", ignore)
		}
		if !errors.Is(ds.Cause, context.DeadlineExceeded) {
			t.Errorf("ignoreCtx=%v: Cause = %v, want deadline exceeded", ignore, ds.Cause)
		}
		if elapsed > time.Second {
			t.Errorf("ignoreCtx=%v: Load took %v, want bounded by the fetch timeout", ignore, elapsed)
		}
	}
}

func TestFallback_ParsesCleanly(t *testing.T) {
	res := source.Parse(fallbackYAML, source.FormatYAML)
	if res.Err != nil {
		t.Fatalf("fallback parse: %v", res.Err)
	}
	if res.ParseErrors != 0 {
		t.Fatalf("fallback has %d invalid entries: %v", res.ParseErrors, res.Problems)
	}

	ds, err := Fallback()
	if err != nil {
		t.Fatalf("Fallback: %v", err)
	}
	if !ds.Fallback {
		t.Error("Fallback dataset not marked")
	}
	if len(ds.Months) != 6 {
		t.Errorf("len(Months) = %d, want 6", len(ds.Months))
	}
}

func TestWindow(t *testing.T) {
	got := Window(model.Month{Year: 2026, Month: 2}, 3)
	want := []string{"2025-12", "2026-01", "2026-02"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("Window[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if Window(model.Month{Year: 2026, Month: 2}, 0) != nil {
		t.Error("Window(n=0) != nil")
	}
}
