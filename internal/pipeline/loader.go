package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/store"
)

// Source is the record store the loader reads from. Actual returns
// store.ErrNotFound for months without stored actuals.
type Source interface {
	Customers(ctx context.Context) ([]model.Customer, error)
	Actual(ctx context.Context, m model.Month) (model.ActualRecord, error)
	DailyActuals(ctx context.Context, m model.Month) ([]model.DailyActual, error)
	Targets(ctx context.Context, m model.Month) ([]model.TargetRecord, error)
}

// ProgressFunc is called during loading to report progress.
// current is the number of fetches finished so far, total is the total count.
type ProgressFunc func(current, total int)

// Options control a load.
type Options struct {
	Workers  int           // concurrent fetches; defaults to 4
	Timeout  time.Duration // bounded wait per fetch; defaults to 5s
	Progress ProgressFunc
	Logger   *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = 4
	}
	if o.Timeout <= 0 {
		o.Timeout = 5 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Dataset is everything the dashboards compute from.
type Dataset struct {
	Months    []model.Month
	Customers []model.Customer
	Actuals   map[model.Month]model.ActualRecord
	Daily     map[model.Month][]model.DailyActual
	Targets   map[model.Month][]model.TargetRecord
	LoadedAt  time.Time

	// Fallback is set when live data could not be loaded and the built-in
	// default dataset is being shown instead. Cause says why.
	Fallback bool
	Cause    error
}

func newDataset(months []model.Month) *Dataset {
	return &Dataset{
		Months:  months,
		Actuals: make(map[model.Month]model.ActualRecord),
		Daily:   make(map[model.Month][]model.DailyActual),
		Targets: make(map[model.Month][]model.TargetRecord),
	}
}

// SourceLabel describes where the data came from.
func (d *Dataset) SourceLabel() string {
	if d.Fallback {
		return "fallback"
	}
	return "live"
}

// monthData is the result of fetching one month.
type monthData struct {
	actual    model.ActualRecord
	hasActual bool
	daily     []model.DailyActual
	targets   []model.TargetRecord
}

// Load fetches customers and per-month records for months from src. Fetches
// run concurrently on a bounded worker pool and each waits at most
// opts.Timeout. If any fetch fails or times out, Load returns the fallback
// dataset instead of an error.
func Load(ctx context.Context, src Source, months []model.Month, opts Options) *Dataset {
	opts = opts.withDefaults()
	total := len(months) + 1 // +1 for the customer roster

	perMonth := make([]monthData, len(months))
	errs := make([]error, total)
	var customers []model.Customer

	numWorkers := min(opts.Workers, total)
	work := make(chan int, total)
	for i := 0; i < total; i++ {
		work <- i
	}
	close(work)

	var (
		wg        sync.WaitGroup
		processed atomic.Int64
	)
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				if idx == len(months) {
					customers, errs[idx] = fetchWithin(ctx, opts.Timeout, src.Customers)
				} else {
					m := months[idx]
					perMonth[idx], errs[idx] = fetchWithin(ctx, opts.Timeout, func(ctx context.Context) (monthData, error) {
						return fetchMonth(ctx, src, m)
					})
				}
				n := processed.Add(1)
				if opts.Progress != nil {
					opts.Progress(int(n), total)
				}
			}
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		opts.Logger.Warn("live data unavailable, using fallback dataset", zap.Error(err))
		fb, fbErr := Fallback()
		if fbErr != nil {
			opts.Logger.Error("fallback dataset unusable", zap.Error(fbErr))
			fb = newDataset(nil)
			fb.Fallback = true
			err = errors.Join(err, fbErr)
		}
		fb.Cause = err
		fb.LoadedAt = time.Now()
		return fb
	}

	ds := newDataset(months)
	ds.Customers = customers
	ds.LoadedAt = time.Now()
	for i, m := range months {
		md := perMonth[i]
		if md.hasActual {
			ds.Actuals[m] = md.actual
		}
		if len(md.daily) > 0 {
			ds.Daily[m] = md.daily
		}
		if len(md.targets) > 0 {
			ds.Targets[m] = md.targets
		}
	}
	opts.Logger.Debug("loaded live dataset",
		zap.Int("months", len(months)),
		zap.Int("customers", len(customers)),
		zap.Int("actual_months", len(ds.Actuals)))
	return ds
}

func fetchMonth(ctx context.Context, src Source, m model.Month) (monthData, error) {
	var md monthData

	a, err := src.Actual(ctx, m)
	switch {
	case err == nil:
		md.actual, md.hasActual = a, true
	case errors.Is(err, store.ErrNotFound):
	default:
		return md, fmt.Errorf("actuals %s: %w", m, err)
	}

	if md.daily, err = src.DailyActuals(ctx, m); err != nil {
		return md, fmt.Errorf("daily reports %s: %w", m, err)
	}
	if md.targets, err = src.Targets(ctx, m); err != nil {
		return md, fmt.Errorf("targets %s: %w", m, err)
	}
	return md, nil
}

// fetchWithin runs fn and stops waiting for it after d. fn receives a context
// that is cancelled at the deadline; a fetch that ignores it is abandoned and
// its result discarded.
func fetchWithin[T any](parent context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("fetch abandoned: %w", ctx.Err())
	}
}

// Window returns the n months ending at end, oldest first.
func Window(end model.Month, n int) []model.Month {
	if n <= 0 {
		return nil
	}
	return model.MonthsBetween(end.AddMonths(-(n - 1)), end)
}
