// Package daemon provides the long-running KPI service and its JSON API.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/pipeline"
	"github.com/subdash/subdash/internal/report"
	"github.com/subdash/subdash/internal/trend"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr           string
	Interval       time.Duration
	EventsBuffer   int
	Params         model.GrowthParameters
	Pricing        model.PlanPricing
	Trend          trend.Options
	ForecastMonths int
}

// Loader fetches a fresh dataset. It never fails; an unreachable store yields
// the fallback dataset.
type Loader func(ctx context.Context) *pipeline.Dataset

// Recorder persists daily reports posted to the API.
type Recorder interface {
	SaveDaily(ctx context.Context, d model.DailyActual) (string, error)
}

// Snapshot is a compact KPI state for status/event payloads.
type Snapshot struct {
	At              time.Time   `json:"at"`
	Source          string      `json:"source"`
	Month           model.Month `json:"month"`
	NewAcquisitions int         `json:"new_acquisitions"`
	MRR             float64     `json:"mrr"`
	ChurnCount      int         `json:"churn_count"`
	Expenses        float64     `json:"expenses"`
	TotalCustomers  int         `json:"total_customers"`
	Customers       int         `json:"customers"`
	DailyReports    int         `json:"daily_reports"`
}

// Delta captures snapshot deltas between refreshes.
type Delta struct {
	NewAcquisitions int     `json:"new_acquisitions"`
	MRR             float64 `json:"mrr"`
	ChurnCount      int     `json:"churn_count"`
	Expenses        float64 `json:"expenses"`
	TotalCustomers  int     `json:"total_customers"`
	Customers       int     `json:"customers"`
	DailyReports    int     `json:"daily_reports"`
}

func (d Delta) isZero() bool {
	return d == Delta{}
}

// Event types.
const (
	EventSnapshot      = "snapshot"
	EventKPIDelta      = "kpi_delta"
	EventSourceChanged = "source_changed"
	EventMonthChanged  = "month_changed"
)

// Event is emitted whenever the KPI snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt          time.Time `json:"started_at"`
	LastRefreshAt      time.Time `json:"last_refresh_at"`
	RefreshIntervalSec int       `json:"refresh_interval_sec"`
	RefreshCount       int64     `json:"refresh_count"`
	Source             string    `json:"source"`
	Summary            Snapshot  `json:"summary"`
	LastError          string    `json:"last_error,omitempty"`
	EventCount         int       `json:"event_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg  Config
	load Loader
	rec  Recorder
	log  *zap.Logger
	app  *fiber.App
	now  func() time.Time

	mu            sync.RWMutex
	startedAt     time.Time
	lastRefreshAt time.Time
	refreshCount  int64
	lastError     string
	dataset       *pipeline.Dataset
	hasSnapshot   bool
	snapshot      Snapshot
	nextEventID   int64
	events        []Event
}

// New returns a daemon service. rec may be nil, in which case POST /v1/daily
// is rejected.
func New(cfg Config, load Loader, rec Recorder, log *zap.Logger) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 60 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.ForecastMonths < 1 {
		cfg.ForecastMonths = 6
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Service{
		cfg:       cfg,
		load:      load,
		rec:       rec,
		log:       log,
		now:       time.Now,
		startedAt: time.Now(),
	}
	s.app = s.routes()
	return s
}

// App exposes the HTTP handler, mainly for tests.
func (s *Service) App() *fiber.App {
	return s.app
}

// Run serves the API and refreshes the dataset until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.app.Listen(s.cfg.Addr); err != nil {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.Refresh(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return s.app.ShutdownWithContext(shutdownCtx)
		case <-ticker.C:
			s.Refresh(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// Refresh reloads the dataset and publishes an event if the KPIs moved.
func (s *Service) Refresh(ctx context.Context) {
	ds := s.load(ctx)
	now := s.now()
	snap := snapshotOf(ds, now)

	var (
		ev      Event
		publish bool
	)

	// The event id and its place in the ring are assigned in one critical
	// section so concurrent refreshes keep the buffer in id order.
	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.dataset = ds
	s.hasSnapshot = true
	s.snapshot = snap
	s.lastRefreshAt = now
	s.refreshCount++
	s.lastError = ""
	if ds.Cause != nil {
		s.lastError = ds.Cause.Error()
	}

	evType := ""
	delta := diffSnapshots(prev, snap)
	switch {
	case !prevExists:
		evType = EventSnapshot
		delta = Delta{}
	case prev.Source != snap.Source:
		evType = EventSourceChanged
	case prev.Month != snap.Month:
		evType = EventMonthChanged
	case !delta.isZero():
		evType = EventKPIDelta
	}
	if evType != "" {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: evType, Timestamp: now, Snapshot: snap, Delta: delta}
		s.appendEvent(ev)
		publish = true
	}
	s.mu.Unlock()

	if ds.Fallback {
		s.log.Warn("serving fallback dataset", zap.Error(ds.Cause))
	}
	if publish {
		s.log.Info("kpi event",
			zap.Int64("id", ev.ID),
			zap.String("type", ev.Type),
			zap.Stringer("month", snap.Month),
			zap.String("source", snap.Source))
	}
}

func snapshotOf(ds *pipeline.Dataset, at time.Time) Snapshot {
	snap := Snapshot{At: at, Source: ds.SourceLabel(), Customers: len(ds.Customers)}
	for _, d := range ds.Daily {
		snap.DailyReports += len(d)
	}
	m, ok := ds.LatestMonth()
	if !ok {
		return snap
	}
	a, _ := ds.MonthActual(m)
	snap.Month = m
	snap.NewAcquisitions = a.NewAcquisitions
	snap.MRR = a.MRR
	snap.ChurnCount = a.ChurnCount
	snap.Expenses = a.Expenses
	snap.TotalCustomers = a.TotalCustomers
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		NewAcquisitions: curr.NewAcquisitions - prev.NewAcquisitions,
		MRR:             curr.MRR - prev.MRR,
		ChurnCount:      curr.ChurnCount - prev.ChurnCount,
		Expenses:        curr.Expenses - prev.Expenses,
		TotalCustomers:  curr.TotalCustomers - prev.TotalCustomers,
		Customers:       curr.Customers - prev.Customers,
		DailyReports:    curr.DailyReports - prev.DailyReports,
	}
}

// appendEvent adds ev to the ring buffer. The caller holds s.mu.
func (s *Service) appendEvent(ev Event) {
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:          s.startedAt,
		LastRefreshAt:      s.lastRefreshAt,
		RefreshIntervalSec: int(s.cfg.Interval.Seconds()),
		RefreshCount:       s.refreshCount,
		Source:             s.snapshot.Source,
		Summary:            s.snapshot,
		LastError:          s.lastError,
		EventCount:         len(s.events),
	}
}

func (s *Service) currentDataset() (*pipeline.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dataset == nil {
		return nil, errNotReady
	}
	return s.dataset, nil
}

var errNotReady = errors.New("dataset not loaded yet")

func (s *Service) inputs(ds *pipeline.Dataset) report.Inputs {
	return report.Inputs{
		Dataset:        ds,
		Params:         s.cfg.Params,
		Pricing:        s.cfg.Pricing,
		Trend:          s.cfg.Trend,
		ForecastMonths: s.cfg.ForecastMonths,
		AsOf:           s.now(),
	}
}
