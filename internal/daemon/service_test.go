package daemon

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/pipeline"
)

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		NewAcquisitions: 120,
		MRR:             126200,
		ChurnCount:      4,
		Expenses:        820000,
		TotalCustomers:  300,
		DailyReports:    10,
	}
	curr := Snapshot{
		NewAcquisitions: 131,
		MRR:             126250.5,
		ChurnCount:      6,
		Expenses:        820000,
		TotalCustomers:  325,
		DailyReports:    11,
	}

	delta := diffSnapshots(prev, curr)
	if delta.NewAcquisitions != 11 {
		t.Fatalf("NewAcquisitions delta = %d, want 11", delta.NewAcquisitions)
	}
	if math.Abs(delta.MRR-50.5) > 1e-9 {
		t.Fatalf("MRR delta = %.2f, want 50.50", delta.MRR)
	}
	if delta.ChurnCount != 2 {
		t.Fatalf("ChurnCount delta = %d, want 2", delta.ChurnCount)
	}
	if delta.Expenses != 0 {
		t.Fatalf("Expenses delta = %.2f, want 0", delta.Expenses)
	}
	if delta.TotalCustomers != 25 || delta.DailyReports != 1 {
		t.Fatalf("delta = %+v", delta)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("self diff not zero")
	}
}

func TestAppendEventRingBuffer(t *testing.T) {
	s := New(Config{Interval: 10 * time.Second, EventsBuffer: 2}, nil, nil, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendEvent(Event{ID: 1})
	s.appendEvent(Event{ID: 2})
	s.appendEvent(Event{ID: 3})

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestRefreshEvents(t *testing.T) {
	live := &pipeline.Dataset{
		Months:  []model.Month{{Year: 2026, Month: 9}},
		Actuals: map[model.Month]model.ActualRecord{{Year: 2026, Month: 9}: {NewAcquisitions: 10, MRR: 9800}},
	}
	next := live
	s := New(Config{}, func(context.Context) *pipeline.Dataset { return next }, nil, nil)

	s.Refresh(context.Background())
	s.Refresh(context.Background()) // unchanged, no event

	next = &pipeline.Dataset{
		Months:  live.Months,
		Actuals: map[model.Month]model.ActualRecord{{Year: 2026, Month: 9}: {NewAcquisitions: 12, MRR: 9800}},
	}
	s.Refresh(context.Background())

	fb, err := pipeline.Fallback()
	if err != nil {
		t.Fatal(err)
	}
	fb.Cause = errors.New("dial tcp: connection refused")
	next = fb
	s.Refresh(context.Background())

	s.mu.RLock()
	defer s.mu.RUnlock()
	var types []string
	for _, ev := range s.events {
		types = append(types, ev.Type)
	}
	want := []string{EventSnapshot, EventKPIDelta, EventSourceChanged}
	if len(types) != len(want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("event types = %v, want %v", types, want)
		}
	}
	if s.events[1].Delta.NewAcquisitions != 2 {
		t.Errorf("kpi delta = %+v, want 2 acquisitions", s.events[1].Delta)
	}
	if s.refreshCount != 4 {
		t.Errorf("refreshCount = %d, want 4", s.refreshCount)
	}
	if s.lastError == "" {
		t.Error("lastError empty after fallback refresh")
	}
}

func TestConcurrentRefreshKeepsEventOrder(t *testing.T) {
	var calls atomic.Int64
	load := func(context.Context) *pipeline.Dataset {
		n := int(calls.Add(1))
		return &pipeline.Dataset{
			Months:  []model.Month{{Year: 2026, Month: 9}},
			Actuals: map[model.Month]model.ActualRecord{{Year: 2026, Month: 9}: {NewAcquisitions: n}},
		}
	}
	s := New(Config{EventsBuffer: 500}, load, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Refresh(context.Background())
		}()
	}
	wg.Wait()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.events) == 0 {
		t.Fatal("no events published")
	}
	for i := 1; i < len(s.events); i++ {
		if s.events[i].ID <= s.events[i-1].ID {
			t.Fatalf("event %d has id %d after %d", i, s.events[i].ID, s.events[i-1].ID)
		}
	}
	if last := s.events[len(s.events)-1].ID; last != s.nextEventID {
		t.Errorf("last event id = %d, want %d", last, s.nextEventID)
	}
}
