// Package daily splits a monthly plan into daily targets and tracks
// month-to-date progress against them.
package daily

import (
	"errors"
	"math"
	"sort"

	"github.com/subdash/subdash/internal/model"
)

// ErrInvalidDays is returned for a non-positive day count.
var ErrInvalidDays = errors.New("daily: days in month must be positive")

// Targets is the even daily share of one plan month.
type Targets struct {
	Month           model.Month        `json:"month"`
	Days            int                `json:"days"`
	NewAcquisitions int                `json:"new_acquisitions"`
	Revenue         float64            `json:"revenue"`
	Expenses        float64            `json:"expenses"`
	ChannelTarget   map[string]int     `json:"channel_target"`
	ChannelBudget   map[string]float64 `json:"channel_budget"`
}

// Decompose divides plan evenly over days. Count targets round up; currency
// targets use plain division.
func Decompose(plan model.MonthlyPlanRecord, days int) (Targets, error) {
	if days <= 0 {
		return Targets{}, ErrInvalidDays
	}
	t := Targets{
		Month:           plan.Month,
		Days:            days,
		NewAcquisitions: ceilDiv(plan.NewAcquisitions, days),
		Revenue:         plan.MRR / float64(days),
		Expenses:        plan.Expenses / float64(days),
		ChannelTarget:   make(map[string]int, len(plan.Channels)),
		ChannelBudget:   make(map[string]float64, len(plan.Channels)),
	}
	for _, ch := range plan.Channels {
		t.ChannelTarget[ch.Name] = ceilDiv(ch.PlannedAcquisitions, days)
		t.ChannelBudget[ch.Name] = ch.PlannedCost / float64(days)
	}
	return t, nil
}

func ceilDiv(n, d int) int {
	return int(math.Ceil(float64(n) / float64(d)))
}

// Line is one tracked figure's month-to-date state.
type Line struct {
	Target      float64 `json:"target"` // target to date
	Actual      float64 `json:"actual"`
	Achievement float64 `json:"achievement"` // percent; 0 when Target is 0
}

func line(perDay float64, days int, actual float64) Line {
	l := Line{Target: perDay * float64(days), Actual: actual}
	if l.Target != 0 {
		l.Achievement = l.Actual / l.Target * 100
	}
	return l
}

// ChannelProgress is month-to-date progress of one planned channel.
type ChannelProgress struct {
	Name         string `json:"name"`
	Acquisitions Line   `json:"acquisitions"`
	Spend        Line   `json:"spend"`
}

// Progress is month-to-date performance through a given day.
type Progress struct {
	Month           model.Month       `json:"month"`
	ThroughDay      int               `json:"through_day"`
	DaysReported    int               `json:"days_reported"`
	NewAcquisitions Line              `json:"new_acquisitions"`
	Revenue         Line              `json:"revenue"`
	Expenses        Line              `json:"expenses"`
	Channels        []ChannelProgress `json:"channels"`
}

// Accumulate sums reports dated within days 1..throughDay of t.Month and compares
// them with the targets to date. throughDay is clamped to the month. Reports from
// other months are ignored; a date reported twice is counted twice.
func Accumulate(actuals []model.DailyActual, t Targets, throughDay int) Progress {
	throughDay = min(max(throughDay, 0), t.Days)

	var (
		acq      int
		revenue  float64
		expenses float64
		reported = make(map[int]bool)
		chAcq    = make(map[string]int)
		chSpend  = make(map[string]float64)
	)
	for _, a := range actuals {
		if !t.Month.Contains(a.Date) || a.Date.Day() > throughDay {
			continue
		}
		reported[a.Date.Day()] = true
		acq += a.NewAcquisitions
		revenue += a.Revenue
		expenses += a.Expenses
		for _, ch := range a.Channels {
			chAcq[ch.Name] += ch.Acquisitions
			chSpend[ch.Name] += ch.Cost
		}
	}

	p := Progress{
		Month:           t.Month,
		ThroughDay:      throughDay,
		DaysReported:    len(reported),
		NewAcquisitions: line(float64(t.NewAcquisitions), throughDay, float64(acq)),
		Revenue:         line(t.Revenue, throughDay, revenue),
		Expenses:        line(t.Expenses, throughDay, expenses),
	}
	for _, name := range sortedKeys(t.ChannelTarget) {
		p.Channels = append(p.Channels, ChannelProgress{
			Name:         name,
			Acquisitions: line(float64(t.ChannelTarget[name]), throughDay, float64(chAcq[name])),
			Spend:        line(t.ChannelBudget[name], throughDay, chSpend[name]),
		})
	}
	return p
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
