// Package pipeline loads records from the store and shapes them into the
// monthly series the analytics packages consume.
package pipeline

import (
	"sort"

	"github.com/subdash/subdash/internal/model"
)

// AggregateDaily folds the daily reports dated in m into a monthly actual.
// Revenue is summed into MRR; channel CPA is cost / acquisitions.
func AggregateDaily(daily []model.DailyActual, m model.Month) model.ActualRecord {
	a := model.ActualRecord{Month: m}
	type chTotals struct {
		acq  int
		cost float64
	}
	channels := make(map[string]*chTotals)
	var order []string

	for _, d := range daily {
		if !m.Contains(d.Date) {
			continue
		}
		a.NewAcquisitions += d.NewAcquisitions
		a.MRR += d.Revenue
		a.Expenses += d.Expenses
		for _, ch := range d.Channels {
			t, ok := channels[ch.Name]
			if !ok {
				t = &chTotals{}
				channels[ch.Name] = t
				order = append(order, ch.Name)
			}
			t.acq += ch.Acquisitions
			t.cost += ch.Cost
		}
	}

	sort.Strings(order)
	for _, name := range order {
		t := channels[name]
		ca := model.ChannelActual{Name: name, Acquisitions: t.acq, Cost: t.cost}
		if t.acq > 0 {
			ca.CPA = t.cost / float64(t.acq)
		}
		a.Channels = append(a.Channels, ca)
	}
	return a
}

// ChurnedIn counts customers whose churn date falls in m.
func ChurnedIn(customers []model.Customer, m model.Month) int {
	n := 0
	for _, c := range customers {
		if c.Status == model.StatusChurned && c.ChurnedAt != nil && m.Contains(*c.ChurnedAt) {
			n++
		}
	}
	return n
}

// ActiveAtEnd counts customers registered by the end of m and not churned by then.
func ActiveAtEnd(customers []model.Customer, m model.Month) int {
	end := m.End()
	n := 0
	for _, c := range customers {
		if model.Date(c.RegisteredAt).After(end) {
			continue
		}
		if c.Status == model.StatusChurned && (c.ChurnedAt == nil || !model.Date(*c.ChurnedAt).After(end)) {
			continue
		}
		n++
	}
	return n
}

// MonthActual returns the actuals for m: the stored record when present,
// otherwise an aggregate of the month's daily reports with churn and customer
// counts taken from the roster. ok is false when neither exists.
func (d *Dataset) MonthActual(m model.Month) (a model.ActualRecord, ok bool) {
	if a, ok := d.Actuals[m]; ok {
		return a, true
	}
	daily := d.Daily[m]
	if len(daily) == 0 {
		return model.ActualRecord{Month: m}, false
	}
	a = AggregateDaily(daily, m)
	a.ChurnCount = ChurnedIn(d.Customers, m)
	a.TotalCustomers = ActiveAtEnd(d.Customers, m)
	return a, true
}

// History returns a KPI snapshot for every month in the dataset that has
// actuals, oldest first.
func (d *Dataset) History() []model.KPISnapshot {
	var out []model.KPISnapshot
	for _, m := range d.Months {
		if a, ok := d.MonthActual(m); ok {
			out = append(out, model.SnapshotOf(a))
		}
	}
	return out
}

// LatestMonth returns the most recent month with actuals.
func (d *Dataset) LatestMonth() (model.Month, bool) {
	for i := len(d.Months) - 1; i >= 0; i-- {
		if _, ok := d.MonthActual(d.Months[i]); ok {
			return d.Months[i], true
		}
	}
	return model.Month{}, false
}
