// Package variance compares a planned month against reported actuals.
package variance

import (
	"fmt"
	"math"

	"github.com/subdash/subdash/internal/model"
)

// Result is the variance of one metric.
type Result struct {
	Metric   model.Metric `json:"metric"`
	Planned  float64      `json:"planned"`
	Actual   float64      `json:"actual"`
	Absolute float64      `json:"absolute"`
	Percent  float64      `json:"percent"`
}

// ChannelResult holds per-channel variances for a channel present in both plan and actuals.
type ChannelResult struct {
	Name         string `json:"name"`
	Acquisitions Result `json:"acquisitions"`
	CPA          Result `json:"cpa"`
	Cost         Result `json:"cost"`
}

// Note describes a data-quality issue found while comparing.
type Note struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
}

func (n Note) String() string {
	return fmt.Sprintf("%s: %s", n.Channel, n.Message)
}

// Report is the full comparison of one month.
type Report struct {
	Month    model.Month     `json:"month"`
	Metrics  []Result        `json:"metrics"`
	Channels []ChannelResult `json:"channels"`
	Notes    []Note          `json:"notes,omitempty"`
}

// Metric returns the result for m.
func (r Report) Metric(m model.Metric) (Result, bool) {
	for _, res := range r.Metrics {
		if res.Metric == m {
			return res, true
		}
	}
	return Result{}, false
}

// Of computes the variance of actual against planned.
func Of(metric model.Metric, planned, actual float64) Result {
	abs := actual - planned
	pct := 0.0
	if planned != 0 {
		pct = abs / planned * 100
	}
	return Result{Metric: metric, Planned: planned, Actual: actual, Absolute: abs, Percent: pct}
}

// Compute compares planned and actual KPIs and their channel breakdowns.
// Channels are matched by exact name; unmatched channels on either side are
// left out of Channels and reported in Notes.
func Compute(planned model.MonthlyPlanRecord, actual model.ActualRecord) Report {
	rep := Report{
		Month: planned.Month,
		Metrics: []Result{
			Of(model.MetricNewAcquisitions, float64(planned.NewAcquisitions), float64(actual.NewAcquisitions)),
			Of(model.MetricMRR, planned.MRR, actual.MRR),
			Of(model.MetricChurnCount, float64(planned.ChurnCount), float64(actual.ChurnCount)),
			Of(model.MetricExpenses, planned.Expenses, actual.Expenses),
		},
	}
	if rep.Month.IsZero() {
		rep.Month = actual.Month
	}

	actuals := make(map[string]model.ChannelActual, len(actual.Channels))
	for _, ch := range actual.Channels {
		prev, dup := actuals[ch.Name]
		if !dup {
			actuals[ch.Name] = ch
			continue
		}
		rep.Notes = append(rep.Notes, Note{Channel: ch.Name, Message: "reported more than once; entries summed"})
		actuals[ch.Name] = mergeChannel(prev, ch)
	}
	matched := make(map[string]bool, len(planned.Channels))
	for _, p := range planned.Channels {
		a, ok := actuals[p.Name]
		if !ok {
			rep.Notes = append(rep.Notes, Note{Channel: p.Name, Message: "planned channel has no reported actuals"})
			continue
		}
		matched[p.Name] = true
		rep.Channels = append(rep.Channels, ChannelResult{
			Name:         p.Name,
			Acquisitions: Of(model.MetricChannelAcquisitions, float64(p.PlannedAcquisitions), float64(a.Acquisitions)),
			CPA:          Of(model.MetricChannelCPA, p.PlannedCPA, a.CPA),
			Cost:         Of(model.MetricChannelCost, p.PlannedCost, a.Cost),
		})
	}
	reported := make(map[string]bool, len(actual.Channels))
	for _, a := range actual.Channels {
		if !matched[a.Name] && !reported[a.Name] {
			rep.Notes = append(rep.Notes, Note{Channel: a.Name, Message: "reported channel is not in the plan"})
		}
		reported[a.Name] = true
	}
	return rep
}

func mergeChannel(a, b model.ChannelActual) model.ChannelActual {
	out := model.ChannelActual{
		Name:         a.Name,
		Acquisitions: a.Acquisitions + b.Acquisitions,
		Cost:         a.Cost + b.Cost,
	}
	if out.Acquisitions > 0 {
		out.CPA = out.Cost / float64(out.Acquisitions)
	}
	return out
}

// ApplyTargets returns a copy of plan with explicit targets for the same period
// replacing projected values. An MRR or expenses target rescales the P&L lines
// proportionally, so Profit stays MRR - Expenses.
func ApplyTargets(plan model.MonthlyPlanRecord, targets []model.TargetRecord) model.MonthlyPlanRecord {
	out := plan
	for _, t := range targets {
		if t.Period != plan.Month {
			continue
		}
		switch t.Metric {
		case model.MetricNewAcquisitions:
			out.NewAcquisitions = int(math.Round(t.Value))
		case model.MetricMRR:
			out.MRR = t.Value
		case model.MetricChurnCount:
			out.ChurnCount = int(math.Round(t.Value))
		case model.MetricExpenses:
			out.Expenses = t.Value
		case model.MetricTotalCustomers:
			out.TotalCustomers = int(math.Round(t.Value))
		}
	}

	out.PL.Revenue = scaleRevenue(plan.PL.Revenue, out.MRR)
	out.PL.Costs = scaleCosts(plan.PL.Costs, out.Expenses)
	out.PL.Settle()
	out.Profit = out.MRR - out.Expenses
	out.CumulativeProfit = plan.CumulativeProfit + out.Profit - plan.Profit
	return out
}

func scaleRevenue(r model.Revenue, total float64) model.Revenue {
	sum := r.MonthlySubscription + r.YearlySubscription
	if sum == 0 {
		return model.Revenue{MonthlySubscription: total, Total: total}
	}
	f := total / sum
	return model.Revenue{
		MonthlySubscription: r.MonthlySubscription * f,
		YearlySubscription:  r.YearlySubscription * f,
		Total:               total,
	}
}

func scaleCosts(c model.Costs, total float64) model.Costs {
	sum := c.ChannelCosts + c.OperatingExpenses
	if sum == 0 {
		return model.Costs{OperatingExpenses: total}
	}
	f := total / sum
	return model.Costs{
		ChannelCosts:      c.ChannelCosts * f,
		OperatingExpenses: c.OperatingExpenses * f,
	}
}
