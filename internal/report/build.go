// Package report assembles every dashboard view for one month and renders it
// as Markdown or HTML.
package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/subdash/subdash/internal/cohort"
	"github.com/subdash/subdash/internal/daily"
	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/pipeline"
	"github.com/subdash/subdash/internal/projection"
	"github.com/subdash/subdash/internal/trend"
	"github.com/subdash/subdash/internal/variance"
)

// Inputs is what a report is computed from.
type Inputs struct {
	Dataset        *pipeline.Dataset
	Params         model.GrowthParameters
	Pricing        model.PlanPricing
	Trend          trend.Options
	ForecastMonths int
	AsOf           time.Time
}

// Monthly is every view of one month. Sections that cannot be computed from
// the available data are nil.
type Monthly struct {
	Month       model.Month `json:"month"`
	Source      string      `json:"source"`
	GeneratedAt time.Time   `json:"generated_at"`
	Warnings    []string    `json:"warnings,omitempty"`

	Plan        []model.MonthlyPlanRecord `json:"-"`
	PlanMonth   *model.MonthlyPlanRecord  `json:"plan_month,omitempty"`
	PlanSummary projection.PlanSummary     `json:"plan_summary"`

	Actual   *model.ActualRecord   `json:"actual,omitempty"`
	Variance *variance.Report      `json:"variance,omitempty"`
	Targets  *daily.Targets        `json:"daily_targets,omitempty"`
	Progress *daily.Progress       `json:"daily_progress,omitempty"`
	Trends   *trend.Summary        `json:"trends,omitempty"`
	Forecast []trend.ForecastPoint `json:"forecast,omitempty"`
	Cohort   *model.CohortResult   `json:"cohort,omitempty"`
	History  []model.KPISnapshot   `json:"history,omitempty"`
}

// PlanFor returns params anchored to the dataset. A fallback dataset carries
// its own months, so the plan is moved to start at its first month.
func PlanFor(params model.GrowthParameters, ds *pipeline.Dataset) model.GrowthParameters {
	if ds != nil && ds.Fallback && len(ds.Months) > 0 {
		return params.WithStartMonth(ds.Months[0])
	}
	return params
}

// Build computes the report for month m. Only an invalid parameter set is an
// error; missing data leaves the affected section nil.
func Build(in Inputs, m model.Month) (*Monthly, error) {
	ds := in.Dataset
	if ds == nil {
		return nil, errors.New("report: no dataset")
	}
	params := PlanFor(in.Params, ds)

	plan, err := projection.Project(params)
	if err != nil {
		return nil, fmt.Errorf("projecting plan: %w", err)
	}

	r := &Monthly{
		Month:       m,
		Source:      ds.SourceLabel(),
		GeneratedAt: in.AsOf,
		Warnings:    projection.Warnings(params),
		Plan:        plan,
		PlanSummary: projection.Summarize(plan),
		History:     ds.History(),
	}
	if ds.Fallback {
		r.Warnings = append(r.Warnings, "showing the built-in sample dataset: live data unavailable")
	}

	if p, ok := projection.Find(plan, m); ok {
		p = variance.ApplyTargets(p, ds.Targets[m])
		r.PlanMonth = &p

		if t, err := daily.Decompose(p, m.Days()); err == nil {
			r.Targets = &t
			if reports := ds.Daily[m]; len(reports) > 0 {
				prog := daily.Accumulate(reports, t, ThroughDay(reports, m, in.AsOf))
				r.Progress = &prog
			}
		}
	}

	if a, ok := ds.MonthActual(m); ok {
		r.Actual = &a
		if r.PlanMonth != nil {
			v := variance.Compute(*r.PlanMonth, a)
			r.Variance = &v
		}
	}

	if s, err := trend.Analyze(r.History, in.Trend); err == nil {
		r.Trends = &s
		if fc, err := trend.Forecast(r.History, in.ForecastMonths, in.Trend); err == nil {
			r.Forecast = fc
		}
	}

	if c, err := cohort.Compute(ds.Customers, m, in.AsOf, in.Pricing); err == nil {
		r.Cohort = &c
	}
	return r, nil
}

// ThroughDay is the default cutoff for month-to-date progress: the latest day
// in m with a report, capped at asOf when m is the current month.
func ThroughDay(reports []model.DailyActual, m model.Month, asOf time.Time) int {
	last := 0
	for _, d := range reports {
		if m.Contains(d.Date) {
			last = max(last, d.Date.Day())
		}
	}
	if model.MonthOf(asOf) == m {
		last = min(last, asOf.Day())
	}
	return last
}
