// Package cohort computes retention and lifetime value for registration cohorts.
package cohort

import (
	"errors"
	"math"
	"time"

	"github.com/subdash/subdash/internal/model"
)

// ErrNoCohortData is returned when no customer registered in the cohort month.
var ErrNoCohortData = errors.New("cohort: no customers registered in period")

// Offsets are the months after registration at which retention is measured.
var Offsets = []int{1, 2, 3, 6, 12}

// LTVMonths is the horizon of the flat lifetime-value estimate.
const LTVMonths = 12

// Compute returns retention and LTV for customers registered in month m.
//
// A checkpoint whose month has not started by asOf has nil retention. A churned
// customer without a churn date is counted as gone at every checkpoint.
func Compute(customers []model.Customer, m model.Month, asOf time.Time, pricing model.PlanPricing) (model.CohortResult, error) {
	var members []model.Customer
	for _, c := range customers {
		if m.Contains(c.RegisteredAt) {
			members = append(members, c)
		}
	}
	if len(members) == 0 {
		return model.CohortResult{Period: m}, ErrNoCohortData
	}

	res := model.CohortResult{
		Period:        m,
		CustomerCount: len(members),
		Retention:     make(map[int]*int, len(Offsets)),
	}

	asOfDay := model.Date(asOf)
	for _, k := range Offsets {
		target := m.AddMonths(k)
		if asOfDay.Before(target.Start()) {
			res.Retention[k] = nil
			continue
		}
		boundary := target.End()
		retained := 0
		for _, c := range members {
			if activeAt(c, boundary) {
				retained++
			}
		}
		pct := int(math.Round(float64(retained) / float64(len(members)) * 100))
		res.Retention[k] = &pct
	}

	for _, c := range members {
		res.EstimatedLTV += pricing.MonthlyValue(c.PlanType) * LTVMonths
	}
	res.AverageLTV = res.EstimatedLTV / float64(len(members))
	return res, nil
}

// activeAt reports whether c was still subscribed at the end of boundary's day.
func activeAt(c model.Customer, boundary time.Time) bool {
	switch c.Status {
	case model.StatusActive:
		return true
	case model.StatusChurned:
		return c.ChurnedAt != nil && model.Date(*c.ChurnedAt).After(boundary)
	}
	return false
}

// ComputeRange computes every cohort from -> to inclusive, skipping months
// without registrations.
func ComputeRange(customers []model.Customer, from, to model.Month, asOf time.Time, pricing model.PlanPricing) []model.CohortResult {
	var out []model.CohortResult
	for _, m := range model.MonthsBetween(from, to) {
		res, err := Compute(customers, m, asOf, pricing)
		if err != nil {
			continue
		}
		out = append(out, res)
	}
	return out
}
