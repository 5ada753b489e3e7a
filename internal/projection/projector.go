// Package projection turns growth parameters into a month-by-month plan.
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/subdash/subdash/internal/model"
)

// ErrInvalidParameter is returned when growth parameters are outside their valid range.
var ErrInvalidParameter = errors.New("projection: invalid parameter")

// MaxAcquisitions bounds monthly new acquisitions. A plan that compounds past
// it is rejected rather than wrapped.
const MaxAcquisitions = math.MaxInt32

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

// Validate checks parameter ranges. It does not check traffic ratios; see Warnings.
func Validate(p model.GrowthParameters) error {
	if p.StartMonth.IsZero() {
		return invalid("start month is required")
	}
	for _, v := range []float64{p.ChurnRate, p.MonthlyPrice, p.YearlyPrice, p.YearlyPlanShare, p.BaseExpenses} {
		if !finite(v) {
			return invalid("rates, prices and expenses must be finite numbers")
		}
	}
	if p.InitialAcquisitions < 0 {
		return invalid("initial acquisitions %d < 0", p.InitialAcquisitions)
	}
	if p.ChurnRate < 0 || p.ChurnRate > 100 {
		return invalid("churn rate %.2f%% outside [0, 100]", p.ChurnRate)
	}
	if p.MonthlyPrice < 0 {
		return invalid("monthly price %.0f < 0", p.MonthlyPrice)
	}
	if p.YearlyPrice < 0 {
		return invalid("yearly price %.0f < 0", p.YearlyPrice)
	}
	if p.YearlyPlanShare < 0 || p.YearlyPlanShare > 100 {
		return invalid("yearly plan share %.2f%% outside [0, 100]", p.YearlyPlanShare)
	}
	if p.BaseExpenses < 0 {
		return invalid("base expenses %.0f < 0", p.BaseExpenses)
	}
	if !finite(p.MonthlyGrowthRate) || !finite(p.ExpenseGrowthRate) {
		return invalid("growth rates must be finite numbers")
	}
	if p.InitialAcquisitions > MaxAcquisitions {
		return invalid("initial acquisitions %d > %d", p.InitialAcquisitions, MaxAcquisitions)
	}

	seen := make(map[string]bool, len(p.Channels))
	for _, ch := range p.Channels {
		if ch.Name == "" {
			return invalid("channel name is empty")
		}
		if seen[ch.Name] {
			return invalid("duplicate channel %q", ch.Name)
		}
		seen[ch.Name] = true
		if !finite(ch.CPA) || !finite(ch.TrafficRatio) {
			return invalid("channel %q cpa and traffic ratio must be finite numbers", ch.Name)
		}
		if ch.CPA < 0 {
			return invalid("channel %q cpa %.0f < 0", ch.Name, ch.CPA)
		}
		if ch.TrafficRatio < 0 || ch.TrafficRatio > 100 {
			return invalid("channel %q traffic ratio %.2f%% outside [0, 100]", ch.Name, ch.TrafficRatio)
		}
	}
	return nil
}

// Warnings returns non-blocking notes about p, such as active traffic ratios
// that do not sum to 100%.
func Warnings(p model.GrowthParameters) []string {
	var out []string
	active := 0
	for _, ch := range p.Channels {
		if ch.Active {
			active++
		}
	}
	if active == 0 {
		if len(p.Channels) > 0 {
			out = append(out, "no active channels: acquisitions are not allocated")
		}
		return out
	}
	if sum := p.ActiveTrafficRatio(); math.Abs(sum-100) > 1e-6 {
		out = append(out, fmt.Sprintf("active channel traffic ratios sum to %.1f%%, expected 100%%", sum))
	}
	return out
}

// Project computes the plan for p.HorizonMonths months starting at p.StartMonth.
// A non-positive horizon yields an empty plan. Invalid parameters yield no records.
func Project(p model.GrowthParameters) ([]model.MonthlyPlanRecord, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	if p.HorizonMonths <= 0 {
		return []model.MonthlyPlanRecord{}, nil
	}

	records := make([]model.MonthlyPlanRecord, 0, p.HorizonMonths)
	activeRatio := p.ActiveTrafficRatio()
	yearlyShare := p.YearlyPlanShare / 100

	var (
		newAcq     int
		total      int
		cumulative float64
	)
	for i := 0; i < p.HorizonMonths; i++ {
		if i == 0 {
			newAcq = p.InitialAcquisitions
		} else {
			v := math.Round(float64(newAcq) * (1 + p.MonthlyGrowthRate/100))
			if v > MaxAcquisitions {
				return nil, invalid("new acquisitions exceed %d in %s; growth rate %.2f%% is too high for a %d-month horizon",
					MaxAcquisitions, p.StartMonth.AddMonths(i), p.MonthlyGrowthRate, p.HorizonMonths)
			}
			newAcq = max(int(v), 0)
		}

		churn := roundInt(float64(total) * p.ChurnRate / 100)
		total = total + newAcq - churn

		channels, channelCosts := allocate(p.Channels, newAcq, activeRatio)

		monthlyRev := float64(total) * (1 - yearlyShare) * p.MonthlyPrice
		yearlyRev := float64(total) * yearlyShare * p.YearlyPrice / 12
		opex := p.BaseExpenses * math.Pow(1+p.ExpenseGrowthRate/100, float64(i))

		pl := breakdown(monthlyRev, yearlyRev, channelCosts, opex)
		expenses := opex + channelCosts
		profit := pl.Revenue.Total - expenses
		cumulative += profit

		records = append(records, model.MonthlyPlanRecord{
			Month:            p.StartMonth.AddMonths(i),
			Offset:           i,
			NewAcquisitions:  newAcq,
			TotalCustomers:   total,
			ChurnCount:       churn,
			MRR:              pl.Revenue.Total,
			Expenses:         expenses,
			Profit:           profit,
			CumulativeProfit: cumulative,
			Channels:         channels,
			PL:               pl,
		})
	}
	return records, nil
}

// allocate splits newAcq across active channels in proportion to their share
// of the active traffic ratio.
func allocate(channels []model.Channel, newAcq int, activeRatio float64) ([]model.ChannelPlan, float64) {
	var (
		out   []model.ChannelPlan
		total float64
	)
	for _, ch := range channels {
		if !ch.Active {
			continue
		}
		acq := 0
		if activeRatio > 0 {
			acq = roundInt(float64(newAcq) * ch.TrafficRatio / activeRatio)
		}
		cost := float64(acq) * ch.CPA
		total += cost
		out = append(out, model.ChannelPlan{
			Name:                ch.Name,
			PlannedAcquisitions: acq,
			PlannedCPA:          ch.CPA,
			PlannedCost:         cost,
		})
	}
	return out, total
}

func breakdown(monthlyRev, yearlyRev, channelCosts, opex float64) model.PLBreakdown {
	pl := model.PLBreakdown{
		Revenue: model.Revenue{
			MonthlySubscription: monthlyRev,
			YearlySubscription:  yearlyRev,
		},
		Costs: model.Costs{
			ChannelCosts:      channelCosts,
			OperatingExpenses: opex,
		},
	}
	pl.Settle()
	return pl
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
