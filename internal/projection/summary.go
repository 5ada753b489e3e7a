package projection

import "github.com/subdash/subdash/internal/model"

// PlanSummary aggregates a projected plan for cards and reports.
type PlanSummary struct {
	Months           int
	TotalAcquired    int
	TotalChurned     int
	EndingCustomers  int
	EndingMRR        float64
	TotalRevenue     float64
	TotalExpenses    float64
	TotalChannelCost float64
	CumulativeProfit float64
	BreakEven        model.Month // first month with profit >= 0; zero if never
	PaybackMonth     model.Month // first month with cumulative profit >= 0; zero if never
}

// Summarize folds plan records into a PlanSummary.
func Summarize(records []model.MonthlyPlanRecord) PlanSummary {
	s := PlanSummary{Months: len(records)}
	for _, r := range records {
		s.TotalAcquired += r.NewAcquisitions
		s.TotalChurned += r.ChurnCount
		s.TotalRevenue += r.MRR
		s.TotalExpenses += r.Expenses
		s.TotalChannelCost += r.PL.Costs.ChannelCosts
		if s.BreakEven.IsZero() && r.Profit >= 0 {
			s.BreakEven = r.Month
		}
		if s.PaybackMonth.IsZero() && r.CumulativeProfit >= 0 {
			s.PaybackMonth = r.Month
		}
	}
	if n := len(records); n > 0 {
		last := records[n-1]
		s.EndingCustomers = last.TotalCustomers
		s.EndingMRR = last.MRR
		s.CumulativeProfit = last.CumulativeProfit
	}
	return s
}

// Find returns the record for month m.
func Find(records []model.MonthlyPlanRecord, m model.Month) (model.MonthlyPlanRecord, bool) {
	for _, r := range records {
		if r.Month == m {
			return r, true
		}
	}
	return model.MonthlyPlanRecord{}, false
}
