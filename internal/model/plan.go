package model

// ChannelPlan is the planned acquisition and spend for one channel in one month.
type ChannelPlan struct {
	Name                string  `json:"name"`
	PlannedAcquisitions int     `json:"planned_acquisitions"`
	PlannedCPA          float64 `json:"planned_cpa"`
	PlannedCost         float64 `json:"planned_cost"`
}

// Revenue splits recognized monthly revenue by plan type.
type Revenue struct {
	MonthlySubscription float64 `json:"monthly_subscription"`
	YearlySubscription  float64 `json:"yearly_subscription"`
	Total               float64 `json:"total"`
}

// Costs splits monthly spend into acquisition and operating costs.
type Costs struct {
	ChannelCosts      float64 `json:"channel_costs"`
	OperatingExpenses float64 `json:"operating_expenses"`
}

// PLBreakdown is the profit-and-loss view of one plan month.
type PLBreakdown struct {
	Revenue     Revenue `json:"revenue"`
	Costs       Costs   `json:"costs"`
	GrossProfit float64 `json:"gross_profit"`
	GrossMargin float64 `json:"gross_margin"` // percent of revenue
	NetProfit   float64 `json:"net_profit"`
	NetMargin   float64 `json:"net_margin"` // percent of revenue
}

// Settle recomputes the profit lines and margins from Revenue and Costs.
func (pl *PLBreakdown) Settle() {
	pl.Revenue.Total = pl.Revenue.MonthlySubscription + pl.Revenue.YearlySubscription
	pl.GrossProfit = pl.Revenue.Total - pl.Costs.ChannelCosts
	pl.NetProfit = pl.GrossProfit - pl.Costs.OperatingExpenses
	pl.GrossMargin = percentOf(pl.GrossProfit, pl.Revenue.Total)
	pl.NetMargin = percentOf(pl.NetProfit, pl.Revenue.Total)
}

func percentOf(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}

// MonthlyPlanRecord is one projected month. Records are regenerated, never mutated.
type MonthlyPlanRecord struct {
	Month            Month         `json:"month"`
	Offset           int           `json:"offset"`
	NewAcquisitions  int           `json:"new_acquisitions"`
	TotalCustomers   int           `json:"total_customers"`
	ChurnCount       int           `json:"churn_count"`
	MRR              float64       `json:"mrr"`
	Expenses         float64       `json:"expenses"`
	Profit           float64       `json:"profit"`
	CumulativeProfit float64       `json:"cumulative_profit"`
	Channels         []ChannelPlan `json:"channels"`
	PL               PLBreakdown   `json:"pl"`
}

// Channel returns the plan for the named channel.
func (r MonthlyPlanRecord) Channel(name string) (ChannelPlan, bool) {
	for _, ch := range r.Channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return ChannelPlan{}, false
}
