package model

import "time"

// Metric identifies a tracked KPI.
type Metric string

// Tracked metrics.
const (
	MetricNewAcquisitions Metric = "new_acquisitions"
	MetricMRR             Metric = "mrr"
	MetricChurnCount      Metric = "churn_count"
	MetricExpenses        Metric = "expenses"
	MetricTotalCustomers  Metric = "total_customers"

	MetricChannelAcquisitions Metric = "channel_acquisitions"
	MetricChannelCPA          Metric = "channel_cpa"
	MetricChannelCost         Metric = "channel_cost"
)

// Unit tags a numeric value.
type Unit string

// Value units.
const (
	UnitCurrency   Unit = "currency"
	UnitCount      Unit = "count"
	UnitPercentage Unit = "percentage"
	UnitScore      Unit = "score"
)

// CoreMetrics are the monthly KPIs compared against plan and tracked over time.
var CoreMetrics = []Metric{
	MetricNewAcquisitions,
	MetricMRR,
	MetricChurnCount,
	MetricExpenses,
}

// TrendMetrics are the KPIs analyzed by the trend extrapolator.
var TrendMetrics = []Metric{
	MetricNewAcquisitions,
	MetricMRR,
	MetricChurnCount,
	MetricExpenses,
	MetricTotalCustomers,
}

// Label returns a human-readable name.
func (m Metric) Label() string {
	switch m {
	case MetricNewAcquisitions:
		return "New Acquisitions"
	case MetricMRR:
		return "MRR"
	case MetricChurnCount:
		return "Churn"
	case MetricExpenses:
		return "Expenses"
	case MetricTotalCustomers:
		return "Customers"
	case MetricChannelAcquisitions:
		return "Acquisitions"
	case MetricChannelCPA:
		return "CPA"
	case MetricChannelCost:
		return "Cost"
	}
	return string(m)
}

// UnitOf returns the unit a metric is measured in.
func UnitOf(m Metric) Unit {
	switch m {
	case MetricMRR, MetricExpenses, MetricChannelCPA, MetricChannelCost:
		return UnitCurrency
	default:
		return UnitCount
	}
}

// KPISnapshot is one month of observed KPIs.
type KPISnapshot struct {
	Month           Month   `json:"month"`
	NewAcquisitions int     `json:"new_acquisitions"`
	MRR             float64 `json:"mrr"`
	ChurnCount      int     `json:"churn_count"`
	Expenses        float64 `json:"expenses"`
	TotalCustomers  int     `json:"total_customers"`
}

// Value returns the snapshot's value for m, or 0 for metrics it does not carry.
func (s KPISnapshot) Value(m Metric) float64 {
	switch m {
	case MetricNewAcquisitions:
		return float64(s.NewAcquisitions)
	case MetricMRR:
		return s.MRR
	case MetricChurnCount:
		return float64(s.ChurnCount)
	case MetricExpenses:
		return s.Expenses
	case MetricTotalCustomers:
		return float64(s.TotalCustomers)
	}
	return 0
}

// SnapshotOf converts an actual record into a KPI snapshot.
func SnapshotOf(a ActualRecord) KPISnapshot {
	return KPISnapshot{
		Month:           a.Month,
		NewAcquisitions: a.NewAcquisitions,
		MRR:             a.MRR,
		ChurnCount:      a.ChurnCount,
		Expenses:        a.Expenses,
		TotalCustomers:  a.TotalCustomers,
	}
}

// Date returns midnight UTC for the calendar date of t.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
