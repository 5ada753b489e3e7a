package model

import "time"

// Customer statuses.
const (
	StatusActive  = "active"
	StatusChurned = "churned"
)

// Plan types.
const (
	PlanMonthly = "monthly"
	PlanYearly  = "yearly"
)

// Customer is a subscriber record as read from the store.
type Customer struct {
	ID           string     `json:"id"`
	RegisteredAt time.Time  `json:"registered_at"`
	Status       string     `json:"status"`
	ChurnedAt    *time.Time `json:"churned_at,omitempty"`
	PlanType     string     `json:"plan_type"`
}

// CohortResult summarizes retention and value for customers registered in one month.
type CohortResult struct {
	Period        Month        `json:"period"`
	CustomerCount int          `json:"customer_count"`
	Retention     map[int]*int `json:"retention"` // offset -> percent; nil when not yet observable
	EstimatedLTV  float64      `json:"estimated_ltv"`
	AverageLTV    float64      `json:"average_ltv"`
}

// PlanPricing holds list prices for each plan type.
type PlanPricing struct {
	Monthly float64 `json:"monthly" toml:"monthly"`
	Yearly  float64 `json:"yearly" toml:"yearly"`
}

// MonthlyValue returns the flat monthly revenue of a customer on planType.
// Yearly plans are amortized over twelve months.
func (p PlanPricing) MonthlyValue(planType string) float64 {
	if planType == PlanYearly {
		return p.Yearly / 12
	}
	return p.Monthly
}
