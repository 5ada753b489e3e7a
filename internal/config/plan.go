package config

import (
	"fmt"
	"time"

	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/trend"
)

// StartMonth returns the configured plan start, or the month containing now.
func (c Config) StartMonth(now time.Time) (model.Month, error) {
	if c.Plan.StartMonth == "" {
		return model.MonthOf(now), nil
	}
	return model.ParseMonth(c.Plan.StartMonth)
}

// GrowthParameters builds the projection inputs, pricing them as of the start month.
func (c Config) GrowthParameters(now time.Time) (model.GrowthParameters, error) {
	start, err := c.StartMonth(now)
	if err != nil {
		return model.GrowthParameters{}, fmt.Errorf("plan start: %w", err)
	}
	prices, err := LookupPricingAt(c.Pricing, start.Start())
	if err != nil {
		return model.GrowthParameters{}, err
	}

	return model.GrowthParameters{}.
		WithStartMonth(start).
		WithHorizon(c.Plan.HorizonMonths).
		WithInitialAcquisitions(c.Plan.InitialAcquisitions).
		WithGrowthRate(c.Plan.MonthlyGrowthRate).
		WithChurnRate(c.Plan.ChurnRate).
		WithPrices(prices.Monthly, prices.Yearly).
		WithYearlyPlanShare(c.Plan.YearlyPlanShare).
		WithExpenses(c.Plan.BaseExpenses, c.Plan.ExpenseGrowthRate).
		WithChannels(c.Plan.Channels...), nil
}

// ApplyGrowthParameters returns a copy of c holding p's plan assumptions.
// Prices are written to the base price list.
func (c Config) ApplyGrowthParameters(p model.GrowthParameters) Config {
	out := c
	if !p.StartMonth.IsZero() {
		out.Plan.StartMonth = p.StartMonth.String()
	}
	out.Plan.HorizonMonths = p.HorizonMonths
	out.Plan.InitialAcquisitions = p.InitialAcquisitions
	out.Plan.MonthlyGrowthRate = p.MonthlyGrowthRate
	out.Plan.ChurnRate = p.ChurnRate
	out.Plan.YearlyPlanShare = p.YearlyPlanShare
	out.Plan.BaseExpenses = p.BaseExpenses
	out.Plan.ExpenseGrowthRate = p.ExpenseGrowthRate
	out.Plan.Channels = p.ChannelList()
	out.Pricing.Monthly = p.MonthlyPrice
	out.Pricing.Yearly = p.YearlyPrice
	return out
}

// Options converts forecast settings into trend options.
func (f ForecastConfig) Options() trend.Options {
	return trend.Options{
		Threshold:       f.ThresholdPct / 100,
		ConfidenceBase:  f.ConfidenceBase,
		ConfidenceDecay: f.ConfidenceDecay,
		ConfidenceFloor: f.ConfidenceFloor,
	}
}

// PlanPricing returns the prices in effect at at.
func (c Config) PlanPricing(at time.Time) model.PlanPricing {
	p, err := LookupPricingAt(c.Pricing, at)
	if err != nil {
		return model.PlanPricing{Monthly: c.Pricing.Monthly, Yearly: c.Pricing.Yearly}
	}
	return p
}
