package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/subdash/subdash/internal/model"
)

// PricingConfig holds list prices. Monthly and Yearly apply until the first
// version takes effect; versions let a price change be scheduled ahead.
type PricingConfig struct {
	Monthly  float64        `toml:"monthly"`
	Yearly   float64        `toml:"yearly"`
	Versions []PriceVersion `toml:"versions,omitempty"`
}

// PriceVersion is a price list effective from a date ("YYYY-MM-DD").
type PriceVersion struct {
	EffectiveFrom string  `toml:"effective_from"`
	Monthly       float64 `toml:"monthly"`
	Yearly        float64 `toml:"yearly"`
}

type planPricingVersion struct {
	EffectiveFrom time.Time
	Pricing       model.PlanPricing
}

// history returns the effective-dated price list sorted by EffectiveFrom ascending.
func (p PricingConfig) history() ([]planPricingVersion, error) {
	versions := []planPricingVersion{{Pricing: model.PlanPricing{Monthly: p.Monthly, Yearly: p.Yearly}}}
	for _, v := range p.Versions {
		from, err := time.Parse("2006-01-02", v.EffectiveFrom)
		if err != nil {
			return nil, fmt.Errorf("pricing version %q: %w", v.EffectiveFrom, err)
		}
		if v.Monthly < 0 || v.Yearly < 0 {
			return nil, fmt.Errorf("pricing version %s: negative price", v.EffectiveFrom)
		}
		versions = append(versions, planPricingVersion{
			EffectiveFrom: from,
			Pricing:       model.PlanPricing{Monthly: v.Monthly, Yearly: v.Yearly},
		})
	}
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].EffectiveFrom.Before(versions[j].EffectiveFrom)
	})
	return versions, nil
}

// LookupPricingAt returns the prices in effect at the given time.
// If at is zero, the latest version is used.
func LookupPricingAt(p PricingConfig, at time.Time) (model.PlanPricing, error) {
	versions, err := p.history()
	if err != nil {
		return model.PlanPricing{}, err
	}

	if at.IsZero() {
		return versions[len(versions)-1].Pricing, nil
	}

	at = at.UTC()
	selected := versions[0].Pricing
	for _, v := range versions {
		if v.EffectiveFrom.IsZero() || !at.Before(v.EffectiveFrom.UTC()) {
			selected = v.Pricing
			continue
		}
		break
	}
	return selected, nil
}
