package model

// Channel is an acquisition channel in a growth plan.
type Channel struct {
	Name         string  `toml:"name" json:"name" yaml:"name"`
	CPA          float64 `toml:"cpa" json:"cpa" yaml:"cpa"`
	TrafficRatio float64 `toml:"traffic_ratio" json:"traffic_ratio" yaml:"traffic_ratio"` // percent of new acquisitions
	Active       bool    `toml:"active" json:"active" yaml:"active"`
}

// GrowthParameters is an immutable snapshot of the inputs to a plan projection.
// Rates are percentages. Currency is whole yen.
//
// Treat values as read-only: use the With* methods to derive a changed copy.
type GrowthParameters struct {
	StartMonth          Month     `json:"start_month"`
	InitialAcquisitions int       `json:"initial_acquisitions"`
	MonthlyGrowthRate   float64   `json:"monthly_growth_rate"`
	ChurnRate           float64   `json:"churn_rate"`
	MonthlyPrice        float64   `json:"monthly_price"`
	YearlyPrice         float64   `json:"yearly_price"`
	YearlyPlanShare     float64   `json:"yearly_plan_share"`
	BaseExpenses        float64   `json:"base_expenses"`
	ExpenseGrowthRate   float64   `json:"expense_growth_rate"`
	HorizonMonths       int       `json:"horizon_months"`
	Channels            []Channel `json:"channels"`
}

// ChannelList returns a copy of the channel list.
func (p GrowthParameters) ChannelList() []Channel {
	if p.Channels == nil {
		return nil
	}
	out := make([]Channel, len(p.Channels))
	copy(out, p.Channels)
	return out
}

func (p GrowthParameters) clone() GrowthParameters {
	p.Channels = p.ChannelList()
	return p
}

// WithStartMonth returns a copy starting at m.
func (p GrowthParameters) WithStartMonth(m Month) GrowthParameters {
	c := p.clone()
	c.StartMonth = m
	return c
}

// WithInitialAcquisitions returns a copy with a new month-0 acquisition count.
func (p GrowthParameters) WithInitialAcquisitions(n int) GrowthParameters {
	c := p.clone()
	c.InitialAcquisitions = n
	return c
}

// WithGrowthRate returns a copy with a new monthly acquisition growth rate.
func (p GrowthParameters) WithGrowthRate(pct float64) GrowthParameters {
	c := p.clone()
	c.MonthlyGrowthRate = pct
	return c
}

// WithChurnRate returns a copy with a new monthly churn rate.
func (p GrowthParameters) WithChurnRate(pct float64) GrowthParameters {
	c := p.clone()
	c.ChurnRate = pct
	return c
}

// WithPrices returns a copy with new monthly and yearly plan prices.
func (p GrowthParameters) WithPrices(monthly, yearly float64) GrowthParameters {
	c := p.clone()
	c.MonthlyPrice = monthly
	c.YearlyPrice = yearly
	return c
}

// WithYearlyPlanShare returns a copy with a new revenue mix.
func (p GrowthParameters) WithYearlyPlanShare(pct float64) GrowthParameters {
	c := p.clone()
	c.YearlyPlanShare = pct
	return c
}

// WithExpenses returns a copy with new base expenses and expense growth.
func (p GrowthParameters) WithExpenses(base, growthPct float64) GrowthParameters {
	c := p.clone()
	c.BaseExpenses = base
	c.ExpenseGrowthRate = growthPct
	return c
}

// WithHorizon returns a copy projecting n months.
func (p GrowthParameters) WithHorizon(n int) GrowthParameters {
	c := p.clone()
	c.HorizonMonths = n
	return c
}

// WithChannels returns a copy holding its own copy of channels.
func (p GrowthParameters) WithChannels(channels ...Channel) GrowthParameters {
	c := p
	c.Channels = make([]Channel, len(channels))
	copy(c.Channels, channels)
	return c
}

// WithChannel returns a copy in which the channel named ch.Name is replaced,
// or appended when absent.
func (p GrowthParameters) WithChannel(ch Channel) GrowthParameters {
	c := p.clone()
	for i := range c.Channels {
		if c.Channels[i].Name == ch.Name {
			c.Channels[i] = ch
			return c
		}
	}
	c.Channels = append(c.Channels, ch)
	return c
}

// WithoutChannel returns a copy with the named channel removed.
func (p GrowthParameters) WithoutChannel(name string) GrowthParameters {
	c := p
	c.Channels = nil
	for _, ch := range p.Channels {
		if ch.Name != name {
			c.Channels = append(c.Channels, ch)
		}
	}
	return c
}

// ActiveTrafficRatio sums TrafficRatio over active channels.
func (p GrowthParameters) ActiveTrafficRatio() float64 {
	var sum float64
	for _, ch := range p.Channels {
		if ch.Active {
			sum += ch.TrafficRatio
		}
	}
	return sum
}
