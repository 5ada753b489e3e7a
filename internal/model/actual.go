package model

import "time"

// ChannelActual is the reported performance of one channel in one month.
type ChannelActual struct {
	Name         string  `json:"name"`
	Acquisitions int     `json:"acquisitions"`
	CPA          float64 `json:"cpa"`
	Cost         float64 `json:"cost"`
}

// ActualRecord holds the reported KPIs for one month.
type ActualRecord struct {
	Month           Month           `json:"month"`
	NewAcquisitions int             `json:"new_acquisitions"`
	MRR             float64         `json:"mrr"`
	ChurnCount      int             `json:"churn_count"`
	Expenses        float64         `json:"expenses"`
	TotalCustomers  int             `json:"total_customers"`
	Channels        []ChannelActual `json:"channels"`
}

// ChannelDaily is one channel's contribution to a daily report.
type ChannelDaily struct {
	Name         string  `json:"name"`
	Acquisitions int     `json:"acquisitions"`
	Cost         float64 `json:"cost"`
}

// DailyActual is one day's reported figures.
type DailyActual struct {
	ID              string         `json:"id,omitempty"`
	Date            time.Time      `json:"date"`
	NewAcquisitions int            `json:"new_acquisitions"`
	Revenue         float64        `json:"revenue"`
	Expenses        float64        `json:"expenses"`
	Channels        []ChannelDaily `json:"channels,omitempty"`
}

// TargetRecord is an explicit target for one metric in one period.
type TargetRecord struct {
	Period Month   `json:"period"`
	Metric Metric  `json:"metric"`
	Value  float64 `json:"value"`
	Unit   Unit    `json:"unit"`
}
