package variance

import "github.com/subdash/subdash/internal/model"

// Direction says which sign of variance is good for a metric.
type Direction int

// Directions.
const (
	HigherIsBetter Direction = iota
	LowerIsBetter
)

var directions = map[model.Metric]Direction{
	model.MetricNewAcquisitions:     HigherIsBetter,
	model.MetricMRR:                 HigherIsBetter,
	model.MetricTotalCustomers:      HigherIsBetter,
	model.MetricChannelAcquisitions: HigherIsBetter,
	model.MetricChurnCount:          LowerIsBetter,
	model.MetricExpenses:            LowerIsBetter,
	model.MetricChannelCPA:          LowerIsBetter,
	model.MetricChannelCost:         LowerIsBetter,
}

// DirectionOf returns the good direction for m. Unknown metrics are higher-is-better.
func DirectionOf(m model.Metric) Direction {
	return directions[m]
}

// Favorable reports whether an absolute variance is good news for m.
// A zero variance is favorable.
func Favorable(m model.Metric, absolute float64) bool {
	if DirectionOf(m) == LowerIsBetter {
		return absolute <= 0
	}
	return absolute >= 0
}
