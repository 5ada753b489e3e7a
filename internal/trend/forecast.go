package trend

import (
	"math"

	"github.com/subdash/subdash/internal/model"
)

// ForecastPoint is the extrapolated KPI set for one future month.
type ForecastPoint struct {
	Month      model.Month              `json:"month"`
	Offset     int                      `json:"offset"` // 1 = the month after the last observation
	Values     map[model.Metric]float64 `json:"values"`
	Confidence float64                  `json:"confidence"` // percent
}

// Confidence returns the confidence, in percent, of a forecast i months out.
// It never increases with i and never drops below the floor.
func Confidence(i int, opts Options) float64 {
	opts = opts.normalized()
	if i < 1 {
		i = 1
	}
	c := opts.ConfidenceBase * math.Pow(opts.ConfidenceDecay, float64(i-1))
	return math.Max(c, opts.ConfidenceFloor)
}

// Forecast extrapolates horizon months past the end of history, compounding
// each metric's recent average growth from its last observed value.
func Forecast(history []model.KPISnapshot, horizon int, opts Options) ([]ForecastPoint, error) {
	if len(history) < MinHistory {
		return nil, ErrInsufficientHistory
	}
	if horizon <= 0 {
		return []ForecastPoint{}, nil
	}
	opts = opts.normalized()

	last := history[len(history)-1]
	rates := make(map[model.Metric]float64, len(model.TrendMetrics))
	for _, m := range model.TrendMetrics {
		rates[m] = averageGrowth(series(history, m))
	}

	out := make([]ForecastPoint, 0, horizon)
	for i := 1; i <= horizon; i++ {
		p := ForecastPoint{
			Month:      last.Month.AddMonths(i),
			Offset:     i,
			Values:     make(map[model.Metric]float64, len(rates)),
			Confidence: Confidence(i, opts),
		}
		for m, g := range rates {
			p.Values[m] = last.Value(m) * math.Pow(1+g, float64(i))
		}
		out = append(out, p)
	}
	return out, nil
}
