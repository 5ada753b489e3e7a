// Package trend classifies KPI trends and extrapolates short-term forecasts.
package trend

import (
	"errors"
	"math"

	"github.com/subdash/subdash/internal/model"
)

// ErrInsufficientHistory is returned when fewer than MinHistory months are given.
var ErrInsufficientHistory = errors.New("trend: at least 3 months of history required")

// MinHistory is the shortest series the package will analyze.
const MinHistory = 3

// growthWindow is how many recent period-over-period growth rates feed the forecast.
const growthWindow = 3

// Direction classifies the level of a series over time.
type Direction string

// Directions.
const (
	Increasing Direction = "increasing"
	Decreasing Direction = "decreasing"
	Stable     Direction = "stable"
)

// Momentum classifies the change in growth rate.
type Momentum string

// Momentum values.
const (
	Accelerating Momentum = "accelerating"
	Decelerating Momentum = "decelerating"
	Steady       Momentum = "steady"
)

// Options tunes classification and the confidence curve.
type Options struct {
	Threshold       float64 // relative change (fraction) separating stable from moving
	ConfidenceBase  float64 // percent at one month out
	ConfidenceDecay float64 // multiplier per additional month, in (0, 1]
	ConfidenceFloor float64 // lowest reported confidence, percent
}

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	return Options{
		Threshold:       0.05,
		ConfidenceBase:  95,
		ConfidenceDecay: 0.9,
		ConfidenceFloor: 20,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Threshold <= 0 {
		o.Threshold = d.Threshold
	}
	if o.ConfidenceBase <= 0 || o.ConfidenceBase > 100 {
		o.ConfidenceBase = d.ConfidenceBase
	}
	if o.ConfidenceDecay <= 0 || o.ConfidenceDecay > 1 {
		o.ConfidenceDecay = d.ConfidenceDecay
	}
	if o.ConfidenceFloor <= 0 || o.ConfidenceFloor > o.ConfidenceBase {
		o.ConfidenceFloor = min(d.ConfidenceFloor, o.ConfidenceBase)
	}
	return o
}

// MetricTrend describes one metric's series.
type MetricTrend struct {
	Metric        model.Metric `json:"metric"`
	Direction     Direction    `json:"direction"`
	Momentum      Momentum     `json:"momentum"`
	Change        float64      `json:"change"` // recent-half mean vs earlier-half mean, as a fraction
	RecentGrowth  float64      `json:"recent_growth"`
	PriorGrowth   float64      `json:"prior_growth"`
	AverageGrowth float64      `json:"average_growth"`
	LastValue     float64      `json:"last_value"`
}

// Summary is the trend analysis of a KPI history.
type Summary struct {
	From    model.Month   `json:"from"`
	To      model.Month   `json:"to"`
	Periods int           `json:"periods"`
	Metrics []MetricTrend `json:"metrics"`
}

// Metric returns the trend for m.
func (s Summary) Metric(m model.Metric) (MetricTrend, bool) {
	for _, mt := range s.Metrics {
		if mt.Metric == m {
			return mt, true
		}
	}
	return MetricTrend{}, false
}

// Analyze classifies direction and momentum for every trend metric in history,
// which must be ordered oldest first.
func Analyze(history []model.KPISnapshot, opts Options) (Summary, error) {
	if len(history) < MinHistory {
		return Summary{}, ErrInsufficientHistory
	}
	opts = opts.normalized()

	s := Summary{
		From:    history[0].Month,
		To:      history[len(history)-1].Month,
		Periods: len(history),
	}
	for _, m := range model.TrendMetrics {
		s.Metrics = append(s.Metrics, analyzeSeries(m, series(history, m), opts))
	}
	return s, nil
}

func analyzeSeries(m model.Metric, values []float64, opts Options) MetricTrend {
	n := len(values)
	half := n / 2
	earlier := mean(values[:half])
	recent := mean(values[n-half:])

	mt := MetricTrend{
		Metric:        m,
		LastValue:     values[n-1],
		RecentGrowth:  growth(values[n-2], values[n-1]),
		PriorGrowth:   growth(values[n-3], values[n-2]),
		AverageGrowth: averageGrowth(values),
	}

	switch {
	case earlier == 0 && recent > 0:
		mt.Direction = Increasing
	case earlier == 0 && recent < 0:
		mt.Direction = Decreasing
	case earlier == 0:
		mt.Direction = Stable
	default:
		mt.Change = (recent - earlier) / math.Abs(earlier)
		switch {
		case mt.Change > opts.Threshold:
			mt.Direction = Increasing
		case mt.Change < -opts.Threshold:
			mt.Direction = Decreasing
		default:
			mt.Direction = Stable
		}
	}

	const eps = 1e-9
	switch {
	case mt.RecentGrowth > mt.PriorGrowth+eps:
		mt.Momentum = Accelerating
	case mt.RecentGrowth < mt.PriorGrowth-eps:
		mt.Momentum = Decelerating
	default:
		mt.Momentum = Steady
	}
	return mt
}

func series(history []model.KPISnapshot, m model.Metric) []float64 {
	out := make([]float64, len(history))
	for i, h := range history {
		out[i] = h.Value(m)
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// growth returns the period-over-period rate as a fraction; 0 when prev is 0.
func growth(prev, cur float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / math.Abs(prev)
}

// averageGrowth averages the last growthWindow growth rates, skipping rates
// whose base is zero.
func averageGrowth(values []float64) float64 {
	start := max(len(values)-growthWindow-1, 0)
	window := values[start:]
	var (
		sum float64
		n   int
	)
	for i := 1; i < len(window); i++ {
		if window[i-1] == 0 {
			continue
		}
		sum += growth(window[i-1], window[i])
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
