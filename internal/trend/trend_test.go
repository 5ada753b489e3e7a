package trend

import (
	"errors"
	"math"
	"testing"

	"github.com/subdash/subdash/internal/model"
)

// mrrHistory builds consecutive months from 2025-01 with the given MRR values.
func mrrHistory(values ...float64) []model.KPISnapshot {
	start := model.Month{Year: 2025, Month: 1}
	out := make([]model.KPISnapshot, len(values))
	for i, v := range values {
		out[i] = model.KPISnapshot{
			Month:           start.AddMonths(i),
			MRR:             v,
			NewAcquisitions: 50,
		}
	}
	return out
}

func TestAnalyze_Classification(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		direction Direction
		momentum  Momentum
	}{
		{"steady growth", []float64{100, 110, 121, 133.1}, Increasing, Steady},
		{"flat", []float64{50, 50, 50, 50, 50}, Stable, Steady},
		{"falling faster", []float64{100, 80, 60}, Decreasing, Decelerating},
		{"speeding up", []float64{100, 105, 120}, Increasing, Accelerating},
		{"within threshold", []float64{100, 101, 102, 103}, Stable, Decelerating},
		{"from zero", []float64{0, 0, 10, 20}, Increasing, Accelerating},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Analyze(mrrHistory(tt.values...), DefaultOptions())
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			mt, ok := s.Metric(model.MetricMRR)
			if !ok {
				t.Fatal("mrr trend missing")
			}
			if mt.Direction != tt.direction {
				t.Errorf("Direction = %s, want %s (change %.4f)", mt.Direction, tt.direction, mt.Change)
			}
			if mt.Momentum != tt.momentum {
				t.Errorf("Momentum = %s, want %s (recent %.4f, prior %.4f)", mt.Momentum, tt.momentum, mt.RecentGrowth, mt.PriorGrowth)
			}
		})
	}
}

func TestAnalyze_ConstantMetricIsStable(t *testing.T) {
	s, err := Analyze(mrrHistory(100, 200, 300), DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	mt, _ := s.Metric(model.MetricNewAcquisitions)
	if mt.Direction != Stable || mt.Momentum != Steady {
		t.Errorf("acquisitions = %s/%s, want stable/steady", mt.Direction, mt.Momentum)
	}
	if s.Periods != 3 || s.From.String() != "2025-01" || s.To.String() != "2025-03" {
		t.Errorf("summary span = %d %s..%s", s.Periods, s.From, s.To)
	}
}

func TestInsufficientHistory(t *testing.T) {
	for _, n := range []int{0, 1, 2} {
		h := mrrHistory(make([]float64, n)...)
		if _, err := Analyze(h, DefaultOptions()); !errors.Is(err, ErrInsufficientHistory) {
			t.Errorf("Analyze(%d points) err = %v, want ErrInsufficientHistory", n, err)
		}
		if _, err := Forecast(h, 3, DefaultOptions()); !errors.Is(err, ErrInsufficientHistory) {
			t.Errorf("Forecast(%d points) err = %v, want ErrInsufficientHistory", n, err)
		}
	}
}

func TestForecast_CompoundsRecentGrowth(t *testing.T) {
	points, err := Forecast(mrrHistory(100, 110, 121, 133.1), 3, DefaultOptions())
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("len = %d, want 3", len(points))
	}
	for i, p := range points {
		want := 133.1 * math.Pow(1.1, float64(i+1))
		if got := p.Values[model.MetricMRR]; math.Abs(got-want) > 1e-6 {
			t.Errorf("point %d mrr = %.6f, want %.6f", i+1, got, want)
		}
	}
	if points[0].Month.String() != "2025-05" {
		t.Errorf("first forecast month = %s, want 2025-05", points[0].Month)
	}
	if points[0].Values[model.MetricNewAcquisitions] != 50 {
		t.Errorf("flat metric forecast = %v, want 50", points[0].Values[model.MetricNewAcquisitions])
	}
}

func TestForecast_UsesOnlyRecentGrowth(t *testing.T) {
	// An early collapse should not drag down a forecast driven by the last three rates.
	points, err := Forecast(mrrHistory(1000, 100, 110, 121, 133.1), 1, DefaultOptions())
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	want := 133.1 * 1.1
	if got := points[0].Values[model.MetricMRR]; math.Abs(got-want) > 1e-6 {
		t.Errorf("mrr = %.6f, want %.6f", got, want)
	}
}

func TestForecast_ConfidenceMonotonic(t *testing.T) {
	small, err := Forecast(mrrHistory(1, 2, 3), 24, DefaultOptions())
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	large, _ := Forecast(mrrHistory(1e9, 2e9, 3e9), 24, DefaultOptions())

	opts := DefaultOptions()
	for i := range small {
		if i > 0 && small[i].Confidence > small[i-1].Confidence {
			t.Fatalf("confidence[%d] = %v > confidence[%d] = %v", i+1, small[i].Confidence, i, small[i-1].Confidence)
		}
		if small[i].Confidence < opts.ConfidenceFloor {
			t.Fatalf("confidence[%d] = %v below floor %v", i+1, small[i].Confidence, opts.ConfidenceFloor)
		}
		if small[i].Confidence != large[i].Confidence {
			t.Fatalf("confidence[%d] depends on magnitude: %v vs %v", i+1, small[i].Confidence, large[i].Confidence)
		}
	}
	if small[23].Confidence != opts.ConfidenceFloor {
		t.Errorf("confidence[24] = %v, want floor %v", small[23].Confidence, opts.ConfidenceFloor)
	}
}

func TestForecast_EmptyHorizon(t *testing.T) {
	points, err := Forecast(mrrHistory(1, 2, 3), 0, DefaultOptions())
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("len = %d, want 0", len(points))
	}
}

func TestConfidence_InvalidOptionsFallBack(t *testing.T) {
	got := Confidence(1, Options{ConfidenceDecay: 3})
	if got != DefaultOptions().ConfidenceBase {
		t.Errorf("Confidence(1) = %v, want default base", got)
	}
}
