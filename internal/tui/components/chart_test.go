package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/subdash/subdash/internal/tui/theme"
)

func TestChartTickStep(t *testing.T) {
	tests := []struct {
		max  float64
		want float64
	}{
		{10, 2},
		{100, 20},
		{1_052_000, 200_000},
		{0, 1},
	}
	for _, tt := range tests {
		if got := chartTickStep(tt.max); got != tt.want {
			t.Errorf("chartTickStep(%v) = %v, want %v", tt.max, got, tt.want)
		}
	}
}

func TestFormatChartLabel(t *testing.T) {
	tests := map[float64]string{
		200_000:   "200k",
		1_500_000: "1.5M",
		2e9:       "2B",
		40:        "40",
		0.5:       "0.50",
	}
	for in, want := range tests {
		if got := formatChartLabel(in); got != want {
			t.Errorf("formatChartLabel(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestBarChartFitsWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")
	values := []float64{120, 131, 140, 152, 149, 166}
	labels := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"}

	out := BarChart(values, labels, theme.Active.Blue, 50, 8)
	for i, line := range strings.Split(out, "\n") {
		if w := lipgloss.Width(line); w > 50 {
			t.Errorf("line %d width %d exceeds 50", i, w)
		}
	}
	if !strings.Contains(out, "Jan") || !strings.Contains(out, "Jun") {
		t.Errorf("missing axis labels:\n%s", out)
	}
}

func TestHBarWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")
	for _, v := range []float64{0, 50, 100, 150} {
		if w := lipgloss.Width(HBar(v, 100, 20, theme.Active.Green)); w != 20 {
			t.Errorf("HBar(%v) width %d, want 20", v, w)
		}
	}
}
