package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/subdash/subdash/internal/tui/theme"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders a unicode sparkline scaled between the series min and max.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(sparkBlocks)-1))
		buf.WriteRune(sparkBlocks[min(max(idx, 0), len(sparkBlocks)-1)])
	}
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(buf.String())
}

// axisScale picks a tick step and ceiling so that at most maxIntervals ticks
// cover maxVal.
func axisScale(maxVal float64, maxIntervals int) (step, ceiling float64, intervals int) {
	if maxVal <= 0 {
		maxVal = 1
	}
	step = chartTickStep(maxVal)
	for int(math.Ceil(maxVal/step)) > max(maxIntervals, 2) {
		step *= 2
	}
	ceiling = math.Ceil(maxVal/step) * step
	intervals = max(int(math.Round(ceiling/step)), 1)
	return step, ceiling, intervals
}

// BarChart renders a vertical bar chart with a labeled Y axis and optional
// X labels. Negative values are drawn as zero. Narrow areas fall back to a
// sparkline.
func BarChart(values []float64, labels []string, color lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, color)
	}
	t := theme.Active

	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	step, ceiling, numIntervals := axisScale(maxVal, height/2)

	rowsPerTick := max(height/numIntervals, 2)
	chartH := rowsPerTick * numIntervals

	yLabelW := max(len(formatChartLabel(ceiling))+1, 4)
	tickLabels := make(map[int]string, numIntervals)
	for i := 1; i <= numIntervals; i++ {
		tickLabels[i*rowsPerTick] = formatChartLabel(step * float64(i))
	}

	chartW := max(width-yLabelW-1, 5)
	n := len(values)
	gap := 1
	if n <= 1 {
		gap = 0
	}
	barW := chartW
	if n > 1 {
		barW = (chartW - (n - 1)) / n
	}
	if barW < 2 && n > 1 {
		// Too many bars: sample evenly.
		maxN := max((chartW+1)/3, 2)
		sampled := make([]float64, maxN)
		var sampledLabels []string
		if len(labels) == n {
			sampledLabels = make([]string, maxN)
		}
		for i := range sampled {
			src := i * (n - 1) / (maxN - 1)
			sampled[i] = values[src]
			if sampledLabels != nil {
				sampledLabels[i] = labels[src]
			}
		}
		values, labels, n, barW = sampled, sampledLabels, maxN, 2
	}
	barW = min(barW, 6)
	axisLen := n*barW + max(0, n-1)*gap

	fracBlocks := []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	axisStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	for row := chartH; row >= 1; row-- {
		rowTop := ceiling * float64(row) / float64(chartH)
		rowBottom := ceiling * float64(row-1) / float64(chartH)

		barColor := t.Accent
		switch rowPct := float64(row) / float64(chartH); {
		case rowPct > 0.8:
			barColor = t.AccentBright
		case rowPct > 0.5:
			barColor = color
		}
		barStyle := lipgloss.NewStyle().Foreground(barColor).Background(t.Surface)

		b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, tickLabels[row])))
		b.WriteString(axisStyle.Render("│"))
		for i, v := range values {
			if i > 0 && gap > 0 {
				b.WriteString(blank.Render(strings.Repeat(" ", gap)))
			}
			switch {
			case v >= rowTop:
				b.WriteString(barStyle.Render(strings.Repeat("█", barW)))
			case v > rowBottom:
				idx := min(max(int((v-rowBottom)/(rowTop-rowBottom)*8), 1), 8)
				b.WriteString(barStyle.Render(strings.Repeat(string(fracBlocks[idx]), barW)))
			default:
				b.WriteString(blank.Render(strings.Repeat(" ", barW)))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(axisStyle.Render(fmt.Sprintf("%*s", yLabelW, "0")))
	b.WriteString(axisStyle.Render("└" + strings.Repeat("─", axisLen)))

	if len(labels) == n && n > 0 {
		b.WriteString("\n")
		b.WriteString(blank.Render(strings.Repeat(" ", yLabelW+1)))
		b.WriteString(axisStyle.Render(xAxisLabels(labels, barW, gap, axisLen)))
	}
	return b.String()
}

// xAxisLabels places labels under their bars, skipping any that would overlap.
// The last label is always shown when it fits.
func xAxisLabels(labels []string, barW, gap, axisLen int) string {
	buf := []byte(strings.Repeat(" ", axisLen))
	n := len(labels)
	step := max(1, (n*8)/(axisLen+1))

	lastEnd := -1
	for i := 0; i < n; i += step {
		pos := i * (barW + gap)
		lbl := labels[i]
		if pos <= lastEnd || pos >= axisLen {
			continue
		}
		end := min(pos+len(lbl), axisLen)
		copy(buf[pos:end], lbl)
		lastEnd = end
	}
	if n > 1 {
		lbl := labels[n-1]
		pos := min((n-1)*(barW+gap), axisLen-len(lbl))
		if pos > lastEnd && pos >= 0 {
			copy(buf[pos:], lbl)
		}
	}
	return strings.TrimRight(string(buf), " ")
}

// HBar renders one horizontal bar sized against maxValue.
func HBar(value, maxValue float64, width int, color lipgloss.Color) string {
	t := theme.Active
	n := 0
	if maxValue > 0 && value > 0 {
		n = min(int(math.Round(value/maxValue*float64(width))), width)
	}
	return lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(strings.Repeat("█", n)) +
		lipgloss.NewStyle().Background(t.Surface).Render(strings.Repeat(" ", width-n))
}

// chartTickStep computes a nice tick interval targeting ~5 ticks.
func chartTickStep(maxVal float64) float64 {
	if maxVal <= 0 {
		return 1
	}
	rough := maxVal / 5
	base := math.Pow(10, math.Floor(math.Log10(rough)))

	switch frac := rough / base; {
	case frac < 1.5:
		return base
	case frac < 3.5:
		return 2 * base
	default:
		return 5 * base
	}
}

func formatChartLabel(v float64) string {
	scaled := func(div float64, suffix string) string {
		if v == math.Trunc(v/div)*div {
			return fmt.Sprintf("%.0f%s", v/div, suffix)
		}
		return fmt.Sprintf("%.1f%s", v/div, suffix)
	}
	switch {
	case v >= 1e9:
		return scaled(1e9, "B")
	case v >= 1e6:
		return scaled(1e6, "M")
	case v >= 1e3:
		return scaled(1e3, "k")
	case v >= 1:
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
