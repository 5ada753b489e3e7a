package tui

import (
	"fmt"
	"strings"

	"github.com/subdash/subdash/internal/cli"
	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/projection"
	"github.com/subdash/subdash/internal/trend"
	"github.com/subdash/subdash/internal/tui/components"
	"github.com/subdash/subdash/internal/tui/theme"
	"github.com/subdash/subdash/internal/variance"

	"github.com/charmbracelet/lipgloss"
)

// directionTone says whether a trend direction is good news for the metric.
func directionTone(mt trend.MetricTrend) theme.Tone {
	switch mt.Direction {
	case trend.Increasing:
		return varianceTone(mt.Metric, 1)
	case trend.Decreasing:
		return varianceTone(mt.Metric, -1)
	default:
		return theme.Neutral
	}
}

func directionGlyph(d trend.Direction) string {
	switch d {
	case trend.Increasing:
		return "▲"
	case trend.Decreasing:
		return "▼"
	default:
		return "■"
	}
}

func historySeries(history []model.KPISnapshot, m model.Metric) []float64 {
	out := make([]float64, len(history))
	for i, s := range history {
		out[i] = s.Value(m)
	}
	return out
}

func (a App) renderForecastTab(cw int) string {
	t := theme.Active
	r := a.report
	if r == nil {
		return ""
	}
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if r.Trends == nil {
		return components.ContentCard("Trends",
			muted.Render(fmt.Sprintf("Trends need at least %d months of actuals; %d available.", trend.MinHistory, len(r.History))), cw)
	}

	var b strings.Builder

	// Row 1: direction cards for the core metrics
	cards := make([]components.Metric, 0, len(model.CoreMetrics))
	for _, m := range model.CoreMetrics {
		mt, ok := r.Trends.Metric(m)
		if !ok {
			continue
		}
		cards = append(cards, components.Metric{
			Label: m.Label(),
			Value: directionGlyph(mt.Direction) + " " + string(mt.Direction),
			Delta: fmt.Sprintf("%s, %s/mo", mt.Momentum, cli.FormatSignedPercent(mt.AverageGrowth*100)),
			Tone:  directionTone(mt),
		})
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Row 2: trend table with history sparklines
	b.WriteString(a.renderTrendTable(cw))
	b.WriteString("\n")

	// Row 3: forecast
	if len(r.Forecast) > 0 {
		b.WriteString(a.renderForecastTable(cw))
	}

	return b.String()
}

func (a App) renderTrendTable(cw int) string {
	t := theme.Active
	r := a.report
	innerW := components.CardInnerWidth(cw)
	labelW := 18

	cols := fitColumns([]column{
		{"Direction", 13}, {"Momentum", 13}, {"Change", 9}, {"Avg growth", 11}, {"Latest", 14},
	}, innerW, labelW)
	sparkW := innerW - labelW - 2
	for _, c := range cols {
		sparkW -= c.width + 1
	}

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	valStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	var body strings.Builder
	body.WriteString(tableHeader("Metric", labelW, cols))
	for i, mt := range r.Trends.Metrics {
		tone := lipgloss.NewStyle().Foreground(t.ToneColor(directionTone(mt))).Background(t.Surface)
		body.WriteString("\n")
		body.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", labelW, mt.Metric.Label())))
		body.WriteString(tableCells([]string{
			tone.Render(directionGlyph(mt.Direction) + " " + string(mt.Direction)),
			valStyle.Render(string(mt.Momentum)),
			tone.Render(cli.FormatSignedPercent(mt.Change * 100)),
			valStyle.Render(cli.FormatSignedPercent(mt.AverageGrowth * 100)),
			nameStyle.Render(cli.FormatValue(mt.Metric, mt.LastValue)),
		}, cols))
		if sparkW >= len(r.History) {
			body.WriteString(space.Render("  "))
			body.WriteString(components.Sparkline(historySeries(r.History, mt.Metric), t.SeriesColor(i)))
		}
	}

	title := fmt.Sprintf("Trends  %s → %s  (%d months)", r.Trends.From, r.Trends.To, r.Trends.Periods)
	return components.ContentCard(title, body.String(), cw)
}

func (a App) renderForecastTable(cw int) string {
	t := theme.Active
	r := a.report
	innerW := components.CardInnerWidth(cw)
	labelW := 10

	cols := []column{{"Confidence", 11}}
	for _, m := range model.TrendMetrics {
		w := max(10, len(m.Label()))
		if model.UnitOf(m) == model.UnitCurrency {
			w = max(w, 13)
		}
		cols = append(cols, column{m.Label(), w})
	}
	cols = fitColumns(cols, innerW, labelW)

	monthStyle := lipgloss.NewStyle().Foreground(t.BlueBright).Background(t.Surface)
	valStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var body strings.Builder
	body.WriteString(tableHeader("Month", labelW, cols))
	for _, fp := range r.Forecast {
		confTone := theme.Good
		switch {
		case fp.Confidence < 50:
			confTone = theme.Bad
		case fp.Confidence < 80:
			confTone = theme.Warn
		}
		confStyle := lipgloss.NewStyle().Foreground(t.ToneColor(confTone)).Background(t.Surface)

		cells := []string{confStyle.Render(cli.FormatPercent(fp.Confidence))}
		for _, m := range model.TrendMetrics {
			cells = append(cells, valStyle.Render(cli.FormatValue(m, fp.Values[m])))
		}
		body.WriteString("\n")
		body.WriteString(monthStyle.Render(fmt.Sprintf("%-*s", labelW, fp.Month.String())))
		body.WriteString(tableCells(cells, cols))
	}

	// Compare the first forecast month against its plan where one exists.
	if p, ok := projection.Find(r.Plan, r.Forecast[0].Month); ok {
		fp := r.Forecast[0]
		gap := fp.Values[model.MetricMRR] - p.MRR
		tone := lipgloss.NewStyle().Foreground(t.ToneColor(varianceTone(model.MetricMRR, gap))).Background(t.Surface)
		muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
		body.WriteString("\n\n")
		body.WriteString(muted.Render(fmt.Sprintf("%s MRR on current trend vs plan: ", cli.FormatMonthLabel(fp.Month))))
		body.WriteString(tone.Render(cli.FormatDelta(model.MetricMRR, gap)))
		if !variance.Favorable(model.MetricMRR, gap) {
			body.WriteString(muted.Render("  (behind plan)"))
		}
	}

	return components.ContentCard(fmt.Sprintf("Forecast  next %d months", len(r.Forecast)), body.String(), cw)
}
