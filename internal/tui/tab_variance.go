package tui

import (
	"fmt"
	"strings"

	"github.com/subdash/subdash/internal/cli"
	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/tui/components"
	"github.com/subdash/subdash/internal/tui/theme"
	"github.com/subdash/subdash/internal/variance"

	"github.com/charmbracelet/lipgloss"
)

// varianceTone colors a variance by whether it is good news for m.
func varianceTone(m model.Metric, absolute float64) theme.Tone {
	switch {
	case absolute == 0:
		return theme.Neutral
	case variance.Favorable(m, absolute):
		return theme.Good
	default:
		return theme.Bad
	}
}

func (a App) renderVarianceTab(cw int) string {
	t := theme.Active
	r := a.report
	if r == nil {
		return ""
	}
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if r.PlanMonth == nil {
		return components.ContentCard("Plan vs actual",
			muted.Render(cli.FormatMonthLabel(a.month)+" is outside the plan horizon."), cw)
	}
	if r.Variance == nil {
		return components.ContentCard("Plan vs actual",
			muted.Render("No actuals reported for "+cli.FormatMonthLabel(a.month)+" yet."), cw)
	}
	v := r.Variance

	var b strings.Builder

	// Row 1: one card per core metric, actual with its gap to plan
	cards := make([]components.Metric, 0, len(v.Metrics))
	for _, res := range v.Metrics {
		delta := cli.FormatDelta(res.Metric, res.Absolute)
		if res.Planned != 0 {
			delta += " (" + cli.FormatSignedPercent(res.Percent) + ")"
		}
		cards = append(cards, components.Metric{
			Label: res.Metric.Label(),
			Value: cli.FormatValue(res.Metric, res.Actual),
			Delta: delta + " vs plan",
			Tone:  varianceTone(res.Metric, res.Absolute),
		})
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Row 2: metric table
	b.WriteString(a.renderVarianceTable(v, cw))
	b.WriteString("\n")

	// Row 3: channels
	if len(v.Channels) > 0 {
		b.WriteString(a.renderChannelVariance(v.Channels, cw))
		b.WriteString("\n")
	}

	// Row 4: data-quality notes
	if len(v.Notes) > 0 {
		warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		lines := make([]string, len(v.Notes))
		for i, n := range v.Notes {
			lines[i] = warn.Render("! " + n.String())
		}
		b.WriteString(components.ContentCard("Notes", strings.Join(lines, "\n"), cw))
	}

	return b.String()
}

func (a App) renderVarianceTable(v *variance.Report, cw int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)
	labelW := 18

	cols := fitColumns([]column{
		{"Planned", 14}, {"Actual", 14}, {"Variance", 14}, {"%", 9},
	}, innerW, labelW)

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	valStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var body strings.Builder
	body.WriteString(tableHeader("Metric", labelW, cols))
	for _, res := range v.Metrics {
		tone := lipgloss.NewStyle().Foreground(t.ToneColor(varianceTone(res.Metric, res.Absolute))).Background(t.Surface)
		pct := "-"
		if res.Planned != 0 {
			pct = cli.FormatSignedPercent(res.Percent)
		}
		body.WriteString("\n")
		body.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", labelW, res.Metric.Label())))
		body.WriteString(tableCells([]string{
			valStyle.Render(cli.FormatValue(res.Metric, res.Planned)),
			nameStyle.Render(cli.FormatValue(res.Metric, res.Actual)),
			tone.Render(cli.FormatDelta(res.Metric, res.Absolute)),
			tone.Render(pct),
		}, cols))
	}

	return components.ContentCard("Plan vs actual  "+cli.FormatMonthLabel(v.Month), body.String(), cw)
}

func (a App) renderChannelVariance(channels []variance.ChannelResult, cw int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)
	labelW := 14

	cols := fitColumns([]column{
		{"Plan new", 9}, {"Actual", 8}, {"Δ", 7},
		{"Plan CPA", 10}, {"CPA", 10},
		{"Plan cost", 12}, {"Cost", 12}, {"Δ cost", 11},
	}, innerW, labelW)

	nameStyle := lipgloss.NewStyle().Foreground(t.BlueBright).Background(t.Surface)
	valStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	actualStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	toned := func(res variance.Result) string {
		return lipgloss.NewStyle().Foreground(t.ToneColor(varianceTone(res.Metric, res.Absolute))).
			Background(t.Surface).Render(cli.FormatDelta(res.Metric, res.Absolute))
	}

	var body strings.Builder
	body.WriteString(tableHeader("Channel", labelW, cols))
	for _, ch := range channels {
		cpaActual := lipgloss.NewStyle().Foreground(t.ToneColor(varianceTone(ch.CPA.Metric, ch.CPA.Absolute))).
			Background(t.Surface).Render(cli.FormatYen(ch.CPA.Actual))
		body.WriteString("\n")
		body.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", labelW, truncStr(ch.Name, labelW))))
		body.WriteString(tableCells([]string{
			valStyle.Render(cli.FormatNumber(int64(ch.Acquisitions.Planned))),
			actualStyle.Render(cli.FormatNumber(int64(ch.Acquisitions.Actual))),
			toned(ch.Acquisitions),
			valStyle.Render(cli.FormatYen(ch.CPA.Planned)),
			cpaActual,
			valStyle.Render(cli.FormatYen(ch.Cost.Planned)),
			actualStyle.Render(cli.FormatYen(ch.Cost.Actual)),
			toned(ch.Cost),
		}, cols))
	}

	return components.ContentCard("Channels", body.String(), cw)
}
