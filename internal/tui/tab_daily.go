package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/subdash/subdash/internal/cli"
	"github.com/subdash/subdash/internal/daily"
	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/tui/components"
	"github.com/subdash/subdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderDailyTab(cw int) string {
	t := theme.Active
	r := a.report
	if r == nil {
		return ""
	}
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if r.Targets == nil {
		return components.ContentCard("Daily targets",
			muted.Render(cli.FormatMonthLabel(a.month)+" is outside the plan horizon."), cw)
	}
	tg := r.Targets

	var b strings.Builder

	// Row 1: per-day targets
	cards := []components.Metric{
		{Label: "New / day", Value: cli.FormatNumber(int64(tg.NewAcquisitions)), Delta: fmt.Sprintf("%d days", tg.Days)},
		{Label: "Revenue / day", Value: cli.FormatYen(tg.Revenue)},
		{Label: "Expenses / day", Value: cli.FormatYen(tg.Expenses)},
	}
	if p := r.Progress; p != nil {
		cards = append(cards, components.Metric{
			Label: "Reported",
			Value: fmt.Sprintf("%d / %d days", p.DaysReported, p.ThroughDay),
			Delta: "through day " + strconv.Itoa(p.ThroughDay),
		})
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	if r.Progress == nil {
		b.WriteString(components.ContentCard("Month to date",
			muted.Render("No daily reports for "+cli.FormatMonthLabel(a.month)+"."), cw))
		b.WriteString("\n")
		b.WriteString(a.renderChannelTargets(tg, cw))
		return b.String()
	}
	p := r.Progress

	// Row 2: achievement bars
	b.WriteString(a.renderAchievement(p, cw))
	b.WriteString("\n")

	// Row 3: daily acquisitions chart
	if reports := a.ds.Daily[a.month]; len(reports) > 0 {
		vals, labels := dailySeries(reports, p.ThroughDay)
		b.WriteString(components.ContentCard(
			fmt.Sprintf("New acquisitions per day  target %d", tg.NewAcquisitions),
			components.BarChart(vals, labels, t.Blue, components.CardInnerWidth(cw), 8),
			cw,
		))
	}

	return b.String()
}

func (a App) renderAchievement(p *daily.Progress, cw int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)
	labelW := 18
	figW := 30
	barW := max(innerW-labelW-figW-8, 10)

	figStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	row := func(label string, l daily.Line, currency, lowerIsBetter bool) string {
		format := cli.FormatCount
		if currency {
			format = cli.FormatYen
		}
		bar := components.AchievementBar(label, l.Achievement, components.AchievementTone(l.Achievement, lowerIsBetter), labelW, barW)
		return bar + figStyle.Render(fmt.Sprintf(" %*s", figW, format(l.Actual)+" / "+format(l.Target)))
	}

	lines := []string{
		row("New acquisitions", p.NewAcquisitions, false, false),
		row("Revenue", p.Revenue, true, false),
		row("Expenses", p.Expenses, true, true),
	}
	if len(p.Channels) > 0 {
		lines = append(lines, "", sectionStyle.Render("Channels"))
		for _, ch := range p.Channels {
			lines = append(lines,
				row(truncStr(ch.Name, labelW-6)+" new", ch.Acquisitions, false, false),
				row(truncStr(ch.Name, labelW-6)+" spend", ch.Spend, true, true))
		}
	}

	title := fmt.Sprintf("Month to date  %s, day %d", cli.FormatMonthLabel(p.Month), p.ThroughDay)
	return components.ContentCard(title, strings.Join(lines, "\n"), cw)
}

func (a App) renderChannelTargets(tg *daily.Targets, cw int) string {
	t := theme.Active
	if len(tg.ChannelTarget) == 0 {
		return ""
	}
	nameStyle := lipgloss.NewStyle().Foreground(t.BlueBright).Background(t.Surface)
	valStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	names := make([]string, 0, len(tg.ChannelTarget))
	for name := range tg.ChannelTarget {
		names = append(names, name)
	}
	sort.Strings(names)

	labelW := 14
	cols := []column{{"New / day", 10}, {"Budget / day", 13}}
	var body strings.Builder
	body.WriteString(tableHeader("Channel", labelW, cols))
	for _, name := range names {
		body.WriteString("\n")
		body.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", labelW, truncStr(name, labelW))))
		body.WriteString(tableCells([]string{
			valStyle.Render(cli.FormatNumber(int64(tg.ChannelTarget[name]))),
			valStyle.Render(cli.FormatYen(tg.ChannelBudget[name])),
		}, cols))
	}
	return components.ContentCard("Channel targets", body.String(), cw)
}

// dailySeries sums reported acquisitions per day for days 1..through.
func dailySeries(reports []model.DailyActual, through int) ([]float64, []string) {
	through = max(through, 1)
	vals := make([]float64, through)
	labels := make([]string, through)
	for i := range labels {
		labels[i] = strconv.Itoa(i + 1)
	}
	for _, d := range reports {
		if day := d.Date.Day(); day <= through {
			vals[day-1] += float64(d.NewAcquisitions)
		}
	}
	return vals, labels
}
