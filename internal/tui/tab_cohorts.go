package tui

import (
	"fmt"
	"strings"

	"github.com/subdash/subdash/internal/cli"
	"github.com/subdash/subdash/internal/cohort"
	"github.com/subdash/subdash/internal/tui/components"
	"github.com/subdash/subdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// retentionTone grades a retention checkpoint.
func retentionTone(pct *int) theme.Tone {
	switch {
	case pct == nil:
		return theme.Neutral
	case *pct >= 80:
		return theme.Good
	case *pct >= 50:
		return theme.Warn
	default:
		return theme.Bad
	}
}

func (a App) renderCohortsTab(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if len(a.cohorts) == 0 {
		return components.ContentCard("Cohorts",
			muted.Render("No customers registered in the loaded months."), cw)
	}

	var b strings.Builder

	// Row 1: selected cohort
	if r := a.report; r != nil && r.Cohort != nil {
		c := r.Cohort
		cards := []components.Metric{
			{Label: "Cohort " + cli.FormatMonthLabel(c.Period), Value: cli.FormatNumber(int64(c.CustomerCount)), Delta: "registered"},
		}
		for _, k := range []int{1, 3} {
			cards = append(cards, components.Metric{
				Label: fmt.Sprintf("Retention M+%d", k),
				Value: cli.FormatRetention(c.Retention[k]),
				Tone:  retentionTone(c.Retention[k]),
			})
		}
		cards = append(cards, components.Metric{
			Label: "Estimated LTV",
			Value: cli.FormatCompactYen(c.EstimatedLTV),
			Delta: cli.FormatYen(c.AverageLTV) + " per customer",
		})
		b.WriteString(components.MetricCardRow(cards, cw))
		b.WriteString("\n")
	} else {
		b.WriteString(components.ContentCard("",
			muted.Render("No customers registered in "+cli.FormatMonthLabel(a.month)+"."), cw))
		b.WriteString("\n")
	}

	// Row 2: retention matrix
	innerW := components.CardInnerWidth(cw)
	labelW := 10
	cols := []column{{"Customers", 10}}
	for _, k := range cohort.Offsets {
		cols = append(cols, column{fmt.Sprintf("M+%d", k), 6})
	}
	cols = append(cols, column{"LTV", 13}, column{"Per customer", 13})
	cols = fitColumns(cols, innerW, labelW)

	monthStyle := lipgloss.NewStyle().Foreground(t.BlueBright).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	valStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var body strings.Builder
	body.WriteString(tableHeader("Cohort", labelW, cols))
	for _, c := range a.cohorts {
		label := monthStyle
		if c.Period == a.month {
			label = selStyle
		}
		cells := []string{valStyle.Render(cli.FormatNumber(int64(c.CustomerCount)))}
		for _, k := range cohort.Offsets {
			tone := lipgloss.NewStyle().Foreground(t.ToneColor(retentionTone(c.Retention[k]))).Background(t.Surface)
			cells = append(cells, tone.Render(cli.FormatRetention(c.Retention[k])))
		}
		cells = append(cells,
			valStyle.Render(cli.FormatYen(c.EstimatedLTV)),
			valStyle.Render(cli.FormatYen(c.AverageLTV)))

		body.WriteString("\n")
		body.WriteString(label.Render(fmt.Sprintf("%-*s", labelW, c.Period.String())))
		body.WriteString(tableCells(cells, cols))
	}

	title := fmt.Sprintf("Retention  %d cohorts", len(a.cohorts))
	b.WriteString(components.ContentCard(title, body.String(), cw))
	return b.String()
}
