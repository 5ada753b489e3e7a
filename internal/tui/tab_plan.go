package tui

import (
	"fmt"
	"strings"

	"github.com/subdash/subdash/internal/cli"
	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/tui/components"
	"github.com/subdash/subdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// column is one right-aligned numeric column of a card table; the first
// column of every table is a left-aligned label.
type column struct {
	title string
	width int
}

// fitColumns keeps as many columns as fit after the label column.
func fitColumns(cols []column, innerW, labelW int) []column {
	used := labelW
	for i, c := range cols {
		used += c.width + 1
		if used > innerW {
			return cols[:i]
		}
	}
	return cols
}

func tableHeader(label string, labelW int, cols []column) string {
	t := theme.Active
	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s", labelW, label)
	width := labelW
	for _, c := range cols {
		fmt.Fprintf(&b, " %*s", c.width, truncStr(c.title, c.width))
		width += c.width + 1
	}
	return headerStyle.Render(b.String()) + "\n" + mutedStyle.Render(strings.Repeat("─", width))
}

// tableCells renders pre-styled cells right-aligned to cols.
func tableCells(cells []string, cols []column) string {
	space := lipgloss.NewStyle().Background(theme.Active.Surface)
	var b strings.Builder
	for i, c := range cols {
		if i >= len(cells) {
			break
		}
		pad := max(c.width-lipgloss.Width(cells[i]), 0)
		b.WriteString(space.Render(strings.Repeat(" ", pad+1)))
		b.WriteString(cells[i])
	}
	return b.String()
}

func (a App) renderPlanTab(cw int) string {
	t := theme.Active
	r := a.report
	if r == nil {
		return ""
	}
	sum := r.PlanSummary

	var b strings.Builder

	// Row 1: horizon summary cards
	breakEven, breakTone := "never", theme.Bad
	if !sum.BreakEven.IsZero() {
		breakEven, breakTone = cli.FormatMonthLabel(sum.BreakEven), theme.Good
	}
	payback := "payback not reached"
	if !sum.PaybackMonth.IsZero() {
		payback = "payback " + cli.FormatMonthLabel(sum.PaybackMonth)
	}
	profitTone := theme.Good
	if sum.CumulativeProfit < 0 {
		profitTone = theme.Bad
	}
	cards := []components.Metric{
		{Label: "Customers", Value: cli.FormatNumber(int64(sum.EndingCustomers)),
			Delta: fmt.Sprintf("+%s / -%s", cli.FormatNumber(int64(sum.TotalAcquired)), cli.FormatNumber(int64(sum.TotalChurned)))},
		{Label: "Ending MRR", Value: cli.FormatCompactYen(sum.EndingMRR),
			Delta: "revenue " + cli.FormatCompactYen(sum.TotalRevenue)},
		{Label: "Cumulative profit", Value: cli.FormatCompactYen(sum.CumulativeProfit),
			Delta: "spend " + cli.FormatCompactYen(sum.TotalExpenses), Tone: profitTone},
		{Label: "Break-even", Value: breakEven, Delta: payback, Tone: breakTone},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Row 2: MRR and profit over the horizon
	halves := components.LayoutRow(cw, 2)
	chartH := 8
	if a.isCompactLayout() {
		chartH = 6
	}
	mrr := make([]float64, len(r.Plan))
	profit := make([]float64, len(r.Plan))
	labels := make([]string, len(r.Plan))
	for i, p := range r.Plan {
		mrr[i] = p.MRR
		profit[i] = p.CumulativeProfit
		labels[i] = p.Month.Start().Format("Jan")
	}
	mrrCard := components.ContentCard("Planned MRR",
		components.BarChart(mrr, labels, t.Blue, components.CardInnerWidth(halves[0]), chartH), halves[0])
	profitColor := t.Green
	if sum.CumulativeProfit < 0 {
		profitColor = t.Red
	}
	profitCard := components.ContentCard("Cumulative profit",
		components.Sparkline(profit, profitColor)+"\n"+
			lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(
				fmt.Sprintf("%s → %s", cli.FormatCompactYen(first(profit)), cli.FormatCompactYen(last(profit)))),
		halves[1])
	b.WriteString(components.CardRow([]string{mrrCard, profitCard}))
	b.WriteString("\n")

	// Row 3: month-by-month table
	b.WriteString(a.renderPlanTable(cw))
	b.WriteString("\n")

	// Row 4: channel plan for the selected month
	if r.PlanMonth != nil && len(r.PlanMonth.Channels) > 0 {
		b.WriteString(a.renderChannelPlan(*r.PlanMonth, cw))
	}

	return b.String()
}

func (a App) renderPlanTable(cw int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)
	labelW := 10

	cols := fitColumns([]column{
		{"New", 8}, {"Churn", 7}, {"Customers", 10}, {"MRR", 12},
		{"Expenses", 12}, {"Profit", 12}, {"Cumulative", 13},
	}, innerW, labelW)

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	monthStyle := lipgloss.NewStyle().Foreground(t.BlueBright).Background(t.Surface)
	goodStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	badStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)

	signed := func(v float64) string {
		if v < 0 {
			return badStyle.Render(cli.FormatYen(v))
		}
		return goodStyle.Render(cli.FormatYen(v))
	}

	var body strings.Builder
	body.WriteString(tableHeader("Month", labelW, cols))
	for _, p := range a.report.Plan {
		body.WriteString("\n")
		label, style := monthStyle, rowStyle
		if p.Month == a.month {
			label, style = selStyle, selStyle
		}
		body.WriteString(label.Render(fmt.Sprintf("%-*s", labelW, p.Month.String())))
		body.WriteString(tableCells([]string{
			style.Render(cli.FormatNumber(int64(p.NewAcquisitions))),
			style.Render(cli.FormatNumber(int64(p.ChurnCount))),
			style.Render(cli.FormatNumber(int64(p.TotalCustomers))),
			style.Render(cli.FormatYen(p.MRR)),
			style.Render(cli.FormatYen(p.Expenses)),
			signed(p.Profit),
			signed(p.CumulativeProfit),
		}, cols))
	}

	title := fmt.Sprintf("Plan  %d months", len(a.report.Plan))
	return components.ContentCard(title, body.String(), cw)
}

func (a App) renderChannelPlan(p model.MonthlyPlanRecord, cw int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)
	labelW := 14
	barW := max(innerW-labelW-2*14-3, 10)

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	valStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	maxCost := 0.0
	for _, ch := range p.Channels {
		maxCost = max(maxCost, ch.PlannedCost)
	}

	var body strings.Builder
	for i, ch := range p.Channels {
		if i > 0 {
			body.WriteString("\n")
		}
		body.WriteString(nameStyle.Render(fmt.Sprintf("%-*s", labelW, truncStr(ch.Name, labelW))))
		body.WriteString(space.Render(" "))
		body.WriteString(components.HBar(ch.PlannedCost, maxCost, barW, t.SeriesColor(i)))
		body.WriteString(valStyle.Render(fmt.Sprintf(" %13s %13s",
			cli.FormatNumber(int64(ch.PlannedAcquisitions))+" new",
			cli.FormatYen(ch.PlannedCost))))
	}

	title := fmt.Sprintf("Channels  %s  spend %s",
		cli.FormatMonthLabel(p.Month), cli.FormatYen(p.PL.Costs.ChannelCosts))
	return components.ContentCard(title, body.String(), cw)
}

func first(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

func last(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return v[len(v)-1]
}
