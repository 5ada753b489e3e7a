package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/subdash/subdash/internal/cli"
	"github.com/subdash/subdash/internal/cohort"
	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/variance"
)

// mdTable writes a GitHub-flavored Markdown table.
func mdTable(b *strings.Builder, headers []string, rows [][]string) {
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("|")
	for i := range headers {
		if i == 0 {
			b.WriteString(" --- |")
		} else {
			b.WriteString(" ---: |")
		}
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	b.WriteString("\n")
}

func mark(m model.Metric, abs float64) string {
	if abs == 0 {
		return ""
	}
	if variance.Favorable(m, abs) {
		return " ▲"
	}
	return " ▼"
}

// Markdown renders the report.
func (r *Monthly) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Monthly report: %s\n\n", cli.FormatMonthLabel(r.Month))
	fmt.Fprintf(&b, "Generated %s from %s data.\n\n", r.GeneratedAt.Format("2006-01-02 15:04"), r.Source)
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "> **Warning:** %s\n\n", w)
	}

	r.writePlan(&b)
	r.writeVariance(&b)
	r.writeDaily(&b)
	r.writeTrends(&b)
	r.writeCohort(&b)
	return b.String()
}

func (r *Monthly) writePlan(b *strings.Builder) {
	b.WriteString("## Plan\n\n")
	if r.PlanMonth == nil {
		b.WriteString("This month is outside the projected horizon.\n\n")
	} else {
		p := r.PlanMonth
		mdTable(b, []string{"Metric", "Planned"}, [][]string{
			{"New acquisitions", cli.FormatNumber(int64(p.NewAcquisitions))},
			{"Total customers", cli.FormatNumber(int64(p.TotalCustomers))},
			{"Churn", cli.FormatNumber(int64(p.ChurnCount))},
			{"MRR", cli.FormatYen(p.MRR)},
			{"Expenses", cli.FormatYen(p.Expenses)},
			{"Profit", cli.FormatYen(p.Profit)},
			{"Cumulative profit", cli.FormatYen(p.CumulativeProfit)},
		})
	}

	s := r.PlanSummary
	fmt.Fprintf(b, "Over %d months the plan acquires %s customers, ends at %s customers and %s MRR.",
		s.Months, cli.FormatNumber(int64(s.TotalAcquired)), cli.FormatNumber(int64(s.EndingCustomers)), cli.FormatYen(s.EndingMRR))
	if s.BreakEven.IsZero() {
		b.WriteString(" It does not break even within the horizon.\n\n")
	} else {
		fmt.Fprintf(b, " Monthly break-even: %s.\n\n", cli.FormatMonthLabel(s.BreakEven))
	}
}

func (r *Monthly) writeVariance(b *strings.Builder) {
	b.WriteString("## Plan vs actual\n\n")
	if r.Variance == nil {
		b.WriteString("No actuals reported for this month.\n\n")
		return
	}
	var rows [][]string
	for _, v := range r.Variance.Metrics {
		rows = append(rows, []string{
			v.Metric.Label(),
			cli.FormatValue(v.Metric, v.Planned),
			cli.FormatValue(v.Metric, v.Actual),
			cli.FormatDelta(v.Metric, v.Absolute) + mark(v.Metric, v.Absolute),
			cli.FormatSignedPercent(v.Percent),
		})
	}
	mdTable(b, []string{"Metric", "Plan", "Actual", "Variance", "%"}, rows)

	if len(r.Variance.Channels) > 0 {
		rows = rows[:0]
		for _, ch := range r.Variance.Channels {
			rows = append(rows, []string{
				ch.Name,
				fmt.Sprintf("%s / %s", cli.FormatCount(ch.Acquisitions.Planned), cli.FormatCount(ch.Acquisitions.Actual)),
				fmt.Sprintf("%s / %s", cli.FormatYen(ch.CPA.Planned), cli.FormatYen(ch.CPA.Actual)),
				cli.FormatDelta(ch.Cost.Metric, ch.Cost.Absolute) + mark(ch.Cost.Metric, ch.Cost.Absolute),
			})
		}
		mdTable(b, []string{"Channel", "Acquisitions (plan / actual)", "CPA (plan / actual)", "Cost variance"}, rows)
	}
	for _, n := range r.Variance.Notes {
		fmt.Fprintf(b, "- %s\n", n)
	}
	if len(r.Variance.Notes) > 0 {
		b.WriteString("\n")
	}
}

func (r *Monthly) writeDaily(b *strings.Builder) {
	if r.Progress == nil {
		return
	}
	p := r.Progress
	fmt.Fprintf(b, "## Month to date (through day %d, %d days reported)\n\n", p.ThroughDay, p.DaysReported)
	mdTable(b, []string{"Figure", "Target", "Actual", "Achievement"}, [][]string{
		{"New acquisitions", cli.FormatCount(p.NewAcquisitions.Target), cli.FormatCount(p.NewAcquisitions.Actual), cli.FormatPercent(p.NewAcquisitions.Achievement)},
		{"Revenue", cli.FormatYen(p.Revenue.Target), cli.FormatYen(p.Revenue.Actual), cli.FormatPercent(p.Revenue.Achievement)},
		{"Expenses", cli.FormatYen(p.Expenses.Target), cli.FormatYen(p.Expenses.Actual), cli.FormatPercent(p.Expenses.Achievement)},
	})
}

func (r *Monthly) writeTrends(b *strings.Builder) {
	b.WriteString("## Trends\n\n")
	if r.Trends == nil {
		b.WriteString("Not enough history for trend analysis.\n\n")
		return
	}
	var rows [][]string
	for _, t := range r.Trends.Metrics {
		rows = append(rows, []string{
			t.Metric.Label(),
			string(t.Direction),
			string(t.Momentum),
			cli.FormatSignedPercent(t.AverageGrowth * 100),
		})
	}
	mdTable(b, []string{"Metric", "Direction", "Momentum", "Avg growth"}, rows)

	if len(r.Forecast) == 0 {
		return
	}
	b.WriteString("### Forecast\n\n")
	rows = rows[:0]
	for _, f := range r.Forecast {
		rows = append(rows, []string{
			f.Month.String(),
			cli.FormatCount(math.Round(f.Values[model.MetricNewAcquisitions])),
			cli.FormatYen(f.Values[model.MetricMRR]),
			cli.FormatCount(math.Round(f.Values[model.MetricTotalCustomers])),
			cli.FormatPercent(f.Confidence),
		})
	}
	mdTable(b, []string{"Month", "Acquisitions", "MRR", "Customers", "Confidence"}, rows)
}

func (r *Monthly) writeCohort(b *strings.Builder) {
	b.WriteString("## Cohort\n\n")
	if r.Cohort == nil {
		b.WriteString("No customers registered this month.\n\n")
		return
	}
	c := r.Cohort
	headers := []string{"Customers"}
	row := []string{cli.FormatNumber(int64(c.CustomerCount))}
	for _, k := range cohort.Offsets {
		headers = append(headers, fmt.Sprintf("M+%d", k))
		row = append(row, cli.FormatRetention(c.Retention[k]))
	}
	headers = append(headers, "Est. LTV")
	row = append(row, cli.FormatYen(c.EstimatedLTV))
	mdTable(b, headers, [][]string{row})
}
