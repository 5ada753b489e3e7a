package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/subdash/subdash/internal/cli"
	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/variance"
)

var flagMonth string

var varianceCmd = &cobra.Command{
	Use:   "variance",
	Short: "Compare a month's actuals against the plan",
	RunE:  runVariance,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagMonth, "month", "", "Month to show, YYYY-MM (default: latest month with actuals)")
	rootCmd.AddCommand(varianceCmd)
}

func runVariance(_ *cobra.Command, _ []string) error {
	r, _, err := buildReport(context.Background(), flagMonth, 0)
	if err != nil {
		return err
	}
	printWarnings(r)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("PLAN VS ACTUAL  %s  (%s)", cli.FormatMonthLabel(r.Month), r.Source)))
	fmt.Println()

	switch {
	case r.PlanMonth == nil:
		fmt.Printf("  %s is outside the plan horizon.\n\n", cli.FormatMonthLabel(r.Month))
		return nil
	case r.Variance == nil:
		fmt.Printf("  No actuals reported for %s yet.\n\n", cli.FormatMonthLabel(r.Month))
		return nil
	}
	logVarianceNotes(r.Month, r.Variance.Notes)
	printVariance(r.Variance)
	return nil
}

func printVariance(v *variance.Report) {
	rows := make([][]string, 0, len(v.Metrics))
	for _, res := range v.Metrics {
		rows = append(rows, []string{
			res.Metric.Label(),
			cli.FormatValue(res.Metric, res.Planned),
			cli.FormatValue(res.Metric, res.Actual),
			cli.RenderVariance(res.Metric, res.Absolute, cli.FormatDelta(res.Metric, res.Absolute)),
			cli.RenderVariance(res.Metric, res.Absolute, percentOrDash(res)),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Plan", "Actual", "Variance", "%"},
		Rows:    rows,
	}))

	if len(v.Channels) > 0 {
		rows = rows[:0]
		for _, ch := range v.Channels {
			for _, res := range []variance.Result{ch.Acquisitions, ch.CPA, ch.Cost} {
				rows = append(rows, []string{
					ch.Name,
					res.Metric.Label(),
					cli.FormatValue(res.Metric, res.Planned),
					cli.FormatValue(res.Metric, res.Actual),
					cli.RenderVariance(res.Metric, res.Absolute, cli.FormatDelta(res.Metric, res.Absolute)),
				})
			}
			rows = append(rows, []string{"---"})
		}
		rows = rows[:len(rows)-1]
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Channels",
			Headers: []string{"Channel", "Metric", "Plan", "Actual", "Variance"},
			Rows:    rows,
		}))
	}

	if len(v.Notes) > 0 {
		fmt.Println()
		for _, n := range v.Notes {
			fmt.Println(cli.RenderNote(n.String()))
		}
	}
	fmt.Println()
}

// logVarianceNotes records channel mismatches as data-quality notes.
func logVarianceNotes(m model.Month, notes []variance.Note) {
	for _, n := range notes {
		logger.Info("channel mismatch",
			zap.String("month", m.String()),
			zap.String("channel", n.Channel),
			zap.String("note", n.Message))
	}
}

func percentOrDash(res variance.Result) string {
	if res.Planned == 0 {
		return "-"
	}
	return cli.FormatSignedPercent(res.Percent)
}
