package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subdash/subdash/internal/cli"
	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/projection"
	"github.com/subdash/subdash/internal/trend"
)

var flagForecastMonths int

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Classify KPI direction and momentum over the loaded history",
	RunE:  runTrends,
}

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Extrapolate KPIs from recent growth",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().IntVar(&flagForecastMonths, "months", 0, "Months to forecast (default from config)")
	rootCmd.AddCommand(trendsCmd)
	rootCmd.AddCommand(forecastCmd)
}

func runTrends(_ *cobra.Command, _ []string) error {
	r, _, err := buildReport(context.Background(), flagMonth, 0)
	if err != nil {
		return err
	}
	printWarnings(r)
	if r.Trends == nil {
		fmt.Printf("\n  Trends need at least %d months of actuals; %d available.\n\n", trend.MinHistory, len(r.History))
		return nil
	}
	s := r.Trends

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("TRENDS  %s to %s", cli.FormatMonthLabel(s.From), cli.FormatMonthLabel(s.To))))
	fmt.Println()

	rows := make([][]string, 0, len(s.Metrics))
	for _, mt := range s.Metrics {
		rows = append(rows, []string{
			mt.Metric.Label(),
			renderDirection(mt),
			string(mt.Momentum),
			cli.FormatSignedPercent(mt.Change * 100),
			cli.FormatSignedPercent(mt.AverageGrowth * 100),
			cli.FormatValue(mt.Metric, mt.LastValue),
			cli.RenderSparkline(metricSeries(r.History, mt.Metric)),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Direction", "Momentum", "Change", "Avg growth", "Latest", "History"},
		Rows:    rows,
	}))
	fmt.Printf("\n  %d months analyzed\n\n", s.Periods)
	return nil
}

func renderDirection(mt trend.MetricTrend) string {
	switch mt.Direction {
	case trend.Increasing:
		return cli.RenderVariance(mt.Metric, 1, "▲ "+string(mt.Direction))
	case trend.Decreasing:
		return cli.RenderVariance(mt.Metric, -1, "▼ "+string(mt.Direction))
	}
	return cli.RenderVariance(mt.Metric, 0, "■ "+string(mt.Direction))
}

func metricSeries(history []model.KPISnapshot, m model.Metric) []float64 {
	out := make([]float64, len(history))
	for i, s := range history {
		out[i] = s.Value(m)
	}
	return out
}

func runForecast(_ *cobra.Command, _ []string) error {
	r, _, err := buildReport(context.Background(), flagMonth, flagForecastMonths)
	if err != nil {
		return err
	}
	printWarnings(r)
	if r.Trends == nil {
		fmt.Printf("\n  Forecasting needs at least %d months of actuals; %d available.\n\n", trend.MinHistory, len(r.History))
		return nil
	}
	if len(r.Forecast) == 0 {
		fmt.Println("\n  Forecast horizon is empty.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FORECAST  next %d months", len(r.Forecast))))
	fmt.Println()

	headers := []string{"Month", "Confidence"}
	for _, m := range model.TrendMetrics {
		headers = append(headers, m.Label())
	}
	headers = append(headers, "MRR vs plan")

	rows := make([][]string, 0, len(r.Forecast))
	for _, fp := range r.Forecast {
		row := []string{fp.Month.String(), cli.FormatPercent(fp.Confidence)}
		for _, m := range model.TrendMetrics {
			row = append(row, cli.FormatValue(m, fp.Values[m]))
		}
		gap := "-"
		if p, ok := projection.Find(r.Plan, fp.Month); ok {
			d := fp.Values[model.MetricMRR] - p.MRR
			gap = cli.RenderVariance(model.MetricMRR, d, cli.FormatDelta(model.MetricMRR, d))
		}
		rows = append(rows, append(row, gap))
	}
	fmt.Print(cli.RenderTable(cli.Table{Headers: headers, Rows: rows}))
	fmt.Println()
	fmt.Println(cli.RenderNote("Values compound each metric's recent growth from the last reported month."))
	fmt.Println()
	return nil
}
