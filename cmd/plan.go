package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/subdash/subdash/internal/cli"
	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/projection"
)

var (
	flagPlanChannels bool
	flagPlanPL       bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Project the monthly growth plan from the configured assumptions",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&flagPlanChannels, "channels", false, "Show per-channel acquisitions and spend")
	planCmd.Flags().BoolVar(&flagPlanPL, "pl", false, "Show the profit and loss breakdown")
	rootCmd.AddCommand(planCmd)
}

func runPlan(_ *cobra.Command, _ []string) error {
	params, err := appConfig.GrowthParameters(time.Now())
	if err != nil {
		return err
	}
	for _, w := range projection.Warnings(params) {
		fmt.Fprintln(os.Stderr, cli.RenderWarning(w))
	}
	records, err := projection.Project(params)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("\n  Plan horizon is empty.")
		return nil
	}

	first, last := records[0].Month, records[len(records)-1].Month
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("GROWTH PLAN  %s to %s", cli.FormatMonthLabel(first), cli.FormatMonthLabel(last))))
	fmt.Println()

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Month.String(),
			cli.FormatNumber(int64(r.NewAcquisitions)),
			cli.FormatNumber(int64(r.ChurnCount)),
			cli.FormatNumber(int64(r.TotalCustomers)),
			cli.FormatYen(r.MRR),
			cli.FormatYen(r.Expenses),
			cli.RenderVariance(model.MetricMRR, r.Profit, cli.FormatYen(r.Profit)),
			cli.RenderVariance(model.MetricMRR, r.CumulativeProfit, cli.FormatYen(r.CumulativeProfit)),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Month", "New", "Churn", "Customers", "MRR", "Expenses", "Profit", "Cumulative"},
		Rows:    rows,
	}))

	if flagPlanChannels {
		printPlanChannels(records)
	}
	if flagPlanPL {
		printPlanPL(records)
	}

	s := projection.Summarize(records)
	fmt.Println()
	fmt.Printf("  Acquired:        %s\n", cli.FormatNumber(int64(s.TotalAcquired)))
	fmt.Printf("  Churned:         %s\n", cli.FormatNumber(int64(s.TotalChurned)))
	fmt.Printf("  Ending MRR:      %s\n", cli.FormatYen(s.EndingMRR))
	fmt.Printf("  Channel spend:   %s\n", cli.FormatYen(s.TotalChannelCost))
	fmt.Printf("  Break-even:      %s\n", monthOrNever(s.BreakEven))
	fmt.Printf("  Payback:         %s\n", monthOrNever(s.PaybackMonth))
	fmt.Println()
	return nil
}

func monthOrNever(m model.Month) string {
	if m.IsZero() {
		return "not within horizon"
	}
	return cli.FormatMonthLabel(m)
}

func printPlanChannels(records []model.MonthlyPlanRecord) {
	var names []string
	seen := make(map[string]bool)
	for _, r := range records {
		for _, ch := range r.Channels {
			if !seen[ch.Name] {
				seen[ch.Name] = true
				names = append(names, ch.Name)
			}
		}
	}
	if len(names) == 0 {
		return
	}

	headers := []string{"Month"}
	for _, n := range names {
		headers = append(headers, n+" new", n+" spend")
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := []string{r.Month.String()}
		for _, n := range names {
			ch, _ := r.Channel(n)
			row = append(row, cli.FormatNumber(int64(ch.PlannedAcquisitions)), cli.FormatYen(ch.PlannedCost))
		}
		rows = append(rows, row)
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{Title: "Channels", Headers: headers, Rows: rows}))
}

func printPlanPL(records []model.MonthlyPlanRecord) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		pl := r.PL
		rows = append(rows, []string{
			r.Month.String(),
			cli.FormatYen(pl.Revenue.MonthlySubscription),
			cli.FormatYen(pl.Revenue.YearlySubscription),
			cli.FormatYen(pl.Costs.ChannelCosts),
			cli.FormatYen(pl.Costs.OperatingExpenses),
			cli.FormatYen(pl.NetProfit),
			cli.FormatPercent(pl.NetMargin),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Profit and loss",
		Headers: []string{"Month", "Monthly rev", "Yearly rev", "Channels", "Opex", "Net", "Margin"},
		Rows:    rows,
	}))
}
