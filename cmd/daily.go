package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/subdash/subdash/internal/cli"
	"github.com/subdash/subdash/internal/daily"
)

var flagThroughDay int

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily targets and month-to-date progress",
	RunE:  runDaily,
}

func init() {
	dailyCmd.Flags().IntVar(&flagThroughDay, "through", 0, "Count reports through this day of the month (default: latest reported day)")
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(_ *cobra.Command, _ []string) error {
	r, ds, err := buildReport(context.Background(), flagMonth, 0)
	if err != nil {
		return err
	}
	printWarnings(r)
	if r.Targets == nil {
		fmt.Printf("\n  %s is outside the plan horizon.\n\n", cli.FormatMonthLabel(r.Month))
		return nil
	}
	t := r.Targets

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DAILY TARGETS  %s  (%d days)", cli.FormatMonthLabel(t.Month), t.Days)))
	fmt.Println()

	rows := [][]string{
		{"New acquisitions", cli.FormatNumber(int64(t.NewAcquisitions))},
		{"Revenue", cli.FormatYen(t.Revenue)},
		{"Expenses", cli.FormatYen(t.Expenses)},
	}
	names := make([]string, 0, len(t.ChannelTarget))
	for name := range t.ChannelTarget {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 0 {
		rows = append(rows, []string{"---"})
		for _, name := range names {
			rows = append(rows,
				[]string{name + " new", cli.FormatNumber(int64(t.ChannelTarget[name]))},
				[]string{name + " budget", cli.FormatYen(t.ChannelBudget[name])})
		}
	}
	fmt.Print(cli.RenderTable(cli.Table{Headers: []string{"Target", "Per day"}, Rows: rows}))

	reports := ds.Daily[r.Month]
	if len(reports) == 0 {
		fmt.Printf("\n  No daily reports for %s.\n\n", cli.FormatMonthLabel(r.Month))
		return nil
	}

	p := r.Progress
	if flagThroughDay > 0 || p == nil {
		through := flagThroughDay
		if through <= 0 {
			through = t.Days
		}
		prog := daily.Accumulate(reports, *t, through)
		p = &prog
	}
	printProgress(p)
	return nil
}

func printProgress(p *daily.Progress) {
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("MONTH TO DATE  through day %d  (%d days reported)", p.ThroughDay, p.DaysReported)))
	fmt.Println()

	row := func(label string, l daily.Line, currency bool) []string {
		format := cli.FormatCount
		if currency {
			format = cli.FormatYen
		}
		return []string{
			label,
			format(l.Target),
			format(l.Actual),
			cli.FormatPercent(l.Achievement),
			cli.RenderProgressBar(int(l.Actual), int(l.Target), 20),
		}
	}

	rows := [][]string{
		row("New acquisitions", p.NewAcquisitions, false),
		row("Revenue", p.Revenue, true),
		row("Expenses", p.Expenses, true),
	}
	if len(p.Channels) > 0 {
		rows = append(rows, []string{"---"})
		for _, ch := range p.Channels {
			rows = append(rows,
				row(ch.Name+" new", ch.Acquisitions, false),
				row(ch.Name+" spend", ch.Spend, true))
		}
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Figure", "Target", "Actual", "Achieved", "Progress"},
		Rows:    rows,
	}))
	fmt.Println()
}
