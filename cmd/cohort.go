package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/subdash/subdash/internal/cli"
	"github.com/subdash/subdash/internal/cohort"
	"github.com/subdash/subdash/internal/model"
)

var (
	flagCohortFrom string
	flagCohortTo   string
)

var cohortCmd = &cobra.Command{
	Use:   "cohort",
	Short: "Retention and LTV by registration month",
	Long: "Show retention checkpoints and estimated lifetime value for each\n" +
		"registration cohort. With --month, only that cohort is shown.",
	RunE: runCohort,
}

func init() {
	cohortCmd.Flags().StringVar(&flagCohortFrom, "from", "", "First cohort, YYYY-MM (default: first loaded month)")
	cohortCmd.Flags().StringVar(&flagCohortTo, "to", "", "Last cohort, YYYY-MM (default: last loaded month)")
	rootCmd.AddCommand(cohortCmd)
}

func runCohort(_ *cobra.Command, _ []string) error {
	ds := loadForCLI(context.Background())
	if ds.Fallback && !flagQuiet {
		fmt.Fprintln(os.Stderr, cli.RenderWarning("Showing the built-in sample dataset"))
	}
	now := time.Now()
	pricing := appConfig.PlanPricing(now)

	if flagMonth != "" {
		m, err := model.ParseMonth(flagMonth)
		if err != nil {
			return fmt.Errorf("--month: %w", err)
		}
		c, err := cohort.Compute(ds.Customers, m, now, pricing)
		if errors.Is(err, cohort.ErrNoCohortData) {
			fmt.Printf("\n  No customers registered in %s.\n\n", cli.FormatMonthLabel(m))
			return nil
		}
		if err != nil {
			return err
		}
		printCohorts(fmt.Sprintf("COHORT  %s", cli.FormatMonthLabel(m)), []model.CohortResult{c})
		return nil
	}

	if len(ds.Months) == 0 {
		return errors.New("no months loaded; pass --from and --to")
	}
	from, to := ds.Months[0], ds.Months[len(ds.Months)-1]
	var err error
	if flagCohortFrom != "" {
		if from, err = model.ParseMonth(flagCohortFrom); err != nil {
			return fmt.Errorf("--from: %w", err)
		}
	}
	if flagCohortTo != "" {
		if to, err = model.ParseMonth(flagCohortTo); err != nil {
			return fmt.Errorf("--to: %w", err)
		}
	}
	if to.Before(from) {
		return fmt.Errorf("--to %s is before --from %s", to, from)
	}

	months := model.MonthsBetween(from, to)
	progress := newProgress("Computing cohorts")
	var results []model.CohortResult
	for i, m := range months {
		c, err := cohort.Compute(ds.Customers, m, now, pricing)
		if progress != nil {
			progress(i+1, len(months))
		}
		if errors.Is(err, cohort.ErrNoCohortData) {
			continue
		}
		if err != nil {
			return err
		}
		results = append(results, c)
	}
	if len(results) == 0 {
		fmt.Printf("\n  No customers registered between %s and %s.\n\n", cli.FormatMonthLabel(from), cli.FormatMonthLabel(to))
		return nil
	}
	printCohorts(fmt.Sprintf("COHORTS  %s to %s", cli.FormatMonthLabel(from), cli.FormatMonthLabel(to)), results)
	return nil
}

func printCohorts(title string, results []model.CohortResult) {
	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()

	headers := []string{"Cohort", "Customers"}
	for _, k := range cohort.Offsets {
		headers = append(headers, fmt.Sprintf("M+%d", k))
	}
	headers = append(headers, "LTV", "Per customer")

	rows := make([][]string, 0, len(results))
	for _, c := range results {
		row := []string{c.Period.String(), cli.FormatNumber(int64(c.CustomerCount))}
		for _, k := range cohort.Offsets {
			row = append(row, cli.FormatRetention(c.Retention[k]))
		}
		rows = append(rows, append(row, cli.FormatYen(c.EstimatedLTV), cli.FormatYen(c.AverageLTV)))
	}
	fmt.Print(cli.RenderTable(cli.Table{Headers: headers, Rows: rows}))
	fmt.Println()
	fmt.Println(cli.RenderNote(fmt.Sprintf("LTV assumes %d months of revenue per active customer. A dash marks a checkpoint not reached yet.", cohort.LTVMonths)))
	fmt.Println()
}
