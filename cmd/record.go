package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/subdash/subdash/internal/cli"
	"github.com/subdash/subdash/internal/source"
)

var (
	flagRecordDate     string
	flagRecordNew      int
	flagRecordRevenue  float64
	flagRecordExpenses float64
	flagRecordChannels []string
	flagRecordID       string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record one day's actuals in the store",
	Example: "  subdash record --date 2026-10-17 --new 12 --revenue 11760 --expenses 18000 \\\n" +
		"    --channel search=7:21000 --channel referral=5:7500",
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVar(&flagRecordDate, "date", "", "Report date, YYYY-MM-DD (default: today)")
	recordCmd.Flags().IntVar(&flagRecordNew, "new", 0, "New acquisitions")
	recordCmd.Flags().Float64Var(&flagRecordRevenue, "revenue", 0, "Revenue")
	recordCmd.Flags().Float64Var(&flagRecordExpenses, "expenses", 0, "Expenses")
	recordCmd.Flags().StringArrayVar(&flagRecordChannels, "channel", nil, "Channel line as name=acquisitions:cost (repeatable)")
	recordCmd.Flags().StringVar(&flagRecordID, "id", "", "Report ID to overwrite (default: new ID)")
	rootCmd.AddCommand(recordCmd)
}

func runRecord(_ *cobra.Command, _ []string) error {
	date := flagRecordDate
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	raw := source.RawDaily{
		ID:              flagRecordID,
		Date:            date,
		NewAcquisitions: flagRecordNew,
		Revenue:         flagRecordRevenue,
		Expenses:        flagRecordExpenses,
	}
	for _, s := range flagRecordChannels {
		ch, err := parseChannelFlag(s)
		if err != nil {
			return err
		}
		raw.Channels = append(raw.Channels, ch)
	}

	d, err := source.ConvertDaily(raw)
	if err != nil {
		return fmt.Errorf("invalid report: %w", err)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.SaveDaily(context.Background(), d)
	if err != nil {
		return err
	}
	fmt.Printf("  Recorded %s (%s new, %s revenue)\n",
		d.Date.Format("2006-01-02"), cli.FormatNumber(int64(d.NewAcquisitions)), cli.FormatYen(d.Revenue))
	fmt.Println(cli.RenderNote("id " + id))
	return nil
}

// parseChannelFlag parses "name=acquisitions:cost". The cost part is optional.
func parseChannelFlag(s string) (source.RawChannel, error) {
	name, rest, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return source.RawChannel{}, fmt.Errorf("--channel %q: want name=acquisitions:cost", s)
	}
	acqStr, costStr, hasCost := strings.Cut(rest, ":")
	acq, err := strconv.Atoi(strings.TrimSpace(acqStr))
	if err != nil || acq < 0 {
		return source.RawChannel{}, fmt.Errorf("--channel %q: invalid acquisitions", s)
	}
	ch := source.RawChannel{Name: name, Acquisitions: acq}
	if hasCost {
		cost, err := strconv.ParseFloat(strings.TrimSpace(costStr), 64)
		if err != nil || cost < 0 {
			return source.RawChannel{}, fmt.Errorf("--channel %q: invalid cost", s)
		}
		ch.Cost = cost
	}
	return ch, nil
}
