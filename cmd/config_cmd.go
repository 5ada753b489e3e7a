package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/subdash/subdash/internal/cli"
	"github.com/subdash/subdash/internal/config"
	"github.com/subdash/subdash/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg := appConfig
	path := configFile()

	fmt.Printf("  Config file: %s\n", path)
	if config.Exists() || flagConfig != "" {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Store]")
	fmt.Printf("    DSN:           %s\n", store.Redact(storeDSN()))
	fmt.Printf("    Fetch timeout: %ds\n", cfg.Store.FetchTimeoutSec)
	fmt.Printf("    Workers:       %d\n", cfg.Store.Workers)
	fmt.Printf("    History:       %d months\n", historyMonths())
	fmt.Println()

	fmt.Println("  [Plan]")
	start := cfg.Plan.StartMonth
	if start == "" {
		start = "current month"
	}
	fmt.Printf("    Start:            %s\n", start)
	fmt.Printf("    Horizon:          %d months\n", cfg.Plan.HorizonMonths)
	fmt.Printf("    Initial new:      %s\n", cli.FormatNumber(int64(cfg.Plan.InitialAcquisitions)))
	fmt.Printf("    Growth:           %s/mo\n", cli.FormatPercent(cfg.Plan.MonthlyGrowthRate))
	fmt.Printf("    Churn:            %s/mo\n", cli.FormatPercent(cfg.Plan.ChurnRate))
	fmt.Printf("    Yearly share:     %s\n", cli.FormatPercent(cfg.Plan.YearlyPlanShare))
	fmt.Printf("    Base expenses:    %s (+%s/mo)\n", cli.FormatYen(cfg.Plan.BaseExpenses), cli.FormatPercent(cfg.Plan.ExpenseGrowthRate))
	for _, ch := range cfg.Plan.Channels {
		state := "active"
		if !ch.Active {
			state = "inactive"
		}
		fmt.Printf("    Channel %-9s CPA %s, %s of traffic, %s\n", ch.Name, cli.FormatYen(ch.CPA), cli.FormatPercent(ch.TrafficRatio), state)
	}
	fmt.Println()

	fmt.Println("  [Pricing]")
	fmt.Printf("    Monthly: %s\n", cli.FormatYen(cfg.Pricing.Monthly))
	fmt.Printf("    Yearly:  %s\n", cli.FormatYen(cfg.Pricing.Yearly))
	for _, v := range cfg.Pricing.Versions {
		fmt.Printf("    From %s: %s / %s\n", v.EffectiveFrom, cli.FormatYen(v.Monthly), cli.FormatYen(v.Yearly))
	}
	fmt.Println()

	fmt.Println("  [Forecast]")
	fmt.Printf("    Months:     %d\n", cfg.Forecast.Months)
	fmt.Printf("    Threshold:  %s\n", cli.FormatPercent(cfg.Forecast.ThresholdPct))
	fmt.Printf("    Confidence: %.0f x %.2f^(n-1), floor %.0f\n", cfg.Forecast.ConfidenceBase, cfg.Forecast.ConfidenceDecay, cfg.Forecast.ConfidenceFloor)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address: %s\n", cfg.Server.Addr)
	fmt.Printf("    Refresh: %ds\n", cfg.Server.RefreshSec)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `subdash setup` to reconfigure.")
	return nil
}
