// Package cmd implements the subdash CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/subdash/subdash/internal/cli"
	"github.com/subdash/subdash/internal/config"
	"github.com/subdash/subdash/internal/logging"
	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/pipeline"
	"github.com/subdash/subdash/internal/report"
	"github.com/subdash/subdash/internal/store"
)

var (
	flagConfig  string
	flagDSN     string
	flagMonths  int
	flagQuiet   bool
	flagVerbose bool
)

var (
	appConfig config.Config
	logger    = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "subdash",
	Short: "Subscription growth plan and KPI tracker",
	Long: "Project a subscription growth plan, compare it with reported actuals,\n" +
		"and follow retention, trends and daily progress.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runVariance,
}

// Execute is the main entry point called from main.go.
func Execute() {
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&flagDSN, "dsn", "", "Record store DSN (sqlite path, mysql://, postgres://)")
	rootCmd.PersistentFlags().IntVar(&flagMonths, "history", 0, "Months of history to load (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output and logs")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
}

// setup loads .env, the config file and the logger before any command runs.
func setup(_ *cobra.Command, _ []string) error {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg, err := config.LoadFile(configFile())
	if err != nil {
		return err
	}
	appConfig = cfg

	l, err := logging.New(flagVerbose, flagQuiet)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	logger = l
	return nil
}

func saveConfig(cfg config.Config) (string, error) {
	path := configFile()
	return path, config.SaveFile(path, cfg)
}

// configFile is the config file in use: --config, or the default path.
func configFile() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.ConfigPath()
}

// storeDSN resolves the record store: --dsn, then SUBDASH_DSN or config, then
// the default sqlite file.
func storeDSN() string {
	if flagDSN != "" {
		return flagDSN
	}
	if dsn := config.GetDSN(appConfig); dsn != "" {
		return dsn
	}
	return store.DefaultPath(config.DataDir())
}

func openStore() (*store.Store, error) {
	st, err := store.Open(storeDSN())
	if err != nil {
		return nil, fmt.Errorf("opening record store: %w", err)
	}
	return st, nil
}

func historyMonths() int {
	if flagMonths > 0 {
		return flagMonths
	}
	if appConfig.General.HistoryMonths > 0 {
		return appConfig.General.HistoryMonths
	}
	return 12
}

// newProgress returns a stderr progress bar for loads and imports, or nil
// when quiet. The bar is created on the first report, once the total is known.
func newProgress(desc string) pipeline.ProgressFunc {
	if flagQuiet {
		return nil
	}
	var (
		once sync.Once
		bar  *progressbar.ProgressBar
	)
	return func(current, total int) {
		once.Do(func() {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("  "+desc),
				progressbar.OptionSetWidth(30),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		})
		_ = bar.Set(current)
	}
}

// unavailable is a Source that always fails, so an unreachable store goes
// through the same fallback path as a failed fetch.
type unavailable struct{ err error }

func (u unavailable) Customers(context.Context) ([]model.Customer, error) { return nil, u.err }
func (u unavailable) Actual(context.Context, model.Month) (model.ActualRecord, error) {
	return model.ActualRecord{}, u.err
}
func (u unavailable) DailyActuals(context.Context, model.Month) ([]model.DailyActual, error) {
	return nil, u.err
}
func (u unavailable) Targets(context.Context, model.Month) ([]model.TargetRecord, error) {
	return nil, u.err
}

// loadDataset is the shared data loading path used by all commands. It never
// fails: without a reachable store it returns the built-in sample dataset.
func loadDataset(ctx context.Context, progress pipeline.ProgressFunc) *pipeline.Dataset {
	var src pipeline.Source
	st, err := openStore()
	if err != nil {
		src = unavailable{err}
	} else {
		defer st.Close()
		src = st
	}

	months := pipeline.Window(model.MonthOf(time.Now()), historyMonths())
	return pipeline.Load(ctx, src, months, pipeline.Options{
		Workers:  appConfig.Store.Workers,
		Timeout:  time.Duration(appConfig.Store.FetchTimeoutSec) * time.Second,
		Progress: progress,
		Logger:   logger,
	})
}

// loadForCLI loads with a progress bar and reports on stderr why live data
// could not be used.
func loadForCLI(ctx context.Context) *pipeline.Dataset {
	ds := loadDataset(ctx, newProgress("Loading months"))
	if ds.Fallback && !flagQuiet {
		cause := "unknown error"
		if ds.Cause != nil {
			cause = ds.Cause.Error()
		}
		fmt.Fprintln(os.Stderr, cli.RenderWarning("Live data unavailable ("+cause+")"))
	}
	return ds
}

func reportInputs(ds *pipeline.Dataset, forecastMonths int) (report.Inputs, error) {
	now := time.Now()
	params, err := appConfig.GrowthParameters(now)
	if err != nil {
		return report.Inputs{}, err
	}
	if forecastMonths <= 0 {
		forecastMonths = appConfig.Forecast.Months
	}
	return report.Inputs{
		Dataset:        ds,
		Params:         params,
		Pricing:        appConfig.PlanPricing(now),
		Trend:          appConfig.Forecast.Options(),
		ForecastMonths: forecastMonths,
		AsOf:           now,
	}, nil
}

// resolveMonth parses --month, defaulting to the latest month with data.
func resolveMonth(flag string, ds *pipeline.Dataset) (model.Month, error) {
	if flag != "" {
		m, err := model.ParseMonth(flag)
		if err != nil {
			return model.Month{}, fmt.Errorf("--month: %w", err)
		}
		return m, nil
	}
	if m, ok := ds.LatestMonth(); ok {
		return m, nil
	}
	if len(ds.Months) > 0 {
		return ds.Months[len(ds.Months)-1], nil
	}
	return model.Month{}, errors.New("no months loaded; pass --month")
}

// buildReport loads data and computes the report for --month.
func buildReport(ctx context.Context, monthFlag string, forecastMonths int) (*report.Monthly, *pipeline.Dataset, error) {
	ds := loadForCLI(ctx)
	m, err := resolveMonth(monthFlag, ds)
	if err != nil {
		return nil, nil, err
	}
	in, err := reportInputs(ds, forecastMonths)
	if err != nil {
		return nil, nil, err
	}
	r, err := report.Build(in, m)
	return r, ds, err
}

func printWarnings(r *report.Monthly) {
	if flagQuiet {
		return
	}
	for _, w := range r.Warnings {
		fmt.Fprintln(os.Stderr, cli.RenderWarning(w))
	}
}
