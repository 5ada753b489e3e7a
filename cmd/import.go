package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/subdash/subdash/internal/cli"
	"github.com/subdash/subdash/internal/pipeline"
	"github.com/subdash/subdash/internal/source"
)

var flagImportDryRun bool

var importCmd = &cobra.Command{
	Use:   "import <file-or-dir>...",
	Short: "Import customers, actuals, daily reports and targets from YAML or JSONL",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImport,
}

func init() {
	importCmd.Flags().BoolVar(&flagImportDryRun, "dry-run", false, "Parse and validate without writing to the store")
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	var files []source.DiscoveredFile
	for _, arg := range args {
		found, err := source.ScanDir(arg)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", arg, err)
		}
		if len(found) == 0 {
			if _, statErr := os.Stat(arg); statErr != nil {
				return fmt.Errorf("%s: %w", arg, statErr)
			}
			fmt.Fprintln(os.Stderr, cli.RenderWarning(arg+": no .yaml or .jsonl files"))
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		fmt.Println("\n  Nothing to import.")
		return nil
	}

	start := time.Now()
	result := pipeline.ParseFiles(files, newProgress("Parsing files"))
	logger.Debug("parsed import files",
		zap.Int("files", result.TotalFiles),
		zap.Int("records", result.Records.Len()),
		zap.Duration("elapsed", time.Since(start)))

	fmt.Println()
	fmt.Printf("  Files:            %d parsed, %d failed\n", result.ParsedFiles, result.FileErrors)
	fmt.Printf("  Customers:        %s\n", cli.FormatNumber(int64(len(result.Records.Customers))))
	fmt.Printf("  Monthly actuals:  %s\n", cli.FormatNumber(int64(len(result.Records.Actuals))))
	fmt.Printf("  Daily reports:    %s\n", cli.FormatNumber(int64(len(result.Records.Daily))))
	fmt.Printf("  Targets:          %s\n", cli.FormatNumber(int64(len(result.Records.Targets))))
	if result.ParseErrors > 0 {
		fmt.Printf("  Rejected:         %d entries\n", result.ParseErrors)
	}
	for _, p := range result.Problems {
		fmt.Fprintln(os.Stderr, cli.RenderWarning(p))
	}

	if flagImportDryRun {
		fmt.Println()
		fmt.Println(cli.RenderNote("Dry run: nothing written."))
		return nil
	}
	if result.Records.Len() == 0 {
		return nil
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if err := pipeline.Save(ctx, st, result.Records); err != nil {
		return err
	}
	stats, err := st.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  Imported %s records in %s\n", cli.FormatNumber(int64(result.Records.Len())), time.Since(start).Round(time.Millisecond))
	fmt.Println(cli.RenderNote(fmt.Sprintf("Store (%s) now holds %d customers, %d monthly actuals, %d daily reports, %d targets.",
		st.Dialect(), stats.Customers, stats.MonthlyActual, stats.DailyReports, stats.Targets)))
	return nil
}
