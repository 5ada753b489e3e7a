package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/subdash/subdash/internal/cli"
)

var (
	flagReportHTML bool
	flagReportOut  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a monthly report as Markdown or HTML",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&flagReportHTML, "html", false, "Render HTML instead of Markdown")
	reportCmd.Flags().StringVarP(&flagReportOut, "out", "o", "", "Output file (default: stdout)")
	rootCmd.AddCommand(reportCmd)
}

func runReport(_ *cobra.Command, _ []string) error {
	r, _, err := buildReport(context.Background(), flagMonth, 0)
	if err != nil {
		return err
	}

	var out []byte
	if flagReportHTML {
		if out, err = r.HTML(); err != nil {
			return fmt.Errorf("rendering html: %w", err)
		}
	} else {
		out = []byte(r.Markdown())
	}

	if flagReportOut == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	if dir := filepath.Dir(flagReportOut); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(flagReportOut, out, 0o600); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	fmt.Fprintf(os.Stderr, "  Wrote %s report for %s to %s\n", reportFormat(flagReportHTML), cli.FormatMonthLabel(r.Month), flagReportOut)
	return nil
}

func reportFormat(html bool) string {
	if html {
		return "HTML"
	}
	return "Markdown"
}
