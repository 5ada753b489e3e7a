package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/subdash/subdash/internal/config"
	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/tui"
	"github.com/subdash/subdash/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(appConfig.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	var month model.Month
	if flagMonth != "" {
		m, err := model.ParseMonth(flagMonth)
		if err != nil {
			return fmt.Errorf("--month: %w", err)
		}
		month = m
	}

	// The progress bar would fight the alt screen; the TUI shows its own.
	app := tui.NewApp(tui.Options{
		Config:     appConfig,
		ConfigPath: configFile(),
		Load:       loadDataset,
		Month:      month,
		FirstRun:   !config.Exists() && flagConfig == "",
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
