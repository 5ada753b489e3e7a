package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/subdash/subdash/internal/cli"
	"github.com/subdash/subdash/internal/config"
	"github.com/subdash/subdash/internal/projection"
	"github.com/subdash/subdash/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive wizard for the growth plan assumptions",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	now := time.Now()
	cfg := appConfig

	fmt.Println()
	if config.Exists() {
		fmt.Println("  Editing the subdash growth plan.")
	} else {
		fmt.Println("  Welcome to subdash! Describe the plan you want to track.")
	}
	fmt.Println()

	vals := tui.PlanValuesFrom(cfg, now)
	if err := tui.NewPlanForm(&vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup canceled, nothing saved.")
			return nil
		}
		return err
	}

	next, err := vals.Apply(cfg, now)
	if err != nil {
		return err
	}
	params, err := next.GrowthParameters(now)
	if err != nil {
		return err
	}
	for _, w := range projection.Warnings(params) {
		fmt.Println(cli.RenderWarning(w))
	}
	if !vals.Save {
		fmt.Println("  Not saved.")
		return nil
	}

	path, err := saveConfig(next)
	if err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Println()
	fmt.Printf("  Saved to %s\n", path)
	fmt.Println("  Run `subdash plan` to see the projection, or `subdash setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
