package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/subdash/subdash/internal/config"
	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/projection"
	"github.com/subdash/subdash/internal/tui/theme"
)

// PlanValues holds the editable growth assumptions as form text.
type PlanValues struct {
	StartMonth          string
	HorizonMonths       string
	InitialAcquisitions string
	MonthlyGrowthRate   string
	ChurnRate           string
	MonthlyPrice        string
	YearlyPrice         string
	YearlyPlanShare     string
	BaseExpenses        string
	ExpenseGrowthRate   string
	Theme               string
	Save                bool
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// PlanValuesFrom fills the form from cfg.
func PlanValuesFrom(cfg config.Config, now time.Time) PlanValues {
	start, err := cfg.StartMonth(now)
	if err != nil {
		start = model.MonthOf(now)
	}
	return PlanValues{
		StartMonth:          start.String(),
		HorizonMonths:       strconv.Itoa(cfg.Plan.HorizonMonths),
		InitialAcquisitions: strconv.Itoa(cfg.Plan.InitialAcquisitions),
		MonthlyGrowthRate:   formatFloat(cfg.Plan.MonthlyGrowthRate),
		ChurnRate:           formatFloat(cfg.Plan.ChurnRate),
		MonthlyPrice:        formatFloat(cfg.Pricing.Monthly),
		YearlyPrice:         formatFloat(cfg.Pricing.Yearly),
		YearlyPlanShare:     formatFloat(cfg.Plan.YearlyPlanShare),
		BaseExpenses:        formatFloat(cfg.Plan.BaseExpenses),
		ExpenseGrowthRate:   formatFloat(cfg.Plan.ExpenseGrowthRate),
		Theme:               cfg.Appearance.Theme,
		Save:                true,
	}
}

func intIn(lo, hi int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return errors.New("enter a whole number")
		}
		if n < lo || n > hi {
			return fmt.Errorf("must be between %d and %d", lo, hi)
		}
		return nil
	}
}

func floatIn(lo, hi float64) func(string) error {
	return func(s string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return errors.New("enter a number")
		}
		if f < lo || f > hi {
			return fmt.Errorf("must be between %s and %s", formatFloat(lo), formatFloat(hi))
		}
		return nil
	}
}

func validMonth(s string) error {
	_, err := model.ParseMonth(strings.TrimSpace(s))
	return err
}

// NewPlanForm builds the growth-plan form bound to v.
func NewPlanForm(v *PlanValues) *huh.Form {
	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themes = append(themes, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Growth plan").
				Description("Assumptions the monthly plan is projected from.\nRates are percentages."),
			huh.NewInput().Title("Start month").Placeholder("YYYY-MM").
				Value(&v.StartMonth).Validate(validMonth),
			huh.NewInput().Title("Horizon (months)").
				Value(&v.HorizonMonths).Validate(intIn(1, 120)),
			huh.NewInput().Title("New customers in the first month").
				Value(&v.InitialAcquisitions).Validate(intIn(0, 100_000_000)),
			huh.NewInput().Title("Monthly acquisition growth (%)").
				Value(&v.MonthlyGrowthRate).Validate(floatIn(-100, 1000)),
			huh.NewInput().Title("Monthly churn (%)").
				Value(&v.ChurnRate).Validate(floatIn(0, 100)),
		),
		huh.NewGroup(
			huh.NewInput().Title("Monthly plan price").
				Value(&v.MonthlyPrice).Validate(floatIn(0, 1e9)),
			huh.NewInput().Title("Yearly plan price").
				Value(&v.YearlyPrice).Validate(floatIn(0, 1e10)),
			huh.NewInput().Title("Share of customers on yearly plans (%)").
				Value(&v.YearlyPlanShare).Validate(floatIn(0, 100)),
			huh.NewInput().Title("Operating expenses in the first month").
				Value(&v.BaseExpenses).Validate(floatIn(0, 1e12)),
			huh.NewInput().Title("Monthly expense growth (%)").
				Value(&v.ExpenseGrowthRate).Validate(floatIn(-100, 1000)),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Color theme").Options(themes...).Value(&v.Theme),
			huh.NewConfirm().Title("Save to " + config.ConfigPath() + "?").Value(&v.Save),
		),
	).WithShowHelp(true)
}

// Apply returns cfg with the form's values. The resulting plan must pass
// projection validation.
func (v PlanValues) Apply(cfg config.Config, now time.Time) (config.Config, error) {
	p, err := cfg.GrowthParameters(now)
	if err != nil {
		return cfg, err
	}

	start, err := model.ParseMonth(strings.TrimSpace(v.StartMonth))
	if err != nil {
		return cfg, err
	}
	nums := make(map[string]float64)
	for name, s := range map[string]string{
		"horizon":  v.HorizonMonths,
		"initial":  v.InitialAcquisitions,
		"growth":   v.MonthlyGrowthRate,
		"churn":    v.ChurnRate,
		"monthly":  v.MonthlyPrice,
		"yearly":   v.YearlyPrice,
		"share":    v.YearlyPlanShare,
		"expenses": v.BaseExpenses,
		"expgrow":  v.ExpenseGrowthRate,
	} {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", name, err)
		}
		nums[name] = f
	}

	p = p.WithStartMonth(start).
		WithHorizon(int(nums["horizon"])).
		WithInitialAcquisitions(int(nums["initial"])).
		WithGrowthRate(nums["growth"]).
		WithChurnRate(nums["churn"]).
		WithPrices(nums["monthly"], nums["yearly"]).
		WithYearlyPlanShare(nums["share"]).
		WithExpenses(nums["expenses"], nums["expgrow"])
	if err := projection.Validate(p); err != nil {
		return cfg, err
	}

	out := cfg.ApplyGrowthParameters(p)
	if v.Theme != "" {
		out.Appearance.Theme = v.Theme
	}
	return out, nil
}
