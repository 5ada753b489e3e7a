// Package config loads and saves subdash settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/subdash/subdash/internal/model"
)

// Config holds all subdash configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Store      StoreConfig      `toml:"store"`
	Plan       PlanConfig       `toml:"plan"`
	Pricing    PricingConfig    `toml:"pricing"`
	Forecast   ForecastConfig   `toml:"forecast"`
	Server     ServerConfig     `toml:"server"`
	TUI        TUIConfig        `toml:"tui"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	HistoryMonths int `toml:"history_months"`
}

// StoreConfig holds record store settings.
type StoreConfig struct {
	DSN             string `toml:"dsn,omitempty"`
	FetchTimeoutSec int    `toml:"fetch_timeout_sec"`
	Workers         int    `toml:"workers"`
}

// PlanConfig holds the growth assumptions the plan is projected from.
type PlanConfig struct {
	StartMonth          string          `toml:"start_month,omitempty"` // "YYYY-MM"; empty means the current month
	HorizonMonths       int             `toml:"horizon_months"`
	InitialAcquisitions int             `toml:"initial_acquisitions"`
	MonthlyGrowthRate   float64         `toml:"monthly_growth_rate"`
	ChurnRate           float64         `toml:"churn_rate"`
	YearlyPlanShare     float64         `toml:"yearly_plan_share"`
	BaseExpenses        float64         `toml:"base_expenses"`
	ExpenseGrowthRate   float64         `toml:"expense_growth_rate"`
	Channels            []model.Channel `toml:"channels"`
}

// ForecastConfig tunes trend classification and forecast confidence.
type ForecastConfig struct {
	Months          int     `toml:"months"`
	ThresholdPct    float64 `toml:"threshold_pct"`
	ConfidenceBase  float64 `toml:"confidence_base"`
	ConfidenceDecay float64 `toml:"confidence_decay"`
	ConfidenceFloor float64 `toml:"confidence_floor"`
}

// ServerConfig holds JSON API settings.
type ServerConfig struct {
	Addr       string `toml:"addr"`
	RefreshSec int    `toml:"refresh_sec"`
}

// TUIConfig holds dashboard refresh settings.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			HistoryMonths: 12,
		},
		Store: StoreConfig{
			FetchTimeoutSec: 5,
			Workers:         4,
		},
		Plan: PlanConfig{
			HorizonMonths:       12,
			InitialAcquisitions: 100,
			MonthlyGrowthRate:   10,
			ChurnRate:           5,
			YearlyPlanShare:     20,
			BaseExpenses:        500000,
			ExpenseGrowthRate:   2,
			Channels: []model.Channel{
				{Name: "search", CPA: 3000, TrafficRatio: 50, Active: true},
				{Name: "social", CPA: 4000, TrafficRatio: 30, Active: true},
				{Name: "referral", CPA: 1500, TrafficRatio: 20, Active: true},
			},
		},
		Pricing: PricingConfig{
			Monthly: 980,
			Yearly:  9800,
		},
		Forecast: ForecastConfig{
			Months:          6,
			ThresholdPct:    5,
			ConfidenceBase:  95,
			ConfidenceDecay: 0.9,
			ConfidenceFloor: 20,
		},
		Server: ServerConfig{
			Addr:       "127.0.0.1:8787",
			RefreshSec: 60,
		},
		TUI: TUIConfig{
			RefreshIntervalSec: 60,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "subdash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "subdash")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant directory for the default sqlite store.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "subdash")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "subdash")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile reads the config at path, returning defaults if it doesn't exist.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // user-selected config path
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to the default path.
func Save(cfg Config) error {
	return SaveFile(ConfigPath(), cfg)
}

// SaveFile writes the config to path, creating its directory.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user-selected config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// GetDSN returns the store DSN from env var or config, in that order.
// An empty result selects the default sqlite file under DataDir.
func GetDSN(cfg Config) string {
	if dsn := os.Getenv("SUBDASH_DSN"); dsn != "" {
		return dsn
	}
	return cfg.Store.DSN
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
