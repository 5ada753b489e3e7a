package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/subdash/subdash/internal/model"
	"github.com/subdash/subdash/internal/projection"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Plan.HorizonMonths != 12 {
		t.Errorf("HorizonMonths = %d, want 12", cfg.Plan.HorizonMonths)
	}
	if Exists() {
		t.Error("Exists() = true before Save")
	}
}

func TestSaveLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Plan.StartMonth = "2025-04"
	cfg.Plan.Channels = []model.Channel{{Name: "events", CPA: 12000, TrafficRatio: 100, Active: true}}
	cfg.Pricing.Versions = []PriceVersion{{EffectiveFrom: "2025-10-01", Monthly: 1200, Yearly: 12000}}
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(ConfigPath())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perm = %o, want 600", perm)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Plan.StartMonth != "2025-04" {
		t.Errorf("StartMonth = %q, want 2025-04", got.Plan.StartMonth)
	}
	if len(got.Plan.Channels) != 1 || got.Plan.Channels[0].Name != "events" || !got.Plan.Channels[0].Active {
		t.Errorf("Channels = %+v, want single active events channel", got.Plan.Channels)
	}
	if len(got.Pricing.Versions) != 1 || got.Pricing.Versions[0].Monthly != 1200 {
		t.Errorf("Versions = %+v", got.Pricing.Versions)
	}
}

func TestLoadFile_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[plan\nchurn_rate = "), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("LoadFile accepted invalid TOML")
	}
}

func TestGetDSN_EnvWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.DSN = "sqlite:///tmp/from-config.db"

	t.Setenv("SUBDASH_DSN", "")
	if got := GetDSN(cfg); got != cfg.Store.DSN {
		t.Errorf("GetDSN = %q, want config value", got)
	}
	t.Setenv("SUBDASH_DSN", "postgres://u:p@db/subdash")
	if got := GetDSN(cfg); got != "postgres://u:p@db/subdash" {
		t.Errorf("GetDSN = %q, want env value", got)
	}
}

func TestGrowthParameters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pricing.Versions = []PriceVersion{{EffectiveFrom: "2025-03-01", Monthly: 1200, Yearly: 12000}}
	now := time.Date(2025, time.May, 20, 9, 0, 0, 0, time.UTC)

	p, err := cfg.GrowthParameters(now)
	if err != nil {
		t.Fatalf("GrowthParameters: %v", err)
	}
	if p.StartMonth.String() != "2025-05" {
		t.Errorf("StartMonth = %s, want current month 2025-05", p.StartMonth)
	}
	if p.MonthlyPrice != 1200 {
		t.Errorf("MonthlyPrice = %.0f, want price in effect at start (1200)", p.MonthlyPrice)
	}
	if len(p.Channels) != 3 {
		t.Errorf("len(Channels) = %d, want 3", len(p.Channels))
	}
	if err := projection.Validate(p); err != nil {
		t.Errorf("default parameters invalid: %v", err)
	}

	back := DefaultConfig().ApplyGrowthParameters(p.WithChurnRate(7))
	if back.Plan.ChurnRate != 7 || back.Plan.StartMonth != "2025-05" {
		t.Errorf("ApplyGrowthParameters = churn %v start %q", back.Plan.ChurnRate, back.Plan.StartMonth)
	}

	cfg.Plan.StartMonth = "May 2025"
	if _, err := cfg.GrowthParameters(now); err == nil {
		t.Error("GrowthParameters accepted malformed start month")
	}
}
