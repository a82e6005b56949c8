package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(newViper(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := cfg.Replenishment
	if r.LookbackWeeks != 12 || r.DefaultLeadTimeWeeks != 1 || r.DefaultCoverageWeeks != 2 || r.DefaultServiceLevel != "0.95" {
		t.Errorf("replenishment defaults = %+v", r)
	}
	if !r.AnchorDate.Equal(time.Date(2000, time.January, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("anchor = %s", r.AnchorDate)
	}
	if r.ZTable != "" {
		t.Errorf("z table override should be empty by default, got %q", r.ZTable)
	}
	if cfg.Database.Driver != "postgres" || cfg.Cache.Enabled || cfg.Cache.SuggestionsTTLSeconds != 300 {
		t.Errorf("database/cache defaults = %+v / %+v", cfg.Database, cfg.Cache)
	}
	if cfg.Log.Format != "console" {
		t.Errorf("log format = %q", cfg.Log.Format)
	}
}

func TestFromViper_Overrides(t *testing.T) {
	cfg, err := FromViper(newViper(map[string]any{
		"DB_DRIVER":                           "sqlite3",
		"DB_PATH":                             "/tmp/sales.db",
		"REPLENISHMENT_LOOKBACK_WEEKS":        26,
		"REPLENISHMENT_DEFAULT_SERVICE_LEVEL": "0.98",
		"REPLENISHMENT_ANCHOR_DATE":           "2024-01-01",
		"REPLENISHMENT_Z_TABLE":               "0.95:1.645,*:2.326",
		"CACHE_ENABLED":                       true,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Database.Driver != "sqlite3" || cfg.Database.Path != "/tmp/sales.db" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Replenishment.LookbackWeeks != 26 || cfg.Replenishment.DefaultServiceLevel != "0.98" {
		t.Errorf("replenishment = %+v", cfg.Replenishment)
	}
	if cfg.Replenishment.AnchorDate.Year() != 2024 {
		t.Errorf("anchor = %s", cfg.Replenishment.AnchorDate)
	}
	if !cfg.Cache.Enabled {
		t.Errorf("cache should be enabled")
	}
}

func TestFromViper_InvalidAnchor(t *testing.T) {
	tests := []struct {
		anchor string
		want   string
	}{
		{"03/01/2000", "invalid REPLENISHMENT_ANCHOR_DATE"},
		{"2000-01-04", "must be a Monday"},
	}

	for _, tt := range tests {
		t.Run(tt.anchor, func(t *testing.T) {
			_, err := FromViper(newViper(map[string]any{"REPLENISHMENT_ANCHOR_DATE": tt.anchor}))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}
