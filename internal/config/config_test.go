package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with defaults failed: %v", err)
	}

	if cfg.App.Name != "bspricer" {
		t.Fatalf("app.name = %q", cfg.App.Name)
	}
	if cfg.Grid.MaxSteps != 200 {
		t.Fatalf("grid.max_steps default = %d, want 200", cfg.Grid.MaxSteps)
	}
	if cfg.History.DefaultLimit != 20 {
		t.Fatalf("history.default_limit default = %d, want 20", cfg.History.DefaultLimit)
	}
	if cfg.Store.AdvisoryLockKey == 0 {
		t.Fatal("store.advisory_lock_key should default to a non-zero key")
	}
	if cfg.Export.PNGWidth <= 0 || cfg.Export.PNGHeight <= 0 {
		t.Fatalf("export geometry defaults invalid: %dx%d", cfg.Export.PNGWidth, cfg.Export.PNGHeight)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"tiny grid cap", func(c *Config) { c.Grid.MaxSteps = 1 }, "grid.max_steps"},
		{"oversized grid cap", func(c *Config) { c.Grid.MaxSteps = 10000 }, "grid.max_steps"},
		{"zero history limit", func(c *Config) { c.History.DefaultLimit = 0 }, "history.default_limit"},
		{"zero png width", func(c *Config) { c.Export.PNGWidth = 0 }, "png_width"},
		{"zero series cap", func(c *Config) { c.Export.MaxSeries = 0 }, "max_series"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q should mention %q", err, tc.want)
			}
		})
	}
}

func TestResolveLimit(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cfg.ResolveLimit(0); got != cfg.History.DefaultLimit {
		t.Fatalf("ResolveLimit(0) = %d, want config default %d", got, cfg.History.DefaultLimit)
	}
	if got := cfg.ResolveLimit(7); got != 7 {
		t.Fatalf("ResolveLimit(7) = %d, want override", got)
	}
}
