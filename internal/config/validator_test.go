package config

import (
	"errors"
	"strings"
	"testing"

	cperrors "github.com/standardbeagle/codepulse/internal/errors"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Project.Root = "/work/project"
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := ValidateConfig(validConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsEmptyRoot(t *testing.T) {
	cfg := validConfig()
	cfg.Project.Root = ""

	if err := ValidateConfig(cfg); err == nil {
		t.Fatal("empty project root should fail validation")
	}
}

func TestValidateRejectsNegativeValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative cache entries", func(c *Config) { c.Cache.MaxEntries = -1 }},
		{"negative ttl", func(c *Config) { c.Cache.TTLHours = -1 }},
		{"negative debounce", func(c *Config) { c.Scheduler.DebounceMs = -1 }},
		{"negative idle tick", func(c *Config) { c.Scheduler.IdleTickSec = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := ValidateConfig(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateUnknownLanguageSuggestsClosest(t *testing.T) {
	cfg := validConfig()
	cfg.Tracking.ExcludeLanguages = []string{"pyton"}

	err := ValidateConfig(cfg)
	if err == nil {
		t.Fatal("unknown language tag should fail validation")
	}

	var cfgErr *cperrors.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if !strings.Contains(err.Error(), "python") {
		t.Errorf("error should suggest python, got: %v", err)
	}
}

func TestValidateUnknownLanguageNoSuggestion(t *testing.T) {
	cfg := validConfig()
	cfg.Tracking.ExcludeLanguages = []string{"klingon"}

	err := ValidateConfig(cfg)
	if err == nil {
		t.Fatal("unknown language tag should fail validation")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("no suggestion expected for %q, got: %v", "klingon", err)
	}
}

func TestSmartDefaultsFillZeroValues(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.MaxEntries = 0
	cfg.Scheduler.DebounceMs = 0

	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("validation failed: %v", err)
	}
	if cfg.Cache.MaxEntries != 500 {
		t.Errorf("MaxEntries = %d, want smart default 500", cfg.Cache.MaxEntries)
	}
	if cfg.Scheduler.DebounceMs != 500 {
		t.Errorf("DebounceMs = %d, want smart default 500", cfg.Scheduler.DebounceMs)
	}
}
