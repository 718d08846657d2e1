package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"

	cperrors "github.com/standardbeagle/codepulse/internal/errors"
)

// knownLanguages lists every language tag the analyzer understands.
// Tags outside this list still analyze (via the fallback heuristic) but
// cannot be referenced from exclude_languages.
var knownLanguages = []string{
	"go", "javascript", "typescript", "java", "csharp", "cpp", "rust",
	"php", "zig", "python", "ruby", "shell",
}

// Validator validates configuration and applies smart defaults.
type Validator struct{}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults.
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProject(&cfg.Project); err != nil {
		return cperrors.NewConfigError("project", "", err)
	}

	if err := v.validateTracking(&cfg.Tracking); err != nil {
		return err
	}

	if err := v.validateCache(&cfg.Cache); err != nil {
		return cperrors.NewConfigError("cache", "", err)
	}

	if err := v.validateScheduler(&cfg.Scheduler); err != nil {
		return cperrors.NewConfigError("scheduler", "", err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProject(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

// validateTracking rejects unknown language tags, suggesting the closest
// known tag when one is a plausible misspelling.
func (v *Validator) validateTracking(tracking *Tracking) error {
	for _, tag := range tracking.ExcludeLanguages {
		if isKnownLanguage(tag) {
			continue
		}
		err := cperrors.NewConfigError("tracking.exclude_languages", tag,
			fmt.Errorf("unknown language %q", tag))
		if suggestion := closestLanguage(tag); suggestion != "" {
			return err.WithSuggestion(suggestion)
		}
		return err
	}
	return nil
}

func (v *Validator) validateCache(cache *Cache) error {
	if cache.MaxEntries < 0 {
		return fmt.Errorf("MaxEntries cannot be negative, got %d", cache.MaxEntries)
	}
	if cache.TTLHours < 0 {
		return fmt.Errorf("TTLHours cannot be negative, got %d", cache.TTLHours)
	}
	return nil
}

func (v *Validator) validateScheduler(sched *Scheduler) error {
	if sched.DebounceMs < 0 {
		return fmt.Errorf("DebounceMs cannot be negative, got %d", sched.DebounceMs)
	}
	if sched.RescanMs < 0 {
		return fmt.Errorf("RescanMs cannot be negative, got %d", sched.RescanMs)
	}
	if sched.IdleTickSec < 0 {
		return fmt.Errorf("IdleTickSec cannot be negative, got %d", sched.IdleTickSec)
	}
	if sched.IdleAfterMin < 0 {
		return fmt.Errorf("IdleAfterMin cannot be negative, got %d", sched.IdleAfterMin)
	}
	if sched.AutoFlushMin < 0 {
		return fmt.Errorf("AutoFlushMin cannot be negative, got %d", sched.AutoFlushMin)
	}
	return nil
}

// setSmartDefaults fills zero values left by partial config files.
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Analysis.QuickThresholdBytes == 0 {
		cfg.Analysis.QuickThresholdBytes = 50_000
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 500
	}
	if cfg.Cache.TTLHours == 0 {
		cfg.Cache.TTLHours = 24
	}
	if cfg.Scheduler.DebounceMs == 0 {
		cfg.Scheduler.DebounceMs = 500
	}
	if cfg.Scheduler.RescanMs == 0 {
		cfg.Scheduler.RescanMs = 300
	}
	if cfg.Scheduler.IdleTickSec == 0 {
		cfg.Scheduler.IdleTickSec = 60
	}
	if cfg.Scheduler.IdleAfterMin == 0 {
		cfg.Scheduler.IdleAfterMin = 5
	}
}

func isKnownLanguage(tag string) bool {
	for _, known := range knownLanguages {
		if strings.EqualFold(tag, known) {
			return true
		}
	}
	return false
}

// closestLanguage returns the known tag most similar to the given one,
// or "" when nothing is close enough to be a plausible typo.
func closestLanguage(tag string) string {
	const minScore = 0.8

	best := ""
	bestScore := float32(0)
	for _, known := range knownLanguages {
		score, err := edlib.StringsSimilarity(strings.ToLower(tag), known, edlib.JaroWinkler)
		if err != nil {
			continue
		}
		if score > bestScore {
			best = known
			bestScore = score
		}
	}
	if bestScore < minScore {
		return ""
	}
	return best
}

// ValidateConfig is a convenience function for quick validation.
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
