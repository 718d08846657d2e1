package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// tomlConfig mirrors Config with TOML field tags. Pointer fields
// distinguish "absent" from zero so defaults survive partial files.
type tomlConfig struct {
	Version *int `toml:"version"`

	Project struct {
		Root string `toml:"root"`
		Name string `toml:"name"`
	} `toml:"project"`

	Tracking struct {
		Enabled          *bool    `toml:"enabled"`
		ExcludeLanguages []string `toml:"exclude_languages"`
		Include          []string `toml:"include"`
		Exclude          []string `toml:"exclude"`
	} `toml:"tracking"`

	Analysis struct {
		QuickThresholdBytes *int `toml:"quick_threshold_bytes"`
	} `toml:"analysis"`

	Cache struct {
		MaxEntries *int `toml:"max_entries"`
		TTLHours   *int `toml:"ttl_hours"`
	} `toml:"cache"`

	Scheduler struct {
		DebounceMs   *int `toml:"debounce_ms"`
		RescanMs     *int `toml:"rescan_ms"`
		IdleTickSec  *int `toml:"idle_tick_sec"`
		IdleAfterMin *int `toml:"idle_after_min"`
		AutoFlushMin *int `toml:"auto_flush_min"`
	} `toml:"scheduler"`

	Snapshot struct {
		Path string `toml:"path"`
	} `toml:"snapshot"`
}

// LoadTOML attempts to load configuration from a .codepulse.toml file.
// Returns (nil, nil) when the file does not exist.
func LoadTOML(projectRoot string) (*Config, error) {
	tomlPath := filepath.Join(projectRoot, ".codepulse.toml")

	if _, err := os.Stat(tomlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(tomlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .codepulse.toml: %v", err)
	}

	var raw tomlConfig
	if err := toml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	cfg := DefaultConfig()
	cfg.Project.Root = raw.Project.Root
	cfg.Project.Name = raw.Project.Name

	if raw.Version != nil {
		cfg.Version = *raw.Version
	}
	if raw.Tracking.Enabled != nil {
		cfg.Tracking.Enabled = *raw.Tracking.Enabled
	}
	if raw.Tracking.ExcludeLanguages != nil {
		cfg.Tracking.ExcludeLanguages = raw.Tracking.ExcludeLanguages
	}
	if raw.Tracking.Include != nil {
		cfg.Tracking.Include = raw.Tracking.Include
	}
	if raw.Tracking.Exclude != nil {
		cfg.Tracking.Exclude = raw.Tracking.Exclude
	}
	if raw.Analysis.QuickThresholdBytes != nil {
		cfg.Analysis.QuickThresholdBytes = *raw.Analysis.QuickThresholdBytes
	}
	if raw.Cache.MaxEntries != nil {
		cfg.Cache.MaxEntries = *raw.Cache.MaxEntries
	}
	if raw.Cache.TTLHours != nil {
		cfg.Cache.TTLHours = *raw.Cache.TTLHours
	}
	if raw.Scheduler.DebounceMs != nil {
		cfg.Scheduler.DebounceMs = *raw.Scheduler.DebounceMs
	}
	if raw.Scheduler.RescanMs != nil {
		cfg.Scheduler.RescanMs = *raw.Scheduler.RescanMs
	}
	if raw.Scheduler.IdleTickSec != nil {
		cfg.Scheduler.IdleTickSec = *raw.Scheduler.IdleTickSec
	}
	if raw.Scheduler.IdleAfterMin != nil {
		cfg.Scheduler.IdleAfterMin = *raw.Scheduler.IdleAfterMin
	}
	if raw.Scheduler.AutoFlushMin != nil {
		cfg.Scheduler.AutoFlushMin = *raw.Scheduler.AutoFlushMin
	}
	if raw.Snapshot.Path != "" {
		cfg.Snapshot.Path = raw.Snapshot.Path
	}

	resolveRoot(cfg, projectRoot)
	if raw.Snapshot.Path == "" {
		cfg.Snapshot.Path = filepath.Join(cfg.Project.Root, ".codepulse", "snapshot.json")
	} else if !filepath.IsAbs(cfg.Snapshot.Path) {
		cfg.Snapshot.Path = filepath.Join(cfg.Project.Root, cfg.Snapshot.Path)
	}

	return cfg, nil
}
