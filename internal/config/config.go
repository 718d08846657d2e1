package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Config is the root configuration for a codepulse session.
type Config struct {
	Version   int
	Project   Project
	Tracking  Tracking
	Analysis  Analysis
	Cache     Cache
	Scheduler Scheduler
	Snapshot  Snapshot
}

// Project identifies the tracked workspace.
type Project struct {
	Root string
	Name string
}

// Tracking controls which files feed the scheduler.
type Tracking struct {
	Enabled          bool
	ExcludeLanguages []string
	Include          []string
	Exclude          []string
}

// Analysis tunes the complexity analyzer.
type Analysis struct {
	// QuickThresholdBytes is the source size above which events request
	// only the quick line-count estimate instead of a full parse.
	QuickThresholdBytes int
}

// Cache bounds the in-memory metric cache.
type Cache struct {
	MaxEntries int
	TTLHours   int
}

// Scheduler tunes debounce and idle accounting.
type Scheduler struct {
	DebounceMs   int
	RescanMs     int
	IdleTickSec  int
	IdleAfterMin int
	AutoFlushMin int
}

// Snapshot configures persistence of flushed sessions.
type Snapshot struct {
	Path string
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	root, _ := os.Getwd()
	if root == "" {
		root = "."
	}
	return &Config{
		Version: 1,
		Project: Project{Root: root},
		Tracking: Tracking{
			Enabled: true,
			Include: []string{},
			Exclude: []string{"**/node_modules/**", "**/.git/**", "**/vendor/**", "**/target/**", "**/dist/**"},
		},
		Analysis: Analysis{
			QuickThresholdBytes: 50_000,
		},
		Cache: Cache{
			MaxEntries: 500,
			TTLHours:   24,
		},
		Scheduler: Scheduler{
			DebounceMs:   500,
			RescanMs:     300,
			IdleTickSec:  60,
			IdleAfterMin: 5,
			AutoFlushMin: 0, // disabled
		},
		Snapshot: Snapshot{
			Path: filepath.Join(root, ".codepulse", "snapshot.json"),
		},
	}
}

// Load resolves configuration for projectRoot: .codepulse.kdl wins, then
// .codepulse.toml, then defaults. The returned config is always validated.
func Load(projectRoot string) (*Config, error) {
	cfg, err := LoadKDL(projectRoot)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg, err = LoadTOML(projectRoot)
		if err != nil {
			return nil, err
		}
	}
	if cfg == nil {
		cfg = DefaultConfig()
		absRoot, err := filepath.Abs(projectRoot)
		if err == nil {
			cfg.Project.Root = absRoot
			cfg.Snapshot.Path = filepath.Join(absRoot, ".codepulse", "snapshot.json")
		}
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsTracked reports whether a path participates in analysis. The path is
// matched relative to the project root; include patterns (when present)
// must match, and exclude patterns always veto.
func (c *Config) IsTracked(path string) bool {
	if !c.Tracking.Enabled {
		return false
	}

	rel := path
	if filepath.IsAbs(path) {
		if r, err := filepath.Rel(c.Project.Root, path); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") {
		return false
	}

	for _, pattern := range c.Tracking.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}

	if len(c.Tracking.Include) == 0 {
		return true
	}
	for _, pattern := range c.Tracking.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// LanguageExcluded reports whether a language tag was opted out of tracking.
func (c *Config) LanguageExcluded(tag string) bool {
	for _, excluded := range c.Tracking.ExcludeLanguages {
		if strings.EqualFold(excluded, tag) {
			return true
		}
	}
	return false
}

// resolveRoot makes cfg.Project.Root absolute, resolving relative roots
// against the directory the config file was found in.
func resolveRoot(cfg *Config, configDir string) {
	if cfg.Project.Root != "" {
		if !filepath.IsAbs(cfg.Project.Root) {
			cfg.Project.Root = filepath.Join(configDir, cfg.Project.Root)
		}
		cfg.Project.Root = filepath.Clean(cfg.Project.Root)
		return
	}
	absRoot, err := filepath.Abs(configDir)
	if err != nil {
		cfg.Project.Root = configDir
		return
	}
	cfg.Project.Root = absRoot
}

// String renders a one-line summary, used by debug logging.
func (c *Config) String() string {
	return fmt.Sprintf("project=%s tracking=%v include=%d exclude=%d cache=%d/%dh debounce=%dms",
		c.Project.Root, c.Tracking.Enabled, len(c.Tracking.Include), len(c.Tracking.Exclude),
		c.Cache.MaxEntries, c.Cache.TTLHours, c.Scheduler.DebounceMs)
}
