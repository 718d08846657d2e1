package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codepulse/internal/analyzer"
	"github.com/standardbeagle/codepulse/internal/cache"
	"github.com/standardbeagle/codepulse/internal/config"
	"github.com/standardbeagle/codepulse/internal/debug"
	cperrors "github.com/standardbeagle/codepulse/internal/errors"
	"github.com/standardbeagle/codepulse/internal/mcp"
	"github.com/standardbeagle/codepulse/internal/scheduler"
	"github.com/standardbeagle/codepulse/internal/storage"
	"github.com/standardbeagle/codepulse/internal/types"
	"github.com/standardbeagle/codepulse/internal/version"
	"github.com/standardbeagle/codepulse/internal/watch"
)

// engine bundles the constructed collaborators for one run.
type engine struct {
	cfg   *config.Config
	an    *analyzer.Analyzer
	cache *cache.MetricCache[types.FileRecord]
	sched *scheduler.Scheduler
}

// loadConfigWithOverrides loads configuration and applies CLI flag overrides.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, err
	}
	cfg.Project.Root = absRoot

	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Tracking.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Tracking.Exclude = append(cfg.Tracking.Exclude, excludeFlags...)
	}

	debug.Log("main", "config: %s", cfg)
	return cfg, nil
}

// buildEngine constructs the analyzer, cache, store, and scheduler from
// configuration. Everything is owned here and torn down explicitly; there
// are no package-level singletons.
func buildEngine(cfg *config.Config) *engine {
	an := analyzer.New()
	metricCache := cache.New[types.FileRecord](cache.Options{
		MaxEntries: cfg.Cache.MaxEntries,
		TTL:        time.Duration(cfg.Cache.TTLHours) * time.Hour,
	})
	sched := scheduler.New(scheduler.Options{
		Config:   cfg,
		Analyzer: an,
		Cache:    metricCache,
		Store:    storage.NewFileSnapshotStore(cfg.Snapshot.Path),
	})
	return &engine{cfg: cfg, an: an, cache: metricCache, sched: sched}
}

func main() {
	app := &cli.App{
		Name:                   "codepulse",
		Usage:                  "Complexity tracking for your coding sessions",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Track only files matching glob patterns (e.g., --include '**/*.go')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/generated/**')",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Write debug logs to a temp file",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				if _, err := debug.InitDebugLogFile(); err != nil {
					fmt.Fprintf(os.Stderr, "warning: debug log unavailable: %v\n", err)
				}
			}
			return nil
		},
		After: func(c *cli.Context) error {
			debug.CloseDebugLog()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "Analyze one file and print its metrics",
				ArgsUsage: "<file>",
				Action:    runAnalyze,
			},
			{
				Name:   "watch",
				Usage:  "Watch the project tree and track complexity continuously",
				Action: runWatch,
			},
			{
				Name:   "insights",
				Usage:  "Print accumulated daily totals from the snapshot",
				Action: runInsights,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the analysis engine over MCP on stdio",
				Action: runMCP,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runAnalyze(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: codepulse analyze <file>")
	}
	path, err := filepath.Abs(c.Args().First())
	if err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	an := analyzer.New()
	language := analyzer.LanguageForPath(path)
	metrics := an.Analyze(content, language)

	out := struct {
		Path            string                  `json:"path"`
		Language        string                  `json:"language"`
		Metrics         types.ComplexityMetrics `json:"metrics"`
		Recommendations []string                `json:"recommendations"`
	}{path, language, metrics, analyzer.Recommendations(metrics)}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func runWatch(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	eng := buildEngine(cfg)
	eng.sched.Start()

	watcher, err := watch.New(cfg, eng.sched)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	fmt.Printf("codepulse watching %s\n", cfg.Project.Root)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	fmt.Println("shutting down...")
	var errs []error
	if err := watcher.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("watcher stop: %w", err))
	}
	if err := eng.sched.Teardown(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler teardown: %w", err))
	}
	if len(errs) > 0 {
		return cperrors.NewMultiError(errs)
	}
	return nil
}

func runInsights(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	snap, err := storage.NewFileSnapshotStore(cfg.Snapshot.Path).Load()
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(snap.DailyTotals, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func runMCP(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	debug.SetMCPMode(true)
	eng := buildEngine(cfg)
	eng.sched.Start()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer(cfg, eng.an, eng.cache, eng.sched)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return eng.sched.Teardown()
}
