package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL attempts to load configuration from a .codepulse.kdl file.
// Returns (nil, nil) when the file does not exist.
func LoadKDL(projectRoot string) (*Config, error) {
	kdlPath := filepath.Join(projectRoot, ".codepulse.kdl")

	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .codepulse.kdl: %v", err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, err
	}

	resolveRoot(cfg, projectRoot)
	if cfg.Snapshot.Path == "" {
		cfg.Snapshot.Path = filepath.Join(cfg.Project.Root, ".codepulse", "snapshot.json")
	} else if !filepath.IsAbs(cfg.Snapshot.Path) {
		cfg.Snapshot.Path = filepath.Join(cfg.Project.Root, cfg.Snapshot.Path)
	}

	return cfg, nil
}

func parseKDL(content string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Project.Root = "" // resolved by the caller against the config dir

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "tracking":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Tracking.Enabled = b
					}
				case "exclude_languages":
					cfg.Tracking.ExcludeLanguages = collectStringArgs(cn)
				case "include":
					cfg.Tracking.Include = append(cfg.Tracking.Include, collectStringArgs(cn)...)
				case "exclude":
					// An explicit exclude block replaces the defaults.
					cfg.Tracking.Exclude = collectStringArgs(cn)
				}
			}
		case "analysis":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "quick_threshold_bytes":
					if v, ok := firstIntArg(cn); ok {
						cfg.Analysis.QuickThresholdBytes = v
					}
				}
			}
		case "cache":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_entries":
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.MaxEntries = v
					}
				case "ttl_hours":
					if v, ok := firstIntArg(cn); ok {
						cfg.Cache.TTLHours = v
					}
				}
			}
		case "scheduler":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Scheduler.DebounceMs = v
					}
				case "rescan_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Scheduler.RescanMs = v
					}
				case "idle_tick_sec":
					if v, ok := firstIntArg(cn); ok {
						cfg.Scheduler.IdleTickSec = v
					}
				case "idle_after_min":
					if v, ok := firstIntArg(cn); ok {
						cfg.Scheduler.IdleAfterMin = v
					}
				case "auto_flush_min":
					if v, ok := firstIntArg(cn); ok {
						cfg.Scheduler.AutoFlushMin = v
					}
				}
			}
		case "snapshot":
			for _, cn := range n.Children {
				assignSimpleString(cn, "path", func(v string) { cfg.Snapshot.Path = v })
			}
		}
	}

	return cfg, nil
}

// Helper functions leveraging the kdl-go document model.
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// Block format: each child node carries one string, either as its
	// first argument or as the node name itself.
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
