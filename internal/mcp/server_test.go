package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/codepulse/internal/analyzer"
	"github.com/standardbeagle/codepulse/internal/cache"
	"github.com/standardbeagle/codepulse/internal/config"
	"github.com/standardbeagle/codepulse/internal/scheduler"
	"github.com/standardbeagle/codepulse/internal/storage"
	"github.com/standardbeagle/codepulse/internal/types"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Project.Root = root
	cfg.Snapshot.Path = filepath.Join(root, ".codepulse", "snapshot.json")

	an := analyzer.New()
	c := cache.New[types.FileRecord](cache.Options{MaxEntries: 100, TTL: time.Hour})
	sched := scheduler.New(scheduler.Options{
		Config:   cfg,
		Analyzer: an,
		Cache:    c,
		Store:    storage.NewFileSnapshotStore(cfg.Snapshot.Path),
	})
	return NewServer(cfg, an, c, sched), root
}

func callWith(t *testing.T, args interface{}) *sdk.CallToolRequest {
	t.Helper()
	raw, err := json.Marshal(args)
	if err != nil {
		t.Fatal(err)
	}
	return &sdk.CallToolRequest{Params: &sdk.CallToolParamsRaw{Arguments: raw}}
}

func decodeText(t *testing.T, result *sdk.CallToolResult, out interface{}) {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("result has %d content blocks, want 1", len(result.Content))
	}
	text, ok := result.Content[0].(*sdk.TextContent)
	if !ok {
		t.Fatalf("content block is %T, want TextContent", result.Content[0])
	}
	if err := json.Unmarshal([]byte(text.Text), out); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
}

func TestAnalyzeFileTool(t *testing.T) {
	server, root := newTestServer(t)

	path := filepath.Join(root, "main.go")
	source := "package main\n\nfunc main() {\n\tif true {\n\t}\n}\n"
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := server.handleAnalyzeFile(context.TODO(), callWith(t, pathParams{Path: path}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %+v", result.Content)
	}

	var resp analyzeFileResponse
	decodeText(t, result, &resp)
	if resp.Language != "go" {
		t.Errorf("language = %q, want go", resp.Language)
	}
	if resp.Metrics.Cyclomatic != 2 {
		t.Errorf("cyclomatic = %d, want 2", resp.Metrics.Cyclomatic)
	}
	if len(resp.Recommendations) == 0 {
		t.Error("expected at least one recommendation")
	}
}

func TestAnalyzeFileMissingPath(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleAnalyzeFile(context.TODO(), callWith(t, pathParams{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Error("missing path should produce a tool error")
	}
}

func TestAnalyzeFileUnreadable(t *testing.T) {
	server, root := newTestServer(t)

	result, err := server.handleAnalyzeFile(context.TODO(), callWith(t, pathParams{Path: filepath.Join(root, "gone.go")}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Error("unreadable file should produce a tool error")
	}
}

func TestFileMetricsRequiresCacheEntry(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleFileMetrics(context.TODO(), callWith(t, pathParams{Path: "/nope.go"}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !result.IsError {
		t.Error("cache miss should produce a tool error")
	}
}

func TestFileMetricsAfterAnalyze(t *testing.T) {
	server, root := newTestServer(t)

	path := filepath.Join(root, "util.go")
	if err := os.WriteFile(path, []byte("package util\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := server.handleAnalyzeFile(context.TODO(), callWith(t, pathParams{Path: path})); err != nil {
		t.Fatal(err)
	}

	result, err := server.handleFileMetrics(context.TODO(), callWith(t, pathParams{Path: path}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %+v", result.Content)
	}

	var record types.FileRecord
	decodeText(t, result, &record)
	if record.Path != path {
		t.Errorf("record path = %q, want %q", record.Path, path)
	}
}

func TestSessionInsightsTool(t *testing.T) {
	server, _ := newTestServer(t)

	result, err := server.handleSessionInsights(context.TODO(), callWith(t, struct{}{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var insights types.SessionInsights
	decodeText(t, result, &insights)
	if insights.FilesTracked != 0 {
		t.Errorf("fresh session FilesTracked = %d, want 0", insights.FilesTracked)
	}
}

func TestFlushTool(t *testing.T) {
	server, root := newTestServer(t)

	result, err := server.handleFlush(context.TODO(), callWith(t, struct{}{}))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %+v", result.Content)
	}

	if _, err := os.Stat(filepath.Join(root, ".codepulse", "snapshot.json")); err != nil {
		t.Errorf("flush did not write snapshot: %v", err)
	}
}
