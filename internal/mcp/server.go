// Package mcp exposes the analysis engine over the Model Context Protocol
// so agent tooling can query complexity data for the active project.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/codepulse/internal/analyzer"
	"github.com/standardbeagle/codepulse/internal/cache"
	"github.com/standardbeagle/codepulse/internal/config"
	"github.com/standardbeagle/codepulse/internal/debug"
	cperrors "github.com/standardbeagle/codepulse/internal/errors"
	"github.com/standardbeagle/codepulse/internal/scheduler"
	"github.com/standardbeagle/codepulse/internal/types"
	"github.com/standardbeagle/codepulse/internal/version"
)

// Server wires the scheduler, cache, and analyzer into MCP tools.
type Server struct {
	server   *mcp.Server
	cfg      *config.Config
	analyzer *analyzer.Analyzer
	cache    *cache.MetricCache[types.FileRecord]
	sched    *scheduler.Scheduler
}

// NewServer creates the MCP server and registers its tools.
func NewServer(cfg *config.Config, an *analyzer.Analyzer, c *cache.MetricCache[types.FileRecord], sched *scheduler.Scheduler) *Server {
	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "codepulse",
			Version: version.Version,
		}, nil),
		cfg:      cfg,
		analyzer: an,
		cache:    c,
		sched:    sched,
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	debug.LogMCP("serving on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "analyze_file",
		Description: "Analyze a source file's complexity (cyclomatic, maintainability, Halstead) and get recommendations.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "Path to the file to analyze",
				},
			},
			Required: []string{"path"},
		},
	}, s.handleAnalyzeFile)

	s.server.AddTool(&mcp.Tool{
		Name:        "file_metrics",
		Description: "Get the cached complexity metrics for a file without re-analyzing it.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "Path previously analyzed",
				},
			},
			Required: []string{"path"},
		},
	}, s.handleFileMetrics)

	s.server.AddTool(&mcp.Tool{
		Name:        "session_insights",
		Description: "Get aggregated session statistics: active/idle time, files tracked, per-language counts, and outlier-filtered average complexity.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleSessionInsights)

	s.server.AddTool(&mcp.Tool{
		Name:        "flush",
		Description: "Persist the current session and cached metrics to the snapshot and start a fresh session.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleFlush)
}

type pathParams struct {
	Path string `json:"path"`
}

// analyzeFileResponse is the analyze_file tool payload.
type analyzeFileResponse struct {
	Path            string                  `json:"path"`
	Language        string                  `json:"language"`
	LineCount       int                     `json:"line_count"`
	Metrics         types.ComplexityMetrics `json:"metrics"`
	Recommendations []string                `json:"recommendations"`
}

func (s *Server) handleAnalyzeFile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params pathParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("analyze_file", fmt.Errorf("invalid arguments: %v", err))
	}
	if params.Path == "" {
		return createErrorResponse("analyze_file", fmt.Errorf("path is required"))
	}

	content, err := os.ReadFile(params.Path)
	if err != nil {
		return createErrorResponse("analyze_file", cperrors.NewFileError("read", params.Path, err))
	}

	// Route through the scheduler's save path so the cache stays coherent.
	s.sched.RecordEvent(scheduler.EventSave, params.Path, content)

	record, ok := s.cache.Get(params.Path)
	if !ok {
		return createErrorResponse("analyze_file", fmt.Errorf("analysis produced no record for %s", params.Path))
	}

	return createJSONResponse(analyzeFileResponse{
		Path:            record.Path,
		Language:        record.Language,
		LineCount:       record.LineCount,
		Metrics:         record.Metrics,
		Recommendations: analyzer.Recommendations(record.Metrics),
	})
}

func (s *Server) handleFileMetrics(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params pathParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("file_metrics", fmt.Errorf("invalid arguments: %v", err))
	}

	record, ok := s.cache.Get(params.Path)
	if !ok {
		return createErrorResponse("file_metrics", fmt.Errorf("no cached metrics for %s", params.Path))
	}
	return createJSONResponse(record)
}

func (s *Server) handleSessionInsights(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return createJSONResponse(s.sched.Insights())
}

func (s *Server) handleFlush(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.sched.Flush(); err != nil {
		return createErrorResponse("flush", err)
	}
	return createJSONResponse(map[string]interface{}{
		"success": true,
		"path":    s.cfg.Snapshot.Path,
	})
}
