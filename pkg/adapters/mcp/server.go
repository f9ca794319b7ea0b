package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/furrow"
	"github.com/aretw0/furrow/internal/logging"
	"github.com/aretw0/furrow/pkg/cfg"
	"github.com/aretw0/furrow/pkg/domain"
	"github.com/aretw0/furrow/pkg/ports"
	"github.com/aretw0/furrow/pkg/search"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	// StrategiesURI names the resource listing the registered search strategies.
	StrategiesURI = "furrow://strategies"

	// DefaultRestartingSteps caps explore calls that use the stochastic
	// strategy without max_steps. Stochastic search restarts instead of
	// running dry, so it never ends on its own.
	DefaultRestartingSteps = 10000
)

// ExploreResponse is the structured result of the explore tool.
type ExploreResponse struct {
	Report  *domain.Report `json:"report" jsonschema_description:"Final report of the exploration session"`
	Blocks  int            `json:"blocks" jsonschema_description:"Number of basic blocks in the graph"`
	Loops   int            `json:"loops" jsonschema_description:"Number of natural loops in the graph"`
	Partial bool           `json:"partial" jsonschema_description:"True when the guard cut the session short"`
}

// Server exposes furrow exploration and stored reports as an MCP server.
type Server struct {
	store     ports.ReportStore
	registry  *search.Registry
	logger    *slog.Logger
	mcpServer *server.MCPServer

	restartingSteps int
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry sets the strategy registry used by the explore tool.
func WithRegistry(r *search.Registry) Option {
	return func(s *Server) {
		s.registry = r
	}
}

// WithRestartingSteps overrides DefaultRestartingSteps.
func WithRestartingSteps(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.restartingSteps = n
		}
	}
}

// NewServer creates a new MCP Server instance. Explorations save their
// reports to store.
func NewServer(store ports.ReportStore, opts ...Option) *Server {
	s := &Server{
		store:     store,
		registry:  search.DefaultRegistry(),
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("furrow-mcp", strings.TrimSpace(furrow.Version)),

		restartingSteps: DefaultRestartingSteps,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	exploreTool := mcp.NewTool("explore",
		mcp.WithDescription("Explore a control-flow graph file and return the session report."),
		mcp.WithString("graph_path", mcp.Required(), mcp.Description("Path to the YAML or JSON graph description")),
		mcp.WithString("strategy", mcp.Description("Search strategy: "+strings.Join(s.registry.Names(), ", "))),
		mcp.WithString("session_id", mcp.Description("Session ID to save the report under (optional)")),
		mcp.WithNumber("seed", mcp.Description("Seed of the strategy's random generator")),
		mcp.WithNumber("max_steps", mcp.Description(fmt.Sprintf("Stop after this many epochs (0 = unlimited, or %d for stochastic)", DefaultRestartingSteps))),
		mcp.WithNumber("threshold", mcp.Description("Explosion guard threshold")),
		mcp.WithOutputSchema[ExploreResponse](),
	)
	s.mcpServer.AddTool(exploreTool, mcp.NewStructuredToolHandler(s.handleExplore))

	s.mcpServer.AddTool(mcp.NewTool("validate_graph",
		mcp.WithDescription("Check a graph description and summarize it."),
		mcp.WithString("graph_path", mcp.Required(), mcp.Description("Path to the YAML or JSON graph description")),
	), s.handleValidate)

	s.mcpServer.AddTool(mcp.NewTool("list_reports",
		mcp.WithDescription("List the IDs of stored exploration sessions."),
	), s.handleListReports)

	s.mcpServer.AddTool(mcp.NewTool("get_report",
		mcp.WithDescription("Fetch the report of a stored exploration session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), s.handleGetReport)
}

func (s *Server) handleExplore(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ExploreResponse, error) {
	path, _ := args["graph_path"].(string)
	if path == "" {
		return ExploreResponse{}, errors.New("graph_path is required")
	}
	graph, err := cfg.Load(path)
	if err != nil {
		return ExploreResponse{}, err
	}

	opts := []furrow.Option{
		furrow.WithLogger(s.logger),
		furrow.WithRegistry(s.registry),
		furrow.WithStore(s.store),
	}
	name, _ := args["strategy"].(string)
	if name != "" {
		opts = append(opts, furrow.WithStrategy(name))
	}
	if id, ok := args["session_id"].(string); ok && id != "" {
		opts = append(opts, furrow.WithSessionID(id))
	}
	// JSON numbers arrive as float64.
	if v, ok := args["seed"].(float64); ok {
		opts = append(opts, furrow.WithSeed(int64(v)))
	}
	maxSteps, _ := args["max_steps"].(float64)
	if maxSteps <= 0 && name == "stochastic" {
		maxSteps = float64(s.restartingSteps)
	}
	if maxSteps > 0 {
		opts = append(opts, furrow.WithMaxSteps(int(maxSteps)))
	}
	if v, ok := args["threshold"].(float64); ok {
		opts = append(opts, furrow.WithThreshold(int(v)))
	}

	ex, err := furrow.New(graph, opts...)
	if err != nil {
		return ExploreResponse{}, err
	}
	report, err := ex.Run(ctx)
	if err != nil {
		s.logger.Error("MCP explore failed", "graph", path, "err", err)
		return ExploreResponse{}, fmt.Errorf("explore failed: %w", err)
	}
	return ExploreResponse{
		Report:  report,
		Blocks:  graph.Len(),
		Loops:   len(graph.Loops()),
		Partial: report.Partial(),
	}, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("graph_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	graph, err := cfg.Load(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d blocks, %d natural loops, entry %#x", graph.Len(), len(graph.Loops()), graph.Entry())), nil
}

func (s *Server) handleListReports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.store.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	if ids == nil {
		ids = []string{}
	}
	jsonBytes, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.store.Load(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(report)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StrategiesURI, "Search Strategies",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, _ := json.Marshal(s.registry.Names())
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StrategiesURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
