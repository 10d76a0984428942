package mcpstats

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StatsProvider supplies the counters the scheduler_stats tool reports.
// Implemented by the demo app's run loop so the MCP surface stays
// decoupled from the TaskSystem/JobSystem types themselves.
type StatsProvider interface {
	FramesRun() int
	ResultsStored() int
}

// NewServer builds an MCP server exposing a single "scheduler_stats"
// tool, grounded on the teacher's cmd/quaero-mcp (deleted as
// app-specific, see DESIGN.md) which wired mark3labs/mcp-go's
// NewMCPServer/AddTool pattern for a different domain (crawl-job
// inspection); the tool/handler shape here follows the same pattern.
func NewServer(name, version string, stats StatsProvider) *server.MCPServer {
	s := server.NewMCPServer(name, version)

	tool := mcp.NewTool("scheduler_stats",
		mcp.WithDescription("Report TaskSystem frame count and stored result count"),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text := fmt.Sprintf("frames_run=%d results_stored=%d", stats.FramesRun(), stats.ResultsStored())
		return mcp.NewToolResultText(text), nil
	})

	return s
}

// Serve runs the MCP server over stdio, blocking until the transport
// closes.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
