// Package telemetry logs MCP server lifecycle events and keeps per-tool
// call counters.
package telemetry

import (
	"context"
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// ToolStats counts calls and tool-level errors for one tool.
type ToolStats struct {
	Tool   string `json:"tool"`
	Calls  int64  `json:"calls"`
	Errors int64  `json:"errors"`
}

// Counters aggregates tool call outcomes across transports.
type Counters struct {
	mu    sync.Mutex
	tools map[string]*ToolStats
}

// NewCounters returns empty Counters.
func NewCounters() *Counters {
	return &Counters{tools: make(map[string]*ToolStats)}
}

// Record counts one call of tool.
func (c *Counters) Record(tool string, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.tools[tool]
	if !ok {
		s = &ToolStats{Tool: tool}
		c.tools[tool] = s
	}
	s.Calls++
	if failed {
		s.Errors++
	}
}

// Snapshot returns a copy of the counters sorted by tool name.
func (c *Counters) Snapshot() []ToolStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ToolStats, 0, len(c.tools))
	for _, s := range c.tools {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tool < out[j].Tool })
	return out
}

// ServerHooks builds mcp-go hooks that log sessions, tool calls and
// request errors. counters may be nil.
func ServerHooks(logger zerolog.Logger, counters *Counters) *server.Hooks {
	hooks := &server.Hooks{}

	hooks.AddOnRegisterSession(func(ctx context.Context, session server.ClientSession) {
		logger.Info().Str("session_id", session.SessionID()).Msg("session registered")
	})

	hooks.AddOnUnregisterSession(func(ctx context.Context, session server.ClientSession) {
		logger.Info().Str("session_id", session.SessionID()).Msg("session unregistered")
	})

	hooks.AddAfterListTools(func(ctx context.Context, id any, req *mcp.ListToolsRequest, res *mcp.ListToolsResult) {
		logger.Info().Int("tools", len(res.Tools)).Msg("list_tools served")
	})

	hooks.AddAfterCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest, res *mcp.CallToolResult) {
		failed := res != nil && res.IsError
		if counters != nil {
			counters.Record(req.Params.Name, failed)
		}
		logger.Info().Str("tool", req.Params.Name).Bool("tool_error", failed).Msg("tool call served")
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		logger.Error().Str("method", string(method)).Err(err).Msg("request error")
	})

	return hooks
}
