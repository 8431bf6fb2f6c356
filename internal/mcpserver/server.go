// Package mcpserver exposes the persona engine as MCP tools.
package mcpserver

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/rcliao/agent-persona/internal/memory"
	"github.com/rcliao/agent-persona/internal/orchestrator"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "agent-persona"

// ToolContext holds shared dependencies for all tools
type ToolContext struct {
	Orchestrator *orchestrator.Orchestrator
	Memory       *memory.Store
	Logger       *zap.Logger
}

// log returns the configured logger, or a no-op one.
func (tc *ToolContext) log() *zap.Logger {
	if tc.Logger == nil {
		return zap.NewNop()
	}
	return tc.Logger
}

// NewServer creates an MCP server with every persona tool registered.
func NewServer(tc *ToolContext, version string) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(NewChatTool(), ChatHandler(tc))
	s.AddTool(NewRememberTool(), RememberHandler(tc))
	s.AddTool(NewRecallTool(), RecallHandler(tc))
	s.AddTool(NewAssociateTool(), AssociateHandler(tc))
	s.AddTool(NewPatternsTool(), PatternsHandler(tc))
	s.AddTool(NewStateTool(), StateHandler(tc))
	return s
}

// ServeStdio serves s over stdin/stdout until the client disconnects or
// ctx is done. Errors go to the zap logger since stdout carries the protocol.
func ServeStdio(ctx context.Context, s *server.MCPServer, logger *zap.Logger) error {
	stdio := server.NewStdioServer(s)
	if logger == nil {
		logger = zap.NewNop()
	}
	stdio.SetErrorLogger(zap.NewStdLog(logger))
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}
