// Package mcpserver exposes the replace tool over the Model Context
// Protocol on stdio.
package mcpserver

import (
	"context"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/sokinpui/itfcore/internal/tools/replace"
	"github.com/sokinpui/itfcore/model"
)

// Runner runs replace requests. *itf.App implements it.
type Runner interface {
	NextMessageID() model.MessageID
	Run(ctx context.Context, id model.ToolRequestID, input replace.Input, threadID model.ThreadID, messageID model.MessageID) *replace.Tool
}

// Server is an MCP server backed by a Runner. All calls share one thread.
type Server struct {
	runner   Runner
	mcp      *server.MCPServer
	threadID model.ThreadID
	log      *zap.Logger
}

// New creates the server and registers its tools.
func New(runner Runner, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		runner:   runner,
		mcp:      server.NewMCPServer("itfcore", version, server.WithToolCapabilities(false)),
		threadID: 1,
		log:      log,
	}
	s.mcp.AddTool(ReplaceTool(), s.HandleReplace)
	return s
}

// ReplaceTool is the MCP declaration of the replace tool, built from its
// declarative schema.
func ReplaceTool() mcp.Tool {
	spec := replace.Spec()
	props, _ := spec.InputSchema["properties"].(map[string]any)
	required, _ := spec.InputSchema["required"].([]string)

	opts := []mcp.ToolOption{mcp.WithDescription(spec.Description)}
	for _, name := range required {
		prop, _ := props[name].(map[string]any)
		desc, _ := prop["description"].(string)
		opts = append(opts, mcp.WithString(name, mcp.Required(), mcp.Description(desc)))
	}
	return mcp.NewTool(spec.Name, opts...)
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves requests on stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// HandleReplace runs one replace call to completion. Tool failures are
// returned as error results so the model sees them.
func (s *Server) HandleReplace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := replace.ValidateInput(req.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := model.ToolRequestID(uuid.New().String())
	tool := s.runner.Run(ctx, id, input, s.threadID, s.runner.NextMessageID())
	res := tool.GetToolResult().Result
	s.log.Debug("mcp call", zap.String("request_id", string(id)), zap.String("status", res.Status))

	if res.IsError() {
		return mcp.NewToolResultError(res.Error), nil
	}
	return mcp.NewToolResultText(res.Value), nil
}
