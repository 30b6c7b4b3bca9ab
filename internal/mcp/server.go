package mcp

import (
	"context"
	stderrors "errors"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/thingsiplay/emojicherrypick/internal/config"
	"github.com/thingsiplay/emojicherrypick/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"emoji_search": {
		def:     searchToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"emoji_pick": {
		def:     pickToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandlePick },
	},
	"emoji_recents": {
		def:     recentsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRecents },
	},
	"emoji_stats": {
		def:     statsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleStats },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with the emoji tools registered.
// Tools listed in s.DisabledTools are excluded from registration.
func NewServer(s config.Settings, deps ops.Deps, version string) *server.MCPServer {
	srv := server.NewMCPServer(
		"emojicherrypick",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(s, deps)

	disabled := make(map[string]bool, len(s.DisabledTools))
	for _, name := range s.DisabledTools {
		disabled[name] = true
	}

	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		srv.AddTool(entry.def, entry.handler(h))
	}

	return srv
}

// Run serves MCP over stdio until stdin closes or ctx is cancelled.
func Run(ctx context.Context, s config.Settings, deps ops.Deps, version string) error {
	return serve(ctx, NewServer(s, deps, version), os.Stdin, os.Stdout)
}

// serve treats cancellation as a clean shutdown.
func serve(ctx context.Context, srv *server.MCPServer, in io.Reader, out io.Writer) error {
	err := server.NewStdioServer(srv).Listen(ctx, in, out)
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
