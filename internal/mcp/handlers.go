package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/thingsiplay/emojicherrypick/internal/config"
	"github.com/thingsiplay/emojicherrypick/internal/errors"
	"github.com/thingsiplay/emojicherrypick/internal/ops"
	"github.com/thingsiplay/emojicherrypick/internal/strategy"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	settings config.Settings
	deps     ops.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(s config.Settings, deps ops.Deps) *Handlers {
	return &Handlers{settings: s, deps: deps}
}

// Request types for each tool

// SearchRequest represents the arguments for emoji_search.
type SearchRequest struct {
	Query      string `json:"query,omitempty"`
	IgnoreCase bool   `json:"ignore_case,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// PickRequest represents the arguments for emoji_pick.
type PickRequest struct {
	Strategy   string `json:"strategy"`
	Pattern    string `json:"pattern,omitempty"`
	IgnoreCase bool   `json:"ignore_case,omitempty"`
	Record     bool   `json:"record,omitempty"`
}

// RecentsRequest represents the arguments for emoji_recents.
type RecentsRequest struct {
	Limit int `json:"limit,omitempty"`
}

// StatsRequest represents the arguments for emoji_stats.
type StatsRequest struct {
	Limit int `json:"limit,omitempty"`
}

// HandleSearch handles the emoji_search tool.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Search(h.settings, ops.SearchInput{
		Query:      args.Query,
		IgnoreCase: args.IgnoreCase,
		Limit:      args.Limit,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePick handles the emoji_pick tool.
// Only strategies that need no terminal or display are accepted, and the
// selection is returned instead of being sent to the configured outputs.
func (h *Handlers) HandlePick(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[PickRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	kind, err := strategy.ParseKind(args.Strategy)
	if err != nil {
		return errorResult(err), nil
	}
	if kind != strategy.KindFilter && kind != strategy.KindRandom {
		return errorResult(errors.NewInvalidRequest("strategy must be filter or random")), nil
	}

	s := h.settings.WithMenu(string(kind), args.Pattern, args.IgnoreCase)
	result, err := ops.Pick(ctx, s, h.deps, ops.PickInput{
		SkipRecord:  !args.Record,
		SkipOutputs: true,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRecents handles the emoji_recents tool.
func (h *Handlers) HandleRecents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[RecentsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Recents(h.settings, ops.RecentsInput{Limit: args.Limit})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleStats handles the emoji_stats tool.
func (h *Handlers) HandleStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[StatsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Stats(ctx, h.deps.Stats, ops.StatsInput{Limit: args.Limit})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var pErr *errors.PickError
	if stderrors.As(err, &pErr) {
		errorObj := map[string]any{
			"code":      pErr.Code,
			"message":   err.Error(),
			"exit_code": pErr.ExitCode,
		}
		// Internal errors may carry paths or SQL text.
		if pErr.Code != errors.ErrInternal && pErr.Details != nil {
			errorObj["details"] = pErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":      "INTERNAL",
				"message":   "an internal error occurred",
				"exit_code": errors.ExitFailure,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
