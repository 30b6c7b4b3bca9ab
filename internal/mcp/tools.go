package mcp

import "github.com/mark3labs/mcp-go/mcp"

var searchToolDef = mcp.NewTool("emoji_search",
	mcp.WithDescription("Search the merged emoji list (recents, favorites, catalog) by substring. "+
		"Returns matches in list order, recents first."),
	mcp.WithString("query",
		mcp.Description("Substring to match against the whole line (emoji and description). Empty lists everything."),
	),
	mcp.WithBoolean("ignore_case",
		mcp.Description("Match case-insensitively."),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum items to return (default 20, max 200)."),
	),
	mcp.WithReadOnlyHintAnnotation(true),
)

var pickToolDef = mcp.NewTool("emoji_pick",
	mcp.WithDescription("Pick one emoji without user interaction. "+
		"'filter' returns the first line containing the pattern, 'random' picks uniformly."),
	mcp.WithString("strategy",
		mcp.Required(),
		mcp.Description("Selection engine."),
		mcp.Enum("filter", "random"),
	),
	mcp.WithString("pattern",
		mcp.Description("Substring for the filter strategy. Empty selects the first line."),
	),
	mcp.WithBoolean("ignore_case",
		mcp.Description("Match the pattern case-insensitively."),
	),
	mcp.WithBoolean("record",
		mcp.Description("Remember the selection in recents and usage statistics."),
	),
)

var recentsToolDef = mcp.NewTool("emoji_recents",
	mcp.WithDescription("List the most recently selected distinct emojis, newest first."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum items to return (default 10, max 50)."),
	),
	mcp.WithReadOnlyHintAnnotation(true),
)

var statsToolDef = mcp.NewTool("emoji_stats",
	mcp.WithDescription("List the most used emojis from usage statistics. "+
		"Fails with INVALID_REQUEST when usage statistics are disabled."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum items to return (default 10, max 100)."),
	),
	mcp.WithReadOnlyHintAnnotation(true),
)
