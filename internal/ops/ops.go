package ops

import (
	"database/sql"
	"io"

	"go.uber.org/zap"

	"github.com/thingsiplay/emojicherrypick/internal/catalog"
	"github.com/thingsiplay/emojicherrypick/internal/corpus"
	"github.com/thingsiplay/emojicherrypick/internal/proc"
)

// Result limits
const (
	DefaultSearchLimit  = 20
	MaxSearchLimit      = 200
	DefaultRecentsLimit = 10
	MaxRecentsLimit     = 50
	DefaultStatsLimit   = 10
	MaxStatsLimit       = 100
)

// Deps are the collaborators an operation talks to.
type Deps struct {
	Fetcher catalog.Fetcher
	Runner  proc.Runner
	Stdout  io.Writer
	Stats   *sql.DB // nil disables usage statistics
	Logger  *zap.Logger
}

// Item is one corpus line split into token and description.
type Item struct {
	Token       string `json:"token"`
	Description string `json:"description"`
}

// itemsFromLines splits lines into items, skipping malformed ones.
func itemsFromLines(lines []string) []Item {
	items := make([]Item, 0, len(lines))
	for _, line := range lines {
		token, desc, ok := corpus.Split(line)
		if !ok {
			continue
		}
		items = append(items, Item{Token: token, Description: desc})
	}
	return items
}

// clampLimit applies the default for non-positive limits and caps the rest.
func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
