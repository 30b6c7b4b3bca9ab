package ops

import (
	"strings"

	"github.com/thingsiplay/emojicherrypick/internal/config"
	"github.com/thingsiplay/emojicherrypick/internal/corpus"
	"github.com/thingsiplay/emojicherrypick/internal/recents"
)

// SearchInput contains parameters for the Search operation.
type SearchInput struct {
	Query      string // substring, whitespace included; empty matches every line
	IgnoreCase bool
	Limit      int // default: 20, max: 200
}

// SearchOutput contains the result of the Search operation.
type SearchOutput struct {
	Items []Item `json:"items"`
	Total int    `json:"total"` // matches before the limit was applied
}

// Search returns the corpus lines containing the query, in corpus order.
// Matching is plain substring matching, case-folded when IgnoreCase is set.
func Search(s config.Settings, input SearchInput) (*SearchOutput, error) {
	c, err := corpus.Load(corpus.Sources{
		RecentsPath:   s.RecentsPath,
		FavoritesPath: s.FavoritesPath,
		CatalogPath:   s.FilteredPath,
		RecentsSize:   s.RecentsSize,
	})
	if err != nil {
		return nil, err
	}

	limit := clampLimit(input.Limit, DefaultSearchLimit, MaxSearchLimit)
	query := input.Query
	if input.IgnoreCase {
		query = corpus.Fold(query)
	}

	var matches []string
	total := 0
	for _, line := range c.Lines {
		candidate := line
		if input.IgnoreCase {
			candidate = corpus.Fold(line)
		}
		if !strings.Contains(candidate, query) {
			continue
		}
		total++
		if len(matches) < limit {
			matches = append(matches, line)
		}
	}

	return &SearchOutput{Items: itemsFromLines(matches), Total: total}, nil
}

// RecentsInput contains parameters for the Recents operation.
type RecentsInput struct {
	Limit int // default: 10, max: 50
}

// RecentsOutput contains the result of the Recents operation.
type RecentsOutput struct {
	Items   []Item `json:"items"`
	Enabled bool   `json:"enabled"`
}

// Recents returns the most recent distinct selections, newest first.
func Recents(s config.Settings, input RecentsInput) (*RecentsOutput, error) {
	ledger := recents.New(s.RecentsPath)
	lines, err := ledger.ReadTopN(clampLimit(input.Limit, DefaultRecentsLimit, MaxRecentsLimit))
	if err != nil {
		return nil, err
	}
	return &RecentsOutput{Items: itemsFromLines(lines), Enabled: ledger.Enabled}, nil
}
