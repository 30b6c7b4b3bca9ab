package ops

import (
	"context"
	"database/sql"

	"github.com/thingsiplay/emojicherrypick/internal/db"
	"github.com/thingsiplay/emojicherrypick/internal/errors"
)

// StatsInput contains parameters for the Stats operation.
type StatsInput struct {
	Limit int // default: 10, max: 100
}

// StatsOutput contains the result of the Stats operation.
type StatsOutput struct {
	Items []db.Usage `json:"items"`
	Total int        `json:"total"` // all recorded selections
}

// Stats returns the most used emojis from the usage statistics store.
func Stats(ctx context.Context, database *sql.DB, input StatsInput) (*StatsOutput, error) {
	if database == nil {
		return nil, errors.NewInvalidRequest("usage statistics are not available")
	}

	items, err := db.TopUsed(ctx, database, clampLimit(input.Limit, DefaultStatsLimit, MaxStatsLimit))
	if err != nil {
		return nil, err
	}
	total, err := db.CountSelections(ctx, database)
	if err != nil {
		return nil, err
	}
	return &StatsOutput{Items: items, Total: total}, nil
}
