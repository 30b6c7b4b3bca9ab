package db

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/thingsiplay/emojicherrypick/internal/errors"
)

// Selection is one successful pick.
type Selection struct {
	Token       string
	Description string
	Strategy    string
	At          time.Time
}

// Usage summarizes how often a token was picked.
type Usage struct {
	Token       string    `json:"token"`
	Description string    `json:"description"`
	Count       int       `json:"count"`
	LastUsed    time.Time `json:"last_used"`
}

// RecordSelection stores a selection and returns its ULID.
// A zero At records the current time.
func RecordSelection(ctx context.Context, db *sql.DB, s Selection) (string, error) {
	if s.At.IsZero() {
		s.At = time.Now()
	}
	id, err := generateULID(s.At)
	if err != nil {
		return "", errors.NewInternal(err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO selections (id, token, description, strategy, selected_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, s.Token, s.Description, s.Strategy, s.At.UnixMilli())
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return id, nil
}

// TopUsed returns the most picked tokens, by count and then by most recent
// use. The description is the one recorded with the latest pick.
func TopUsed(ctx context.Context, db *sql.DB, limit int) ([]Usage, error) {
	if limit <= 0 {
		return []Usage{}, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT s.token,
			(SELECT d.description FROM selections d
			 WHERE d.token = s.token
			 ORDER BY d.selected_at DESC, d.id DESC LIMIT 1),
			COUNT(*) AS uses,
			MAX(s.selected_at) AS last_used
		FROM selections s
		GROUP BY s.token
		ORDER BY uses DESC, last_used DESC, s.token ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	usages := []Usage{}
	for rows.Next() {
		var u Usage
		var lastUsed int64
		if err := rows.Scan(&u.Token, &u.Description, &u.Count, &lastUsed); err != nil {
			return nil, errors.NewInternal(err)
		}
		u.LastUsed = time.UnixMilli(lastUsed)
		usages = append(usages, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return usages, nil
}

// CountSelections returns the number of recorded selections.
func CountSelections(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM selections`).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// Purge deletes every recorded selection and returns how many were removed.
func Purge(ctx context.Context, db *sql.DB) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM selections`)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// generateULID generates a new ULID for t.
func generateULID(t time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
