package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/thingsiplay/emojicherrypick/internal/errors"
	"github.com/thingsiplay/emojicherrypick/internal/fsutil"
)

// Cache manages the downloaded database (emojis.json) and the filtered
// catalog derived from it (emojis.cherry).
type Cache struct {
	SourcePath   string
	FilteredPath string // empty disables the filtered catalog
}

// EnsureSource downloads the raw database when it is not cached yet.
// Any filtered catalog is invalidated before a download. Nothing is written
// when the fetch fails or the payload does not parse. With offline set a
// missing source is left missing.
func (c Cache) EnsureSource(ctx context.Context, fetcher Fetcher, url string, offline bool) (bool, error) {
	exists, err := fsutil.Exists(c.SourcePath)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	if exists || offline {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(c.SourcePath), 0700); err != nil {
		return false, errors.NewInternal(fmt.Errorf("failed to create cache directory: %w", err))
	}
	if err := c.Invalidate(); err != nil {
		return false, err
	}

	data, err := fetcher.Fetch(ctx, url)
	if err != nil {
		if errors.Is(err, errors.ErrFetchFailed) {
			return false, err
		}
		return false, errors.NewFetchFailed(url, err)
	}
	if _, err := Parse(data); err != nil {
		return false, err
	}

	if err := fsutil.WriteFileAtomic(c.SourcePath, data, 0600); err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// EnsureFiltered builds the filtered catalog from the cached source if it
// does not exist yet. An existing filtered catalog is never overwritten.
// A missing source is not an error: there is nothing to build.
func (c Cache) EnsureFiltered(ignoreSkinVariants bool) (bool, error) {
	if c.FilteredPath == "" {
		return false, nil
	}
	exists, err := fsutil.Exists(c.FilteredPath)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	if exists {
		return false, nil
	}

	data, err := os.ReadFile(c.SourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.NewInternal(err)
	}

	entries, err := Parse(data)
	if err != nil {
		return false, err
	}
	text := Normalize(entries, ignoreSkinVariants).Text()

	created, err := fsutil.CreateExclusive(c.FilteredPath, []byte(text), 0600)
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return created, nil
}

// Invalidate deletes the filtered catalog.
func (c Cache) Invalidate() error {
	if err := fsutil.RemoveIfExists(c.FilteredPath); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Wipe deletes the raw database and the filtered catalog.
func (c Cache) Wipe() error {
	if err := fsutil.RemoveIfExists(c.SourcePath); err != nil {
		return errors.NewInternal(err)
	}
	return c.Invalidate()
}
