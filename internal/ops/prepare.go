package ops

import (
	"context"

	"go.uber.org/zap"

	"github.com/thingsiplay/emojicherrypick/internal/catalog"
	"github.com/thingsiplay/emojicherrypick/internal/config"
	"github.com/thingsiplay/emojicherrypick/internal/db"
	"github.com/thingsiplay/emojicherrypick/internal/errors"
	"github.com/thingsiplay/emojicherrypick/internal/fsutil"
	"github.com/thingsiplay/emojicherrypick/internal/logging"
)

// PrepareOutput reports what Prepare changed on disk.
type PrepareOutput struct {
	Wiped           bool  `json:"wiped"`
	RecentsRemoved  bool  `json:"recents_removed"`
	StatsPurged     int64 `json:"stats_purged"`
	Downloaded      bool  `json:"downloaded"`
	FilteredCreated bool  `json:"filtered_created"`
}

// Prepare brings the cache into shape for one invocation: it wipes the
// cache (recents and usage statistics included) when asked, downloads the emoji database if it is missing (unless
// offline or the catalog is disabled) and builds the filtered catalog.
func Prepare(ctx context.Context, s config.Settings, deps Deps) (*PrepareOutput, error) {
	log := logging.OrNop(deps.Logger)
	cache := catalog.Cache{SourcePath: s.SourcePath, FilteredPath: s.FilteredPath}
	out := &PrepareOutput{}

	if s.WipeCache {
		if err := cache.Wipe(); err != nil {
			return nil, err
		}
		out.Wiped = true
		if s.RecentsEnabled() {
			if err := fsutil.RemoveIfExists(s.RecentsPath); err != nil {
				return nil, errors.NewInternal(err)
			}
			out.RecentsRemoved = true
		}
		if deps.Stats != nil {
			n, err := db.Purge(ctx, deps.Stats)
			if err != nil {
				return nil, err
			}
			out.StatsPurged = n
		}
		log.Debug("cache wiped", zap.String("cache_dir", s.CacheDir), zap.Int64("stats_purged", out.StatsPurged))
	}

	if !s.EmojisEnabled() {
		return out, nil
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = catalog.NewHTTPFetcher(s.FetchTimeout, "")
	}
	downloaded, err := cache.EnsureSource(ctx, fetcher, s.URL, s.Offline)
	if err != nil {
		return nil, err
	}
	out.Downloaded = downloaded
	if downloaded {
		log.Debug("emoji database downloaded", zap.String("url", s.URL), zap.String("path", s.SourcePath))
	}

	created, err := cache.EnsureFiltered(s.IgnoreSkin)
	if err != nil {
		return nil, err
	}
	out.FilteredCreated = created
	if created {
		log.Debug("filtered catalog built", zap.String("path", s.FilteredPath), zap.Bool("ignore_skin", s.IgnoreSkin))
	}
	return out, nil
}
