package config

import (
	"maps"
	"path/filepath"
	"time"
)

// File names inside the cache directory.
const (
	SourceFileName   = "emojis.json"
	FilteredFileName = "emojis.cherry"
	StatsFileName    = "stats.db"
)

// Settings is the immutable, fully resolved configuration of one invocation.
// It is built once by Config.Resolve and passed by value.
type Settings struct {
	Menu         string
	Pattern      string
	Prompt       string
	MatchingRofi string
	IgnoreCase   bool
	IgnoreSkin   bool

	URL          string
	Offline      bool
	WipeCache    bool
	FetchTimeout time.Duration

	CacheDir     string
	SourcePath   string
	FilteredPath string // empty when the emoji catalog is disabled
	StatsPath    string

	FavoritesPath string // empty when favorites are disabled
	RecentsPath   string // empty when recents are disabled
	RecentsSize   int

	FontFamily string
	FontSize   int
	ListSize   int

	Stdout    bool
	Clipboard bool
	Typing    bool
	Notify    bool

	ClipboardBackend string
	NotifyBackend    string
	UsageStats       bool

	DisabledTools []string

	programs map[string]string
}

// Resolve validates c and derives the Settings for one invocation.
// Negative flags win over positive ones and all paths are expanded.
func (c *Config) Resolve() (Settings, error) {
	if err := c.Validate(); err != nil {
		return Settings{}, err
	}

	cacheDir := ExpandPath(c.CacheDir)
	s := Settings{
		Menu:         c.Menu,
		Pattern:      c.Pattern,
		Prompt:       c.Prompt,
		MatchingRofi: c.MatchingRofi,
		IgnoreCase:   c.IgnoreCase && !c.NoIgnoreCase,
		IgnoreSkin:   c.IgnoreSkin == nil || *c.IgnoreSkin,

		URL:          c.URL,
		Offline:      c.Offline,
		WipeCache:    c.WipeCache,
		FetchTimeout: time.Duration(c.FetchTimeoutSeconds) * time.Second,

		CacheDir:   cacheDir,
		SourcePath: filepath.Join(cacheDir, SourceFileName),
		StatsPath:  filepath.Join(cacheDir, StatsFileName),

		FontFamily: c.FontFamily,
		FontSize:   c.FontSize,
		ListSize:   c.ListSize,

		Stdout:    c.Stdout && !c.NoStdout,
		Clipboard: c.Clipboard && !c.NoClipboard,
		Typing:    c.Typing && !c.NoTyping,
		Notify:    c.Notify && !c.NoNotify,

		ClipboardBackend: c.ClipboardBackend,
		NotifyBackend:    c.NotifyBackend,
		UsageStats:       c.UsageStats,

		DisabledTools: append([]string(nil), c.DisabledTools...),
		programs:      maps.Clone(c.Programs),
	}
	if c.RecentsSize != nil {
		s.RecentsSize = *c.RecentsSize
	}
	if !c.NoEmojis {
		s.FilteredPath = filepath.Join(cacheDir, FilteredFileName)
	}
	if !c.NoFavorites {
		s.FavoritesPath = ExpandPath(c.Favorites)
	}
	if !c.NoRecents {
		s.RecentsPath = ExpandPath(c.Recents)
	}
	return s, nil
}

// EmojisEnabled reports whether the catalog from emojis.json is used.
func (s Settings) EmojisEnabled() bool { return s.FilteredPath != "" }

// RecentsEnabled reports whether selections are tracked in the recents ledger.
func (s Settings) RecentsEnabled() bool { return s.RecentsPath != "" }

// Program returns the configured command for the named program.
// Unconfigured programs fall back to their own name.
func (s Settings) Program(name string) string {
	if cmd, ok := s.programs[name]; ok && cmd != "" {
		return cmd
	}
	return name
}

// WithMenu returns a copy of s using a different selection engine and pattern.
func (s Settings) WithMenu(menu, pattern string, ignoreCase bool) Settings {
	s.Menu = menu
	s.Pattern = pattern
	s.IgnoreCase = ignoreCase
	return s
}
