package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	pickerrors "github.com/thingsiplay/emojicherrypick/internal/errors"
)

// DefaultURL is the source of emojis.json.
const DefaultURL = "https://gist.githubusercontent.com/thingsiplay/" +
	"1f500459bc117cf0b63e1f5c11e03963/raw/" +
	"d8e4b78cfe66862cf3809443c1dba017f37b61db/emojis.json"

// Program names, used as keys of Config.Programs.
const (
	ProgramRofi       = "rofi"
	ProgramDmenu      = "dmenu"
	ProgramPmenu      = "pmenu"
	ProgramFzf        = "fzf"
	ProgramXclip      = "xclip"
	ProgramXdotool    = "xdotool"
	ProgramNotifySend = "notify-send"
)

// ProgramNames lists every external program in display order.
var ProgramNames = []string{
	ProgramRofi, ProgramDmenu, ProgramPmenu, ProgramFzf,
	ProgramXclip, ProgramXdotool, ProgramNotifySend,
}

// Menus lists the accepted values for Config.Menu.
var Menus = []string{"rofi", "dmenu", "pmenu", "fzf", "filter", "random", "none"}

// MatchingModes lists the accepted values for Config.MatchingRofi.
var MatchingModes = []string{"normal", "regex", "glob", "fuzzy", "prefix"}

// Backend names.
const (
	ClipboardXclip  = "xclip"
	ClipboardNative = "native"
	NotifyExec      = "exec"
	NotifyDBus      = "dbus"
)

// Config holds application configuration as read from config.json and flags.
type Config struct {
	// Menu is the selection engine: rofi, dmenu, pmenu, fzf, filter, random or none.
	Menu string `json:"menu,omitempty"`

	// Pattern is the text filter for the "filter" menu and fzf --filter.
	Pattern string `json:"pattern,omitempty"`

	Prompt       string `json:"prompt,omitempty"`
	MatchingRofi string `json:"matching_rofi,omitempty"`

	IgnoreCase   bool `json:"ignore_case,omitempty"`
	NoIgnoreCase bool `json:"no_ignore_case,omitempty"`

	// IgnoreSkin drops skin tone variants when the catalog cache is built.
	// A pointer because the default is true.
	IgnoreSkin *bool `json:"ignore_skin,omitempty"`

	URL      string `json:"url,omitempty"`
	Offline  bool   `json:"offline,omitempty"`
	CacheDir string `json:"cache_dir,omitempty"`

	// WipeCache is only ever set from the command line.
	WipeCache bool `json:"-"`

	Favorites   string `json:"favorites,omitempty"`
	Recents     string `json:"recents,omitempty"`
	RecentsSize *int   `json:"recents_size,omitempty"`
	NoEmojis    bool   `json:"no_emojis,omitempty"`
	NoFavorites bool   `json:"no_favorites,omitempty"`
	NoRecents   bool   `json:"no_recents,omitempty"`

	FontFamily string `json:"font_family,omitempty"`
	FontSize   int    `json:"font_size,omitempty"`
	ListSize   int    `json:"list_size,omitempty"`

	Stdout      bool `json:"stdout,omitempty"`
	Clipboard   bool `json:"clipboard,omitempty"`
	Typing      bool `json:"typing,omitempty"`
	Notify      bool `json:"notify,omitempty"`
	NoStdout    bool `json:"no_stdout,omitempty"`
	NoClipboard bool `json:"no_clipboard,omitempty"`
	NoTyping    bool `json:"no_typing,omitempty"`
	NoNotify    bool `json:"no_notify,omitempty"`

	// Programs maps a program name (see ProgramNames) to a command name or path.
	Programs map[string]string `json:"programs,omitempty"`

	ClipboardBackend string `json:"clipboard_backend,omitempty"`
	NotifyBackend    string `json:"notify_backend,omitempty"`

	// UsageStats records every selection into stats.db in the cache directory.
	UsageStats bool `json:"usage_stats,omitempty"`

	FetchTimeoutSeconds int `json:"fetch_timeout_seconds,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	ignoreSkin := true
	recentsSize := 2
	programs := make(map[string]string, len(ProgramNames))
	for _, name := range ProgramNames {
		programs[name] = name
	}
	return &Config{
		Menu:                "rofi",
		Prompt:              "🍒",
		MatchingRofi:        "normal",
		IgnoreSkin:          &ignoreSkin,
		URL:                 DefaultURL,
		CacheDir:            "~/.cache/emojicherrypick",
		Favorites:           "~/.config/emojicherrypick/favorites.cherry",
		Recents:             "~/.cache/emojicherrypick/recents.cherry",
		RecentsSize:         &recentsSize,
		FontFamily:          "Noto Color Emoji",
		FontSize:            16,
		ListSize:            15,
		Programs:            programs,
		ClipboardBackend:    ClipboardXclip,
		NotifyBackend:       NotifyExec,
		FetchTimeoutSeconds: 30,
	}
}

// DefaultDir returns the default configuration directory.
func DefaultDir() string {
	return "~/.config/emojicherrypick"
}

// Load loads configuration from dir/config.json.
// Returns default config if the file doesn't exist.
// The dir parameter allows tests to use t.TempDir() instead of ~/.config.
func Load(dir string) (*Config, error) {
	return loadFile(filepath.Join(ExpandPath(dir), "config.json"))
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for non-zero scalars and non-nil pointers;
// booleans are OR-ed; program maps are merged key by key; arrays are merged
// and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.Menu = pickString(overlay.Menu, base.Menu)
	result.Pattern = pickString(overlay.Pattern, base.Pattern)
	result.Prompt = pickString(overlay.Prompt, base.Prompt)
	result.MatchingRofi = pickString(overlay.MatchingRofi, base.MatchingRofi)
	result.URL = pickString(overlay.URL, base.URL)
	result.CacheDir = pickString(overlay.CacheDir, base.CacheDir)
	result.Favorites = pickString(overlay.Favorites, base.Favorites)
	result.Recents = pickString(overlay.Recents, base.Recents)
	result.FontFamily = pickString(overlay.FontFamily, base.FontFamily)
	result.ClipboardBackend = pickString(overlay.ClipboardBackend, base.ClipboardBackend)
	result.NotifyBackend = pickString(overlay.NotifyBackend, base.NotifyBackend)

	result.FontSize = pickInt(overlay.FontSize, base.FontSize)
	result.ListSize = pickInt(overlay.ListSize, base.ListSize)
	result.FetchTimeoutSeconds = pickInt(overlay.FetchTimeoutSeconds, base.FetchTimeoutSeconds)

	result.IgnoreSkin = base.IgnoreSkin
	if overlay.IgnoreSkin != nil {
		result.IgnoreSkin = overlay.IgnoreSkin
	}
	result.RecentsSize = base.RecentsSize
	if overlay.RecentsSize != nil {
		result.RecentsSize = overlay.RecentsSize
	}

	result.IgnoreCase = base.IgnoreCase || overlay.IgnoreCase
	result.NoIgnoreCase = base.NoIgnoreCase || overlay.NoIgnoreCase
	result.Offline = base.Offline || overlay.Offline
	result.WipeCache = base.WipeCache || overlay.WipeCache
	result.NoEmojis = base.NoEmojis || overlay.NoEmojis
	result.NoFavorites = base.NoFavorites || overlay.NoFavorites
	result.NoRecents = base.NoRecents || overlay.NoRecents
	result.Stdout = base.Stdout || overlay.Stdout
	result.Clipboard = base.Clipboard || overlay.Clipboard
	result.Typing = base.Typing || overlay.Typing
	result.Notify = base.Notify || overlay.Notify
	result.NoStdout = base.NoStdout || overlay.NoStdout
	result.NoClipboard = base.NoClipboard || overlay.NoClipboard
	result.NoTyping = base.NoTyping || overlay.NoTyping
	result.NoNotify = base.NoNotify || overlay.NoNotify
	result.UsageStats = base.UsageStats || overlay.UsageStats

	if len(base.Programs)+len(overlay.Programs) > 0 {
		result.Programs = make(map[string]string, len(ProgramNames))
		maps.Copy(result.Programs, base.Programs)
		for name, cmd := range overlay.Programs {
			if cmd = strings.TrimSpace(cmd); cmd != "" {
				result.Programs[name] = cmd
			}
		}
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func pickString(overlay, base string) string {
	if overlay != "" {
		return overlay
	}
	return base
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(slices.Clone(a), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// Validate checks enumerated values and numeric ranges.
func (c *Config) Validate() error {
	if !slices.Contains(Menus, c.Menu) {
		return pickerrors.NewInvalidRequest(fmt.Sprintf("unknown menu %q; available: %s", c.Menu, strings.Join(Menus, ", ")))
	}
	if !slices.Contains(MatchingModes, c.MatchingRofi) {
		return pickerrors.NewInvalidRequest(fmt.Sprintf("unknown rofi matching mode %q; available: %s", c.MatchingRofi, strings.Join(MatchingModes, ", ")))
	}
	if c.RecentsSize != nil && (*c.RecentsSize < 0 || *c.RecentsSize >= 200) {
		return pickerrors.NewInvalidRequest(fmt.Sprintf("recents size %d out of range [0, 200)", *c.RecentsSize))
	}
	if c.FontSize < 4 || c.FontSize >= 256 {
		return pickerrors.NewInvalidRequest(fmt.Sprintf("font size %d out of range [4, 256)", c.FontSize))
	}
	if c.ListSize < 1 || c.ListSize >= 200 {
		return pickerrors.NewInvalidRequest(fmt.Sprintf("list size %d out of range [1, 200)", c.ListSize))
	}
	if c.ClipboardBackend != ClipboardXclip && c.ClipboardBackend != ClipboardNative {
		return pickerrors.NewInvalidRequest(fmt.Sprintf("unknown clipboard backend %q", c.ClipboardBackend))
	}
	if c.NotifyBackend != NotifyExec && c.NotifyBackend != NotifyDBus {
		return pickerrors.NewInvalidRequest(fmt.Sprintf("unknown notify backend %q", c.NotifyBackend))
	}
	if c.FetchTimeoutSeconds < 0 {
		return pickerrors.NewInvalidRequest("fetch timeout must be non-negative")
	}
	return nil
}

// ExpandPath resolves environment variables and a leading tilde, then makes
// the path absolute. An empty path stays empty.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}
