package main

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/thingsiplay/emojicherrypick/internal/config"
	"github.com/thingsiplay/emojicherrypick/internal/db"
	"github.com/thingsiplay/emojicherrypick/internal/errors"
	"github.com/thingsiplay/emojicherrypick/internal/fsutil"
	"github.com/thingsiplay/emojicherrypick/internal/logging"
	"github.com/thingsiplay/emojicherrypick/internal/mcp"
	"github.com/thingsiplay/emojicherrypick/internal/ops"
	"github.com/thingsiplay/emojicherrypick/internal/proc"
)

// programFlags maps CLI flag names to program names. The notify-send flag
// is spelled without the dash.
var programFlags = []struct{ flag, program string }{
	{"rofi", config.ProgramRofi},
	{"dmenu", config.ProgramDmenu},
	{"pmenu", config.ProgramPmenu},
	{"fzf", config.ProgramFzf},
	{"xclip", config.ProgramXclip},
	{"xdotool", config.ProgramXdotool},
	{"notifysend", config.ProgramNotifySend},
}

// newCLIApp creates the CLI application. The root action picks an emoji.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:      "emojicherrypick",
		Usage:     "Pick an emoji from a curated list",
		Version:   Version,
		ArgsUsage: " ",
		// --version is a regular flag so -v stays free and the output
		// format is ours.
		HideVersion:            true,
		UseShortOptionHandling: true,
		Flags:                  pickFlags(),
		Action:                 pickAction,
		Commands: []*cli.Command{
			serveCmd(),
			statsCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// pickFlags returns the flags of the root command.
func pickFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "config-dir", Value: config.DefaultDir(), Usage: "Directory holding config.json"},
		&cli.BoolFlag{Name: "verbose", Usage: "Log debug messages to stderr"},
		&cli.BoolFlag{Name: "version", Usage: "Print the version and exit"},
		&cli.BoolFlag{Name: "list-programs", Usage: "Print the resolved path of every external program and exit"},
		&cli.BoolFlag{Name: "stats", Usage: "Record selections in the usage statistics store"},

		// enable output
		&cli.BoolFlag{Name: "stdout", Aliases: []string{"o"}, Usage: "Print the emoji to stdout"},
		&cli.BoolFlag{Name: "typing", Aliases: []string{"t"}, Usage: "Type the emoji into the focused window (xdotool)"},
		&cli.BoolFlag{Name: "clipboard", Aliases: []string{"c"}, Usage: "Copy the emoji to the clipboard"},
		&cli.BoolFlag{Name: "notify", Aliases: []string{"n"}, Usage: "Show the emoji in a desktop notification"},

		// disable output
		&cli.BoolFlag{Name: "nostdout", Aliases: []string{"O"}, Usage: "Do not print to stdout"},
		&cli.BoolFlag{Name: "notyping", Aliases: []string{"T"}, Usage: "Do not type"},
		&cli.BoolFlag{Name: "noclipboard", Aliases: []string{"C"}, Usage: "Do not copy to the clipboard"},
		&cli.BoolFlag{Name: "nonotify", Aliases: []string{"N"}, Usage: "Do not notify"},

		// engines and filters
		&cli.StringFlag{Name: "menu", Aliases: []string{"M"}, Usage: "Selection engine: rofi|dmenu|pmenu|fzf|filter|random|none"},
		&cli.StringFlag{Name: "pattern", Aliases: []string{"p"}, Usage: "Filter text for the filter menu or fzf"},
		&cli.StringFlag{Name: "matching-rofi", Aliases: []string{"m"}, Usage: "Rofi matching: normal|regex|glob|fuzzy|prefix"},
		&cli.BoolFlag{Name: "ignore-case", Aliases: []string{"i"}, Usage: "Match case-insensitively"},
		&cli.BoolFlag{Name: "noignore-case", Aliases: []string{"I"}, Usage: "Match case-sensitively (wins over -i)"},

		// cache files
		&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Usage: "Location of emojis.json"},
		&cli.BoolFlag{Name: "offline", Aliases: []string{"U"}, Usage: "Never download emojis.json"},
		&cli.StringFlag{Name: "cache-dir", Aliases: []string{"d"}, Usage: "Cache directory"},
		&cli.BoolFlag{Name: "wipe-cache", Aliases: []string{"w"}, Usage: "Delete cached files, recents and usage statistics before running"},
		&cli.BoolFlag{Name: "noemojis", Aliases: []string{"E"}, Usage: "Do not use the emoji catalog"},
		&cli.StringFlag{Name: "recents", Aliases: []string{"r"}, Usage: "Recents ledger file"},
		&cli.BoolFlag{Name: "norecents", Aliases: []string{"R"}, Usage: "Do not read or write recents"},
		&cli.IntFlag{Name: "recents-size", Aliases: []string{"k"}, Usage: "Number of recents listed first"},
		&cli.BoolFlag{Name: "ignore-skin", Usage: "Drop skin tone variants when building the catalog"},
		&cli.BoolFlag{Name: "no-ignore-skin", Usage: "Keep skin tone variants (wins over --ignore-skin)"},

		// config files
		&cli.StringFlag{Name: "favorites", Aliases: []string{"f"}, Usage: "Favorites file"},
		&cli.BoolFlag{Name: "nofavorites", Aliases: []string{"F"}, Usage: "Do not read favorites"},

		// menu interface
		&cli.StringFlag{Name: "prompt", Aliases: []string{"@"}, Usage: "Menu prompt"},
		&cli.StringFlag{Name: "font-family", Aliases: []string{"g"}, Usage: "Menu font family"},
		&cli.IntFlag{Name: "font-size", Aliases: []string{"s"}, Usage: "Menu font size"},
		&cli.IntFlag{Name: "list-size", Aliases: []string{"l"}, Usage: "Visible menu lines"},
	}
	for _, p := range programFlags {
		flags = append(flags, &cli.StringFlag{Name: p.flag, Usage: "Command for " + p.program})
	}
	return flags
}

// pickAction runs the pick pipeline. No selection exits with status 2.
func pickAction(c *cli.Context) error {
	w := c.App.Writer

	if c.Bool("version") {
		fmt.Fprintf(w, "emojicherrypick v%s\n", Version)
		return nil
	}
	if c.NArg() > 0 {
		return outputError(errors.NewInvalidRequest(fmt.Sprintf("unexpected argument %q", c.Args().First())))
	}

	s, err := loadSettings(c)
	if err != nil {
		return outputError(err)
	}

	if c.Bool("list-programs") {
		for _, p := range ops.Programs(s) {
			fmt.Fprintf(w, "%s: %s\n", p.Name, p.Path)
		}
		return nil
	}

	logger, err := logging.New(c.Bool("verbose"))
	if err != nil {
		return outputError(errors.NewInternal(err))
	}
	defer func() { _ = logger.Sync() }()

	stats, err := openStats(s)
	if err != nil {
		return outputError(err)
	}
	if stats != nil {
		defer stats.Close()
	}

	deps := ops.Deps{
		Runner: proc.ExecRunner{},
		Stdout: w,
		Stats:  stats,
		Logger: logger,
	}

	if _, err := ops.Prepare(c.Context, s, deps); err != nil {
		return outputError(err)
	}

	out, err := ops.Pick(c.Context, s, deps, ops.PickInput{})
	if err != nil {
		return outputError(err)
	}
	logger.Debug("pick finished",
		zap.String("outcome", string(out.Outcome)),
		zap.Strings("dispatched", out.Dispatched),
	)

	if out.Outcome == ops.OutcomeNoSelection {
		return cli.Exit("", errors.ExitNoSelection)
	}
	return nil
}

// serveCmd creates the serve command.
func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server over stdio",
		Action: func(c *cli.Context) error {
			s, err := loadSettings(c)
			if err != nil {
				return outputError(err)
			}

			logger, err := logging.New(c.Bool("verbose"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			defer func() { _ = logger.Sync() }()

			if unknown := mcp.ValidateDisabledTools(s.DisabledTools); len(unknown) > 0 {
				logger.Warn("unknown tools in disabled_tools", zap.Strings("tools", unknown))
			}

			stats, err := openStats(s)
			if err != nil {
				return outputError(err)
			}
			if stats != nil {
				defer stats.Close()
			}

			// stdout carries the protocol, so tools never dispatch outputs.
			deps := ops.Deps{Stats: stats, Logger: logger}
			if _, err := ops.Prepare(c.Context, s, deps); err != nil {
				return outputError(err)
			}

			if err := mcp.Run(c.Context, s, deps, Version); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// statsCmd creates the stats command.
func statsCmd() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show the most used emojis",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: ops.DefaultStatsLimit, Usage: "Maximum number of emojis"},
			&cli.BoolFlag{Name: "json", Usage: "Print JSON"},
		},
		Action: func(c *cli.Context) error {
			s, err := loadSettings(c)
			if err != nil {
				return outputError(err)
			}

			exists, err := fsutil.Exists(s.StatsPath)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if !exists {
				return outputError(errors.NewInvalidRequest("no usage statistics recorded; enable usage_stats or pass --stats"))
			}

			database, err := db.Init(s.CacheDir)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			defer database.Close()

			output, err := ops.Stats(c.Context, database, ops.StatsInput{Limit: c.Int("limit")})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(c.App.Writer, output)
			}
			return printStats(c.App.Writer, output)
		},
	}
}

// Helper functions

// loadSettings reads config.json from --config-dir, overlays the flags that
// were set on the command line and resolves the result.
func loadSettings(c *cli.Context) (config.Settings, error) {
	cfg, err := config.Load(c.String("config-dir"))
	if err != nil {
		return config.Settings{}, errors.NewInvalidRequest(err.Error())
	}
	return config.Merge(cfg, flagOverlay(c)).Resolve()
}

// flagOverlay builds a config holding only the explicitly set flags.
func flagOverlay(c *cli.Context) *config.Config {
	o := &config.Config{
		Stdout:       c.Bool("stdout"),
		Typing:       c.Bool("typing"),
		Clipboard:    c.Bool("clipboard"),
		Notify:       c.Bool("notify"),
		NoStdout:     c.Bool("nostdout"),
		NoTyping:     c.Bool("notyping"),
		NoClipboard:  c.Bool("noclipboard"),
		NoNotify:     c.Bool("nonotify"),
		IgnoreCase:   c.Bool("ignore-case"),
		NoIgnoreCase: c.Bool("noignore-case"),
		Offline:      c.Bool("offline"),
		WipeCache:    c.Bool("wipe-cache"),
		NoEmojis:     c.Bool("noemojis"),
		NoRecents:    c.Bool("norecents"),
		NoFavorites:  c.Bool("nofavorites"),
		UsageStats:   c.Bool("stats"),

		Menu:         c.String("menu"),
		Pattern:      c.String("pattern"),
		MatchingRofi: c.String("matching-rofi"),
		URL:          c.String("url"),
		CacheDir:     c.String("cache-dir"),
		Recents:      c.String("recents"),
		Favorites:    c.String("favorites"),
		Prompt:       c.String("prompt"),
		FontFamily:   c.String("font-family"),
		FontSize:     c.Int("font-size"),
		ListSize:     c.Int("list-size"),
	}

	if c.IsSet("recents-size") {
		n := c.Int("recents-size")
		o.RecentsSize = &n
	}
	if c.IsSet("ignore-skin") || c.IsSet("no-ignore-skin") {
		ignore := !c.Bool("no-ignore-skin")
		o.IgnoreSkin = &ignore
	}

	for _, p := range programFlags {
		if cmd := c.String(p.flag); cmd != "" {
			if o.Programs == nil {
				o.Programs = make(map[string]string)
			}
			o.Programs[p.program] = cmd
		}
	}
	return o
}

// openStats opens the usage statistics store when selections are recorded,
// or when a wipe has an existing store to purge. It returns nil otherwise.
func openStats(s config.Settings) (*sql.DB, error) {
	if !s.UsageStats {
		if !s.WipeCache {
			return nil, nil
		}
		exists, err := fsutil.Exists(s.StatsPath)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		if !exists {
			return nil, nil
		}
	}
	database, err := db.Init(s.CacheDir)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return database, nil
}

// printStats writes a table of the most used emojis.
func printStats(w io.Writer, output *ops.StatsOutput) error {
	if len(output.Items) == 0 {
		_, err := fmt.Fprintln(w, "no selections recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, u := range output.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Token, humanize.Comma(int64(u.Count)), humanize.Time(u.LastUsed), u.Description)
	}
	fmt.Fprintf(tw, "\t%s total\t\t\n", humanize.Comma(int64(output.Total)))
	return tw.Flush()
}

// outputJSON marshals result to w as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var pErr *errors.PickError
	if stderrors.As(err, &pErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", pErr.Code, pErr.Message), pErr.ExitCode)
	}
	return cli.Exit(err.Error(), errors.ExitFailure)
}
