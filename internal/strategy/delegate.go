package strategy

import (
	"context"
	stderrors "errors"
	"slices"
	"strconv"
	"strings"

	"github.com/thingsiplay/emojicherrypick/internal/config"
	"github.com/thingsiplay/emojicherrypick/internal/corpus"
	"github.com/thingsiplay/emojicherrypick/internal/errors"
	"github.com/thingsiplay/emojicherrypick/internal/proc"
)

// Title is the window title passed to menus that show one.
const Title = "emojicherrypick"

// MenuOptions are the presentation settings shared by all menu programs.
type MenuOptions struct {
	Prompt       string
	Pattern      string
	MatchingRofi string
	IgnoreCase   bool
	FontFamily   string
	FontSize     int
	ListSize     int
}

// MenuOptionsFrom extracts the menu presentation settings from s.
func MenuOptionsFrom(s config.Settings) MenuOptions {
	return MenuOptions{
		Prompt:       s.Prompt,
		Pattern:      s.Pattern,
		MatchingRofi: s.MatchingRofi,
		IgnoreCase:   s.IgnoreCase,
		FontFamily:   s.FontFamily,
		FontSize:     s.FontSize,
		ListSize:     s.ListSize,
	}
}

// MenuSpec is how one menu program is invoked.
type MenuSpec struct {
	Kind Kind
	Args []string
	// CancelCodes are exit statuses that mean the user dismissed the menu
	// when the program printed nothing.
	CancelCodes []int
	// FoldInput sends a case-folded copy of the corpus for menus without
	// their own case-insensitive mode.
	FoldInput bool
}

// MenuFor builds the invocation of the menu program for kind.
func MenuFor(kind Kind, o MenuOptions) MenuSpec {
	switch kind {
	case KindRofi:
		args := []string{
			"-dmenu", "-steal-focus",
			"-p", o.Prompt,
			"-title", Title,
			"-l", strconv.Itoa(o.ListSize),
			"-font", o.FontFamily + " " + strconv.Itoa(o.FontSize),
			"-no-custom",
			"-matching", o.MatchingRofi,
		}
		if o.IgnoreCase {
			args = append(args, "-i", "-nocase-sensitive")
		}
		return MenuSpec{Kind: kind, Args: args, CancelCodes: []int{1}}

	case KindDmenu:
		return MenuSpec{
			Kind: kind,
			Args: []string{
				"-p", o.Prompt,
				"-l", strconv.Itoa(o.ListSize),
				"-fn", o.FontFamily + "-" + strconv.Itoa(o.FontSize),
			},
			CancelCodes: []int{1},
			FoldInput:   o.IgnoreCase,
		}

	case KindPmenu:
		return MenuSpec{
			Kind:        kind,
			Args:        []string{"-p", o.Prompt},
			CancelCodes: []int{1},
			FoldInput:   o.IgnoreCase,
		}

	case KindFzf:
		args := []string{"--layout", "reverse", "--prompt", o.Prompt}
		if o.Pattern != "" {
			args = append(args, "--filter", o.Pattern)
		}
		if o.IgnoreCase {
			args = append(args, "-i")
		}
		// 1: no match, 130: interrupted with Esc or CTRL-C.
		return MenuSpec{Kind: kind, Args: args, CancelCodes: []int{1, 130}}
	}
	return MenuSpec{Kind: kind}
}

// Delegate hands the corpus to an external menu program and reads the
// picked line from its stdout. It waits as long as the user needs.
type Delegate struct {
	Menu    MenuSpec
	Program string
	Runner  proc.Runner
}

func (d *Delegate) Kind() Kind { return d.Menu.Kind }

func (d *Delegate) Select(ctx context.Context, c corpus.Corpus) (Result, error) {
	lines := c.Lines
	var back map[string]string
	if d.Menu.FoldInput {
		lines, back = corpus.FoldLines(c.Lines)
	}

	out, err := d.Runner.Run(ctx, proc.Command{
		Path:  d.Program,
		Args:  d.Menu.Args,
		Stdin: strings.Join(lines, "\n"),
	})
	if err != nil {
		var exitErr *proc.ExitError
		if stderrors.As(err, &exitErr) &&
			slices.Contains(d.Menu.CancelCodes, exitErr.Code) &&
			strings.TrimSpace(out.Stdout) == "" {
			return None(), nil
		}
		return None(), errors.NewStrategyFailed(string(d.Menu.Kind), err)
	}

	line := firstLine(out.Stdout)
	if line == "" {
		return None(), nil
	}
	if canonical, ok := back[line]; ok {
		line = canonical
	}
	return FromLine(line), nil
}
