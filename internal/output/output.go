// Package output delivers a selected emoji to its destinations: stdout,
// the clipboard, simulated typing and desktop notifications.
package output

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/atotto/clipboard"

	"github.com/thingsiplay/emojicherrypick/internal/config"
	"github.com/thingsiplay/emojicherrypick/internal/errors"
	"github.com/thingsiplay/emojicherrypick/internal/proc"
)

// Side effects wait at most this long.
const (
	ClipboardTimeout = 2 * time.Second
	TypingTimeout    = time.Second
	NotifyTimeout    = time.Second
)

// Sink receives the selected emoji.
type Sink interface {
	Name() string
	Send(ctx context.Context, emoji string) error
}

// Stdout prints the emoji followed by a newline.
type Stdout struct {
	W io.Writer
}

func (Stdout) Name() string { return "stdout" }

func (s Stdout) Send(_ context.Context, emoji string) error {
	_, err := fmt.Fprintln(s.W, emoji)
	return err
}

// ExecClipboard copies the emoji to the clipboard with xclip.
type ExecClipboard struct {
	Program string
	Runner  proc.Runner
}

func (ExecClipboard) Name() string { return "clipboard" }

func (c ExecClipboard) Send(ctx context.Context, emoji string) error {
	_, err := c.Runner.Run(ctx, proc.Command{
		Path:          c.Program,
		Args:          []string{"-rmlastnl", "-selection", "clipboard"},
		Stdin:         emoji,
		Timeout:       ClipboardTimeout,
		DiscardStdout: true,
	})
	return err
}

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

// NativeClipboard copies the emoji with the platform clipboard library.
type NativeClipboard struct{}

func (NativeClipboard) Name() string { return "clipboard" }

func (NativeClipboard) Send(ctx context.Context, emoji string) error {
	return withTimeout(ctx, ClipboardTimeout, func() error {
		return clipboardWriteAll(emoji)
	})
}

// Typing types the emoji into the focused window with xdotool.
type Typing struct {
	Program string
	Runner  proc.Runner
}

func (Typing) Name() string { return "typing" }

func (t Typing) Send(ctx context.Context, emoji string) error {
	_, err := t.Runner.Run(ctx, proc.Command{
		Path: t.Program,
		Args: []string{
			"getwindowfocus", "windowfocus", "--sync",
			"type", "--clearmodifiers", "--delay", "25", emoji,
		},
		Timeout:       TypingTimeout,
		DiscardStdout: true,
	})
	return err
}

// ExecNotify shows the emoji in a desktop notification with notify-send.
type ExecNotify struct {
	Program string
	Runner  proc.Runner
}

func (ExecNotify) Name() string { return "notify" }

func (n ExecNotify) Send(ctx context.Context, emoji string) error {
	_, err := n.Runner.Run(ctx, proc.Command{
		Path:          n.Program,
		Args:          []string{"--urgency=low", emoji},
		Timeout:       NotifyTimeout,
		DiscardStdout: true,
	})
	return err
}

// withTimeout runs fn and gives up after d. fn keeps running in the
// background when it overruns; the process exits soon after anyway.
func withTimeout(ctx context.Context, d time.Duration, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("gave up after %s: %w", d, ctx.Err())
	}
}

// Build returns the enabled sinks in dispatch order: stdout, clipboard,
// typing, notify.
func Build(s config.Settings, runner proc.Runner, stdout io.Writer) []Sink {
	var sinks []Sink
	if s.Stdout {
		sinks = append(sinks, Stdout{W: stdout})
	}
	if s.Clipboard {
		if s.ClipboardBackend == config.ClipboardNative {
			sinks = append(sinks, NativeClipboard{})
		} else {
			sinks = append(sinks, ExecClipboard{Program: proc.Which(s.Program(config.ProgramXclip)), Runner: runner})
		}
	}
	if s.Typing {
		sinks = append(sinks, Typing{Program: proc.Which(s.Program(config.ProgramXdotool)), Runner: runner})
	}
	if s.Notify {
		if s.NotifyBackend == config.NotifyDBus {
			sinks = append(sinks, &DBusNotify{})
		} else {
			sinks = append(sinks, ExecNotify{Program: proc.Which(s.Program(config.ProgramNotifySend)), Runner: runner})
		}
	}
	return sinks
}

// Dispatch sends emoji to every sink in order and stops at the first
// failure, reported as OUTPUT_FAILED.
func Dispatch(ctx context.Context, sinks []Sink, emoji string) error {
	for _, sink := range sinks {
		if err := sink.Send(ctx, emoji); err != nil {
			return errors.NewOutputFailed(sink.Name(), err)
		}
	}
	return nil
}
