// Package proc runs external programs (menus, clipboard, typing and
// notification helpers) and reports their failures as typed errors.
package proc

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/thingsiplay/emojicherrypick/internal/config"
)

// ErrTimeout is returned when a command does not finish within its timeout.
var ErrTimeout = stderrors.New("command timed out")

// Command describes one program invocation.
type Command struct {
	Path    string
	Args    []string
	Stdin   string
	Timeout time.Duration // zero waits until the program exits
	// DiscardStdout sends stdout to the null device instead of capturing
	// it. Helpers that fork into the background (xclip) need this.
	DiscardStdout bool
}

// String renders the command line for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Path
	}
	return c.Path + " " + strings.Join(c.Args, " ")
}

// Output is what a finished program produced.
type Output struct {
	Stdout   string
	ExitCode int
}

// Runner starts a command and waits for it.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Output, error)
}

// StartError reports a program that could not be started at all.
type StartError struct {
	Path string
	Err  error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("cannot start %s: %v", e.Path, e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// ExitError reports a program that exited with a non-zero status.
// Code is -1 when the program was killed by a signal.
type ExitError struct {
	Path   string
	Code   int
	Stdout string
}

func (e *ExitError) Error() string {
	if e.Code < 0 {
		return fmt.Sprintf("%s terminated abnormally", e.Path)
	}
	return fmt.Sprintf("%s exited with status %d", e.Path, e.Code)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Stderr receives the program's stderr. Nil means os.Stderr.
	Stderr io.Writer
}

// Run starts cmd, feeds it Stdin, and waits for it to exit.
// A non-zero exit returns the captured output together with an *ExitError.
func (r ExecRunner) Run(ctx context.Context, cmd Command) (Output, error) {
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	execCmd := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	execCmd.Stdin = strings.NewReader(cmd.Stdin)
	var stdout bytes.Buffer
	if !cmd.DiscardStdout {
		execCmd.Stdout = &stdout
	}
	execCmd.Stderr = r.Stderr
	if execCmd.Stderr == nil {
		execCmd.Stderr = os.Stderr
	}
	// Children that keep stdout open must not block Wait forever.
	execCmd.WaitDelay = 500 * time.Millisecond

	if err := execCmd.Start(); err != nil {
		return Output{ExitCode: -1}, &StartError{Path: cmd.Path, Err: err}
	}
	err := execCmd.Wait()
	out := Output{Stdout: stdout.String()}

	if err == nil || stderrors.Is(err, exec.ErrWaitDelay) {
		return out, nil
	}
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		out.ExitCode = -1
		return out, fmt.Errorf("%s: %w", cmd.Path, ErrTimeout)
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, &ExitError{Path: cmd.Path, Code: out.ExitCode, Stdout: out.Stdout}
	}
	out.ExitCode = -1
	return out, err
}

// Which resolves command to an executable path. It searches PATH first,
// then accepts the expanded command if it names a regular file, and
// otherwise returns command unchanged.
func Which(command string) string {
	if command == "" {
		return ""
	}
	if path, err := exec.LookPath(command); err == nil {
		return path
	}
	expanded := config.ExpandPath(command)
	if info, err := os.Stat(expanded); err == nil && info.Mode().IsRegular() {
		return expanded
	}
	return command
}
