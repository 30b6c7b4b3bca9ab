package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// defaultArgsEnv names the variable whose content replaces an empty command line.
const defaultArgsEnv = "EMOJICHERRYPICK_DEFAULT"

// fallbackArgs is used when the program runs without arguments and
// EMOJICHERRYPICK_DEFAULT is unset: print, copy and notify.
const fallbackArgs = "-con"

// withDefaultArgs returns args unchanged unless only the program name is
// present, in which case the default arguments are appended.
func withDefaultArgs(args []string, env string) []string {
	if len(args) > 1 {
		return args
	}
	if strings.TrimSpace(env) == "" {
		env = fallbackArgs
	}
	return append(args[:1:1], strings.Fields(env)...)
}

// exitStatus reports err on w and returns the process exit status.
func exitStatus(err error, w io.Writer) int {
	if err == nil {
		return 0
	}
	if coder, ok := err.(cli.ExitCoder); ok {
		if msg := coder.Error(); msg != "" {
			fmt.Fprintf(w, "error: %s\n", msg)
		}
		return coder.ExitCode()
	}
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	args := withDefaultArgs(os.Args, os.Getenv(defaultArgsEnv))

	app := newCLIApp()
	err := app.RunContext(ctx, args)
	stop()

	os.Exit(exitStatus(err, os.Stderr))
}
