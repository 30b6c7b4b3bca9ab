package strategy

import (
	"context"
	"testing"

	"github.com/thingsiplay/emojicherrypick/internal/corpus"
	"github.com/thingsiplay/emojicherrypick/internal/errors"
	"github.com/thingsiplay/emojicherrypick/internal/proc"
)

// fakeRunner records the last command and answers with a canned result.
type fakeRunner struct {
	out  proc.Output
	err  error
	last proc.Command
	pick func(stdin string) string
}

func (f *fakeRunner) Run(_ context.Context, cmd proc.Command) (proc.Output, error) {
	f.last = cmd
	out := f.out
	if f.pick != nil {
		out.Stdout = f.pick(cmd.Stdin)
	}
	return out, f.err
}

func TestDelegate_Select(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		runner  *fakeRunner
		want    Result
		wantErr bool
	}{
		{
			name:   "picked line",
			kind:   KindRofi,
			runner: &fakeRunner{out: proc.Output{Stdout: "🐶 dog ~ Animals\n"}},
			want:   Result{Token: "🐶", Description: "dog ~ Animals", Chosen: true},
		},
		{
			name:   "only the first line counts",
			kind:   KindFzf,
			runner: &fakeRunner{out: proc.Output{Stdout: "🐱 cat ~ Animals\n🐶 dog ~ Animals\n"}},
			want:   Result{Token: "🐱", Description: "cat ~ Animals", Chosen: true},
		},
		{
			name:   "empty output",
			kind:   KindRofi,
			runner: &fakeRunner{out: proc.Output{Stdout: ""}},
			want:   None(),
		},
		{
			name:   "malformed output",
			kind:   KindDmenu,
			runner: &fakeRunner{out: proc.Output{Stdout: "🐶\n"}},
			want:   None(),
		},
		{
			name: "cancelled",
			kind: KindRofi,
			runner: &fakeRunner{
				out: proc.Output{ExitCode: 1},
				err: &proc.ExitError{Path: "rofi", Code: 1},
			},
			want: None(),
		},
		{
			name: "fzf interrupted",
			kind: KindFzf,
			runner: &fakeRunner{
				out: proc.Output{ExitCode: 130},
				err: &proc.ExitError{Path: "fzf", Code: 130},
			},
			want: None(),
		},
		{
			name: "cancel code with output is a failure",
			kind: KindRofi,
			runner: &fakeRunner{
				out: proc.Output{Stdout: "🐶 dog\n", ExitCode: 1},
				err: &proc.ExitError{Path: "rofi", Code: 1, Stdout: "🐶 dog\n"},
			},
			wantErr: true,
		},
		{
			name: "other exit status",
			kind: KindRofi,
			runner: &fakeRunner{
				out: proc.Output{ExitCode: 2},
				err: &proc.ExitError{Path: "rofi", Code: 2},
			},
			wantErr: true,
		},
		{
			name: "killed",
			kind: KindDmenu,
			runner: &fakeRunner{
				out: proc.Output{ExitCode: -1},
				err: &proc.ExitError{Path: "dmenu", Code: -1},
			},
			wantErr: true,
		},
		{
			name: "cannot start",
			kind: KindPmenu,
			runner: &fakeRunner{
				out: proc.Output{ExitCode: -1},
				err: &proc.StartError{Path: "pmenu"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Delegate{Menu: MenuFor(tt.kind, MenuOptions{}), Program: string(tt.kind), Runner: tt.runner}

			got, err := d.Select(context.Background(), animals)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrStrategyFailed) {
					t.Fatalf("Select() error = %v, want STRATEGY_FAILED", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Select() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDelegate_PassesCorpusOnStdin(t *testing.T) {
	runner := &fakeRunner{}
	d := &Delegate{Menu: MenuFor(KindRofi, MenuOptions{Prompt: "🍒"}), Program: "/usr/bin/rofi", Runner: runner}

	if _, err := d.Select(context.Background(), animals); err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if runner.last.Path != "/usr/bin/rofi" {
		t.Errorf("Path = %q", runner.last.Path)
	}
	if runner.last.Stdin != "🐱 cat ~ Animals\n🐶 dog ~ Animals" {
		t.Errorf("Stdin = %q", runner.last.Stdin)
	}
	if runner.last.Timeout != 0 {
		t.Errorf("menu invocation has timeout %v, want none", runner.last.Timeout)
	}
}

func TestDelegate_FoldedInputMapsBack(t *testing.T) {
	c := corpus.Corpus{Lines: []string{"😀 Grinning Face ~ Smileys", "🐱 Cat ~ Animals"}}
	runner := &fakeRunner{pick: func(stdin string) string {
		// The menu sees folded text and prints one of its lines.
		if stdin != "😀 grinning face ~ smileys\n🐱 cat ~ animals" {
			return "unexpected"
		}
		return "🐱 cat ~ animals\n"
	}}
	d := &Delegate{
		Menu:    MenuFor(KindDmenu, MenuOptions{IgnoreCase: true}),
		Program: "dmenu",
		Runner:  runner,
	}

	got, err := d.Select(context.Background(), c)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	want := Result{Token: "🐱", Description: "Cat ~ Animals", Chosen: true}
	if got != want {
		t.Errorf("Select() = %+v, want %+v", got, want)
	}
	if c.Lines[1] != "🐱 Cat ~ Animals" {
		t.Errorf("corpus lines were modified")
	}
}
