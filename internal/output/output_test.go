package output

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/thingsiplay/emojicherrypick/internal/config"
	"github.com/thingsiplay/emojicherrypick/internal/errors"
	"github.com/thingsiplay/emojicherrypick/internal/proc"
)

type recordingRunner struct {
	cmds []proc.Command
	err  error
}

func (r *recordingRunner) Run(_ context.Context, cmd proc.Command) (proc.Output, error) {
	r.cmds = append(r.cmds, cmd)
	return proc.Output{}, r.err
}

func TestStdout(t *testing.T) {
	var buf bytes.Buffer
	if err := (Stdout{W: &buf}).Send(context.Background(), "🐱"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if buf.String() != "🐱\n" {
		t.Errorf("stdout = %q", buf.String())
	}
}

func TestExecSinks_Commands(t *testing.T) {
	tests := []struct {
		name        string
		sink        func(r proc.Runner) Sink
		wantArgs    []string
		wantStdin   string
		wantTimeout time.Duration
	}{
		{
			name:        "clipboard",
			sink:        func(r proc.Runner) Sink { return ExecClipboard{Program: "xclip", Runner: r} },
			wantArgs:    []string{"-rmlastnl", "-selection", "clipboard"},
			wantStdin:   "🐱",
			wantTimeout: 2 * time.Second,
		},
		{
			name: "typing",
			sink: func(r proc.Runner) Sink { return Typing{Program: "xdotool", Runner: r} },
			wantArgs: []string{
				"getwindowfocus", "windowfocus", "--sync",
				"type", "--clearmodifiers", "--delay", "25", "🐱",
			},
			wantTimeout: time.Second,
		},
		{
			name:        "notify",
			sink:        func(r proc.Runner) Sink { return ExecNotify{Program: "notify-send", Runner: r} },
			wantArgs:    []string{"--urgency=low", "🐱"},
			wantTimeout: time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recordingRunner{}
			if err := tt.sink(r).Send(context.Background(), "🐱"); err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			if len(r.cmds) != 1 {
				t.Fatalf("ran %d commands, want 1", len(r.cmds))
			}
			cmd := r.cmds[0]
			if diff := cmp.Diff(tt.wantArgs, cmd.Args); diff != "" {
				t.Errorf("Args mismatch (-want +got):\n%s", diff)
			}
			if cmd.Stdin != tt.wantStdin {
				t.Errorf("Stdin = %q, want %q", cmd.Stdin, tt.wantStdin)
			}
			if cmd.Timeout != tt.wantTimeout {
				t.Errorf("Timeout = %v, want %v", cmd.Timeout, tt.wantTimeout)
			}
			if !cmd.DiscardStdout {
				t.Errorf("side effect captures stdout")
			}
		})
	}
}

func TestNativeClipboard(t *testing.T) {
	var got string
	orig := clipboardWriteAll
	clipboardWriteAll = func(text string) error {
		got = text
		return nil
	}
	t.Cleanup(func() { clipboardWriteAll = orig })

	if err := (NativeClipboard{}).Send(context.Background(), "🍒"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got != "🍒" {
		t.Errorf("clipboard = %q", got)
	}
}

func TestNativeClipboard_Error(t *testing.T) {
	orig := clipboardWriteAll
	clipboardWriteAll = func(string) error { return stderrors.New("no clipboard utility") }
	t.Cleanup(func() { clipboardWriteAll = orig })

	if err := (NativeClipboard{}).Send(context.Background(), "🍒"); err == nil {
		t.Fatalf("Send() expected error")
	}
}

func TestWithTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	err := withTimeout(context.Background(), 20*time.Millisecond, func() error {
		<-release
		return nil
	})
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("withTimeout() error = %v, want deadline exceeded", err)
	}
}

type fakeBusObject struct {
	method string
	args   []interface{}
	call   *dbus.Call
}

func (f *fakeBusObject) CallWithContext(_ context.Context, method string, _ dbus.Flags, args ...interface{}) *dbus.Call {
	f.method = method
	f.args = args
	return f.call
}

func stubBus(t *testing.T, obj *fakeBusObject, connErr error) *bool {
	t.Helper()
	closed := false
	orig := connectNotifications
	connectNotifications = func() (busObject, func() error, error) {
		if connErr != nil {
			return nil, nil, connErr
		}
		return obj, func() error { closed = true; return nil }, nil
	}
	t.Cleanup(func() { connectNotifications = orig })
	return &closed
}

func TestDBusNotify(t *testing.T) {
	obj := &fakeBusObject{call: &dbus.Call{Body: []interface{}{uint32(42)}}}
	closed := stubBus(t, obj, nil)

	n := &DBusNotify{}
	if err := n.Send(context.Background(), "🐱"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if obj.method != "org.freedesktop.Notifications.Notify" {
		t.Errorf("method = %q", obj.method)
	}
	if len(obj.args) != 8 || obj.args[0] != "emojicherrypick" || obj.args[3] != "🐱" {
		t.Errorf("args = %v", obj.args)
	}
	hints, ok := obj.args[6].(map[string]dbus.Variant)
	if !ok || hints["urgency"].Value() != byte(0) {
		t.Errorf("hints = %v, want low urgency", obj.args[6])
	}
	if n.ID != 42 {
		t.Errorf("ID = %d, want 42", n.ID)
	}
	if !*closed {
		t.Errorf("session bus connection not closed")
	}
}

func TestDBusNotify_Errors(t *testing.T) {
	t.Run("no session bus", func(t *testing.T) {
		stubBus(t, nil, stderrors.New("no bus"))
		if err := (&DBusNotify{}).Send(context.Background(), "🐱"); err == nil {
			t.Fatalf("Send() expected error")
		}
	})
	t.Run("call fails", func(t *testing.T) {
		stubBus(t, &fakeBusObject{call: &dbus.Call{Err: stderrors.New("no daemon")}}, nil)
		if err := (&DBusNotify{}).Send(context.Background(), "🐱"); err == nil {
			t.Fatalf("Send() expected error")
		}
	})
}

func testSettings(t *testing.T, mutate func(c *config.Config)) config.Settings {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.CacheDir = t.TempDir()
	mutate(cfg)
	s, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return s
}

func sinkTypes(sinks []Sink) []string {
	var names []string
	for _, s := range sinks {
		switch s.(type) {
		case Stdout:
			names = append(names, "stdout")
		case ExecClipboard:
			names = append(names, "xclip")
		case NativeClipboard:
			names = append(names, "native")
		case Typing:
			names = append(names, "xdotool")
		case ExecNotify:
			names = append(names, "notify-send")
		case *DBusNotify:
			names = append(names, "dbus")
		}
	}
	return names
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		want   []string
	}{
		{"nothing enabled", func(c *config.Config) {}, nil},
		{
			name: "all exec backends in order",
			mutate: func(c *config.Config) {
				c.Notify, c.Typing, c.Clipboard, c.Stdout = true, true, true, true
			},
			want: []string{"stdout", "xclip", "xdotool", "notify-send"},
		},
		{
			name: "library backends",
			mutate: func(c *config.Config) {
				c.Clipboard, c.Notify = true, true
				c.ClipboardBackend = config.ClipboardNative
				c.NotifyBackend = config.NotifyDBus
			},
			want: []string{"native", "dbus"},
		},
		{
			name: "negative flags win",
			mutate: func(c *config.Config) {
				c.Stdout, c.Clipboard = true, true
				c.NoClipboard = true
			},
			want: []string{"stdout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sinks := Build(testSettings(t, tt.mutate), &recordingRunner{}, &bytes.Buffer{})
			if diff := cmp.Diff(tt.want, sinkTypes(sinks)); diff != "" {
				t.Errorf("Build() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDispatch_StopsAtFirstFailure(t *testing.T) {
	var buf bytes.Buffer
	failing := &recordingRunner{err: &proc.ExitError{Path: "xclip", Code: 1}}
	after := &recordingRunner{}

	sinks := []Sink{
		Stdout{W: &buf},
		ExecClipboard{Program: "xclip", Runner: failing},
		ExecNotify{Program: "notify-send", Runner: after},
	}

	err := Dispatch(context.Background(), sinks, "🐱")
	if !errors.Is(err, errors.ErrOutputFailed) {
		t.Fatalf("Dispatch() error = %v, want OUTPUT_FAILED", err)
	}
	if errors.ExitCode(err) != errors.ExitOutput {
		t.Errorf("ExitCode() = %d, want %d", errors.ExitCode(err), errors.ExitOutput)
	}
	if buf.String() != "🐱\n" {
		t.Errorf("stdout sink before the failure did not run")
	}
	if len(after.cmds) != 0 {
		t.Errorf("sink after the failure ran")
	}
}

func TestDispatch_Success(t *testing.T) {
	r := &recordingRunner{}
	sinks := []Sink{Typing{Program: "xdotool", Runner: r}, ExecNotify{Program: "notify-send", Runner: r}}

	if err := Dispatch(context.Background(), sinks, "🐱"); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if len(r.cmds) != 2 {
		t.Errorf("ran %d commands, want 2", len(r.cmds))
	}
}
