package hooks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/victoralfred/gospawn/executor"
)

// recordingHook records invocations for ordering assertions.
type recordingHook struct {
	name     string
	priority int
	calls    *[]string
	preErr   error
	postErr  error
}

func (h *recordingHook) Name() string  { return h.name }
func (h *recordingHook) Priority() int { return h.priority }

func (h *recordingHook) PreExecute(ctx context.Context, cmd *executor.Command) (*executor.Command, error) {
	*h.calls = append(*h.calls, "pre:"+h.name)
	return cmd, h.preErr
}

func (h *recordingHook) PostExecute(ctx context.Context, cmd *executor.Command, result *executor.Result, err error) error {
	*h.calls = append(*h.calls, "post:"+h.name)
	return h.postErr
}

// errorOnlyHook only implements ErrorHook.
type errorOnlyHook struct {
	calls *[]string
}

func (h *errorOnlyHook) Name() string  { return "error-only" }
func (h *errorOnlyHook) Priority() int { return 0 }

func (h *errorOnlyHook) OnError(ctx context.Context, cmd *executor.Command, err error) error {
	*h.calls = append(*h.calls, "error:"+err.Error())
	return nil
}

func TestRegistryPriorityOrder(t *testing.T) {
	var calls []string
	r := NewRegistry()
	r.Register(&recordingHook{name: "late", priority: 10, calls: &calls})
	r.Register(&recordingHook{name: "early", priority: 1, calls: &calls})

	cmd := executor.NewCommand("echo").MustBuild()
	if _, err := r.PreExecute(context.Background(), cmd); err != nil {
		t.Fatalf("PreExecute failed: %v", err)
	}
	if len(calls) != 2 || calls[0] != "pre:early" || calls[1] != "pre:late" {
		t.Errorf("call order = %v", calls)
	}
}

func TestRegistryPreExecuteErrorNamesHook(t *testing.T) {
	var calls []string
	r := NewRegistry()
	r.Register(&recordingHook{name: "broken", priority: 1, calls: &calls, preErr: errors.New("nope")})

	_, err := r.PreExecute(context.Background(), executor.NewCommand("echo").MustBuild())
	if err == nil {
		t.Fatal("PreExecute succeeded, want error")
	}
	if want := "hook broken: nope"; err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestRegistryErrorHooksRunOnFailure(t *testing.T) {
	var calls []string
	r := NewRegistry()
	r.Register(&recordingHook{name: "observer", priority: 1, calls: &calls})
	r.Register(&errorOnlyHook{calls: &calls})

	cmd := executor.NewCommand("echo").MustBuild()
	execErr := errors.New("boom")
	if err := r.PostExecute(context.Background(), cmd, &executor.Result{}, execErr); err != nil {
		t.Fatalf("PostExecute failed: %v", err)
	}
	if len(calls) != 2 || calls[1] != "error:boom" {
		t.Errorf("calls = %v, want post then error hook", calls)
	}

	// A successful execution skips the error hooks.
	calls = calls[:0]
	if err := r.PostExecute(context.Background(), cmd, &executor.Result{}, nil); err != nil {
		t.Fatalf("PostExecute failed: %v", err)
	}
	if len(calls) != 1 || calls[0] != "post:observer" {
		t.Errorf("calls = %v", calls)
	}
}

func TestRegistryUnregister(t *testing.T) {
	var calls []string
	r := NewRegistry()
	r.Register(&recordingHook{name: "gone", priority: 1, calls: &calls})
	r.Unregister("gone")

	cmd := executor.NewCommand("echo").MustBuild()
	r.PreExecute(context.Background(), cmd)
	r.PostExecute(context.Background(), cmd, &executor.Result{}, nil)
	if len(calls) != 0 {
		t.Errorf("unregistered hook still ran: %v", calls)
	}
}

func TestRegistrySatisfiesExecutorHook(t *testing.T) {
	var _ executor.Hook = NewRegistry()
}

func TestLoggingHook(t *testing.T) {
	var lines []string
	h := NewLoggingHook(func(format string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, args...))
	})

	cmd := executor.NewCommand("echo", "hi").MustBuild()
	if _, err := h.PreExecute(context.Background(), cmd); err != nil {
		t.Fatalf("PreExecute failed: %v", err)
	}
	if err := h.PostExecute(context.Background(), cmd, &executor.Result{Status: executor.StatusSuccess}, nil); err != nil {
		t.Fatalf("PostExecute failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("lines = %v", lines)
	}
	if lines[0] != "Spawning: echo hi" {
		t.Errorf("pre line = %q", lines[0])
	}
}
