// Package hooks provides extension points for the spawn lifecycle.
package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/victoralfred/gospawn/executor"
)

// Hook defines extension points for the spawn lifecycle.
type Hook interface {
	// Name returns a unique identifier for the hook.
	Name() string

	// Priority determines execution order (lower = earlier).
	Priority() int
}

// PreExecuteHook is called before command execution. It may return a
// modified command.
type PreExecuteHook interface {
	Hook
	PreExecute(ctx context.Context, cmd *executor.Command) (*executor.Command, error)
}

// PostExecuteHook is called after command execution.
type PostExecuteHook interface {
	Hook
	PostExecute(ctx context.Context, cmd *executor.Command, result *executor.Result, err error) error
}

// ErrorHook is called when an execution fails.
type ErrorHook interface {
	Hook
	OnError(ctx context.Context, cmd *executor.Command, err error) error
}

// Registry manages hook registration and invocation. A Registry itself
// satisfies the executor's Hook interface, so it plugs into the executor
// builder directly.
type Registry struct {
	preExecute  []PreExecuteHook
	postExecute []PostExecuteHook
	errorHooks  []ErrorHook
	mu          sync.RWMutex
}

// NewRegistry creates a new hook registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a hook to the registry. A single value may implement
// several hook interfaces and is registered for each.
func (r *Registry) Register(hook Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := hook.(PreExecuteHook); ok {
		r.preExecute = insertByPriority(r.preExecute, h)
	}
	if h, ok := hook.(PostExecuteHook); ok {
		r.postExecute = insertByPriority(r.postExecute, h)
	}
	if h, ok := hook.(ErrorHook); ok {
		r.errorHooks = insertByPriority(r.errorHooks, h)
	}

	return nil
}

// Unregister removes a hook by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.preExecute = removeByName(r.preExecute, name)
	r.postExecute = removeByName(r.postExecute, name)
	r.errorHooks = removeByName(r.errorHooks, name)
}

// PreExecute implements the executor's Hook interface by running all
// registered pre-execute hooks in priority order.
func (r *Registry) PreExecute(ctx context.Context, cmd *executor.Command) (*executor.Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	current := cmd
	for _, hook := range r.preExecute {
		modified, err := hook.PreExecute(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
		current = modified
	}
	return current, nil
}

// PostExecute implements the executor's Hook interface by running all
// registered post-execute hooks, then the error hooks when the execution
// failed.
func (r *Registry) PostExecute(ctx context.Context, cmd *executor.Command, result *executor.Result, execErr error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, hook := range r.postExecute {
		if err := hook.PostExecute(ctx, cmd, result, execErr); err != nil {
			return fmt.Errorf("hook %s: %w", hook.Name(), err)
		}
	}

	if execErr != nil {
		for _, hook := range r.errorHooks {
			if err := hook.OnError(ctx, cmd, execErr); err != nil {
				return fmt.Errorf("hook %s: %w", hook.Name(), err)
			}
		}
	}
	return nil
}

func insertByPriority[T Hook](hooks []T, hook T) []T {
	hooks = append(hooks, hook)
	sort.SliceStable(hooks, func(i, j int) bool {
		return hooks[i].Priority() < hooks[j].Priority()
	})
	return hooks
}

func removeByName[T Hook](hooks []T, name string) []T {
	result := make([]T, 0, len(hooks))
	for _, h := range hooks {
		if h.Name() != name {
			result = append(result, h)
		}
	}
	return result
}

// LoggingHook is a built-in hook that logs spawn activity.
type LoggingHook struct {
	logger func(format string, args ...interface{})
}

// NewLoggingHook creates a new logging hook.
func NewLoggingHook(logger func(format string, args ...interface{})) *LoggingHook {
	return &LoggingHook{logger: logger}
}

func (h *LoggingHook) Name() string  { return "logging" }
func (h *LoggingHook) Priority() int { return 1000 }

func (h *LoggingHook) PreExecute(ctx context.Context, cmd *executor.Command) (*executor.Command, error) {
	h.logger("Spawning: %s", cmd)
	return cmd, nil
}

func (h *LoggingHook) PostExecute(ctx context.Context, cmd *executor.Command, result *executor.Result, err error) error {
	if err != nil {
		h.logger("Spawn failed: %s - %v", cmd.Program, err)
	} else {
		h.logger("Spawn completed: %s - status=%s duration=%v", cmd.Program, result.Status, result.Duration)
	}
	return nil
}
