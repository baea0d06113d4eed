// Package gospawn provides cross-platform subprocess spawning and supervision.
//
// GoSpawn centralizes process invocation behind two surfaces: the low-level
// process.Handle for direct lifecycle control (spawn, signal, read, join or
// detach) and the higher-level Executor for supervised runs with timeouts,
// rate limiting, hooks, and audit logging.
//
// # Quick Start
//
// The simplest way to use gospawn:
//
//	// Create an executor with default settings
//	exec, err := gospawn.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exec.Shutdown(context.Background())
//
//	// Execute a command
//	cmd, _ := gospawn.Cmd("ls", "-la").Build()
//	result, err := exec.Execute(ctx, cmd)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.StdoutString())
//
// # Direct Handle Control
//
// When the caller needs to drive the child itself, spawn a Handle:
//
//	h, err := gospawn.SpawnCommand("tail", "-f", "/var/log/syslog")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Close()
//
//	var out gospawn.Output
//	for h.IsRunning() {
//	    h.ReadOutputInto(&out, 100*time.Millisecond)
//	}
//	status, _ := h.Join()
//
// # With Configuration
//
// For production use, load configuration from YAML:
//
//	cfg, err := gospawn.LoadConfigFromPath("/etc/gospawn/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	exec, err := gospawn.NewFromConfig(cfg)
//
// # Architecture
//
// The library is organized into focused packages:
//
//   - gospawn (this package): Main entry point and convenience functions
//   - process: Handle spawning, stdio routing, signals, output reads
//   - executor: Supervised execution with timeouts and batching
//   - sigstate: Interrupted-wait detection and signal forwarding
//   - pool: Bounded worker pool for batched spawns
//   - resilience: Rate limiting and retry backoff
//   - observability: OpenTelemetry metrics and audit logging
//   - hooks: Extension points for custom behavior
//   - config: YAML configuration loading
//
// # Thread Safety
//
// The Executor is safe for concurrent use by multiple goroutines. A Handle is
// not: its mutating operations must be serialized by the caller.
//
// # File I/O
//
// All file operations in this library use github.com/victoralfred/gowritter/safepath
// for secure path handling and I/O operations.
package gospawn

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/victoralfred/gospawn/config"
	"github.com/victoralfred/gospawn/executor"
	"github.com/victoralfred/gospawn/hooks"
	"github.com/victoralfred/gospawn/observability"
	"github.com/victoralfred/gospawn/process"
	"github.com/victoralfred/gospawn/resilience"
)

// =============================================================================
// Core Types
// =============================================================================

// Executor is the primary interface for supervised command execution.
//
// The Executor interface provides:
//   - Synchronous execution with Execute
//   - Asynchronous execution with ExecuteAsync
//   - Batch execution with ExecuteBatch
//   - Streaming I/O with Stream
//   - Direct handle hand-off with Start
//   - Graceful shutdown with Shutdown
type Executor = executor.Executor

// Command represents a command to be executed.
// Use Cmd() to create commands.
type Command = executor.Command

// Result contains the outcome of command execution.
type Result = executor.Result

// RunStatus classifies how an execution ended.
type RunStatus = executor.RunStatus

// Builder creates configured Executor instances.
type Builder = executor.Builder

// CommandBuilder creates commands with a fluent interface.
type CommandBuilder = executor.CommandBuilder

// Handle is a live subprocess under direct caller control.
type Handle = process.Handle

// SpawnOptions configures a direct spawn.
type SpawnOptions = process.SpawnOptions

// Stdio describes where one standard stream of the child is routed.
type Stdio = process.Stdio

// ExitStatus is the terminal state of a joined subprocess.
type ExitStatus = process.ExitStatus

// Output accumulates bytes read from a subprocess.
type Output = process.Output

// =============================================================================
// Stdio Routing
// =============================================================================

// Stdio routing constructors, re-exported from the process package.
var (
	// Inherit routes the stream to the parent's corresponding stream.
	Inherit = process.Inherit

	// Pipe routes the stream through a pipe owned by the Handle.
	Pipe = process.Pipe

	// Discard routes the stream to the null device.
	Discard = process.Discard

	// File routes the stream to a file path.
	File = process.File

	// MergeStdout routes stderr into the stdout destination.
	MergeStdout = process.MergeStdout
)

// =============================================================================
// Error Variables
// =============================================================================

// Common errors returned by the library.
var (
	// ErrInvalidOptions indicates invalid spawn options.
	ErrInvalidOptions = process.ErrInvalidOptions

	// ErrStdinNotPiped indicates a write to a child whose stdin is not piped.
	ErrStdinNotPiped = process.ErrStdinNotPiped

	// ErrInvalidCommand indicates an invalid command configuration.
	ErrInvalidCommand = executor.ErrInvalidCommand

	// ErrExecutorShutdown indicates the executor has been shut down.
	ErrExecutorShutdown = executor.ErrExecutorShutdown

	// ErrTimeout indicates execution exceeded the timeout.
	ErrTimeout = executor.ErrTimeout

	// ErrRateLimited indicates the rate limit was exceeded.
	ErrRateLimited = executor.ErrRateLimited
)

// =============================================================================
// Status Constants
// =============================================================================

// Execution status values.
const (
	StatusSuccess      = executor.StatusSuccess
	StatusError        = executor.StatusError
	StatusSignaled     = executor.StatusSignaled
	StatusTimeout      = executor.StatusTimeout
	StatusCanceled     = executor.StatusCanceled
	StatusLaunchFailed = executor.StatusLaunchFailed
	StatusRateLimited  = executor.StatusRateLimited
)

// =============================================================================
// Factory Functions
// =============================================================================

// New creates a new Executor with default settings.
// This is the simplest way to get started with gospawn.
//
// For production use, consider using NewBuilder or NewFromConfig to
// configure rate limiting, telemetry, and audit logging.
func New() (Executor, error) {
	return executor.NewBuilder().Build()
}

// NewBuilder creates a new executor builder for configuring the Executor.
//
// Example:
//
//	exec, err := gospawn.NewBuilder().
//	    WithDefaultTimeout(30 * time.Second).
//	    WithRateLimiter(limiter).
//	    Build()
func NewBuilder() *Builder {
	return executor.NewBuilder()
}

// NewFromConfig creates an Executor wired according to the configuration:
// rate limiting, telemetry, and audit logging are each enabled or skipped
// per the corresponding config flags. Hooks have no config surface; attach
// them through NewBuilder().WithHooks.
func NewFromConfig(cfg *config.Config) (Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := executor.NewBuilder().
		WithDefaultTimeout(cfg.Executor.DefaultTimeout.Duration)

	if cfg.Executor.RateLimit {
		b = b.WithRateLimiter(resilience.NewRateLimiter(cfg.RateLimiter))
	}

	if cfg.Executor.EnableMetrics || cfg.Executor.EnableTracing {
		tel, err := observability.NewTelemetry(cfg.Telemetry)
		if err != nil {
			return nil, err
		}
		b = b.WithTelemetry(tel)
	}

	if cfg.Executor.EnableAudit {
		logger, err := observability.NewFileAuditLogger(cfg.Audit)
		if err != nil {
			return nil, err
		}
		b = b.WithAuditor(observability.NewExecutionAuditor(logger))
	}

	return b.Build()
}

// NewHookRegistry creates an empty hook registry that satisfies the
// executor's Hook interface.
func NewHookRegistry() *hooks.Registry {
	return hooks.NewRegistry()
}

// =============================================================================
// Command Construction
// =============================================================================

// Cmd creates a new CommandBuilder with the specified program and arguments.
// Call Build() on the returned builder to get the final Command.
//
// Example:
//
//	cmd, err := gospawn.Cmd("git", "status").Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := exec.Execute(ctx, cmd)
func Cmd(program string, args ...string) *CommandBuilder {
	return executor.NewCommand(program, args...)
}

// MustCmd creates a command and panics on error.
// Use only when the command is known to be valid.
func MustCmd(program string, args ...string) *Command {
	return executor.NewCommand(program, args...).MustBuild()
}

// =============================================================================
// Direct Spawning
// =============================================================================

// Spawn launches a subprocess from explicit options and returns its Handle.
// The launch is synchronous: if the program cannot be started, no Handle is
// returned and the error describes the failure.
func Spawn(opts SpawnOptions) (*Handle, error) {
	return process.Spawn(opts)
}

// SpawnCommand launches a subprocess from a program and arguments using the
// default stdio routing (stdin discarded, stdout and stderr inherited).
func SpawnCommand(program string, args ...string) (*Handle, error) {
	return process.SpawnCommand(program, args...)
}

// =============================================================================
// Configuration Loading
// =============================================================================

// LoadConfig creates a configuration loader for the given file.
// The basePath is the directory containing the configuration file and the
// file path may not escape it.
func LoadConfig(basePath, configFile string) (*config.Loader, error) {
	return config.NewLoader(basePath, configFile)
}

// LoadConfigFromPath loads and parses a configuration from a full file path.
func LoadConfigFromPath(path string) (*config.Config, error) {
	loader, err := config.NewLoader(filepath.Dir(path), filepath.Base(path))
	if err != nil {
		return nil, err
	}
	return loader.Load(context.Background())
}

// =============================================================================
// Convenience Functions
// =============================================================================

// Execute is a convenience function for one-off command execution.
// For repeated executions, create an Executor instance instead.
//
// Example:
//
//	result, err := gospawn.Execute(ctx, "ls", "-la")
func Execute(ctx context.Context, program string, args ...string) (*Result, error) {
	exec, err := New()
	if err != nil {
		return nil, err
	}
	defer func() {
		// Shutdown errors are non-critical in cleanup context.
		_ = exec.Shutdown(context.Background())
	}()

	cmd, err := Cmd(program, args...).Build()
	if err != nil {
		return nil, err
	}

	return exec.Execute(ctx, cmd)
}

// ExecuteWithTimeout is a convenience function with explicit timeout.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, program string, args ...string) (*Result, error) {
	exec, err := NewBuilder().WithDefaultTimeout(timeout).Build()
	if err != nil {
		return nil, err
	}
	defer func() {
		// Shutdown errors are non-critical in cleanup context.
		_ = exec.Shutdown(context.Background())
	}()

	cmd, err := Cmd(program, args...).Build()
	if err != nil {
		return nil, err
	}

	return exec.Execute(ctx, cmd)
}

// Stream is a convenience function for streaming command output.
//
// Example:
//
//	err := gospawn.Stream(ctx, os.Stdout, os.Stderr, "make", "all")
func Stream(ctx context.Context, stdout, stderr io.Writer, program string, args ...string) error {
	exec, err := New()
	if err != nil {
		return err
	}
	defer func() {
		// Shutdown errors are non-critical in cleanup context.
		_ = exec.Shutdown(context.Background())
	}()

	cmd, err := Cmd(program, args...).Build()
	if err != nil {
		return err
	}

	return exec.Stream(ctx, cmd, stdout, stderr)
}

// =============================================================================
// Version Information
// =============================================================================

// Version returns the library version.
func Version() string {
	return "1.0.0"
}
