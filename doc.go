// Package gospawn provides cross-platform subprocess spawning and supervision.
//
// GoSpawn centralizes process invocation behind two surfaces: a low-level
// Handle for direct lifecycle control and a supervised Executor for timeouts,
// rate limiting, hooks, and audit logging.
//
// # Key Features
//
//   - Synchronous launch failures: a bad program name errors at spawn time
//   - Configurable stdio routing (inherit, pipe, discard, file, merge)
//   - Timeout-bounded multiplexed reads across stdout and stderr
//   - Signal delivery and process-group control on POSIX and Windows
//   - Pseudo-terminal spawning on POSIX systems
//   - OpenTelemetry integration for metrics and tracing
//   - Rate limiting and retry backoff for resilience
//
// # Basic Usage
//
//	exec, err := gospawn.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exec.Shutdown(context.Background())
//
//	cmd, _ := gospawn.Cmd("git", "status").Build()
//	result, err := exec.Execute(ctx, cmd)
//
// # Direct Handle Control
//
//	h, _ := gospawn.Spawn(gospawn.SpawnOptions{
//	    Command: []string{"cat"},
//	    Stdin:   gospawn.Pipe(),
//	    Stdout:  gospawn.Pipe(),
//	})
//	h.WriteInput([]byte("hello\n"))
//	h.CloseStdin()
//	status, _ := h.Join()
//
// # File I/O
//
// All file operations use github.com/victoralfred/gowritter/safepath
// for secure path handling. Direct use of os.ReadFile, os.WriteFile,
// os.Open, or os.Create for configuration and audit files is prohibited
// within this library.
//
// # Package Structure
//
//   - gospawn: Main entry point and convenience functions
//   - process: Handle spawning, stdio routing, signals, output reads
//   - executor: Supervised execution with timeouts and batching
//   - sigstate: Interrupted-wait detection and signal forwarding
//   - pool: Bounded worker pool for batched spawns
//   - resilience: Rate limiting and retry backoff
//   - observability: OpenTelemetry metrics and audit logging
//   - hooks: Extension points for custom behavior
//   - config: Configuration management
package gospawn
