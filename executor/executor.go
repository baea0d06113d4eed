package executor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/victoralfred/gospawn/pool"
	"github.com/victoralfred/gospawn/process"
	"github.com/victoralfred/gospawn/sigstate"
)

// readPoll bounds each multiplexed read while a command is supervised,
// so context cancellation is noticed promptly between reads.
const readPoll = 100 * time.Millisecond

// joinPoll is the cadence of non-blocking join attempts after the output
// streams have drained but the child is still running.
const joinPoll = 10 * time.Millisecond

// Executor is the high-level entry point for supervised command
// execution.
type Executor interface {
	// Execute runs a command synchronously with the given context.
	Execute(ctx context.Context, cmd *Command) (*Result, error)

	// ExecuteAsync runs a command asynchronously, returning a Future.
	ExecuteAsync(ctx context.Context, cmd *Command) Future[*Result]

	// ExecuteBatch runs multiple commands concurrently.
	ExecuteBatch(ctx context.Context, cmds []*Command) ([]*Result, error)

	// Stream executes a command, forwarding output to writers as it
	// arrives instead of accumulating it in the Result.
	Stream(ctx context.Context, cmd *Command, stdout, stderr io.Writer) error

	// Start launches a command without supervision and hands the raw
	// handle to the caller, who then owns its lifecycle.
	Start(cmd *Command) (*process.Handle, error)

	// Shutdown gracefully shuts down the executor, waiting for pending
	// commands.
	Shutdown(ctx context.Context) error
}

// RateLimiter controls execution rate.
type RateLimiter interface {
	// Allow checks if execution is allowed.
	Allow(program string) bool
	// Wait blocks until execution is allowed.
	Wait(ctx context.Context, program string) error
}

// Hook defines extension points.
type Hook interface {
	// PreExecute is called before command execution.
	PreExecute(ctx context.Context, cmd *Command) (*Command, error)
	// PostExecute is called after command execution.
	PostExecute(ctx context.Context, cmd *Command, result *Result, err error) error
}

// Telemetry provides observability.
type Telemetry interface {
	// StartSpan starts a new trace span.
	StartSpan(ctx context.Context, name string) (context.Context, func())
	// RecordMetric records a metric.
	RecordMetric(name string, value float64, labels map[string]string)
}

// Auditor records spawn and exit events for later inspection.
type Auditor interface {
	// RecordSpawn is called once the child is running.
	RecordSpawn(ctx context.Context, spawnID string, cmd *Command, pid int)
	// RecordExit is called once the result is final.
	RecordExit(ctx context.Context, spawnID string, result *Result)
}

// executor is the default implementation.
type executor struct {
	rateLimiter    RateLimiter
	telemetry      Telemetry
	auditor        Auditor
	hooks          []Hook
	batchPool      *pool.Pool
	wg             sync.WaitGroup
	mu             sync.RWMutex // protects shutdown check and wg.Add
	defaultTimeout time.Duration
	shutdown       int32
}

// Builder creates configured Executor instances.
type Builder struct {
	rateLimiter    RateLimiter
	telemetry      Telemetry
	auditor        Auditor
	hooks          []Hook
	batchPool      *pool.Pool
	defaultTimeout time.Duration
}

// NewBuilder creates a new executor builder.
func NewBuilder() *Builder {
	return &Builder{
		defaultTimeout: 30 * time.Second,
	}
}

// WithRateLimiter sets the rate limiter.
func (b *Builder) WithRateLimiter(limiter RateLimiter) *Builder {
	b.rateLimiter = limiter
	return b
}

// WithHooks adds execution hooks.
func (b *Builder) WithHooks(hooks ...Hook) *Builder {
	b.hooks = append(b.hooks, hooks...)
	return b
}

// WithTelemetry sets the telemetry provider.
func (b *Builder) WithTelemetry(telemetry Telemetry) *Builder {
	b.telemetry = telemetry
	return b
}

// WithAuditor sets the audit event sink.
func (b *Builder) WithAuditor(auditor Auditor) *Builder {
	b.auditor = auditor
	return b
}

// WithBatchPool bounds ExecuteBatch concurrency with a worker pool.
// Without one, every batched command runs on its own goroutine.
func (b *Builder) WithBatchPool(p *pool.Pool) *Builder {
	b.batchPool = p
	return b
}

// WithDefaultTimeout sets the default execution timeout.
func (b *Builder) WithDefaultTimeout(timeout time.Duration) *Builder {
	b.defaultTimeout = timeout
	return b
}

// Build creates the executor.
func (b *Builder) Build() (Executor, error) {
	return &executor{
		rateLimiter:    b.rateLimiter,
		telemetry:      b.telemetry,
		auditor:        b.auditor,
		hooks:          b.hooks,
		batchPool:      b.batchPool,
		defaultTimeout: b.defaultTimeout,
	}, nil
}

// Execute runs a command synchronously.
func (e *executor) Execute(ctx context.Context, cmd *Command) (*Result, error) {
	var stdout, stderr bytes.Buffer
	result, err := e.run(ctx, cmd, &stdout, &stderr)
	if result != nil {
		result.Stdout = stdout.Bytes()
		result.Stderr = stderr.Bytes()
	}
	return result, err
}

// ExecuteAsync runs a command asynchronously.
func (e *executor) ExecuteAsync(ctx context.Context, cmd *Command) Future[*Result] {
	asyncCtx, cancel := context.WithCancel(ctx)
	future := NewResultFuture(cancel)

	go func() {
		result, err := e.Execute(asyncCtx, cmd)
		future.Complete(result, err)
	}()

	return future
}

// ExecuteBatch runs multiple commands.
func (e *executor) ExecuteBatch(ctx context.Context, cmds []*Command) ([]*Result, error) {
	results := make([]*Result, len(cmds))
	errs := make([]error, len(cmds))

	var wg sync.WaitGroup
	for i, cmd := range cmds {
		wg.Add(1)
		run := func(idx int, c *Command) func() {
			return func() {
				defer wg.Done()
				results[idx], errs[idx] = e.Execute(ctx, c)
			}
		}(i, cmd)

		if e.batchPool != nil {
			if err := e.batchPool.Submit(ctx, run); err != nil {
				errs[i] = err
				wg.Done()
			}
			continue
		}
		go run()
	}

	wg.Wait()

	// Return first error encountered
	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}

	return results, nil
}

// Stream executes a command with streaming output.
func (e *executor) Stream(ctx context.Context, cmd *Command, stdout, stderr io.Writer) error {
	_, err := e.run(ctx, cmd, stdout, stderr)
	return err
}

// Start launches a command without supervision. The caller receives the
// raw handle and is responsible for joining or detaching it; no timeout,
// rate limiting or hooks apply.
func (e *executor) Start(cmd *Command) (*process.Handle, error) {
	if atomic.LoadInt32(&e.shutdown) == 1 {
		return nil, ErrExecutorShutdown
	}
	h, err := process.Spawn(cmd.spawnOptions())
	if err != nil {
		return nil, NewLaunchError(cmd.Program, err)
	}
	return h, nil
}

// run is the shared supervised execution path behind Execute and Stream.
func (e *executor) run(ctx context.Context, cmd *Command, stdout, stderr io.Writer) (*Result, error) {
	// Use mutex to ensure shutdown check and wg.Add are atomic
	// This prevents a race where Shutdown starts wg.Wait() between our check and Add
	e.mu.RLock()
	if atomic.LoadInt32(&e.shutdown) == 1 {
		e.mu.RUnlock()
		return nil, ErrExecutorShutdown
	}
	e.wg.Add(1)
	e.mu.RUnlock()

	defer e.wg.Done()

	if e.telemetry != nil {
		var endSpan func()
		ctx, endSpan = e.telemetry.StartSpan(ctx, "executor.Execute")
		defer endSpan()
	}

	spawnID := uuid.New().String()

	var err error
	cmd, err = e.runPreHooks(ctx, cmd)
	if err != nil {
		return nil, err
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.Wait(ctx, cmd.Program); err != nil {
			return &Result{
				Status:  StatusRateLimited,
				SpawnID: spawnID,
				Program: cmd.Program,
			}, NewRateLimitError(cmd.Program)
		}
	}

	timeout := cmd.Timeout
	if timeout == 0 {
		timeout = e.defaultTimeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	h, spawnErr := process.Spawn(cmd.spawnOptions())
	if spawnErr != nil {
		result := &Result{Status: StatusLaunchFailed, SpawnID: spawnID, Program: cmd.Program}
		runErr := NewLaunchError(cmd.Program, spawnErr)
		if hookErr := e.runPostHooks(ctx, cmd, result, runErr); hookErr != nil {
			return result, hookErr
		}
		return result, runErr
	}

	result := &Result{SpawnID: spawnID, Program: cmd.Program, Pid: h.Pid()}

	if e.auditor != nil {
		e.auditor.RecordSpawn(ctx, spawnID, cmd, h.Pid())
	}

	if cmd.Stdin != nil {
		go feedStdin(h, cmd.Stdin)
	}

	exit, killed, superviseErr := supervise(execCtx, h, stdout, stderr)
	result.Duration = time.Since(start)

	var runErr error
	switch {
	case superviseErr != nil:
		result.Status = StatusError
		runErr = superviseErr
	case killed && errors.Is(execCtx.Err(), context.DeadlineExceeded):
		result.Exit = exit
		result.Status = StatusTimeout
		runErr = NewTimeoutError(cmd.Program, timeout.String())
	case killed:
		result.Exit = exit
		result.Status = StatusCanceled
		runErr = execCtx.Err()
	case exit.Signal != 0:
		result.Exit = exit
		result.Status = StatusSignaled
	case exit.Code != 0:
		result.Exit = exit
		result.Status = StatusError
	default:
		result.Exit = exit
		result.Status = StatusSuccess
	}

	if e.telemetry != nil {
		e.telemetry.RecordMetric("executor.execution_duration_ms", float64(result.Duration.Milliseconds()), map[string]string{
			"program":  cmd.Program,
			"status":   result.Status.String(),
			"exitcode": strconv.Itoa(result.Exit.Code),
		})
	}

	if e.auditor != nil {
		e.auditor.RecordExit(ctx, spawnID, result)
	}

	if hookErr := e.runPostHooks(ctx, cmd, result, runErr); hookErr != nil {
		return result, hookErr
	}

	return result, runErr
}

// runPreHooks threads cmd through every hook's PreExecute in registration
// order. A hook may return a replacement command, which later hooks and
// the execution itself then see.
func (e *executor) runPreHooks(ctx context.Context, cmd *Command) (*Command, error) {
	for _, h := range e.hooks {
		next, err := h.PreExecute(ctx, cmd)
		if err != nil {
			return nil, NewHookError(cmd.Program, err)
		}
		if next != nil {
			cmd = next
		}
	}
	return cmd, nil
}

// runPostHooks invokes every hook's PostExecute with the outcome. The first
// hook error stops the chain and is surfaced to the caller alongside the
// result.
func (e *executor) runPostHooks(ctx context.Context, cmd *Command, result *Result, execErr error) error {
	for _, h := range e.hooks {
		if err := h.PostExecute(ctx, cmd, result, execErr); err != nil {
			return NewHookError(cmd.Program, err)
		}
	}
	return nil
}

// Shutdown gracefully shuts down the executor.
func (e *executor) Shutdown(ctx context.Context) error {
	// Acquire write lock to prevent new executions from starting
	// Any Execute calls will block on RLock until we release
	e.mu.Lock()
	atomic.StoreInt32(&e.shutdown, 1)
	e.mu.Unlock()

	// Now wait for any in-progress executions to complete
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// feedStdin copies the command's input reader into the child's stdin
// pipe and closes it for EOF. A child that exits without draining its
// input makes the copy fail with a broken pipe, which is not an error
// worth surfacing.
func feedStdin(h *process.Handle, r io.Reader) {
	io.Copy(h.Stdin(), r)
	h.CloseStdin()
}

// supervise drains the child's output into the writers on a bounded
// cadence, then joins it. If the context expires while the child lives,
// the child is killed and its remaining output drained before the join.
// The returned killed flag reports whether supervision had to kill.
//
// All handle mutation happens on this one goroutine; the context is only
// sampled between bounded reads.
func supervise(ctx context.Context, h *process.Handle, stdout, stderr io.Writer) (process.ExitStatus, bool, error) {
	killed := false
	killIfExpired := func() {
		if !killed && ctx.Err() != nil {
			h.Kill()
			killed = true
		}
	}

	var out process.Output
	for h.HasStdout() || h.HasStderr() {
		killIfExpired()
		if err := h.ReadOutputInto(&out, readPoll); err != nil {
			if sigstate.IsInterrupted(err) {
				continue
			}
			h.Kill()
			h.Join()
			return process.ExitStatus{}, killed, err
		}
		if len(out.Stdout) > 0 {
			stdout.Write(out.Stdout)
			out.Stdout = out.Stdout[:0]
		}
		if len(out.Stderr) > 0 {
			stderr.Write(out.Stderr)
			out.Stderr = out.Stderr[:0]
		}
	}

	for {
		killIfExpired()
		status, done, err := h.TryJoin()
		if err != nil {
			if sigstate.IsInterrupted(err) {
				continue
			}
			return process.ExitStatus{}, killed, err
		}
		if done {
			return status, killed, nil
		}
		time.Sleep(joinPoll)
	}
}
