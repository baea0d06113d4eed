package executor

import (
	"time"

	"github.com/victoralfred/gospawn/process"
)

// Result contains the outcome of command execution.
type Result struct {
	// SpawnID uniquely identifies this execution for tracing and audit.
	SpawnID string

	// Program is the program the command resolved to.
	Program string

	// Pid is the native process identifier of the child.
	Pid int

	// Stdout and Stderr hold the captured output of pipe-routed streams.
	Stdout []byte
	Stderr []byte

	// Status classifies how the execution ended.
	Status RunStatus

	// Exit is the child's terminal status, valid unless launch failed.
	Exit process.ExitStatus

	// Duration is the wall-clock time from spawn to join.
	Duration time.Duration
}

// RunStatus classifies the outcome of command execution.
type RunStatus int

const (
	// StatusSuccess indicates a normal exit with code zero.
	StatusSuccess RunStatus = iota
	// StatusError indicates a normal exit with a nonzero code.
	StatusError
	// StatusSignaled indicates the child was terminated by a signal.
	StatusSignaled
	// StatusTimeout indicates the execution deadline lapsed and the
	// child was killed.
	StatusTimeout
	// StatusCanceled indicates the context was canceled and the child
	// was killed.
	StatusCanceled
	// StatusLaunchFailed indicates the child never started.
	StatusLaunchFailed
	// StatusRateLimited indicates the rate limiter refused the run.
	StatusRateLimited
)

// String returns the string representation of the run status.
func (s RunStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusSignaled:
		return "signaled"
	case StatusTimeout:
		return "timeout"
	case StatusCanceled:
		return "canceled"
	case StatusLaunchFailed:
		return "launch_failed"
	case StatusRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// IsRetryable returns true if the operation can be retried.
func (s RunStatus) IsRetryable() bool {
	switch s {
	case StatusTimeout, StatusRateLimited:
		return true
	default:
		return false
	}
}

// Success returns true if the result indicates success.
func (r *Result) Success() bool {
	return r.Status == StatusSuccess && r.Exit.Successful()
}

// Failed returns true if the result indicates failure.
func (r *Result) Failed() bool {
	return !r.Success()
}

// StdoutString returns stdout as a string.
func (r *Result) StdoutString() string {
	return string(r.Stdout)
}

// StderrString returns stderr as a string.
func (r *Result) StderrString() string {
	return string(r.Stderr)
}

// Future represents an asynchronous result.
type Future[T any] interface {
	// Wait blocks until the result is available.
	Wait() (T, error)

	// Done returns a channel that is closed when the result is ready.
	Done() <-chan struct{}

	// Cancel attempts to cancel the operation.
	Cancel()
}

// ResultFuture implements Future for Result.
type ResultFuture struct {
	result *Result
	err    error
	done   chan struct{}
	cancel func()
}

// NewResultFuture creates a new result future.
func NewResultFuture(cancel func()) *ResultFuture {
	return &ResultFuture{
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// Complete sets the result and signals completion.
func (f *ResultFuture) Complete(result *Result, err error) {
	f.result = result
	f.err = err
	close(f.done)
}

// Wait blocks until the result is available.
func (f *ResultFuture) Wait() (*Result, error) {
	<-f.done
	return f.result, f.err
}

// Done returns a channel that is closed when the result is ready.
func (f *ResultFuture) Done() <-chan struct{} {
	return f.done
}

// Cancel attempts to cancel the operation.
func (f *ResultFuture) Cancel() {
	if f.cancel != nil {
		f.cancel()
	}
}
