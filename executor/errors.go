package executor

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrTimeout indicates command timed out.
	ErrTimeout = errors.New("command timed out")

	// ErrRateLimited indicates rate limit was exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidCommand indicates invalid command configuration.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrExecutorShutdown indicates executor is shutdown.
	ErrExecutorShutdown = errors.New("executor shutdown")
)

// ErrorCode provides structured error classification.
type ErrorCode string

const (
	// ErrCodeValidationFailed indicates validation failure.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// ErrCodeLaunchFailed indicates the child never started.
	ErrCodeLaunchFailed ErrorCode = "LAUNCH_FAILED"

	// ErrCodeTimeout indicates timeout.
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// ErrCodeRateLimited indicates rate limiting.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"

	// ErrCodeInternalError indicates internal error.
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ExecutionError provides detailed error information.
type ExecutionError struct {
	// Op is the operation that failed.
	Op string

	// Program is the program being executed.
	Program string

	// Err is the underlying error.
	Err error

	// Code is the structured error code.
	Code ErrorCode

	// Details provides human-readable details.
	Details string

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error returns the error message.
func (e *ExecutionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Program, e.Details)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Program, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target.
func (e *ExecutionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// Error constructors for consistent error creation.

// NewTimeoutError creates a timeout error.
func NewTimeoutError(program string, duration string) error {
	return &ExecutionError{
		Op:        "execute",
		Program:   program,
		Err:       ErrTimeout,
		Code:      ErrCodeTimeout,
		Details:   fmt.Sprintf("execution exceeded timeout of %s", duration),
		Retryable: true,
	}
}

// NewRateLimitError creates a rate limit error.
func NewRateLimitError(program string) error {
	return &ExecutionError{
		Op:        "rate_limit",
		Program:   program,
		Err:       ErrRateLimited,
		Code:      ErrCodeRateLimited,
		Details:   "rate limit exceeded, retry later",
		Retryable: true,
	}
}

// NewLaunchError wraps a launch failure from the process layer.
func NewLaunchError(program string, err error) error {
	return &ExecutionError{
		Op:      "spawn",
		Program: program,
		Err:     err,
		Code:    ErrCodeLaunchFailed,
	}
}

// NewHookError wraps a failure from a registered execution hook.
func NewHookError(program string, err error) error {
	return &ExecutionError{
		Op:      "hook",
		Program: program,
		Err:     err,
		Code:    ErrCodeInternalError,
	}
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Code
	}
	return ErrCodeInternalError
}
