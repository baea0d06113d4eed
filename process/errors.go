package process

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
)

// Sentinel errors for common conditions.
var (
	// ErrInvalidOptions indicates the spawn options are malformed. It is
	// returned before any OS resource has been touched.
	ErrInvalidOptions = errors.New("invalid spawn options")

	// ErrStdinNotPiped indicates a stdin write on a handle whose stdin
	// was not routed through a pipe, or whose pipe was already closed.
	ErrStdinNotPiped = errors.New("stdin is not an open pipe")
)

// LaunchError reports that the child process could not be launched: the
// resolved executable is missing or not executable, or the launch ran out
// of a resource. It is always surfaced synchronously from Spawn, never as
// an ambiguous exit code. errors.Is(err, fs.ErrNotExist) reports whether
// the failure is a missing executable.
type LaunchError struct {
	// Program is the executable name or path that failed to launch.
	Program string

	// Err is the underlying OS error.
	Err error
}

// Error returns the error message.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Program, e.Err)
}

// Unwrap returns the underlying error.
func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target. A LaunchError matches
// fs.ErrNotExist when the executable could not be found, including the
// not-found classification produced by PATH lookup.
func (e *LaunchError) Is(target error) bool {
	if target == fs.ErrNotExist {
		return errors.Is(e.Err, fs.ErrNotExist) || errors.Is(e.Err, exec.ErrNotFound)
	}
	return false
}

// SignalError reports that delivering a signal to the child failed, or
// that the signal cannot be delivered on this platform.
type SignalError struct {
	// Signal is the signal that could not be delivered.
	Signal os.Signal

	// Err is the underlying OS error, or nil when the platform simply
	// has no way to deliver Signal.
	Err error
}

// Error returns the error message.
func (e *SignalError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("signal %v: not deliverable on this platform", e.Signal)
	}
	return fmt.Sprintf("signal %v: %v", e.Signal, e.Err)
}

// Unwrap returns the underlying error.
func (e *SignalError) Unwrap() error {
	return e.Err
}

// ExitError reports that a joined child terminated unsuccessfully: a
// nonzero exit code or termination by signal. It is never produced
// automatically; callers request the check through ExitStatus.Check.
type ExitError struct {
	// Status is the child's terminal exit status.
	Status ExitStatus
}

// Error returns the error message.
func (e *ExitError) Error() string {
	if e.Status.Signal != 0 {
		return fmt.Sprintf("subprocess was terminated by signal %d", e.Status.Signal)
	}
	return fmt.Sprintf("subprocess exited with code %d", e.Status.Code)
}
