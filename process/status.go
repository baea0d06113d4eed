package process

import (
	"fmt"
	"syscall"
)

// ExitStatus is a child process's terminal disposition: either a normal
// exit code or a terminating signal number, never both. On Windows the
// Signal field is always zero; there is no signal-based termination.
type ExitStatus struct {
	// Code is the value the child returned from main or passed to its
	// exit function. Zero when the child was terminated by a signal.
	Code int

	// Signal is the number of the signal that terminated the child.
	// Zero when the child exited normally.
	Signal syscall.Signal
}

// Successful reports whether the child exited normally with code zero.
func (s ExitStatus) Successful() bool {
	return s.Code == 0 && s.Signal == 0
}

// Check returns an *ExitError if the status is not a success, nil
// otherwise. The check is explicit: Join never raises it on its own.
func (s ExitStatus) Check() error {
	if s.Successful() {
		return nil
	}
	return &ExitError{Status: s}
}

// String returns a short status description.
func (s ExitStatus) String() string {
	if s.Signal != 0 {
		return fmt.Sprintf("signal %d", int(s.Signal))
	}
	return fmt.Sprintf("exit %d", s.Code)
}

// Output accumulates the stdout and stderr bytes read from a child.
// Repeated calls to Handle.ReadOutputInto append to the same buffers.
// Bytes within one stream arrive in write order; no ordering holds
// between the two streams relative to each other.
type Output struct {
	Stdout []byte
	Stderr []byte
}
