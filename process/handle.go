package process

import (
	"fmt"
	"os"
	"runtime"
	"time"
)

// readChunk is the size of one bounded read serviced per ready endpoint
// during a multiplexed output read.
const readChunk = 1024

type handleState int

const (
	stateRunning handleState = iota
	stateJoined
	stateDetached
)

// Handle owns a spawned child process: its native process identifier and
// whichever parent-side pipe endpoints the routing configuration created.
// A Handle is the exclusive owner of those OS resources and must reach a
// terminal state -- joined or detached -- before it is dropped; a Handle
// collected while its child is still un-reaped aborts the program, since
// that is a caller-side resource-safety bug rather than a recoverable
// condition.
//
// A single Handle is not safe for concurrent mutation from multiple
// goroutines. Distinct Handles own disjoint OS resources and need no
// coordination between each other.
type Handle struct {
	opts SpawnOptions

	stdout *PipeReader
	stderr *PipeReader
	stdin  *PipeWriter

	status *ExitStatus
	state  handleState

	sys sysProc
}

// Spawn launches a child process described by opts and returns a running
// Handle. Launch failures -- a missing or non-executable program, or
// resource exhaustion -- surface synchronously as a *LaunchError;
// malformed options surface as ErrInvalidOptions before any OS resource
// is touched.
func Spawn(opts SpawnOptions) (*Handle, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	h, err := spawn(opts)
	if err != nil {
		return nil, err
	}
	runtime.SetFinalizer(h, func(h *Handle) {
		if h.state == stateRunning {
			panic("process: Handle dropped while its child was still running; call Join or Detach")
		}
	})
	return h, nil
}

// SpawnCommand launches program with args, all other options left at their
// defaults.
func SpawnCommand(program string, args ...string) (*Handle, error) {
	return Spawn(SpawnOptions{Command: append([]string{program}, args...)})
}

// SpawnOptions returns the options the handle was spawned with.
func (h *Handle) SpawnOptions() SpawnOptions {
	return h.opts
}

// Pid returns the child's native process identifier.
func (h *Handle) Pid() int {
	return h.pid()
}

// Stdout returns the parent-side stdout pipe endpoint, or nil when stdout
// was not routed through a pipe.
func (h *Handle) Stdout() *PipeReader { return h.stdout }

// Stderr returns the parent-side stderr pipe endpoint, or nil when stderr
// was not routed through a pipe.
func (h *Handle) Stderr() *PipeReader { return h.stderr }

// Stdin returns the parent-side stdin pipe endpoint, or nil when stdin
// was not routed through a pipe.
func (h *Handle) Stdin() *PipeWriter { return h.stdin }

// HasStdout reports whether the stdout endpoint exists and is still open.
func (h *Handle) HasStdout() bool { return h.stdout.IsOpen() }

// HasStderr reports whether the stderr endpoint exists and is still open.
func (h *Handle) HasStderr() bool { return h.stderr.IsOpen() }

// HasStdin reports whether the stdin endpoint exists and is still open.
func (h *Handle) HasStdin() bool { return h.stdin.IsOpen() }

// Joined reports whether Join has completed on this handle.
func (h *Handle) Joined() bool {
	return h.state == stateJoined
}

// ExitStatus returns the child's terminal status and true once the handle
// has been joined, or a zero status and false before that.
func (h *Handle) ExitStatus() (ExitStatus, bool) {
	if h.status == nil {
		return ExitStatus{}, false
	}
	return *h.status, true
}

// IsRunning reports whether the child is still running. The peek is
// non-blocking and does not consume the child's exit status: a later Join
// still observes it. A joined or detached handle reports false.
func (h *Handle) IsRunning() bool {
	if h.state != stateRunning {
		return false
	}
	return h.running()
}

// Join blocks until the child terminates and records its exit status.
// Exactly one of the returned status's Code and Signal is non-zero for an
// unsuccessful child. If the wait is interrupted by a signal delivered to
// the calling process, Join returns a sigstate.Interrupted error and the
// handle stays joinable, so the caller can retry.
//
// Calling Join on an already-joined or detached handle is a lifecycle
// misuse and panics.
func (h *Handle) Join() (ExitStatus, error) {
	switch h.state {
	case stateJoined:
		st, _ := h.ExitStatus()
		panic(fmt.Sprintf("process: Join called twice on the same handle (already %v)", st))
	case stateDetached:
		panic("process: Join called on a detached handle")
	}
	status, err := h.wait()
	if err != nil {
		return ExitStatus{}, err
	}
	h.status = &status
	h.state = stateJoined
	h.release()
	return status, nil
}

// TryJoin joins the child without blocking if it has already exited.
// It returns the exit status and true when the join happened (now or on a
// previous Join), or a zero status and false while the child still runs.
func (h *Handle) TryJoin() (ExitStatus, bool, error) {
	if h.state == stateJoined {
		st, _ := h.ExitStatus()
		return st, true, nil
	}
	if h.IsRunning() {
		return ExitStatus{}, false, nil
	}
	st, err := h.Join()
	if err != nil {
		return ExitStatus{}, false, err
	}
	return st, true, nil
}

// Signal delivers sig to the child. On POSIX any signal number can be
// sent; on Windows only console-control signals (os.Interrupt) reach
// children sharing the sender's console, and os.Kill force-terminates --
// a genuine platform capability gap, not worked around here.
//
// Signalling an already-joined handle is a lifecycle misuse and panics.
func (h *Handle) Signal(sig os.Signal) error {
	if h.state == stateJoined {
		panic("process: Signal called on an already-joined handle")
	}
	if h.state == stateDetached {
		panic("process: Signal called on a detached handle")
	}
	return h.sendSignal(sig)
}

// Kill force-terminates the child. Equivalent to Signal(os.Kill).
func (h *Handle) Kill() error {
	return h.Signal(os.Kill)
}

// Detach releases all pipe endpoints and native handles without waiting
// for the child to exit. On POSIX the child is deliberately not reaped;
// it occupies a zombie entry until some other wait call or process exit
// cleans it up. That is an accepted tradeoff of detaching, not a leak the
// package tries to hide.
func (h *Handle) Detach() {
	h.closePipes()
	if h.state == stateRunning {
		h.release()
	}
	h.state = stateDetached
}

// Close releases the handle's remaining resources after a Join. It exists
// for callers that joined but still hold open pipe endpoints; on a
// running handle it behaves like Detach.
func (h *Handle) Close() {
	if h.state == stateJoined {
		h.closePipes()
		return
	}
	h.Detach()
}

// WriteInput writes p into the child's stdin pipe. The stdin stream must
// have been routed through a pipe and still be open.
func (h *Handle) WriteInput(p []byte) (int, error) {
	if !h.HasStdin() {
		return 0, ErrStdinNotPiped
	}
	return h.stdin.Write(p)
}

// CloseStdin closes the stdin pipe, delivering EOF to the child.
func (h *Handle) CloseStdin() error {
	if h.stdin == nil {
		return nil
	}
	return h.stdin.Close()
}

// ReadOutputInto waits on whichever of the stdout and stderr pipe
// endpoints are still open, bounded by timeout: negative blocks
// indefinitely, zero polls without blocking. For each endpoint that
// becomes ready it services one bounded read, appending the bytes to the
// matching accumulator buffer; a zero-length read is EOF and permanently
// retires that endpoint. With no open endpoints it returns immediately.
//
// Waiting on both streams at once is what prevents the deadlock where one
// stream's OS buffer fills while the caller is blocked on the other.
func (h *Handle) ReadOutputInto(out *Output, timeout time.Duration) error {
	return h.readOutput(out, timeout)
}

// ReadOutput reads until both output endpoints have been retired and
// returns everything the child wrote. It blocks indefinitely between
// reads; callers needing bounded waiting use ReadOutputInto.
func (h *Handle) ReadOutput() (Output, error) {
	var out Output
	for h.HasStdout() || h.HasStderr() {
		if err := h.ReadOutputInto(&out, -1); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (h *Handle) closePipes() {
	if h.stdout != nil {
		h.stdout.Close()
	}
	if h.stderr != nil {
		h.stderr.Close()
	}
	if h.stdin != nil {
		h.stdin.Close()
	}
}
