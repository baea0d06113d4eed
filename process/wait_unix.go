//go:build unix

package process

import (
	"io"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/victoralfred/gospawn/sigstate"
)

// classifyWait turns a wait4 status word into an ExitStatus. A child
// that died on a signal reports the signal; a normal exit reports the
// exit code.
func classifyWait(ws unix.WaitStatus) ExitStatus {
	if ws.Signaled() {
		return ExitStatus{Signal: ws.Signal()}
	}
	return ExitStatus{Code: ws.ExitStatus()}
}

// wait blocks until the child exits and reaps it. A wait interrupted by
// a signal delivered to this process is reported as a distinct
// interrupted condition so callers can unwind cleanly instead of
// mistaking it for a child failure.
func (h *Handle) wait() (ExitStatus, error) {
	if h.sys.cached != nil {
		st := *h.sys.cached
		h.sys.cached = nil
		return st, nil
	}
	var ws unix.WaitStatus
	for {
		_, err := unix.Wait4(h.sys.pid, &ws, 0, nil)
		if err == unix.EINTR {
			if err := sigstate.Interrupted(); err != nil {
				return ExitStatus{}, err
			}
			continue
		}
		if err != nil {
			return ExitStatus{}, os.NewSyscallError("wait4", err)
		}
		return classifyWait(ws), nil
	}
}

// running peeks at the child without blocking. When the peek happens to
// reap an already-exited child, the status is cached so the eventual
// Join still observes it.
func (h *Handle) running() bool {
	if h.sys.cached != nil {
		return false
	}
	var ws unix.WaitStatus
	for {
		pid, err := unix.Wait4(h.sys.pid, &ws, unix.WNOHANG, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil || pid == 0 {
			return err == nil
		}
		st := classifyWait(ws)
		h.sys.cached = &st
		return false
	}
}

func unixSignal(sig os.Signal) syscall.Signal {
	switch s := sig.(type) {
	case syscall.Signal:
		return s
	default:
		if sig == os.Interrupt {
			return unix.SIGINT
		}
		return unix.SIGKILL
	}
}

func (h *Handle) sendSignal(sig os.Signal) error {
	if err := unix.Kill(h.sys.pid, unixSignal(sig)); err != nil {
		return &SignalError{Signal: sig, Err: os.NewSyscallError("kill", err)}
	}
	return nil
}

// pollTimeout converts a read deadline to poll's millisecond form, where
// a negative value blocks indefinitely.
func pollTimeout(d time.Duration) int {
	if d < 0 {
		return -1
	}
	return int(d.Milliseconds())
}

// readOutput multiplexes the open output pipes with a single poll and
// drains whichever became readable, in fixed chunks so neither stream
// can starve the other. A hangup with no data left retires that pipe.
func (h *Handle) readOutput(out *Output, timeout time.Duration) error {
	var (
		fds     [2]unix.PollFd
		sinks   [2]*[]byte
		readers [2]*PipeReader
		n       int
	)
	if h.stdout.IsOpen() {
		fds[n] = unix.PollFd{Fd: int32(h.stdout.fd()), Events: unix.POLLIN}
		sinks[n] = &out.Stdout
		readers[n] = h.stdout
		n++
	}
	if h.stderr.IsOpen() {
		fds[n] = unix.PollFd{Fd: int32(h.stderr.fd()), Events: unix.POLLIN}
		sinks[n] = &out.Stderr
		readers[n] = h.stderr
		n++
	}
	if n == 0 {
		return nil
	}

	ready, err := unix.Poll(fds[:n], pollTimeout(timeout))
	if err == unix.EINTR {
		if err := sigstate.Interrupted(); err != nil {
			return err
		}
		return nil
	}
	if err != nil {
		return os.NewSyscallError("poll", err)
	}
	if ready == 0 {
		return nil
	}

	var buf [readChunk]byte
	for i := 0; i < n; i++ {
		re := fds[i].Revents
		if re&unix.POLLIN != 0 {
			m, err := readers[i].Read(buf[:])
			if m > 0 {
				*sinks[i] = append(*sinks[i], buf[:m]...)
			}
			if err == io.EOF {
				readers[i].Close()
			} else if err != nil {
				return err
			}
			continue
		}
		if re&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
			// Hangup with nothing readable means the stream is drained.
			readers[i].Close()
		}
	}
	return nil
}
