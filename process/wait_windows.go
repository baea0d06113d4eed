//go:build windows

package process

import (
	"io"
	"os"
	"time"

	"golang.org/x/sys/windows"
)

// wait blocks until the process object signals, then collects the exit
// code. Windows has no signal-death distinction, so the status always
// carries a code.
func (h *Handle) wait() (ExitStatus, error) {
	if _, err := windows.WaitForSingleObject(h.sys.proc, windows.INFINITE); err != nil {
		return ExitStatus{}, os.NewSyscallError("WaitForSingleObject", err)
	}
	var code uint32
	if err := windows.GetExitCodeProcess(h.sys.proc, &code); err != nil {
		return ExitStatus{}, os.NewSyscallError("GetExitCodeProcess", err)
	}
	return ExitStatus{Code: int(code)}, nil
}

// running probes the process object without blocking.
func (h *Handle) running() bool {
	ev, err := windows.WaitForSingleObject(h.sys.proc, 0)
	return err == nil && ev == uint32(windows.WAIT_TIMEOUT)
}

func (h *Handle) release() {
	if h.sys.proc != 0 {
		windows.CloseHandle(h.sys.proc)
		h.sys.proc = 0
	}
}

// sendSignal delivers the closest Windows analogue of a POSIX signal.
// Interrupts become console control events; kill terminates outright.
// Anything else has no deliverable form and reports a SignalError with
// no underlying cause.
func (h *Handle) sendSignal(sig os.Signal) error {
	switch {
	case sig == os.Kill:
		if err := windows.TerminateProcess(h.sys.proc, 1); err != nil {
			return &SignalError{Signal: sig, Err: os.NewSyscallError("TerminateProcess", err)}
		}
		return nil
	case isInterrupt(sig):
		// CTRL_C cannot target a specific group, so children launched
		// in their own group receive CTRL_BREAK instead.
		event := uint32(windows.CTRL_C_EVENT)
		pid := uint32(0)
		if h.opts.NewProcessGroup {
			event = windows.CTRL_BREAK_EVENT
			pid = h.sys.pid
		}
		if err := windows.GenerateConsoleCtrlEvent(event, pid); err != nil {
			return &SignalError{Signal: sig, Err: os.NewSyscallError("GenerateConsoleCtrlEvent", err)}
		}
		return nil
	}
	return &SignalError{Signal: sig}
}

// pipeReadable peeks at a pipe without consuming data. A broken pipe
// means the child closed its end and the stream is drained.
func pipeReadable(r *PipeReader) (avail uint32, eof bool, err error) {
	perr := windows.PeekNamedPipe(windows.Handle(r.fd()), nil, 0, nil, &avail, nil)
	if perr == nil {
		return avail, false, nil
	}
	if perr == windows.ERROR_BROKEN_PIPE {
		return 0, true, nil
	}
	return 0, false, os.NewSyscallError("PeekNamedPipe", perr)
}

// readOutput polls the open output pipes until one yields data, a pipe
// breaks, or the timeout lapses. Anonymous pipes are not waitable
// objects, so readiness comes from peeking on a short cadence.
func (h *Handle) readOutput(out *Output, timeout time.Duration) error {
	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}
	var buf [readChunk]byte
	for {
		progressed := false
		for _, s := range []struct {
			r    *PipeReader
			sink *[]byte
		}{{h.stdout, &out.Stdout}, {h.stderr, &out.Stderr}} {
			if !s.r.IsOpen() {
				continue
			}
			avail, eof, err := pipeReadable(s.r)
			if err != nil {
				return err
			}
			if eof {
				s.r.Close()
				progressed = true
				continue
			}
			if avail == 0 {
				continue
			}
			n, err := s.r.Read(buf[:])
			if n > 0 {
				*s.sink = append(*s.sink, buf[:n]...)
				progressed = true
			}
			if err == io.EOF {
				s.r.Close()
			} else if err != nil {
				return err
			}
		}
		if progressed {
			return nil
		}
		if !h.stdout.IsOpen() && !h.stderr.IsOpen() {
			return nil
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
}
