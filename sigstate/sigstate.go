// Package sigstate models the process-wide "last signal received" state.
//
// Signal handlers run outside normal control flow, so the state is held
// in a single atomic and mutated only through atomic load/store. Notify
// installs the relay for a chosen signal set and returns a teardown
// function that restores the previous disposition; Last and Reset expose
// the most recently recorded signal.
//
// The package also defines InterruptedError, the condition raised when a
// blocking wait or poll is cut short by a signal delivered to the calling
// process itself. That condition is distinct from any classification of a
// child process's termination: callers can tell "my wait was interrupted"
// apart from "the child died".
package sigstate

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// lastSignal holds the number of the most recently received signal, zero
// when none has been recorded since the last Reset.
var lastSignal atomic.Int32

// Notify installs a relay that records every delivered signal in sigs as
// the process-wide last received signal. It returns a teardown function
// that stops the relay and restores the previous disposition of those
// signals. With no arguments it installs the default termination set for
// the platform (SIGINT, SIGTERM, SIGQUIT and SIGHUP on POSIX systems;
// os.Interrupt on Windows).
func Notify(sigs ...os.Signal) (restore func()) {
	if len(sigs) == 0 {
		sigs = defaultSignals()
	}
	ch := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(ch, sigs...)
	go func() {
		for {
			select {
			case sig, ok := <-ch:
				if !ok {
					return
				}
				store(sig)
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}

// store records sig as the last received signal.
func store(sig os.Signal) {
	if s, ok := sig.(syscall.Signal); ok {
		lastSignal.Store(int32(s))
		return
	}
	if sig == os.Interrupt {
		lastSignal.Store(int32(syscall.SIGINT))
	}
}

// Last returns the number of the most recently received signal, or zero
// when none has been recorded.
func Last() syscall.Signal {
	return syscall.Signal(lastSignal.Load())
}

// Reset clears the recorded signal.
func Reset() {
	lastSignal.Store(0)
}

// Pending reports whether a signal has been recorded since the last Reset.
func Pending() bool {
	return lastSignal.Load() != 0
}

// InterruptedError reports that a blocking operation was interrupted by a
// signal delivered to the current process.
type InterruptedError struct {
	// Signal is the most recently recorded signal at the time of the
	// interruption, zero when no relay was installed.
	Signal syscall.Signal
}

// Error returns the error message.
func (e *InterruptedError) Error() string {
	if e.Signal == 0 {
		return "operation interrupted by a signal delivered to the current process"
	}
	return fmt.Sprintf("operation interrupted by signal %d delivered to the current process", int(e.Signal))
}

// Interrupted returns an InterruptedError carrying the last recorded
// signal. Blocking waits return it when the OS reports EINTR.
func Interrupted() error {
	return &InterruptedError{Signal: Last()}
}

// IsInterrupted reports whether err is an interruption condition.
func IsInterrupted(err error) bool {
	var ie *InterruptedError
	return errors.As(err, &ie)
}
