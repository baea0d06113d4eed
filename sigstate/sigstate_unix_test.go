//go:build unix

package sigstate

import (
	"syscall"
	"testing"
	"time"
)

func TestNotifyRecordsDeliveredSignal(t *testing.T) {
	Reset()
	restore := Notify(syscall.SIGUSR1)
	defer restore()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("self-signal failed: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for Last() != syscall.SIGUSR1 {
		if time.Now().After(deadline) {
			t.Fatalf("Last() = %d, want SIGUSR1", Last())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNotifyRestoreStopsRecording(t *testing.T) {
	Reset()
	restore := Notify(syscall.SIGUSR2)
	restore()

	// After teardown the relay goroutine is gone; a recorded value can
	// only come from the earlier installation.
	if Pending() {
		t.Errorf("Last() = %d, want none recorded", Last())
	}
}
