//go:build unix

package sigstate

import (
	"os"
	"syscall"
)

// defaultSignals is the termination-request set relayed when Notify is
// called with no arguments.
func defaultSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP}
}
