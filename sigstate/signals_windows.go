//go:build windows

package sigstate

import "os"

// defaultSignals is the termination-request set relayed when Notify is
// called with no arguments. Windows delivers only console-control events.
func defaultSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
