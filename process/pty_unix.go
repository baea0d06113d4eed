//go:build unix

package process

import (
	"os"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// isPtyEOF reports whether an error from a pty master read means the
// slave side is gone. Linux reports EIO once the last slave descriptor
// closes.
func isPtyEOF(err error) bool {
	return underlyingErrno(err) == unix.EIO
}

func underlyingErrno(err error) unix.Errno {
	for err != nil {
		if errno, ok := err.(unix.Errno); ok {
			return errno
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0
		}
		err = u.Unwrap()
	}
	return 0
}

// openPty allocates a pseudo-terminal pair and wires the master into the
// handle: reads of the child's terminal output come from the master, and
// when stdin is piped, writes to the child go through a duplicate of the
// master so closing stdin does not tear down the output stream. The
// returned slave is installed as the child's stdio by the spawn path.
func (h *Handle) openPty() (*os.File, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, err
	}
	if h.opts.effectiveStdout().Mode == StdioPipe {
		h.stdout = &PipeReader{f: master, pty: true}
	} else {
		defer master.Close()
	}
	if h.opts.effectiveStdin().Mode == StdioPipe {
		fd, err := unix.Dup(int(master.Fd()))
		if err != nil {
			slave.Close()
			return nil, os.NewSyscallError("dup", err)
		}
		unix.CloseOnExec(fd)
		h.stdin = &PipeWriter{f: os.NewFile(uintptr(fd), "pty-input")}
	}
	return slave, nil
}
