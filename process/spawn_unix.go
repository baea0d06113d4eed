//go:build unix

package process

import (
	"os"
	"os/exec"
	"strings"
	"syscall"
)

const ptySupported = true

// sysProc is the POSIX half of a Handle: the child's pid plus an exit
// status observed early by a non-blocking IsRunning peek, kept so a later
// Join still returns it exactly once.
type sysProc struct {
	pid    int
	cached *ExitStatus
}

func (h *Handle) pid() int {
	return h.sys.pid
}

// childFiles are the files handed to the child as descriptors 0, 1 and 2,
// plus the child-side ends the parent must close once the fork point has
// passed.
type childFiles struct {
	files   [3]*os.File
	closers []*os.File
}

func (c *childFiles) set(slot int, f *os.File, ownIt bool) {
	c.files[slot] = f
	if ownIt {
		c.closers = append(c.closers, f)
	}
}

func (c *childFiles) closeAll() {
	for _, f := range c.closers {
		f.Close()
	}
}

// resolveProgram finds the executable to launch. Program overrides are
// used verbatim; otherwise the first command token is looked up on PATH
// unless lookup is disabled or the token already names a path.
func resolveProgram(opts *SpawnOptions) (string, error) {
	prog := opts.program()
	if opts.Program != "" || opts.DisablePathLookup || strings.ContainsRune(prog, '/') {
		return prog, nil
	}
	path, err := exec.LookPath(prog)
	if err != nil {
		return "", &LaunchError{Program: prog, Err: err}
	}
	return path, nil
}

// spawn is the POSIX backend of Spawn. The stdio files are assembled per
// the routing configuration, then the launch rides the runtime's
// fork/exec path, whose close-on-exec error-relay pipe acknowledges the
// exec: a successful exec closes the relay with no payload, while a
// failed dup/chdir/exec in the child reports the errno back, and that
// errno surfaces here as a synchronous LaunchError.
func spawn(opts SpawnOptions) (*Handle, error) {
	path, err := resolveProgram(&opts)
	if err != nil {
		return nil, err
	}

	h := &Handle{opts: opts}
	var cf childFiles
	fail := func(err error) (*Handle, error) {
		cf.closeAll()
		h.closePipes()
		return nil, err
	}

	var tty *os.File
	if opts.Pty {
		var err error
		tty, err = h.openPty()
		if err != nil {
			return fail(err)
		}
		cf.closers = append(cf.closers, tty)
	}

	// Stdin.
	switch in := opts.effectiveStdin(); in.Mode {
	case StdioInherit:
		cf.set(0, os.Stdin, false)
	case StdioPipe:
		if opts.Pty {
			cf.set(0, tty, false)
			break
		}
		w, childEnd, err := newInputPipe()
		if err != nil {
			return fail(err)
		}
		h.stdin = w
		cf.set(0, childEnd, true)
	case StdioDiscard:
		f, err := os.OpenFile(os.DevNull, os.O_RDONLY, 0)
		if err != nil {
			return fail(err)
		}
		cf.set(0, f, true)
	case StdioFile:
		f, err := os.Open(in.Path)
		if err != nil {
			return fail(&LaunchError{Program: path, Err: err})
		}
		cf.set(0, f, true)
	}

	// Stdout.
	switch out := opts.effectiveStdout(); out.Mode {
	case StdioInherit:
		cf.set(1, os.Stdout, false)
	case StdioPipe:
		if opts.Pty {
			cf.set(1, tty, false)
			break
		}
		r, childEnd, err := newOutputPipe()
		if err != nil {
			return fail(err)
		}
		h.stdout = r
		cf.set(1, childEnd, true)
	case StdioDiscard:
		f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			return fail(err)
		}
		cf.set(1, f, true)
	case StdioFile:
		f, err := os.OpenFile(out.Path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return fail(&LaunchError{Program: path, Err: err})
		}
		cf.set(1, f, true)
	}

	// Stderr. Merging reuses whatever stdout resolved to: the child's
	// descriptor 2 is a duplicate of descriptor 1.
	switch errOut := opts.effectiveStderr(); errOut.Mode {
	case StdioInherit:
		cf.set(2, os.Stderr, false)
	case StdioMergeStdout:
		cf.set(2, cf.files[1], false)
	case StdioPipe:
		r, childEnd, err := newOutputPipe()
		if err != nil {
			return fail(err)
		}
		h.stderr = r
		cf.set(2, childEnd, true)
	case StdioDiscard:
		f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			return fail(err)
		}
		cf.set(2, f, true)
	case StdioFile:
		f, err := os.OpenFile(errOut.Path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return fail(&LaunchError{Program: path, Err: err})
		}
		cf.set(2, f, true)
	}

	sysAttr := &syscall.SysProcAttr{}
	if opts.Pty {
		// The pty slave must become the child's controlling terminal,
		// which requires a fresh session.
		sysAttr.Setsid = true
		sysAttr.Setctty = true
		sysAttr.Ctty = ttyDescriptor(cf.files[:], tty)
	} else if opts.NewProcessGroup {
		sysAttr.Setpgid = true
	}

	proc, err := os.StartProcess(path, opts.argv(), &os.ProcAttr{
		Dir:   opts.Dir,
		Env:   opts.environ(),
		Files: cf.files[:],
		Sys:   sysAttr,
	})
	cf.closeAll()
	if err != nil {
		h.closePipes()
		return nil, &LaunchError{Program: path, Err: err}
	}

	h.sys.pid = proc.Pid
	// The pid is tracked directly; the os.Process wrapper is not used for
	// waiting and can release its internal handle now.
	proc.Release()
	return h, nil
}

// ttyDescriptor returns the child descriptor number at which the pty
// slave will be installed, for use as the controlling-terminal index.
func ttyDescriptor(files []*os.File, tty *os.File) int {
	for i, f := range files {
		if f == tty {
			return i
		}
	}
	return 0
}

// release has nothing to free on POSIX; the pid needs no native handle.
func (h *Handle) release() {}
