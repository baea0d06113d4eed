//go:build windows

package process

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const ptySupported = false

func isPtyEOF(error) bool { return false }

// sysProc is the Windows half of a Handle: the process handle kept open
// for waiting plus the process id used for console control events.
type sysProc struct {
	proc windows.Handle
	pid  uint32
}

func (h *Handle) pid() int {
	return int(h.sys.pid)
}

// executableExtensions returns the extensions tried when a program name
// has none, per the PATHEXT convention.
func executableExtensions() []string {
	if env := os.Getenv("PATHEXT"); env != "" {
		var exts []string
		for _, e := range strings.Split(env, ";") {
			if e = strings.TrimSpace(e); e != "" {
				if !strings.HasPrefix(e, ".") {
					e = "." + e
				}
				exts = append(exts, e)
			}
		}
		if len(exts) > 0 {
			return exts
		}
	}
	return []string{".COM", ".EXE", ".BAT", ".CMD"}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// findExecutable resolves a bare program name against the current
// directory and PATH, appending PATHEXT extensions when the name carries
// none. An empty return means the search found nothing, in which case
// the launch falls back to the system's own lookup.
func findExecutable(name string) string {
	exts := []string{""}
	if filepath.Ext(name) == "" {
		exts = executableExtensions()
	}
	dirs := append([]string{"."}, filepath.SplitList(os.Getenv("PATH"))...)
	for _, dir := range dirs {
		for _, ext := range exts {
			candidate := filepath.Join(dir, name+ext)
			if fileExists(candidate) {
				return candidate
			}
		}
	}
	return ""
}

// stdioHandle resolves one stream's routing to an open file, recording
// child-owned files for cleanup after launch.
type winChildFiles struct {
	files   [3]*os.File
	closers []*os.File
}

func (c *winChildFiles) set(slot int, f *os.File, ownIt bool) {
	c.files[slot] = f
	if ownIt {
		c.closers = append(c.closers, f)
	}
}

func (c *winChildFiles) closeAll() {
	for _, f := range c.closers {
		f.Close()
	}
}

// spawn is the Windows backend of Spawn. Stdio handles are made
// inheritable only for the duration of the CreateProcess call, then
// flipped back, so concurrent spawns never leak each other's pipe ends.
func spawn(opts SpawnOptions) (*Handle, error) {
	prog := opts.program()
	var appName *uint16
	if opts.Program != "" {
		p, err := windows.UTF16PtrFromString(opts.Program)
		if err != nil {
			return nil, &LaunchError{Program: prog, Err: err}
		}
		appName = p
	} else if !opts.DisablePathLookup && !strings.ContainsAny(prog, `\/`) {
		if found := findExecutable(prog); found != "" {
			p, err := windows.UTF16PtrFromString(found)
			if err != nil {
				return nil, &LaunchError{Program: prog, Err: err}
			}
			appName = p
		}
		// Not found here: leave appName nil and let CreateProcess run
		// its own search before reporting failure.
	} else {
		p, err := windows.UTF16PtrFromString(prog)
		if err != nil {
			return nil, &LaunchError{Program: prog, Err: err}
		}
		appName = p
	}

	h := &Handle{opts: opts}
	var cf winChildFiles
	fail := func(err error) (*Handle, error) {
		cf.closeAll()
		h.closePipes()
		return nil, err
	}

	// Stdin.
	switch in := opts.effectiveStdin(); in.Mode {
	case StdioInherit:
		cf.set(0, os.Stdin, false)
	case StdioPipe:
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
			return fail(&LaunchError{Program: prog, Err: err})
		}
		cf.set(0, f, true)
	}

	// Stdout.
	switch out := opts.effectiveStdout(); out.Mode {
	case StdioInherit:
		cf.set(1, os.Stdout, false)
	case StdioPipe:
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
			return fail(&LaunchError{Program: prog, Err: err})
		}
		cf.set(1, f, true)
	}

	// Stderr.
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
			return fail(&LaunchError{Program: prog, Err: err})
		}
		cf.set(2, f, true)
	}

	cmdLine, err := windows.UTF16PtrFromString(JoinArgs(opts.argv()))
	if err != nil {
		return fail(&LaunchError{Program: prog, Err: err})
	}
	var dir *uint16
	if opts.Dir != "" {
		dir, err = windows.UTF16PtrFromString(opts.Dir)
		if err != nil {
			return fail(&LaunchError{Program: prog, Err: err})
		}
	}

	si := &windows.StartupInfo{
		Cb:        uint32(unsafe.Sizeof(windows.StartupInfo{})),
		Flags:     windows.STARTF_USESTDHANDLES,
		StdInput:  windows.Handle(cf.files[0].Fd()),
		StdOutput: windows.Handle(cf.files[1].Fd()),
		StdErr:    windows.Handle(cf.files[2].Fd()),
	}

	inheritable := []windows.Handle{si.StdInput, si.StdOutput, si.StdErr}
	for _, hd := range inheritable {
		if err := windows.SetHandleInformation(hd, windows.HANDLE_FLAG_INHERIT, windows.HANDLE_FLAG_INHERIT); err != nil {
			return fail(&LaunchError{Program: prog, Err: os.NewSyscallError("SetHandleInformation", err)})
		}
	}

	flags := uint32(windows.CREATE_UNICODE_ENVIRONMENT)
	if opts.NewProcessGroup {
		flags |= windows.CREATE_NEW_PROCESS_GROUP
	}

	env, err := envBlock(opts)
	if err != nil {
		return fail(&LaunchError{Program: prog, Err: err})
	}

	var pi windows.ProcessInformation
	createErr := windows.CreateProcess(appName, cmdLine, nil, nil, true, flags, env, dir, si, &pi)

	for _, hd := range inheritable {
		windows.SetHandleInformation(hd, windows.HANDLE_FLAG_INHERIT, 0)
	}
	cf.closeAll()

	if createErr != nil {
		if createErr == windows.ERROR_FILE_NOT_FOUND || createErr == windows.ERROR_PATH_NOT_FOUND {
			createErr = os.ErrNotExist
		}
		h.closePipes()
		return nil, &LaunchError{Program: prog, Err: createErr}
	}

	windows.CloseHandle(pi.Thread)
	h.sys.proc = pi.Process
	h.sys.pid = pi.ProcessId
	return h, nil
}

// isInterrupt reports whether a signal maps to a console control event
// that Windows can deliver.
func isInterrupt(sig os.Signal) bool {
	return sig == os.Interrupt || sig == syscall.SIGINT
}

// envBlock renders the child's environment as the UTF-16 double-null
// terminated block CreateProcess expects, or nil to inherit the parent's
// environment.
func envBlock(opts SpawnOptions) (*uint16, error) {
	env := opts.environ()
	if env == nil {
		return nil, nil
	}

	var block []uint16
	for _, entry := range env {
		encoded, err := windows.UTF16FromString(entry)
		if err != nil {
			return nil, err
		}
		block = append(block, encoded...)
	}
	if len(block) == 0 {
		block = append(block, 0)
	}
	block = append(block, 0)
	return &block[0], nil
}
