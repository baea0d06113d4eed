// Package process implements cross-platform subprocess spawning and
// lifecycle management: configurable standard-stream routing, synchronous
// launch-failure detection, signal delivery, and timeout-bounded
// multiplexed output reads.
//
// The package presents one contract over two structurally different OS
// process models. On POSIX systems a spawn acknowledgment channel (a
// close-on-exec error-relay pipe, carried by the runtime's fork/exec path)
// reports launch failures synchronously from Spawn; on Windows the failure
// is observed directly from the process-creation call. Everything else --
// joining, detaching, signal delivery, multiplexed reads -- goes through
// the same Handle API on both platforms.
package process

import (
	"fmt"

	"github.com/victoralfred/gospawn/internal/envutil"
)

// StdioMode selects where one of a child's standard streams connects.
type StdioMode int

const (
	// StdioDefault resolves to StdioDiscard for stdin and StdioInherit
	// for stdout and stderr.
	StdioDefault StdioMode = iota

	// StdioInherit shares the parent's corresponding stream unmodified.
	StdioInherit

	// StdioPipe creates a fresh pipe; the parent keeps one end and the
	// child's standard handle is the other.
	StdioPipe

	// StdioDiscard connects the stream to the platform's null device.
	// For stdin the child immediately reads EOF.
	StdioDiscard

	// StdioFile connects the stream to a file at Stdio.Path. Output
	// streams get a created-or-truncated file; stdin opens it read-only.
	StdioFile

	// StdioMergeStdout duplicates the child's stderr onto whatever its
	// stdout resolved to. Only valid for stderr.
	StdioMergeStdout
)

// String returns the routing mode name.
func (m StdioMode) String() string {
	switch m {
	case StdioDefault:
		return "default"
	case StdioInherit:
		return "inherit"
	case StdioPipe:
		return "pipe"
	case StdioDiscard:
		return "discard"
	case StdioFile:
		return "file"
	case StdioMergeStdout:
		return "merge-stdout"
	default:
		return "unknown"
	}
}

// Stdio is the routing configuration for one standard stream.
// The zero value is StdioDefault.
type Stdio struct {
	// Mode selects the routing variant.
	Mode StdioMode

	// Path is the file path used when Mode is StdioFile.
	Path string
}

// Routing constructors, mirroring the names used in SpawnOptions docs.

// Inherit routes the stream to the parent's corresponding stream.
func Inherit() Stdio { return Stdio{Mode: StdioInherit} }

// Pipe routes the stream through a fresh pipe held by the parent.
func Pipe() Stdio { return Stdio{Mode: StdioPipe} }

// Discard routes the stream to the platform's null device.
func Discard() Stdio { return Stdio{Mode: StdioDiscard} }

// File routes the stream to the file at path.
func File(path string) Stdio { return Stdio{Mode: StdioFile, Path: path} }

// MergeStdout duplicates stderr onto the child's resolved stdout.
func MergeStdout() Stdio { return Stdio{Mode: StdioMergeStdout} }

// SpawnOptions describes how to launch a subprocess. The zero value is not
// usable on its own: Command must be non-empty unless Program is set.
type SpawnOptions struct {
	// Command is the argument vector passed to the child, including the
	// program name as element zero. If Program is empty, Command[0] also
	// names the executable to run.
	Command []string

	// Program, if non-empty, overrides Command[0] as the executable to
	// run. It is used verbatim, without PATH lookup.
	Program string

	// Dir is the working directory of the child. Empty means the child
	// inherits the parent's working directory.
	Dir string

	// Env holds extra environment variables for the child, merged over
	// the parent's environment. Nil means the child inherits the parent's
	// environment unchanged.
	Env map[string]string

	// Stdin routes the child's standard input. Default: discard (the
	// child immediately reads EOF). StdioMergeStdout is invalid here.
	Stdin Stdio

	// Stdout routes the child's standard output. Default: inherit.
	// StdioMergeStdout is invalid here.
	Stdout Stdio

	// Stderr routes the child's standard error. Default: inherit.
	Stderr Stdio

	// DisablePathLookup turns off executable resolution through the PATH
	// (and, on Windows, PATHEXT) environment variables. When set, the
	// program must be an absolute path or a path relative to Dir.
	DisablePathLookup bool

	// NewProcessGroup makes the child the leader of a new process group.
	// The child then no longer shares signal delivery with the parent's
	// group; forwarding termination signals is up to the caller.
	NewProcessGroup bool

	// Pty runs the child under a freshly allocated pseudo-terminal
	// instead of anonymous pipes for its StdioPipe-routed stdin and
	// stdout. The pty master becomes the parent's stdout reader and
	// stdin writer. Unix only; Spawn fails with ErrInvalidOptions on
	// Windows.
	Pty bool
}

// Validate checks the options without touching any OS resource.
// It returns an error wrapping ErrInvalidOptions on failure.
func (o *SpawnOptions) Validate() error {
	if len(o.Command) == 0 && o.Program == "" {
		return fmt.Errorf("%w: command is empty and no program was given", ErrInvalidOptions)
	}
	if o.Stdin.Mode == StdioMergeStdout {
		return fmt.Errorf("%w: stdin cannot merge into stdout", ErrInvalidOptions)
	}
	if o.Stdout.Mode == StdioMergeStdout {
		return fmt.Errorf("%w: stdout cannot merge into itself", ErrInvalidOptions)
	}
	if o.Stdin.Mode == StdioFile && o.Stdin.Path == "" {
		return fmt.Errorf("%w: stdin file routing requires a path", ErrInvalidOptions)
	}
	if o.Stdout.Mode == StdioFile && o.Stdout.Path == "" {
		return fmt.Errorf("%w: stdout file routing requires a path", ErrInvalidOptions)
	}
	if o.Stderr.Mode == StdioFile && o.Stderr.Path == "" {
		return fmt.Errorf("%w: stderr file routing requires a path", ErrInvalidOptions)
	}
	if o.Pty && !ptySupported {
		return fmt.Errorf("%w: pty spawning is not supported on this platform", ErrInvalidOptions)
	}
	return nil
}

// program returns the executable name or path to run, before any lookup.
func (o *SpawnOptions) program() string {
	if o.Program != "" {
		return o.Program
	}
	return o.Command[0]
}

// argv returns the child's argument vector, never empty.
func (o *SpawnOptions) argv() []string {
	if len(o.Command) == 0 {
		return []string{o.Program}
	}
	return o.Command
}

// environ resolves the environment the child starts with: nil to inherit
// the parent's, otherwise the parent's environment with Env merged over it.
func (o *SpawnOptions) environ() []string {
	if o.Env == nil {
		return nil
	}
	return envutil.Format(envutil.Merge(envutil.Parent(), o.Env))
}

// effectiveStdin resolves StdioDefault for the stdin stream.
func (o *SpawnOptions) effectiveStdin() Stdio {
	if o.Stdin.Mode == StdioDefault {
		return Discard()
	}
	return o.Stdin
}

// effectiveStdout resolves StdioDefault for the stdout stream.
func (o *SpawnOptions) effectiveStdout() Stdio {
	if o.Stdout.Mode == StdioDefault {
		return Inherit()
	}
	return o.Stdout
}

// effectiveStderr resolves StdioDefault for the stderr stream.
func (o *SpawnOptions) effectiveStderr() Stdio {
	if o.Stderr.Mode == StdioDefault {
		return Inherit()
	}
	return o.Stderr
}
