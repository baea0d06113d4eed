// Package executor provides the high-level command execution layer built
// on top of the process package: captured output, deadlines, rate
// limiting, hooks and telemetry around a supervised subprocess run.
package executor

import (
	"fmt"
	"io"
	"time"

	"github.com/victoralfred/gospawn/process"
)

// Command represents a command to be executed.
// Commands are immutable once built.
type Command struct {
	// Program is the executable to run: a bare name resolved through
	// PATH, or a path used as given.
	Program string

	// Args are the command arguments (excluding the program name).
	Args []string

	// WorkingDir is the working directory for the command.
	WorkingDir string

	// Timeout is the maximum execution time.
	// If zero, the executor's default timeout is used.
	Timeout time.Duration

	// Env holds extra environment variables for the child, merged over
	// the parent's environment. Nil inherits the parent's environment.
	Env map[string]string

	// Stdin provides input to the command. If nil, the child reads
	// immediate EOF.
	Stdin io.Reader

	// Stdout routes the child's standard output. The zero value
	// captures it into the Result.
	Stdout process.Stdio

	// Stderr routes the child's standard error. The zero value
	// captures it into the Result.
	Stderr process.Stdio

	// DisablePathLookup turns off PATH resolution of Program.
	DisablePathLookup bool

	// NewProcessGroup makes the child the leader of a new process
	// group, detaching it from the parent's signal delivery.
	NewProcessGroup bool

	// Pty runs the child under a pseudo-terminal. Unix only.
	Pty bool

	// Metadata contains arbitrary key-value pairs for tracing/logging.
	Metadata map[string]string
}

// CommandBuilder provides a fluent API for constructing commands.
type CommandBuilder struct {
	cmd *Command
	err error
}

// NewCommand creates a new CommandBuilder with the specified program and arguments.
func NewCommand(program string, args ...string) *CommandBuilder {
	return &CommandBuilder{
		cmd: &Command{
			Program:  program,
			Args:     args,
			Metadata: make(map[string]string),
		},
	}
}

// WithWorkingDir sets the working directory.
func (b *CommandBuilder) WithWorkingDir(dir string) *CommandBuilder {
	if b.err != nil {
		return b
	}
	b.cmd.WorkingDir = dir
	return b
}

// WithTimeout sets the execution timeout.
func (b *CommandBuilder) WithTimeout(timeout time.Duration) *CommandBuilder {
	if b.err != nil {
		return b
	}
	if timeout <= 0 {
		b.err = fmt.Errorf("timeout must be positive")
		return b
	}
	b.cmd.Timeout = timeout
	return b
}

// WithEnv adds an environment variable for the child. Variables are
// merged over the parent's environment; later calls win on conflicts.
func (b *CommandBuilder) WithEnv(key, value string) *CommandBuilder {
	if b.err != nil {
		return b
	}
	if key == "" {
		b.err = fmt.Errorf("environment variable name must not be empty")
		return b
	}
	if b.cmd.Env == nil {
		b.cmd.Env = make(map[string]string)
	}
	b.cmd.Env[key] = value
	return b
}

// WithStdin sets the standard input reader.
func (b *CommandBuilder) WithStdin(stdin io.Reader) *CommandBuilder {
	if b.err != nil {
		return b
	}
	b.cmd.Stdin = stdin
	return b
}

// WithStdout sets the stdout routing, overriding the default capture.
func (b *CommandBuilder) WithStdout(route process.Stdio) *CommandBuilder {
	if b.err != nil {
		return b
	}
	b.cmd.Stdout = route
	return b
}

// WithStderr sets the stderr routing, overriding the default capture.
func (b *CommandBuilder) WithStderr(route process.Stdio) *CommandBuilder {
	if b.err != nil {
		return b
	}
	b.cmd.Stderr = route
	return b
}

// WithMergedOutput routes stderr into stdout, so the Result carries one
// interleaved stream.
func (b *CommandBuilder) WithMergedOutput() *CommandBuilder {
	return b.WithStderr(process.MergeStdout())
}

// WithPathLookupDisabled turns off PATH resolution.
func (b *CommandBuilder) WithPathLookupDisabled() *CommandBuilder {
	if b.err != nil {
		return b
	}
	b.cmd.DisablePathLookup = true
	return b
}

// WithNewProcessGroup puts the child in its own process group.
func (b *CommandBuilder) WithNewProcessGroup() *CommandBuilder {
	if b.err != nil {
		return b
	}
	b.cmd.NewProcessGroup = true
	return b
}

// WithPty runs the child under a pseudo-terminal.
func (b *CommandBuilder) WithPty() *CommandBuilder {
	if b.err != nil {
		return b
	}
	b.cmd.Pty = true
	return b
}

// WithMetadata adds metadata for tracing/logging.
func (b *CommandBuilder) WithMetadata(key, value string) *CommandBuilder {
	if b.err != nil {
		return b
	}
	b.cmd.Metadata[key] = value
	return b
}

// Build validates and returns the command.
func (b *CommandBuilder) Build() (*Command, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.cmd.Program == "" {
		return nil, fmt.Errorf("%w: program is required", ErrInvalidCommand)
	}
	opts := b.cmd.spawnOptions()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	return b.cmd, nil
}

// MustBuild validates and returns the command, panicking on error.
func (b *CommandBuilder) MustBuild() *Command {
	cmd, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cmd
}

// Clone creates a deep copy of the command.
func (c *Command) Clone() *Command {
	clone := *c
	clone.Args = make([]string, len(c.Args))
	copy(clone.Args, c.Args)
	clone.Metadata = make(map[string]string, len(c.Metadata))
	for k, v := range c.Metadata {
		clone.Metadata[k] = v
	}
	if c.Env != nil {
		clone.Env = make(map[string]string, len(c.Env))
		for k, v := range c.Env {
			clone.Env[k] = v
		}
	}
	return &clone
}

// String returns the command rendered as a single quoted command line.
func (c *Command) String() string {
	return process.JoinArgs(append([]string{c.Program}, c.Args...))
}

// spawnOptions translates the command to low-level spawn options.
// Unrouted output streams become pipes so the executor can capture them;
// stdin becomes a pipe only when a reader was supplied.
func (c *Command) spawnOptions() process.SpawnOptions {
	opts := process.SpawnOptions{
		Command:           append([]string{c.Program}, c.Args...),
		Dir:               c.WorkingDir,
		Env:               c.Env,
		Stdout:            c.Stdout,
		Stderr:            c.Stderr,
		DisablePathLookup: c.DisablePathLookup,
		NewProcessGroup:   c.NewProcessGroup,
		Pty:               c.Pty,
	}
	if opts.Stdout.Mode == process.StdioDefault {
		opts.Stdout = process.Pipe()
	}
	if opts.Stderr.Mode == process.StdioDefault {
		opts.Stderr = process.Pipe()
	}
	if c.Stdin != nil {
		opts.Stdin = process.Pipe()
	}
	return opts
}
