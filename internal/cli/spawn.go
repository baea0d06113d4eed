package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/victoralfred/gospawn/process"
	"github.com/victoralfred/gospawn/sigstate"
)

const spawnPoll = 50 * time.Millisecond

func newSpawnCmd(ctx *context) *cobra.Command {
	var (
		workingDir      string
		usePty          bool
		newProcessGroup bool
		detach          bool
		noPathLookup    bool
		envPairs        []string
	)

	cmd := &cobra.Command{
		Use:   "spawn [flags] -- program [args...]",
		Short: "Spawn a child directly, forwarding signals until it exits",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseEnvPairs(envPairs)
			if err != nil {
				return err
			}

			opts := process.SpawnOptions{
				Command:           args,
				Dir:               workingDir,
				Env:               env,
				DisablePathLookup: noPathLookup,
				NewProcessGroup:   newProcessGroup,
				Pty:               usePty,
			}
			if usePty {
				opts.Stdin = process.Pipe()
				opts.Stdout = process.Pipe()
			} else {
				opts.Stdin = process.Inherit()
			}

			h, err := process.Spawn(opts)
			if err != nil {
				return err
			}

			if detach {
				fmt.Fprintln(cmd.OutOrStdout(), h.Pid())
				h.Detach()
				return nil
			}

			if usePty {
				go func() {
					io.Copy(h.Stdin(), os.Stdin)
					h.CloseStdin()
				}()
			}

			status, err := superviseHandle(h)
			if err != nil {
				return err
			}
			return exitErrorFor(status)
		},
	}

	cmd.Flags().StringVarP(&workingDir, "dir", "d", "", "Working directory for the child")
	cmd.Flags().BoolVar(&usePty, "pty", false, "Run the child on a pseudo-terminal")
	cmd.Flags().BoolVar(&newProcessGroup, "new-process-group", false, "Place the child in its own process group")
	cmd.Flags().BoolVar(&detach, "detach", false, "Print the child's pid and leave it running")
	cmd.Flags().BoolVar(&noPathLookup, "no-path-lookup", false, "Do not search PATH for the program")
	cmd.Flags().StringArrayVarP(&envPairs, "env", "e", nil, "Extra environment variables (KEY=VALUE)")

	return cmd
}

// superviseHandle drains the child's output, relays signals delivered to
// this process, and joins the child. All handle mutation stays on this
// goroutine.
func superviseHandle(h *process.Handle) (process.ExitStatus, error) {
	restore := sigstate.Notify()
	defer restore()

	var out process.Output
	for {
		if sigstate.Pending() {
			sig := sigstate.Last()
			sigstate.Reset()
			if err := h.Signal(sig); err != nil {
				fmt.Fprintf(os.Stderr, "gospawn: %v\n", err)
			}
		}

		if h.HasStdout() || h.HasStderr() {
			if err := h.ReadOutputInto(&out, spawnPoll); err != nil && !sigstate.IsInterrupted(err) {
				return process.ExitStatus{}, err
			}
			flushOutput(&out)
		} else {
			time.Sleep(spawnPoll)
		}

		status, done, err := h.TryJoin()
		if err != nil {
			if sigstate.IsInterrupted(err) {
				continue
			}
			return process.ExitStatus{}, err
		}
		if done {
			// Drain whatever arrived between the last read and exit.
			for h.HasStdout() || h.HasStderr() {
				if err := h.ReadOutputInto(&out, 0); err != nil {
					break
				}
				if len(out.Stdout) == 0 && len(out.Stderr) == 0 {
					break
				}
				flushOutput(&out)
			}
			flushOutput(&out)
			return status, nil
		}
	}
}

func flushOutput(out *process.Output) {
	if len(out.Stdout) > 0 {
		os.Stdout.Write(out.Stdout)
		out.Stdout = out.Stdout[:0]
	}
	if len(out.Stderr) > 0 {
		os.Stderr.Write(out.Stderr)
		out.Stderr = out.Stderr[:0]
	}
}
