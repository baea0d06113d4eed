package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/victoralfred/gospawn/config"
	"github.com/victoralfred/gospawn/executor"
	"github.com/victoralfred/gospawn/observability"
	"github.com/victoralfred/gospawn/process"
	"github.com/victoralfred/gospawn/resilience"
)

func newRunCmd(ctx *context) *cobra.Command {
	var (
		workingDir  string
		timeout     time.Duration
		stdinPath   string
		stdoutPath  string
		stderrPath  string
		mergeStderr bool
		envPairs    []string
	)

	cmd := &cobra.Command{
		Use:   "run [flags] -- program [args...]",
		Short: "Run a command under supervision and wait for it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			env, err := parseEnvPairs(envPairs)
			if err != nil {
				return err
			}

			builder := executor.NewCommand(args[0], args[1:]...).
				WithStdout(process.Inherit()).
				WithStderr(process.Inherit())
			if workingDir != "" {
				builder = builder.WithWorkingDir(workingDir)
			}
			if timeout > 0 {
				builder = builder.WithTimeout(timeout)
			}
			for k, v := range env {
				builder = builder.WithEnv(k, v)
			}
			if stdinPath != "" {
				f, err := os.Open(stdinPath)
				if err != nil {
					return err
				}
				defer f.Close()
				builder = builder.WithStdin(f)
			}
			if stdoutPath != "" {
				builder = builder.WithStdout(process.File(stdoutPath))
			}
			if mergeStderr {
				builder = builder.WithMergedOutput()
			} else if stderrPath != "" {
				builder = builder.WithStderr(process.File(stderrPath))
			}

			command, err := builder.Build()
			if err != nil {
				return err
			}

			exec, err := buildExecutor(cfg)
			if err != nil {
				return err
			}
			defer exec.Shutdown(cmd.Context())

			result, err := exec.Execute(cmd.Context(), command)
			if err != nil {
				if errors.Is(err, executor.ErrTimeout) {
					fmt.Fprintf(cmd.ErrOrStderr(), "gospawn: timed out after %s\n", result.Duration.Round(time.Millisecond))
					return &ExitError{Code: 124}
				}
				return err
			}

			return exitErrorFor(result.Exit)
		},
	}

	cmd.Flags().StringVarP(&workingDir, "dir", "d", "", "Working directory for the child")
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "Kill the child after this duration")
	cmd.Flags().StringVar(&stdinPath, "stdin", "", "Feed the child's stdin from a file")
	cmd.Flags().StringVar(&stdoutPath, "stdout", "", "Redirect the child's stdout to a file")
	cmd.Flags().StringVar(&stderrPath, "stderr", "", "Redirect the child's stderr to a file")
	cmd.Flags().BoolVar(&mergeStderr, "merge-stderr", false, "Merge the child's stderr into its stdout")
	cmd.Flags().StringArrayVarP(&envPairs, "env", "e", nil, "Extra environment variables (KEY=VALUE)")

	return cmd
}

// buildExecutor wires an executor from the effective configuration, the
// same way the library facade does.
func buildExecutor(cfg *config.Config) (executor.Executor, error) {
	b := executor.NewBuilder().
		WithDefaultTimeout(cfg.Executor.DefaultTimeout.Duration)

	if cfg.Executor.RateLimit {
		b = b.WithRateLimiter(resilience.NewRateLimiter(cfg.RateLimiter))
	}
	if cfg.Executor.EnableAudit {
		logger, err := observability.NewFileAuditLogger(cfg.Audit)
		if err != nil {
			return nil, err
		}
		b = b.WithAuditor(observability.NewExecutionAuditor(logger))
	}

	return b.Build()
}

// exitErrorFor maps a child's exit status onto the CLI's own exit code,
// following the shell convention of 128+signal for signal deaths.
func exitErrorFor(status process.ExitStatus) error {
	if status.Successful() {
		return nil
	}
	if status.Signal != 0 {
		return &ExitError{Code: 128 + int(status.Signal)}
	}
	return &ExitError{Code: status.Code}
}

func parseEnvPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid environment pair %q, want KEY=VALUE", pair)
		}
		env[key] = value
	}
	return env, nil
}
