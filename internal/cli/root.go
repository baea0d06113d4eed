// Package cli implements the gospawn command line interface.
package cli

import (
	stdcontext "context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/victoralfred/gospawn/config"
)

// ExitError carries the exit code the CLI process should terminate with,
// typically propagated from a child process.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	var configPath string

	root := &cobra.Command{
		Use:   "gospawn",
		Short: "Spawn and supervise subprocesses",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	ctx := &context{configPath: &configPath}
	root.AddCommand(newRunCmd(ctx))
	root.AddCommand(newSpawnCmd(ctx))
	root.AddCommand(newAuditCmd(ctx))
	root.AddCommand(newConfigCmd(ctx))

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint.
func Execute() {
	root := NewRootCmd()
	root.SetContext(stdcontext.Background())

	if err := root.ExecuteContext(stdcontext.Background()); err != nil {
		var exit *ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type context struct {
	configPath *string
}

// loadConfig returns the effective configuration: the configured file when
// set, the defaults otherwise.
func (c *context) loadConfig(ctx stdcontext.Context) (*config.Config, error) {
	if *c.configPath == "" {
		cfg := config.DefaultConfig()
		return &cfg, nil
	}

	loader, err := config.NewLoader(filepath.Dir(*c.configPath), filepath.Base(*c.configPath))
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx)
}
