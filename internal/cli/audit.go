package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/victoralfred/gospawn/observability"
)

func newAuditCmd(ctx *context) *cobra.Command {
	var (
		program string
		event   string
		status  string
		since   time.Duration
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			if !cfg.Audit.Enabled {
				return fmt.Errorf("audit logging is not enabled in the configuration")
			}

			logger, err := observability.NewFileAuditLogger(cfg.Audit)
			if err != nil {
				return err
			}
			defer logger.Close()

			filter := &observability.AuditFilter{
				Program: program,
				Type:    observability.AuditEventType(event),
				Status:  status,
				Limit:   limit,
			}
			if since > 0 {
				filter.StartTime = time.Now().Add(-since)
			}

			events, err := logger.Query(cmd.Context(), filter)
			if err != nil {
				return err
			}

			for _, e := range events {
				line := fmt.Sprintf("%s  %-5s  %s", e.Timestamp.Format(time.RFC3339), e.Type, e.Program)
				switch e.Type {
				case observability.AuditEventExit:
					line += fmt.Sprintf("  status=%s exit=%d duration=%s", e.Status, e.ExitCode, e.Duration.Round(time.Millisecond))
				case observability.AuditEventSpawn:
					line += fmt.Sprintf("  pid=%d", e.Pid)
				}
				if e.Error != "" {
					line += "  error=" + e.Error
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&program, "program", "", "Filter by program")
	cmd.Flags().StringVar(&event, "type", "", "Filter by event type (spawn, exit, rate_limited, error)")
	cmd.Flags().StringVar(&status, "status", "", "Filter by execution status")
	cmd.Flags().DurationVar(&since, "since", 0, "Only show events newer than this age")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of events to show")

	return cmd
}
