package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/masahif/webingest/internal/api"
	"github.com/masahif/webingest/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and drain the queue on a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.newApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			noSchedule, _ := cmd.Flags().GetBool("no-schedule")
			if !noSchedule {
				// a drain never outlives the lease that protects its pages
				sched := scheduler.New(a.ingester, a.cfg.LeaseTimeout)
				if err := sched.Start(a.cfg.Schedule); err != nil {
					return fmt.Errorf("invalid schedule %q: %w", a.cfg.Schedule, err)
				}
				defer sched.Stop()
			}

			server := api.New(a.cfg.ListenAddr, a.ingester)
			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			slog.Info("Shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().String("listen", ":8080", "HTTP API listen address")
	cmd.Flags().String("schedule", "* * * * *", "Cron expression for queue drains")
	cmd.Flags().Bool("no-schedule", false, "Serve the API without draining the queue")
	_ = opts.v.BindPFlag("listen_addr", cmd.Flags().Lookup("listen"))
	_ = opts.v.BindPFlag("schedule", cmd.Flags().Lookup("schedule"))
	return cmd
}
