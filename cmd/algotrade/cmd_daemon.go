package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func runDaemon(cmd *cobra.Command, _ []string) error {
	if err := requireSession(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := application.Portfolios.Load(ctx); err != nil {
		application.Log.Warn().Err(err).Msg("Initial portfolio load failed")
	}

	application.Scheduler.Start()
	application.Log.Info().Msg("Daemon started")

	<-ctx.Done()

	application.Scheduler.Stop()
	application.Log.Info().Msg("Daemon stopped")
	return nil
}
