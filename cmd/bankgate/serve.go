package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bankgate/internal/observability/logging"
	"bankgate/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway",
		Long:  `Starts the gateway and the metrics server and blocks until SIGINT or SIGTERM.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := server.NewFromConfig(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			var runErr error
			select {
			case <-ctx.Done():
				logger.Info("Shutting down gracefully")
			case runErr = <-errCh:
				if runErr != nil {
					logger.Error("Server error", logging.Err(runErr))
				}
			}

			if err := srv.Stop(context.Background()); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}

			logger.Info("Server stopped")
			return runErr
		},
	}
}
