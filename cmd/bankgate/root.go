package main

import (
	"fmt"

	"bankgate/internal/config"
	"bankgate/internal/observability/logging"

	"github.com/spf13/cobra"
)

// rootOptions are flags shared by every subcommand
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "bankgate",
		Short: "Authentication and authorization gateway for the bank API",
		Long: `bankgate authenticates clients with a username and password checked against
a relational credential store, keeps the resulting identity in a server-side
session and enforces a per-route role policy before requests reach the bank
endpoints.

Settings come from the environment (BANKGATE_*), an optional config file and
built-in defaults, in that order.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to configuration file")

	cmd.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newHashCmd(),
		newUsersCmd(opts),
	)

	return cmd
}

// load reads the configuration and builds the process logger
func (o *rootOptions) load() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return cfg, logger, nil
}
