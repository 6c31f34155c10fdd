package main

import (
	"context"
	"fmt"

	"bankgate/internal/auth"
	"bankgate/internal/auth/password"
	"bankgate/internal/config"
	"bankgate/internal/db/bunx"
	"bankgate/internal/observability/logging"
	"bankgate/internal/repository"

	"github.com/spf13/cobra"
)

// usersEnv is what every users subcommand works with
type usersEnv struct {
	cfg    *config.Config
	logger *logging.Logger
	repo   *repository.BunCredentialRepository
}

// withRepository loads configuration, opens the credential store and runs fn
func (o *rootOptions) withRepository(ctx context.Context, fn func(env *usersEnv) error) error {
	cfg, logger, err := o.load()
	if err != nil {
		return err
	}

	db, err := bunx.NewDB(ctx, cfg.Database.URL, bunx.Options{MaxConnections: cfg.Database.MaxConnections})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer bunx.Close(db)

	return fn(&usersEnv{
		cfg:    cfg,
		logger: logger,
		repo:   repository.NewBunCredentialRepository(db),
	})
}

// hash hashes plaintext at the configured cost
func (e *usersEnv) hash(plaintext string) (string, error) {
	hasher, err := password.NewBcrypt(e.cfg.Password.BcryptCost)
	if err != nil {
		return "", err
	}
	return hasher.Hash(plaintext)
}

// parseRoles accepts role names with or without the ROLE_ prefix
func parseRoles(names []string) []auth.Role {
	roles := make([]auth.Role, 0, len(names))
	for _, name := range names {
		if role := auth.ParseAuthority(name); role != "" {
			roles = append(roles, role)
		}
	}
	return roles
}

func newUsersCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage principals in the credential store",
	}

	cmd.AddCommand(
		newUsersAddCmd(opts),
		newUsersGrantCmd(opts),
		newUsersSetEnabledCmd(opts, "enable", true),
		newUsersSetEnabledCmd(opts, "disable", false),
		newUsersPasswdCmd(opts),
	)
	return cmd
}

func newUsersAddCmd(opts *rootOptions) *cobra.Command {
	var (
		roles    []string
		disabled bool
	)

	cmd := &cobra.Command{
		Use:   "add USERNAME [password]",
		Short: "Create a principal",
		Long: `Creates a principal with a bcrypt-hashed password and the given roles.
Roles are given with or without the ROLE_ prefix, e.g. --role USER --role MANAGER.
The password is read from stdin when not passed as an argument.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := args[0]
			if username == "" {
				return fmt.Errorf("username must not be empty")
			}

			plaintext, err := passwordFrom(args[1:], cmd.InOrStdin())
			if err != nil {
				return err
			}

			return opts.withRepository(cmd.Context(), func(env *usersEnv) error {
				hash, err := env.hash(plaintext)
				if err != nil {
					return err
				}

				parsed := parseRoles(roles)
				if err := env.repo.Create(cmd.Context(), username, hash, !disabled, parsed...); err != nil {
					return err
				}

				env.logger.Info("Principal created",
					"username", username,
					"roles", auth.NewRoleSet(parsed...).Strings(),
					"enabled", !disabled,
				)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&roles, "role", nil, "role to grant (repeatable)")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "create the principal disabled")
	return cmd
}

func newUsersGrantCmd(opts *rootOptions) *cobra.Command {
	var roles []string

	cmd := &cobra.Command{
		Use:   "grant USERNAME --role ROLE",
		Short: "Grant roles to an existing principal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := parseRoles(roles)
			if len(parsed) == 0 {
				return fmt.Errorf("at least one --role is required")
			}

			return opts.withRepository(cmd.Context(), func(env *usersEnv) error {
				for _, role := range parsed {
					if err := env.repo.GrantAuthority(cmd.Context(), args[0], role); err != nil {
						return err
					}
				}
				env.logger.Info("Roles granted", "username", args[0], "roles", auth.NewRoleSet(parsed...).Strings())
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&roles, "role", nil, "role to grant (repeatable)")
	return cmd
}

func newUsersSetEnabledCmd(opts *rootOptions, use string, enabled bool) *cobra.Command {
	short := "Allow a principal to log in again"
	if !enabled {
		short = "Stop a principal from logging in"
	}

	return &cobra.Command{
		Use:   use + " USERNAME",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRepository(cmd.Context(), func(env *usersEnv) error {
				if err := env.repo.SetEnabled(cmd.Context(), args[0], enabled); err != nil {
					return err
				}
				env.logger.Info("Principal updated", "username", args[0], "enabled", enabled)
				return nil
			})
		},
	}
}

func newUsersPasswdCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd USERNAME [password]",
		Short: "Replace a principal's password",
		Long:  `Stores a new bcrypt hash for the principal. The password is read from stdin when not passed as an argument.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			plaintext, err := passwordFrom(args[1:], cmd.InOrStdin())
			if err != nil {
				return err
			}

			return opts.withRepository(cmd.Context(), func(env *usersEnv) error {
				hash, err := env.hash(plaintext)
				if err != nil {
					return err
				}
				if err := env.repo.SetPasswordHash(cmd.Context(), args[0], hash); err != nil {
					return err
				}
				env.logger.Info("Password replaced", "username", args[0])
				return nil
			})
		},
	}
}
