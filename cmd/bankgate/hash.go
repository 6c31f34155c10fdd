package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"bankgate/internal/auth/password"

	"github.com/spf13/cobra"
)

func newHashCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash [password]",
		Short: "Print a bcrypt hash for a password",
		Long: `Prints a salted bcrypt hash suitable for the users.password_hash column.
The password is read from the argument or, when absent, from the first line of stdin.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hasher, err := password.NewBcrypt(cost)
			if err != nil {
				return err
			}

			plaintext, err := passwordFrom(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			hash, err := hasher.Hash(plaintext)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().IntVar(&cost, "cost", password.DefaultCost, "bcrypt work factor")
	return cmd
}

// passwordFrom returns args[0] or the first line of r
func passwordFrom(args []string, r io.Reader) (string, error) {
	if len(args) > 0 {
		if args[0] == "" {
			return "", fmt.Errorf("password must not be empty")
		}
		return args[0], nil
	}

	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return "", fmt.Errorf("no password given")
	}

	plaintext := strings.TrimRight(scanner.Text(), "\r")
	if plaintext == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	return plaintext, nil
}
