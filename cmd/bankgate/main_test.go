package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"bankgate/internal/auth"
	"bankgate/internal/auth/password"
	"bankgate/internal/db/bunx"
	"bankgate/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestHashCommand(t *testing.T) {
	out, err := run(t, "", "hash", "--cost", "4", "gupta")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, (&password.Bcrypt{}).Verify("gupta", hash))
}

func TestHashCommand_Stdin(t *testing.T) {
	out, err := run(t, "kumar\n", "hash", "--cost", "4")
	require.NoError(t, err)
	assert.True(t, (&password.Bcrypt{}).Verify("kumar", strings.TrimSpace(out)))
}

func TestHashCommand_RejectsBadInput(t *testing.T) {
	_, err := run(t, "", "hash", "--cost", "4")
	assert.Error(t, err)

	_, err = run(t, "", "hash", "--cost", "99", "x")
	assert.Error(t, err)
}

func TestMigrateThenAddUser(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "bank.db")
	t.Setenv("BANKGATE_DATABASE_URL", dsn)
	t.Setenv("BANKGATE_BCRYPT_COST", "4")
	t.Setenv("BANKGATE_LOG_LEVEL", "error")

	_, err := run(t, "", "migrate")
	require.NoError(t, err)

	_, err = run(t, "s3cret\n", "users", "add", "akash", "--role", "MANAGER", "--role", "ROLE_USER")
	require.NoError(t, err)

	ctx := context.Background()
	db, err := bunx.NewDB(ctx, dsn, bunx.Options{})
	require.NoError(t, err)
	defer bunx.Close(db)

	p, err := repository.NewBunCredentialRepository(db).Lookup(ctx, "akash")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Enabled)
	assert.Equal(t, []string{"MANAGER", "USER"}, p.Roles.Strings())
	assert.True(t, (&password.Bcrypt{}).Verify("s3cret", p.PasswordHash))

	_, err = run(t, "", "migrate", "rollback")
	require.NoError(t, err)
}

func migratedStore(t *testing.T) string {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "bank.db")
	t.Setenv("BANKGATE_DATABASE_URL", dsn)
	t.Setenv("BANKGATE_BCRYPT_COST", "4")
	t.Setenv("BANKGATE_LOG_LEVEL", "error")

	_, err := run(t, "", "migrate")
	require.NoError(t, err)
	return dsn
}

func lookup(t *testing.T, dsn, username string) *auth.Principal {
	t.Helper()
	ctx := context.Background()
	db, err := bunx.NewDB(ctx, dsn, bunx.Options{})
	require.NoError(t, err)
	defer bunx.Close(db)

	p, err := repository.NewBunCredentialRepository(db).Lookup(ctx, username)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func TestUsersCommands(t *testing.T) {
	dsn := migratedStore(t)

	_, err := run(t, "", "users", "add", "som", "gupta", "--role", "USER")
	require.NoError(t, err)

	t.Run("grant", func(t *testing.T) {
		_, err := run(t, "", "users", "grant", "som", "--role", "ROLE_MANAGER")
		require.NoError(t, err)
		assert.Equal(t, []string{"MANAGER", "USER"}, lookup(t, dsn, "som").Roles.Strings())

		_, err = run(t, "", "users", "grant", "som")
		assert.Error(t, err, "a role is required")
	})

	t.Run("disable and enable", func(t *testing.T) {
		_, err := run(t, "", "users", "disable", "som")
		require.NoError(t, err)
		assert.False(t, lookup(t, dsn, "som").Enabled)

		_, err = run(t, "", "users", "enable", "som")
		require.NoError(t, err)
		assert.True(t, lookup(t, dsn, "som").Enabled)
	})

	t.Run("passwd", func(t *testing.T) {
		_, err := run(t, "hyd\n", "users", "passwd", "som")
		require.NoError(t, err)

		p := lookup(t, dsn, "som")
		assert.True(t, (&password.Bcrypt{}).Verify("hyd", p.PasswordHash))
		assert.False(t, (&password.Bcrypt{}).Verify("gupta", p.PasswordHash))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := run(t, "", "users", "disable", "nobody")
		assert.Error(t, err)

		_, err = run(t, "", "users", "passwd", "nobody", "x")
		assert.Error(t, err)
	})
}
