package repository

import (
	"context"
	"errors"
	"testing"

	"bankgate/internal/auth"
	"bankgate/internal/db/bunx"
	"bankgate/internal/db/models"
	"bankgate/internal/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	ctx := context.Background()
	db, err := bunx.NewDB(ctx, ":memory:", bunx.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunx.Close(db) })

	_, err = migrations.Apply(ctx, db)
	require.NoError(t, err)
	return db
}

func TestBunCredentialRepository_Lookup(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunCredentialRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "akash", "$2a$10$hash", true, auth.RoleManager, auth.RoleUser))

	t.Run("found with stripped roles", func(t *testing.T) {
		p, err := repo.Lookup(ctx, "akash")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "akash", p.Username)
		assert.True(t, p.Enabled)
		assert.Equal(t, "$2a$10$hash", p.PasswordHash)
		assert.Equal(t, []string{"MANAGER", "USER"}, p.Roles.Strings())
	})

	t.Run("not found is not an error", func(t *testing.T) {
		p, err := repo.Lookup(ctx, "nobody")
		assert.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("usernames are exact", func(t *testing.T) {
		p, err := repo.Lookup(ctx, "AKASH")
		assert.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestBunCredentialRepository_LookupWithoutRoles(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunCredentialRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "plain", "hash", true))

	p, err := repo.Lookup(ctx, "plain")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Zero(t, p.Roles.Len())
}

func TestBunCredentialRepository_IgnoresBlankAuthorities(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunCredentialRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "som", "hash", true, auth.RoleUser))
	_, err := db.NewInsert().Model(&models.Authority{Username: "som", Authority: " "}).Exec(ctx)
	require.NoError(t, err)

	p, err := repo.Lookup(ctx, "som")
	require.NoError(t, err)
	assert.Equal(t, []string{"USER"}, p.Roles.Strings())
}

func TestBunCredentialRepository_AdminWrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunCredentialRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, "som", "old", true, auth.RoleUser))

	t.Run("disable", func(t *testing.T) {
		require.NoError(t, repo.SetEnabled(ctx, "som", false))
		p, err := repo.Lookup(ctx, "som")
		require.NoError(t, err)
		assert.False(t, p.Enabled)
	})

	t.Run("new password hash", func(t *testing.T) {
		require.NoError(t, repo.SetPasswordHash(ctx, "som", "new"))
		p, err := repo.Lookup(ctx, "som")
		require.NoError(t, err)
		assert.Equal(t, "new", p.PasswordHash)
	})

	t.Run("grant is idempotent", func(t *testing.T) {
		require.NoError(t, repo.GrantAuthority(ctx, "som", auth.RoleManager))
		require.NoError(t, repo.GrantAuthority(ctx, "som", auth.RoleManager))
		p, err := repo.Lookup(ctx, "som")
		require.NoError(t, err)
		assert.Equal(t, []string{"MANAGER", "USER"}, p.Roles.Strings())
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.Error(t, repo.SetEnabled(ctx, "ghost", true))
		assert.Error(t, repo.SetPasswordHash(ctx, "ghost", "x"))
		assert.Error(t, repo.GrantAuthority(ctx, "ghost", auth.RoleUser))
	})

	t.Run("duplicate create fails", func(t *testing.T) {
		assert.Error(t, repo.Create(ctx, "som", "again", true))
	})

	t.Run("authorities are stored with prefix", func(t *testing.T) {
		var stored []string
		err := db.NewSelect().
			Model((*models.Authority)(nil)).
			Column("authority").
			Where("username = ?", "som").
			Order("authority").
			Scan(ctx, &stored)
		require.NoError(t, err)
		assert.Equal(t, []string{"ROLE_MANAGER", "ROLE_USER"}, stored)
	})
}

func TestBunCredentialRepository_StoreUnavailable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunCredentialRepository(db)
	require.NoError(t, db.Close())

	p, err := repo.Lookup(context.Background(), "som")
	assert.Nil(t, p)
	assert.True(t, errors.Is(err, auth.ErrStoreUnavailable), "got %v", err)
}
