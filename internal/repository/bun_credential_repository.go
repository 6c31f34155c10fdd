package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bankgate/internal/auth"
	"bankgate/internal/db/models"

	"github.com/uptrace/bun"
)

// BunCredentialRepository implements auth.CredentialStore over the users and
// authorities tables. Lookup is the only method the gateway uses; the write
// methods back the administrative CLI.
type BunCredentialRepository struct {
	db *bun.DB
}

var _ auth.CredentialStore = (*BunCredentialRepository)(nil)

// NewBunCredentialRepository creates a new Bun-based credential repository
func NewBunCredentialRepository(db *bun.DB) *BunCredentialRepository {
	return &BunCredentialRepository{db: db}
}

// Lookup returns the principal for username with its roles, or (nil, nil)
// when there is no such user. Any other failure wraps auth.ErrStoreUnavailable.
func (r *BunCredentialRepository) Lookup(ctx context.Context, username string) (*auth.Principal, error) {
	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Relation("Authorities").
		Where("u.username = ?", username).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: lookup %q: %w", auth.ErrStoreUnavailable, username, err)
	}

	roles := make([]auth.Role, 0, len(user.Authorities))
	for _, a := range user.Authorities {
		roles = append(roles, auth.ParseAuthority(a.Authority))
	}

	return &auth.Principal{
		Username:     user.Username,
		Enabled:      user.Enabled,
		PasswordHash: user.PasswordHash,
		Roles:        auth.NewRoleSet(roles...),
	}, nil
}

// Create inserts a user together with its roles in one transaction.
// Roles are stored with the ROLE_ prefix.
func (r *BunCredentialRepository) Create(ctx context.Context, username, passwordHash string, enabled bool, roles ...auth.Role) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user := &models.User{
			Username:     username,
			PasswordHash: passwordHash,
			Enabled:      enabled,
		}
		if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		for _, role := range auth.NewRoleSet(roles...).Slice() {
			if err := grant(ctx, tx, username, role); err != nil {
				return err
			}
		}
		return nil
	})
}

// GrantAuthority adds role to an existing user. Granting a role the user
// already holds is a no-op.
func (r *BunCredentialRepository) GrantAuthority(ctx context.Context, username string, role auth.Role) error {
	return grant(ctx, r.db, username, role)
}

func grant(ctx context.Context, db bun.IDB, username string, role auth.Role) error {
	if role == "" {
		return fmt.Errorf("grant authority: empty role")
	}
	_, err := db.NewInsert().
		Model(&models.Authority{Username: username, Authority: role.Authority()}).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("grant %s to %s: %w", role.Authority(), username, err)
	}
	return nil
}

// SetEnabled enables or disables a user
func (r *BunCredentialRepository) SetEnabled(ctx context.Context, username string, enabled bool) error {
	result, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("enabled = ?", enabled).
		Where("username = ?", username).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set enabled: %w", err)
	}
	return requireOneRow(result, username)
}

// SetPasswordHash replaces the stored hash for a user
func (r *BunCredentialRepository) SetPasswordHash(ctx context.Context, username, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*models.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Where("username = ?", username).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set password hash: %w", err)
	}
	return requireOneRow(result, username)
}

func requireOneRow(result sql.Result, username string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", username)
	}
	return nil
}
