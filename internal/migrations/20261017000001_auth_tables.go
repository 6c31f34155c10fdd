package migrations

import (
	"context"
	"fmt"

	"bankgate/internal/db/models"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20261017000001, down_20261017000001)
}

// up_20261017000001 creates the users and authorities tables
func up_20261017000001(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*models.User)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	_, err = db.NewCreateTable().
		Model((*models.Authority)(nil)).
		IfNotExists().
		ForeignKey(`("username") REFERENCES "users" ("username") ON DELETE CASCADE`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create authorities table: %w", err)
	}

	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_authorities_username ON authorities(username)`)
	if err != nil {
		return fmt.Errorf("failed to create authorities username index: %w", err)
	}

	return nil
}

// down_20261017000001 drops the tables in reverse order
func down_20261017000001(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().
		Model((*models.Authority)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop authorities table: %w", err)
	}

	_, err = db.NewDropTable().
		Model((*models.User)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop users table: %w", err)
	}

	return nil
}
