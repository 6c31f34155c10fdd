package models

import (
	"github.com/uptrace/bun"
)

// User is a principal row. Rows are written by administrators only.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	Username     string `bun:"username,pk"`
	PasswordHash string `bun:"password_hash,notnull"`
	Enabled      bool   `bun:"enabled,notnull"`

	Authorities []*Authority `bun:"rel:has-many,join:username=username"`
}

// Authority grants a role to a user. Values carry the ROLE_ prefix,
// e.g. "ROLE_MANAGER".
type Authority struct {
	bun.BaseModel `bun:"table:authorities,alias:a"`

	Username  string `bun:"username,pk"`
	Authority string `bun:"authority,pk"`
}
