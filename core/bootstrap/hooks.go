package bootstrap

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Hook runs once after the database is connected and migrated.
type Hook interface {
	Run(ctx context.Context, db *sqlx.DB) error
}

// HookFunc adapts a bare function to the Hook interface.
type HookFunc func(ctx context.Context, db *sqlx.DB) error

// Run executes the underlying function.
func (f HookFunc) Run(ctx context.Context, db *sqlx.DB) error {
	return f(ctx, db)
}

// Step names a hook for logs and error messages.
type Step struct {
	Name string
	Hook Hook
	// Optional steps log failures and continue.
	Optional bool
}
