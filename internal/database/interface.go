// Package database provides the storage backends behind the scan store.
package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/launchpass/scand/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB is the generic storage interface used throughout scand.
// Implementations exist for SQLite (default) and MySQL.
type DB interface {
	// Select executes a query and scans rows into dest (slice pointer).
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error

	// Get executes a query expected to return a single row and scans into
	// dest. Returns sql.ErrNoRows when nothing matched.
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error

	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, query string, args ...interface{}) error

	// InTx runs fn inside a single transaction, committing on nil and
	// rolling back on error. Statements issued through the Execer and the
	// commit are atomic.
	InTx(ctx context.Context, fn func(tx Execer) error) error

	// Migrate applies pending schema migrations in order.
	Migrate(ctx context.Context) error

	// Ping verifies the database connection is alive.
	Ping(ctx context.Context) error

	// Close releases the database connection.
	Close() error

	// Driver returns the backend name: "sqlite" or "mysql".
	Driver() string
}

// Execer is the statement surface available inside a transaction.
type Execer interface {
	Exec(ctx context.Context, query string, args ...interface{}) error
}

// New returns a DB implementation matching cfg.Driver.
// SQLite is the default when driver is empty or unrecognised.
func New(cfg config.DatabaseConfig) (DB, error) {
	switch cfg.Driver {
	case "mysql":
		return NewMySQL(cfg)
	case "sqlite", "sqlite3", "":
		return NewSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q (supported: sqlite, mysql)", cfg.Driver)
	}
}
