package database

import (
	"context"
	"database/sql"
	"fmt"
)

// txExecer adapts *sql.Tx to the Execer interface.
type txExecer struct {
	tx *sql.Tx
}

func (t *txExecer) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := t.tx.ExecContext(ctx, query, args...)
	return err
}

// runInTx is the InTx implementation shared by both backends.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx Execer) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(&txExecer{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
