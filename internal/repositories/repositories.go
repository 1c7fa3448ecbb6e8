package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/moodx/internal/shared"
	"github.com/mattn/go-sqlite3"
)

// withTx runs fn inside a transaction, committing when fn returns nil.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// mapConstraint converts sqlite unique and primary key violations into [shared.ErrConflict].
func mapConstraint(err error, what string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %s already exists", shared.ErrConflict, what)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %s references a missing row", shared.ErrInvalidInput, what)
		case sqlite3.ErrConstraintCheck:
			return fmt.Errorf("%w: %s", shared.ErrValidationFailed, sqliteErr.Error())
		}
	}
	return fmt.Errorf("failed to insert %s: %w", what, err)
}
