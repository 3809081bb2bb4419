package database

import (
	"context"
	"database/sql"
)

// WithTx begins a transaction, runs fn and commits when fn returns
// nil.  Any error from fn (or a panic) rolls the transaction back,
// so callers can compose multi-repository writes without partial
// state surviving a failure.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Runner adapts a *sql.DB to the transaction-runner interface used
// by the booking engines.  Tests substitute an in-memory runner.
type Runner struct {
	db *sql.DB
}

// NewRunner returns a Runner bound to the provided database.
func NewRunner(db *sql.DB) *Runner { return &Runner{db: db} }

// WithTx runs fn inside a database transaction.
func (r *Runner) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return WithTx(ctx, r.db, fn)
}
