package db

import (
	"context"
	"fmt"
)

// WithTx runs fn inside a transaction on d. The transaction is committed when
// fn returns nil and rolled back on every other exit path, including a panic
// in fn.
func WithTx(ctx context.Context, d DB, fn func(tx Tx) error) error {
	tx, err := d.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	done := false
	defer func() {
		if !done {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	done = true
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
