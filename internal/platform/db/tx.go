package db

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
)

type contextKey string

const TxKey contextKey = "db_tx"

var schemaPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidSchemaName reports whether name is safe to interpolate into
// search_path and schema-qualified statements.
func ValidSchemaName(name string) bool {
	return schemaPattern.MatchString(name)
}

// TxStarter is satisfied by *pgxpool.Pool and *pgx.Conn.
type TxStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// WithTx runs fn inside a transaction. Repositories pick the transaction up
// through TxFromContext, so every statement issued by fn shares it. The
// transaction commits when fn returns nil and rolls back otherwise. A
// context that already carries a transaction is reused as-is.
func WithTx(ctx context.Context, starter TxStarter, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}
	tx, err := starter.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, TxKey, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// TxFromContext returns the transaction started by WithTx, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(TxKey).(pgx.Tx)
	return tx
}
