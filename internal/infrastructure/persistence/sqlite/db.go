// Package sqlite carries the transaction scope shared by the sqlite repositories.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/pkg/database"
)

type contextKey string

const txKey contextKey = "tx"

// Executor covers both *sql.DB and *sql.Tx
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB scopes transactions to a context so repositories can compose them
type DB struct {
	*database.DB
}

// NewDB wraps an opened bills database
func NewDB(raw *database.DB) *DB {
	return &DB{DB: raw}
}

// WithTransaction runs fn in a transaction stored on ctx. Nested calls join the outer one.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := txFrom(ctx); tx != nil {
		return fn(ctx)
	}
	return db.RunInTx(ctx, func(tx *sql.Tx) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
}

// Executor returns the transaction carried by ctx, or the pool
func (db *DB) Executor(ctx context.Context) Executor {
	if tx := txFrom(ctx); tx != nil {
		return tx
	}
	return db.DB.DB
}

func txFrom(ctx context.Context) *sql.Tx {
	if tx, ok := ctx.Value(txKey).(*sql.Tx); ok {
		return tx
	}
	return nil
}

var _ port.TransactionManager = (*DB)(nil)
