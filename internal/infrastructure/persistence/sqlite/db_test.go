package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/billed/pkg/database"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	raw, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "tx.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	_, err = raw.Exec(`CREATE TABLE notes (body TEXT NOT NULL)`)
	require.NoError(t, err)
	return NewDB(raw)
}

func countNotes(t *testing.T, db *DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&n))
	return n
}

func TestWithTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commits on success", func(t *testing.T) {
		db := newTestDB(t)
		err := db.WithTransaction(ctx, func(ctx context.Context) error {
			_, err := db.Executor(ctx).ExecContext(ctx, `INSERT INTO notes VALUES ('a')`)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, 1, countNotes(t, db))
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db := newTestDB(t)
		boom := errors.New("boom")
		err := db.WithTransaction(ctx, func(ctx context.Context) error {
			if _, err := db.Executor(ctx).ExecContext(ctx, `INSERT INTO notes VALUES ('a')`); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, countNotes(t, db))
	})

	t.Run("nested call joins the outer transaction", func(t *testing.T) {
		db := newTestDB(t)
		err := db.WithTransaction(ctx, func(outer context.Context) error {
			return db.WithTransaction(outer, func(inner context.Context) error {
				assert.Same(t, txFrom(outer), txFrom(inner))
				return nil
			})
		})
		require.NoError(t, err)
	})

	t.Run("executor without transaction is the pool", func(t *testing.T) {
		db := newTestDB(t)
		_, isTx := db.Executor(ctx).(interface{ Commit() error })
		assert.False(t, isTx)
	})
}
