package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAndMigrate(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	// Running again is a no-op.
	require.NoError(t, Migrate(ctx, db))

	for _, table := range []string{"users", "sessions", "events"} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
		require.Equal(t, table, name)
	}
}

func TestUsersEmailIsUnique(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))

	const q = `INSERT INTO users (id, name, email, password_hash) VALUES (?, ?, ?, ?)`
	_, err = db.ExecContext(ctx, q, "1", "Alice", "alice@x.com", "h")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, q, "2", "Alicia", "alice@x.com", "h")
	require.Error(t, err)
}

func TestForeignKeysEnforced(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))

	_, err = db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, email) VALUES (?, ?, ?)`, "s1", "missing-user", "x@y.z")
	require.Error(t, err)
}
