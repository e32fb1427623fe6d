package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenCreatesSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "feedback.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"feedback", "learned_aliases"} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	require.NoError(t, Migrate(ctx, db), "migrations must be idempotent")
}
