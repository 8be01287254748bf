package sqlitestore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/agent-console/credentials"
	"github.com/jrsteele09/agent-console/credentials/sqlitestore"
	"github.com/jrsteele09/agent-console/credentials/storetest"
)

func newSQLiteStore(t *testing.T, path string) *sqlitestore.SQLiteStore {
	t.Helper()
	store, err := sqlitestore.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_Contract(t *testing.T) {
	storetest.RunContract(t, func(t *testing.T) credentials.Store {
		return newSQLiteStore(t, filepath.Join(t.TempDir(), "console.db"))
	})
}

func TestSQLiteStore(t *testing.T) {
	t.Run("empty path rejected", func(t *testing.T) {
		_, err := sqlitestore.New("  ")
		require.Error(t, err)
	})

	t.Run("survives reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data", "console.db")
		pair := credentials.Pair{AccessToken: "a", RefreshToken: "r"}

		first, err := sqlitestore.New(path)
		require.NoError(t, err)
		require.NoError(t, first.Save(pair))
		require.NoError(t, first.Close())

		second := newSQLiteStore(t, path)
		got, ok := second.Load()
		require.True(t, ok)
		require.Equal(t, pair, got)
	})
}
