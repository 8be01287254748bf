// Package storetest exercises any credentials.Store against the shared contract.
package storetest

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/agent-console/credentials"
	"github.com/jrsteele09/agent-console/internal/errors"
)

// RunContract runs the store contract against fresh stores returned by newStore.
func RunContract(t *testing.T, newStore func(t *testing.T) credentials.Store) {
	t.Helper()

	t.Run("empty store loads absent", func(t *testing.T) {
		store := newStore(t)
		pair, ok := store.Load()
		require.False(t, ok)
		require.Equal(t, credentials.Pair{}, pair)
	})

	t.Run("save then load", func(t *testing.T) {
		store := newStore(t)
		want := credentials.Pair{AccessToken: "access-1", RefreshToken: "refresh-1"}
		require.NoError(t, store.Save(want))

		got, ok := store.Load()
		require.True(t, ok)
		require.Equal(t, want, got)
	})

	t.Run("save overwrites both tokens", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(credentials.Pair{AccessToken: "a1", RefreshToken: "r1"}))
		require.NoError(t, store.Save(credentials.Pair{AccessToken: "a2", RefreshToken: "r2"}))

		got, ok := store.Load()
		require.True(t, ok)
		require.Equal(t, credentials.Pair{AccessToken: "a2", RefreshToken: "r2"}, got)
	})

	t.Run("partial pair rejected", func(t *testing.T) {
		store := newStore(t)
		err := store.Save(credentials.Pair{AccessToken: "only-access"})
		require.ErrorIs(t, err, errors.ErrIncompletePair)

		err = store.Save(credentials.Pair{RefreshToken: "only-refresh"})
		require.ErrorIs(t, err, errors.ErrIncompletePair)

		_, ok := store.Load()
		require.False(t, ok)
	})

	t.Run("clear removes pair and is idempotent", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(credentials.Pair{AccessToken: "a", RefreshToken: "r"}))
		require.NoError(t, store.Clear())

		_, ok := store.Load()
		require.False(t, ok)
		require.NoError(t, store.Clear())
	})

	t.Run("concurrent saves never expose a mixed pair", func(t *testing.T) {
		store := newStore(t)
		pairs := []credentials.Pair{
			{AccessToken: "a-one", RefreshToken: "r-one"},
			{AccessToken: "a-two", RefreshToken: "r-two"},
		}
		require.NoError(t, store.Save(pairs[0]))

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			mixed []credentials.Pair
		)
		for i := 0; i < 20; i++ {
			wg.Add(2)
			go func(p credentials.Pair) {
				defer wg.Done()
				_ = store.Save(p)
			}(pairs[i%2])
			go func() {
				defer wg.Done()
				got, ok := store.Load()
				if !ok {
					return
				}
				if got != pairs[0] && got != pairs[1] {
					mu.Lock()
					mixed = append(mixed, got)
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		require.Empty(t, mixed)
	})
}

// RunSwapperContract checks the conditional updates of a credentials.Swapper,
// on top of the plain store contract.
func RunSwapperContract(t *testing.T, newStore func(t *testing.T) credentials.Swapper) {
	t.Helper()

	RunContract(t, func(t *testing.T) credentials.Store { return newStore(t) })

	old := credentials.Pair{AccessToken: "a-old", RefreshToken: "r-old"}
	next := credentials.Pair{AccessToken: "a-next", RefreshToken: "r-next"}
	other := credentials.Pair{AccessToken: "a-other", RefreshToken: "r-other"}

	t.Run("compare and save replaces the expected pair", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(old))

		swapped, err := store.CompareAndSave(old, next)
		require.NoError(t, err)
		require.True(t, swapped)
		got, _ := store.Load()
		require.Equal(t, next, got)
	})

	t.Run("compare and save leaves a replaced pair alone", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(other))

		swapped, err := store.CompareAndSave(old, next)
		require.NoError(t, err)
		require.False(t, swapped)
		got, _ := store.Load()
		require.Equal(t, other, got)
	})

	t.Run("compare and save does not refill a cleared store", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(old))
		require.NoError(t, store.Clear())

		swapped, err := store.CompareAndSave(old, next)
		require.NoError(t, err)
		require.False(t, swapped)
		_, ok := store.Load()
		require.False(t, ok)
	})

	t.Run("compare and save rejects a partial pair", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(old))

		swapped, err := store.CompareAndSave(old, credentials.Pair{AccessToken: "a"})
		require.ErrorIs(t, err, errors.ErrIncompletePair)
		require.False(t, swapped)
	})

	t.Run("compare and clear only empties the expected pair", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Save(other))

		cleared, err := store.CompareAndClear(old)
		require.NoError(t, err)
		require.False(t, cleared)
		_, ok := store.Load()
		require.True(t, ok)

		cleared, err = store.CompareAndClear(other)
		require.NoError(t, err)
		require.True(t, cleared)
		_, ok = store.Load()
		require.False(t, ok)
	})
}
