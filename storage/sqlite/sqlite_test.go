/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/datahive/introspection-server/storage"
	"github.com/datahive/introspection-server/storage/sqlite"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), sqlite.Config{
		Path:          filepath.Join(t.TempDir(), "introspection.db"),
		RunMigrations: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func TestOpen(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := sqlite.Open(context.Background(), sqlite.Config{})
		require.Error(t, err)
	})

	t.Run("migrations applied", func(t *testing.T) {
		store := openTestStore(t)
		// The schema exists and is queryable right after Open.
		_, err := store.FindActive(context.Background(), 1)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("migrations disabled on managed schema", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "managed.db")
		store, err := sqlite.Open(context.Background(), sqlite.Config{Path: path, RunMigrations: true})
		require.NoError(t, err)
		require.NoError(t, store.Close())

		store, err = sqlite.Open(context.Background(), sqlite.Config{Path: path, RunMigrations: false})
		require.NoError(t, err)
		defer func() { require.NoError(t, store.Close()) }()
		_, err = store.FindActive(context.Background(), 1)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestStore_Clients(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.CreateClient(ctx, storage.ClientRecord{ID: 42, Name: "billing", CanIntrospect: true}))
	require.NoError(t, store.CreateClient(ctx, storage.ClientRecord{ID: 43, Name: "reporting"}))

	t.Run("find active", func(t *testing.T) {
		client, err := store.FindActive(ctx, 42)
		require.NoError(t, err)
		require.Equal(t, int64(42), client.ClientID())
		require.Equal(t, "billing", client.ClientName())
		require.True(t, client.AllowsIntrospection())

		client, err = store.FindActive(ctx, 43)
		require.NoError(t, err)
		require.False(t, client.AllowsIntrospection())
	})

	t.Run("unknown client", func(t *testing.T) {
		_, err := store.FindActive(ctx, 99)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("revoked client is not active", func(t *testing.T) {
		require.NoError(t, store.RevokeClient(ctx, 43))
		_, err := store.FindActive(ctx, 43)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("revoke unknown client", func(t *testing.T) {
		require.ErrorIs(t, store.RevokeClient(ctx, 99), storage.ErrNotFound)
	})
}

func TestStore_Tokens(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.CreateIssuance(ctx, storage.IssuanceRecord{TokenID: "abc", SubjectID: 7}))

	t.Run("issuance round trip", func(t *testing.T) {
		rec, err := store.FindIssuance(ctx, "abc")
		require.NoError(t, err)
		require.Equal(t, int64(7), rec.SubjectID)
		require.False(t, rec.Revoked)

		revoked, err := store.IsRevoked(ctx, "abc")
		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("unknown token reports revoked", func(t *testing.T) {
		revoked, err := store.IsRevoked(ctx, "never-issued")
		require.NoError(t, err)
		require.True(t, revoked)
	})

	t.Run("unknown issuance", func(t *testing.T) {
		_, err := store.FindIssuance(ctx, "never-issued")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("revocation is one-way", func(t *testing.T) {
		require.NoError(t, store.RevokeToken(ctx, "abc"))

		revoked, err := store.IsRevoked(ctx, "abc")
		require.NoError(t, err)
		require.True(t, revoked)

		require.NoError(t, store.RevokeToken(ctx, "abc"))
		revoked, err = store.IsRevoked(ctx, "abc")
		require.NoError(t, err)
		require.True(t, revoked)
	})

	t.Run("revoke unknown token", func(t *testing.T) {
		require.ErrorIs(t, store.RevokeToken(ctx, "missing"), storage.ErrNotFound)
	})
}

func TestStore_Identities(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	t.Run("mapped subject", func(t *testing.T) {
		require.NoError(t, store.MapIdentity(ctx, 7, "usr_abc123"))
		externalID, err := store.ExternalID(ctx, 7)
		require.NoError(t, err)
		require.Equal(t, "usr_abc123", externalID)
	})

	t.Run("mapping is upserted", func(t *testing.T) {
		require.NoError(t, store.MapIdentity(ctx, 7, "usr_def456"))
		externalID, err := store.ExternalID(ctx, 7)
		require.NoError(t, err)
		require.Equal(t, "usr_def456", externalID)
	})

	t.Run("unmapped subject", func(t *testing.T) {
		_, err := store.ExternalID(ctx, 8)
		require.ErrorIs(t, err, storage.ErrNoIdentityMapping)
	})
}

func TestStore_Concurrency(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for i := 0; i < 10; i++ {
		require.NoError(t, store.CreateIssuance(ctx,
			storage.IssuanceRecord{TokenID: fmt.Sprintf("tok-%d", i), SubjectID: int64(i)}))
	}

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func(i int) {
			_, err := store.IsRevoked(ctx, fmt.Sprintf("tok-%d", i))
			done <- err
		}(i)
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, <-done)
	}
}
