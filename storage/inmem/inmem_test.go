/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

package inmem_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/datahive/introspection-server/storage"
	"github.com/datahive/introspection-server/storage/inmem"
)

func TestStore_Clients(t *testing.T) {
	ctx := context.Background()

	t.Run("find active", func(t *testing.T) {
		store := inmem.New()
		store.RegisterClient(&storage.ClientRecord{ID: 42, Name: "billing", CanIntrospect: true})

		client, err := store.FindActive(ctx, 42)
		require.NoError(t, err)
		require.Equal(t, int64(42), client.ClientID())
		require.Equal(t, "billing", client.ClientName())
		require.True(t, client.AllowsIntrospection())
	})

	t.Run("unknown client", func(t *testing.T) {
		store := inmem.New()
		_, err := store.FindActive(ctx, 99)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("revoked client is not active", func(t *testing.T) {
		store := inmem.New()
		store.RegisterClient(&storage.ClientRecord{ID: 1, Name: "revokee"})
		require.NoError(t, store.RevokeClient(1))
		_, err := store.FindActive(ctx, 1)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("registered as revoked", func(t *testing.T) {
		store := inmem.New()
		store.RegisterClient(&storage.ClientRecord{ID: 2, Name: "dead", Revoked: true})
		_, err := store.FindActive(ctx, 2)
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("revoke unknown client", func(t *testing.T) {
		store := inmem.New()
		require.ErrorIs(t, store.RevokeClient(3), storage.ErrNotFound)
	})
}

func TestStore_Tokens(t *testing.T) {
	ctx := context.Background()

	t.Run("issuance round trip", func(t *testing.T) {
		store := inmem.New()
		store.SaveIssuance(storage.IssuanceRecord{TokenID: "abc", SubjectID: 7})

		rec, err := store.FindIssuance(ctx, "abc")
		require.NoError(t, err)
		require.Equal(t, int64(7), rec.SubjectID)

		revoked, err := store.IsRevoked(ctx, "abc")
		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("unknown token reports revoked", func(t *testing.T) {
		store := inmem.New()
		revoked, err := store.IsRevoked(ctx, "never-issued")
		require.NoError(t, err)
		require.True(t, revoked)
	})

	t.Run("revocation is one-way", func(t *testing.T) {
		store := inmem.New()
		store.SaveIssuance(storage.IssuanceRecord{TokenID: "abc", SubjectID: 7})
		require.NoError(t, store.RevokeToken("abc"))

		revoked, err := store.IsRevoked(ctx, "abc")
		require.NoError(t, err)
		require.True(t, revoked)

		// Revoking again must not fail and must not flip the flag back.
		require.NoError(t, store.RevokeToken("abc"))
		revoked, err = store.IsRevoked(ctx, "abc")
		require.NoError(t, err)
		require.True(t, revoked)
	})

	t.Run("revoke unknown token", func(t *testing.T) {
		store := inmem.New()
		require.ErrorIs(t, store.RevokeToken("missing"), storage.ErrNotFound)
	})
}

func TestStore_Identities(t *testing.T) {
	ctx := context.Background()

	t.Run("mapped subject", func(t *testing.T) {
		store := inmem.New()
		store.MapIdentity(7, "usr_abc123")
		externalID, err := store.ExternalID(ctx, 7)
		require.NoError(t, err)
		require.Equal(t, "usr_abc123", externalID)
	})

	t.Run("unmapped subject", func(t *testing.T) {
		store := inmem.New()
		_, err := store.ExternalID(ctx, 8)
		require.ErrorIs(t, err, storage.ErrNoIdentityMapping)
	})
}
