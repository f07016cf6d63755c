/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

// Package inmem provides an in-memory implementation of the storage
// collaborators. It backs tests and single-process deployments that seed
// their clients and tokens at startup.
package inmem

import (
	"context"
	"fmt"
	"sync"

	"github.com/datahive/introspection-server/storage"
)

type clientEntry struct {
	client  storage.Client
	revoked bool
}

// Store is a concurrency-safe in-memory client directory, token store and
// subject identity resolver.
type Store struct {
	mu         sync.RWMutex
	clients    map[int64]clientEntry
	issuances  map[string]storage.IssuanceRecord
	identities map[int64]string
}

var (
	_ storage.ClientDirectory         = (*Store)(nil)
	_ storage.TokenStore              = (*Store)(nil)
	_ storage.SubjectIdentityResolver = (*Store)(nil)
)

// New creates an empty Store.
func New() *Store {
	return &Store{
		clients:    make(map[int64]clientEntry),
		issuances:  make(map[string]storage.IssuanceRecord),
		identities: make(map[int64]string),
	}
}

// Close releases nothing; it exists so the Store can stand in for backends
// that hold real resources.
func (s *Store) Close() error {
	return nil
}

// RegisterClient adds or replaces a client, keyed by its ID. A registered
// *storage.ClientRecord with Revoked set is stored as revoked.
func (s *Store) RegisterClient(client storage.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := clientEntry{client: client}
	if rec, ok := client.(*storage.ClientRecord); ok {
		entry.revoked = rec.Revoked
	}
	s.clients[client.ClientID()] = entry
}

// RevokeClient marks a client revoked, removing it from active resolution.
func (s *Store) RevokeClient(clientID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.clients[clientID]
	if !ok {
		return fmt.Errorf("revoke client %d: %w", clientID, storage.ErrNotFound)
	}
	entry.revoked = true
	s.clients[clientID] = entry
	return nil
}

// FindActive implements storage.ClientDirectory.
func (s *Store) FindActive(_ context.Context, clientID int64) (storage.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.clients[clientID]
	if !ok || entry.revoked {
		return nil, fmt.Errorf("find active client %d: %w", clientID, storage.ErrNotFound)
	}
	return entry.client, nil
}

// SaveIssuance adds or replaces a token issuance record.
func (s *Store) SaveIssuance(rec storage.IssuanceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issuances[rec.TokenID] = rec
}

// RevokeToken marks a token revoked. Revocation is one-way: there is no
// counterpart that clears the flag.
func (s *Store) RevokeToken(tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.issuances[tokenID]
	if !ok {
		return fmt.Errorf("revoke token %q: %w", tokenID, storage.ErrNotFound)
	}
	rec.Revoked = true
	s.issuances[tokenID] = rec
	return nil
}

// FindIssuance implements storage.TokenStore.
func (s *Store) FindIssuance(_ context.Context, tokenID string) (*storage.IssuanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.issuances[tokenID]
	if !ok {
		return nil, fmt.Errorf("find issuance %q: %w", tokenID, storage.ErrNotFound)
	}
	return &rec, nil
}

// IsRevoked implements storage.TokenStore. Unknown token IDs report revoked.
func (s *Store) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.issuances[tokenID]
	if !ok {
		return true, nil
	}
	return rec.Revoked, nil
}

// MapIdentity sets the external identifier of a subject principal.
func (s *Store) MapIdentity(subjectID int64, externalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[subjectID] = externalID
}

// ExternalID implements storage.SubjectIdentityResolver.
func (s *Store) ExternalID(_ context.Context, subjectID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	externalID, ok := s.identities[subjectID]
	if !ok {
		return "", fmt.Errorf("subject %d: %w", subjectID, storage.ErrNoIdentityMapping)
	}
	return externalID, nil
}
