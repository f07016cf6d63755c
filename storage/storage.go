/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

// Package storage defines the records and collaborator contracts the
// introspection engine reads: the client directory, the token store, and the
// subject identity resolver. Implementations must be safe for concurrent
// read access.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested record does not exist
// (or, for clients, exists but is revoked).
var ErrNotFound = errors.New("record not found")

// ErrNoIdentityMapping is returned when a subject principal has no external
// identity mapping configured. This is a deployment defect, not a runtime
// condition: callers must never substitute a fallback identifier, since that
// could attribute a token to the wrong principal.
var ErrNoIdentityMapping = errors.New("no external identity mapping for subject")

// Client is a registered API consumer as the directory resolves it.
//
// IntrospectionOverride lets a client variant compute the introspection
// permission dynamically (per-environment rules and the like): ok reports
// whether the variant provides a verdict at all. When it does, the verdict is
// final; when it does not, callers fall back to the static
// AllowsIntrospection capability flag. ClientRecord is the base
// implementation whose override reports not-provided.
type Client interface {
	ClientID() int64
	ClientName() string
	AllowsIntrospection() bool
	IntrospectionOverride() (allowed bool, ok bool)
}

// ClientRecord is the persisted form of a registered client. Newly registered
// clients may not introspect tokens until the capability flag is granted.
type ClientRecord struct {
	ID            int64
	Name          string
	Revoked       bool
	CanIntrospect bool
}

// ClientID returns the client's unique ID.
func (c *ClientRecord) ClientID() int64 {
	return c.ID
}

// ClientName returns the client's display name.
func (c *ClientRecord) ClientName() string {
	return c.Name
}

// AllowsIntrospection returns the static introspection capability flag.
func (c *ClientRecord) AllowsIntrospection() bool {
	return c.CanIntrospect
}

// IntrospectionOverride reports that the base record provides no dynamic
// verdict. Client variants that need one embed ClientRecord and shadow this
// method.
func (c *ClientRecord) IntrospectionOverride() (allowed bool, ok bool) {
	return false, false
}

// IssuanceRecord is the persisted side of a minted access token.
// Revocation is monotonic: once Revoked is true it stays true.
type IssuanceRecord struct {
	TokenID   string
	SubjectID int64
	Revoked   bool
}

// ClientDirectory resolves client identifiers to client records.
type ClientDirectory interface {
	// FindActive resolves a non-revoked client by its ID.
	// It returns ErrNotFound for unknown and revoked clients alike.
	FindActive(ctx context.Context, clientID int64) (Client, error)
}

// TokenStore resolves token identifiers to their issuance records.
type TokenStore interface {
	// FindIssuance resolves the issuance record of a minted token,
	// or ErrNotFound.
	FindIssuance(ctx context.Context, tokenID string) (*IssuanceRecord, error)

	// IsRevoked reports whether the token with the given ID is revoked.
	// Unknown token IDs report revoked: a token the store never issued
	// must not be treated as live.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// SubjectIdentityResolver maps internal subject principal IDs to stable,
// non-sequential identifiers suitable for exposure to third parties.
type SubjectIdentityResolver interface {
	// ExternalID returns the external identifier of the subject,
	// or ErrNoIdentityMapping.
	ExternalID(ctx context.Context, subjectID int64) (string, error)
}
