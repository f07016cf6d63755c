/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

// Package sqlite provides a SQLite-backed implementation of the storage
// collaborators for deployments that share the issuer's client and token
// tables.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/datahive/introspection-server/storage"
)

// Config is the deployment configuration of the SQLite store.
type Config struct {
	// Path is the database location in driver notation
	// (a file path, or e.g. "file:introspection?mode=memory&cache=shared").
	Path string

	// RunMigrations controls whether pending schema migrations are applied
	// when the store is opened. Deployments that manage the schema
	// externally open the store with it disabled.
	RunMigrations bool
}

// Store is a SQLite-backed client directory, token store and subject
// identity resolver. The *sql.DB connection pool makes it safe for
// concurrent use.
type Store struct {
	db *sql.DB
}

var (
	_ storage.ClientDirectory         = (*Store)(nil)
	_ storage.TokenStore              = (*Store)(nil)
	_ storage.SubjectIdentityResolver = (*Store)(nil)
)

// Open opens the database at cfg.Path and, when cfg.RunMigrations is set,
// applies pending schema migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite storage: path is required")
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if cfg.RunMigrations {
		if err = runMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// FindActive implements storage.ClientDirectory.
func (s *Store) FindActive(ctx context.Context, clientID int64) (storage.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, can_introspect FROM clients WHERE id = ? AND revoked = 0`, clientID)
	var rec storage.ClientRecord
	if err := row.Scan(&rec.ID, &rec.Name, &rec.CanIntrospect); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find active client %d: %w", clientID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("find active client %d: %w", clientID, err)
	}
	return &rec, nil
}

// CreateClient registers a new client. The introspection capability defaults
// to false at the schema level; it is stored explicitly here so seeding can
// grant it.
func (s *Store) CreateClient(ctx context.Context, rec storage.ClientRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (id, name, revoked, can_introspect) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Revoked, rec.CanIntrospect)
	if err != nil {
		return fmt.Errorf("create client %d: %w", rec.ID, err)
	}
	return nil
}

// RevokeClient marks a client revoked.
func (s *Store) RevokeClient(ctx context.Context, clientID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE clients SET revoked = 1 WHERE id = ?`, clientID)
	if err != nil {
		return fmt.Errorf("revoke client %d: %w", clientID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke client %d: %w", clientID, err)
	}
	if affected == 0 {
		return fmt.Errorf("revoke client %d: %w", clientID, storage.ErrNotFound)
	}
	return nil
}

// FindIssuance implements storage.TokenStore.
func (s *Store) FindIssuance(ctx context.Context, tokenID string) (*storage.IssuanceRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT token_id, subject_id, revoked FROM token_issuances WHERE token_id = ?`, tokenID)
	var rec storage.IssuanceRecord
	if err := row.Scan(&rec.TokenID, &rec.SubjectID, &rec.Revoked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find issuance %q: %w", tokenID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("find issuance %q: %w", tokenID, err)
	}
	return &rec, nil
}

// IsRevoked implements storage.TokenStore. Unknown token IDs report revoked.
func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT revoked FROM token_issuances WHERE token_id = ?`, tokenID)
	var revoked bool
	if err := row.Scan(&revoked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return true, nil
		}
		return false, fmt.Errorf("check revocation of %q: %w", tokenID, err)
	}
	return revoked, nil
}

// CreateIssuance records a newly minted token.
func (s *Store) CreateIssuance(ctx context.Context, rec storage.IssuanceRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO token_issuances (token_id, subject_id, revoked) VALUES (?, ?, ?)`,
		rec.TokenID, rec.SubjectID, rec.Revoked)
	if err != nil {
		return fmt.Errorf("create issuance %q: %w", rec.TokenID, err)
	}
	return nil
}

// RevokeToken marks a token revoked. Revocation is one-way: there is no
// statement that clears the flag.
func (s *Store) RevokeToken(ctx context.Context, tokenID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE token_issuances SET revoked = 1 WHERE token_id = ?`, tokenID)
	if err != nil {
		return fmt.Errorf("revoke token %q: %w", tokenID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke token %q: %w", tokenID, err)
	}
	if affected == 0 {
		return fmt.Errorf("revoke token %q: %w", tokenID, storage.ErrNotFound)
	}
	return nil
}

// ExternalID implements storage.SubjectIdentityResolver.
func (s *Store) ExternalID(ctx context.Context, subjectID int64) (string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT external_id FROM subject_identities WHERE subject_id = ?`, subjectID)
	var externalID string
	if err := row.Scan(&externalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("subject %d: %w", subjectID, storage.ErrNoIdentityMapping)
		}
		return "", fmt.Errorf("resolve external identity of subject %d: %w", subjectID, err)
	}
	return externalID, nil
}

// MapIdentity sets the external identifier of a subject principal.
func (s *Store) MapIdentity(ctx context.Context, subjectID int64, externalID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subject_identities (subject_id, external_id) VALUES (?, ?)
		 ON CONFLICT (subject_id) DO UPDATE SET external_id = excluded.external_id`,
		subjectID, externalID)
	if err != nil {
		return fmt.Errorf("map identity of subject %d: %w", subjectID, err)
	}
	return nil
}
