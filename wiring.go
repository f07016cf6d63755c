/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

package introspectionserver

import (
	"context"
	"fmt"

	"github.com/datahive/introspection-server/introspection"
	"github.com/datahive/introspection-server/jwt"
	"github.com/datahive/introspection-server/storage"
	"github.com/datahive/introspection-server/storage/inmem"
	"github.com/datahive/introspection-server/storage/sqlite"
)

// Backend bundles the persistence interfaces the introspection engine
// consumes. Both storage implementations satisfy it.
type Backend interface {
	storage.ClientDirectory
	storage.TokenStore
	storage.SubjectIdentityResolver
	Close() error
}

// NewStorageBackend creates the persistence backend selected by cfg.
func NewStorageBackend(ctx context.Context, cfg *Config) (Backend, error) {
	switch cfg.Storage.Type {
	case StorageTypeMemory:
		return inmem.New(), nil
	case StorageTypeSQLite:
		store, err := sqlite.Open(ctx, sqlite.Config{
			Path:          cfg.Storage.SQLite.Path,
			RunMigrations: cfg.Storage.SQLite.RunMigrations,
		})
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}

// NewVerifier creates a token verifier for the configuration.
// The public key is loaded once, at construction.
func NewVerifier(cfg *Config) (*jwt.Verifier, error) {
	keys, err := jwt.NewFileKeyProvider(cfg.JWT.PublicKeyFile)
	if err != nil {
		return nil, fmt.Errorf("load public key: %w", err)
	}
	return jwt.NewVerifierWithOpts(keys, jwt.VerifierOpts{
		RequireAudience:  cfg.JWT.RequireAudience,
		ExpectedAudience: cfg.JWT.ExpectedAudience,
	}), nil
}

// NewIntrospectionEngine creates an introspection engine wired according to
// the configuration and backed by the given storage.
func NewIntrospectionEngine(
	cfg *Config, backend Backend, opts introspection.EngineOpts,
) (*introspection.Engine, error) {
	verifier, err := NewVerifier(cfg)
	if err != nil {
		return nil, err
	}
	return introspection.NewEngineWithOpts(jwt.NewParser(), verifier, backend, backend, backend, opts), nil
}
