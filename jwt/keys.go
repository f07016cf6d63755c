/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

package jwt

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"

	jwtgo "github.com/golang-jwt/jwt/v5"
)

// DefaultPublicKeyFile is the well-known location of the issuer's
// PEM-encoded RSA public key.
const DefaultPublicKeyFile = "oauth-public.key"

// FileKeyProvider serves the issuer's public key from a PEM file.
// The key is read and parsed once at construction time, so a missing or
// corrupt key file fails the service at startup instead of per request.
type FileKeyProvider struct {
	key *rsa.PublicKey
}

// NewFileKeyProvider reads and parses the PEM-encoded RSA public key
// at the specified path.
func NewFileKeyProvider(path string) (*FileKeyProvider, error) {
	if path == "" {
		path = DefaultPublicKeyFile
	}
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key file: %w", err)
	}
	key, err := jwtgo.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key from %q: %w", path, err)
	}
	return &FileKeyProvider{key: key}, nil
}

// GetRSAPublicKey returns the loaded public key.
func (p *FileKeyProvider) GetRSAPublicKey(_ context.Context) (*rsa.PublicKey, error) {
	return p.key, nil
}

// StaticKeyProvider serves a fixed in-memory public key.
type StaticKeyProvider struct {
	Key *rsa.PublicKey
}

// GetRSAPublicKey returns the fixed public key.
func (p *StaticKeyProvider) GetRSAPublicKey(_ context.Context) (*rsa.PublicKey, error) {
	return p.Key, nil
}
