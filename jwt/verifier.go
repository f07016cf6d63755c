/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

package jwt

import (
	"context"
	"crypto/rsa"
	"time"

	jwtgo "github.com/golang-jwt/jwt/v5"
)

// KeyProvider is an interface for providing the public key access tokens are
// verified against. Implementations must be safe for concurrent use.
type KeyProvider interface {
	GetRSAPublicKey(ctx context.Context) (*rsa.PublicKey, error)
}

// VerifierOpts are additional options for Verifier.
type VerifierOpts struct {
	// RequireAudience specifies whether the audience claim must be present.
	RequireAudience bool

	// ExpectedAudience is a list of expected audience values.
	// It's allowed to use glob patterns (*.my-service.com) for audience matching.
	// If it's not empty, the "aud" claim must match at least one of the patterns.
	ExpectedAudience []string
}

// Verifier checks an already decoded token against the issuer's public key
// and the current time. It is a pure function of the token, the key and the
// instant it is asked about: no I/O beyond the key lookup, no logging.
type Verifier struct {
	keys              KeyProvider
	audienceValidator *AudienceValidator
}

// NewVerifier creates a new Verifier with the specified key provider.
func NewVerifier(keys KeyProvider) *Verifier {
	return NewVerifierWithOpts(keys, VerifierOpts{})
}

// NewVerifierWithOpts creates a new Verifier with the specified key provider
// and additional options.
func NewVerifierWithOpts(keys KeyProvider, opts VerifierOpts) *Verifier {
	return &Verifier{
		keys:              keys,
		audienceValidator: NewAudienceValidator(opts.RequireAudience, opts.ExpectedAudience),
	}
}

// Verify reports whether the token is trustworthy at the given instant: the
// RS256 signature matches the issuer's key, the expiration claim is present
// and in the future, and the token is past its not-before claim. All failure
// modes collapse to false; the reason deliberately never leaves this method.
func (v *Verifier) Verify(ctx context.Context, token *Token, now time.Time) bool {
	key, err := v.keys.GetRSAPublicKey(ctx)
	if err != nil {
		return false
	}
	parser := jwtgo.NewParser(
		jwtgo.WithValidMethods([]string{"RS256"}),
		jwtgo.WithExpirationRequired(),
		jwtgo.WithTimeFunc(func() time.Time { return now }),
	)
	var claims Claims
	if _, err = parser.ParseWithClaims(token.Raw(), &claims,
		func(*jwtgo.Token) (interface{}, error) { return key, nil },
	); err != nil {
		return false
	}
	return v.audienceValidator.Validate(&claims) == nil
}
