/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

// Package introspecttest provides helpers for testing code that consumes the
// introspection service: an ephemeral RSA signing key and token minting.
package introspecttest

import (
	"crypto/rand"
	"crypto/rsa"

	jwtgo "github.com/golang-jwt/jwt/v5"

	"github.com/datahive/introspection-server/introspection"
	"github.com/datahive/introspection-server/jwt"
	"github.com/datahive/introspection-server/storage/inmem"
)

// JWTTypeAccessToken is the "typ" header value of minted access tokens.
const JWTTypeAccessToken = "at+jwt"

var testRSAPrivateKey *rsa.PrivateKey

func init() {
	var err error
	if testRSAPrivateKey, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
		panic(err)
	}
}

// GetTestRSAPrivateKey returns the process-wide RSA private key for testing.
// The key is generated once per process, so tokens minted by different tests
// verify against the same provider.
func GetTestRSAPrivateKey() *rsa.PrivateKey {
	return testRSAPrivateKey
}

// GetTestRSAPublicKey returns the public half of the test key.
func GetTestRSAPublicKey() *rsa.PublicKey {
	return &testRSAPrivateKey.PublicKey
}

// NewTestKeyProvider returns a key provider serving the test public key.
func NewTestKeyProvider() *jwt.StaticKeyProvider {
	return &jwt.StaticKeyProvider{Key: GetTestRSAPublicKey()}
}

// SignToken signs token with key.
func SignToken(token *jwtgo.Token, rsaPrivateKey interface{}) (string, error) {
	return token.SignedString(rsaPrivateKey)
}

// MakeTokenStringWithKey creates a test RS256-signed token with claims,
// signed with the given private key.
func MakeTokenStringWithKey(claims jwtgo.Claims, rsaPrivateKey interface{}) (string, error) {
	token := jwtgo.NewWithClaims(jwtgo.SigningMethodRS256, claims)
	token.Header["typ"] = JWTTypeAccessToken
	return SignToken(token, rsaPrivateKey)
}

// MakeTokenString creates a test token with claims, signed with the test key.
func MakeTokenString(claims jwtgo.Claims) (string, error) {
	return MakeTokenStringWithKey(claims, GetTestRSAPrivateKey())
}

// MustMakeTokenString creates a test token with claims, signed with the test key.
// It panics if error occurs.
func MustMakeTokenString(claims jwtgo.Claims) string {
	token, err := MakeTokenString(claims)
	if err != nil {
		panic(err)
	}
	return token
}

// NewEngine creates an introspection engine over the given in-memory store,
// with a verifier that trusts the test key.
func NewEngine(store *inmem.Store, opts introspection.EngineOpts) *introspection.Engine {
	return introspection.NewEngineWithOpts(
		jwt.NewParser(), jwt.NewVerifier(NewTestKeyProvider()), store, store, store, opts)
}
