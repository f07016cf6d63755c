/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

package jwt

import (
	"fmt"

	jwtgo "github.com/golang-jwt/jwt/v5"
)

// Token is a structurally decoded access token. Decoding proves nothing about
// trust: the signature and validity window are checked only by Verifier.Verify,
// which is why the raw compact serialization is retained here.
type Token struct {
	Claims
	raw string
}

// Raw returns the compact serialization the token was decoded from.
func (t *Token) Raw() string {
	return t.raw
}

// Parser decodes the compact JWT form (three base64url segments) into typed
// claims. It performs no signature verification and no claims validation.
type Parser struct {
	parser *jwtgo.Parser
}

// NewParser creates a new token codec.
func NewParser() *Parser {
	return &Parser{parser: jwtgo.NewParser()}
}

// Parse decodes the passed token string. The returned token is well-formed
// but untrusted.
func (p *Parser) Parse(tokenString string) (*Token, error) {
	token := &Token{raw: tokenString}
	if _, _, err := p.parser.ParseUnverified(tokenString, &token.Claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return token, nil
}
