/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

package introspection

// TokenTypeAccessToken is the only token type this endpoint introspects.
const TokenTypeAccessToken = "access_token"

// Response is the introspection response body (RFC 7662 shape).
//
// An inactive token yields only the active flag, plus a correlation ID when
// the requesting client itself failed authorization and is allowed to see one
// for debugging. Every other field is populated only on the active path, so
// the distinct inactivity causes stay indistinguishable on the wire.
type Response struct {
	Active        bool   `json:"active"`
	Scope         string `json:"scope,omitempty"`
	ClientID      int64  `json:"client_id,omitempty"`
	TokenType     string `json:"token_type,omitempty"`
	ExpiresAt     int64  `json:"exp,omitempty"`
	IssuedAt      int64  `json:"iat,omitempty"`
	NotBefore     int64  `json:"nbf,omitempty"`
	Subject       int64  `json:"sub,omitempty"`
	Audience      int64  `json:"aud,omitempty"`
	TokenID       string `json:"jti,omitempty"`
	ExternalID    string `json:"id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}
