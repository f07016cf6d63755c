/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

package jwt

import (
	"strconv"

	jwtgo "github.com/golang-jwt/jwt/v5"
)

// Claims is the set of claims consumed from access tokens minted by the
// resource server's token issuer. The issuer encodes the numeric principal
// identifiers (subject and audience) as decimal strings, which is why the
// typed accessors below exist.
type Claims struct {
	jwtgo.RegisteredClaims
	Scopes []string `json:"scopes,omitempty"`
}

// SubjectID returns the numeric ID of the owning subject principal.
// ok is false when the subject claim is absent or not numeric.
func (c *Claims) SubjectID() (id int64, ok bool) {
	if c.Subject == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// AudienceClientID returns the numeric ID of the client the token was issued
// to. Tokens carry a single audience value which the issuer sets to the
// requesting client's ID. ok is false when the audience claim is absent or
// not numeric.
func (c *Claims) AudienceClientID() (id int64, ok bool) {
	if len(c.Audience) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(c.Audience[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
