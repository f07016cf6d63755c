/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

package introspection

// AuthFailureError is returned when the requesting client itself fails
// authentication or authorization. Only the correlation ID crosses the trust
// boundary; the true reason is logged exactly once, at the moment the ID is
// minted.
type AuthFailureError struct {
	CorrelationID string
}

func (e *AuthFailureError) Error() string {
	return "Unauthorized. Correlation ID: " + e.CorrelationID
}
