/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

package jwt

import (
	"fmt"
)

// AudienceMissingError represents an error when the audience claim is missing, but it's required.
type AudienceMissingError struct {
	Claims *Claims
}

func (e *AudienceMissingError) Error() string {
	return "JWT audience missing"
}

// AudienceNotExpectedError represents an error when the token contains a not expected audience.
type AudienceNotExpectedError struct {
	Claims *Claims
}

func (e *AudienceNotExpectedError) Error() string {
	return fmt.Sprintf("JWT audience %q not expected", e.Claims.Audience)
}
