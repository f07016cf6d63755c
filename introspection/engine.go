/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

// Package introspection implements the token introspection decision engine:
// authenticating the requesting client from its own bearer credential,
// authorizing it to introspect, validating the subject token, and assembling
// the standardized active/inactive response.
package introspection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/acronis/go-appkit/log"
	"github.com/google/uuid"

	"github.com/datahive/introspection-server/internal/logutil"
	"github.com/datahive/introspection-server/internal/metrics"
	"github.com/datahive/introspection-server/jwt"
	"github.com/datahive/introspection-server/storage"
)

// Internal reasons logged when a caller is rejected. They never cross the
// trust boundary; the caller sees only a correlation ID.
const (
	reasonCallerTokenUndecodable = "bearer token of the requesting client could not be decoded"
	reasonClientNotLocated       = "client that issues the bearer token could not be located"
	reasonClientNotAllowed       = "requesting client is not allowed to perform introspection"
)

// Codec decodes a bearer string into a structurally valid, untrusted token.
type Codec interface {
	Parse(tokenString string) (*jwt.Token, error)
}

// Verifier reports whether a decoded token is trustworthy at a given instant.
type Verifier interface {
	Verify(ctx context.Context, token *jwt.Token, now time.Time) bool
}

// EngineOpts are additional options for Engine.
type EngineOpts struct {
	// LoggerProvider is a function that provides a logger for the Engine.
	LoggerProvider func(ctx context.Context) log.FieldLogger

	// NowFn overrides the engine's clock. Intended for tests.
	NowFn func() time.Time

	// PrometheusInstanceLabel is a label for Prometheus metrics.
	// It allows distinguishing metrics from multiple engines in the same process.
	PrometheusInstanceLabel string
}

// Engine orchestrates the authorize->validate->respond pipeline. It is
// stateless and request-scoped: collaborator answers are never cached, so
// revocation is observed immediately, and arbitrarily many introspections may
// run concurrently.
type Engine struct {
	codec          Codec
	verifier       Verifier
	clients        storage.ClientDirectory
	tokens         storage.TokenStore
	identities     storage.SubjectIdentityResolver
	loggerProvider func(ctx context.Context) log.FieldLogger
	now            func() time.Time
	promMetrics    *metrics.PrometheusMetrics
}

// NewEngine creates a new Engine with the specified codec, verifier and
// collaborators.
func NewEngine(
	codec Codec,
	verifier Verifier,
	clients storage.ClientDirectory,
	tokens storage.TokenStore,
	identities storage.SubjectIdentityResolver,
) *Engine {
	return NewEngineWithOpts(codec, verifier, clients, tokens, identities, EngineOpts{})
}

// NewEngineWithOpts creates a new Engine with the specified codec, verifier,
// collaborators and additional options.
func NewEngineWithOpts(
	codec Codec,
	verifier Verifier,
	clients storage.ClientDirectory,
	tokens storage.TokenStore,
	identities storage.SubjectIdentityResolver,
	opts EngineOpts,
) *Engine {
	now := opts.NowFn
	if now == nil {
		now = time.Now
	}
	return &Engine{
		codec:          codec,
		verifier:       verifier,
		clients:        clients,
		tokens:         tokens,
		identities:     identities,
		loggerProvider: opts.LoggerProvider,
		now:            now,
		promMetrics:    metrics.GetPrometheusMetrics(opts.PrometheusInstanceLabel),
	}
}

// Introspect authenticates and authorizes the caller by its bearer
// credential, then validates the subject token and describes it.
//
// A caller-side failure returns *AuthFailureError; the boundary layer maps it
// to a 401-equivalent status. A subject-token failure of any kind (missing,
// malformed, bad signature, expired, not yet valid, revoked) yields an
// inactive response with no error: those cases are expected traffic and are
// deliberately indistinguishable to the caller. A hard error is returned only
// for deployment defects such as a missing subject identity mapping.
func (e *Engine) Introspect(ctx context.Context, callerToken, subjectToken string) (Response, error) {
	logger := logutil.GetLoggerFromProvider(ctx, e.loggerProvider)

	client, authErr := e.authorizeCaller(ctx, logger, callerToken)
	if authErr != nil {
		return Response{}, authErr
	}
	logger.AtLevel(log.LevelDebug, func(logFunc log.LogFunc) {
		logFunc(fmt.Sprintf("introspection requested by client %q (ID: %d)",
			client.ClientName(), client.ClientID()))
	})

	// No subject token in the request is a normal, expected case.
	if subjectToken == "" {
		return e.inactive(), nil
	}

	token, err := e.codec.Parse(subjectToken)
	if err != nil {
		// Malformed subject tokens fold into "inactive": the endpoint must
		// not reveal whether the string was syntactically a token at all.
		return e.inactive(), nil
	}
	if !e.verifier.Verify(ctx, token, e.now()) {
		return e.inactive(), nil
	}
	revoked, err := e.tokens.IsRevoked(ctx, token.ID)
	if err != nil {
		logger.AtLevel(log.LevelDebug, func(logFunc log.LogFunc) {
			logFunc(fmt.Sprintf("revocation check of token %q failed", token.ID), log.Error(err))
		})
		return e.inactive(), nil
	}
	if revoked {
		return e.inactive(), nil
	}

	return e.activeResponse(ctx, logger, token)
}

// authorizeCaller resolves and authorizes the requesting client from its own
// bearer credential. On failure it mints a correlation ID, logs the internal
// reason exactly once keyed by that ID, and returns an AuthFailureError
// carrying only the ID.
func (e *Engine) authorizeCaller(
	ctx context.Context, logger log.FieldLogger, callerToken string,
) (storage.Client, *AuthFailureError) {
	callerClaims, err := e.codec.Parse(callerToken)
	if err != nil {
		return nil, e.authFailure(logger, metrics.RequestStatusUnauthenticated,
			reasonCallerTokenUndecodable, log.Error(err))
	}
	clientID, ok := callerClaims.AudienceClientID()
	if !ok {
		return nil, e.authFailure(logger, metrics.RequestStatusUnauthenticated,
			reasonClientNotLocated)
	}
	client, err := e.clients.FindActive(ctx, clientID)
	if err != nil {
		return nil, e.authFailure(logger, metrics.RequestStatusUnauthenticated,
			reasonClientNotLocated, log.Error(err))
	}

	if allowed, provided := client.IntrospectionOverride(); provided {
		if allowed {
			logger.AtLevel(log.LevelDebug, func(logFunc log.LogFunc) {
				logFunc(fmt.Sprintf("client %d is allowed to introspect (override)", client.ClientID()))
			})
			return client, nil
		}
		return nil, e.authFailure(logger, metrics.RequestStatusUnauthorized, reasonClientNotAllowed)
	}
	if client.AllowsIntrospection() {
		logger.AtLevel(log.LevelDebug, func(logFunc log.LogFunc) {
			logFunc(fmt.Sprintf("client %d is allowed to introspect (capability flag)", client.ClientID()))
		})
		return client, nil
	}
	return nil, e.authFailure(logger, metrics.RequestStatusUnauthorized, reasonClientNotAllowed)
}

// activeResponse assembles the active response from the validated token's
// claims.
func (e *Engine) activeResponse(
	ctx context.Context, logger log.FieldLogger, token *jwt.Token,
) (Response, error) {
	resp := Response{
		Active:    true,
		Scope:     strings.TrimSpace(strings.Join(token.Scopes, " ")),
		TokenType: TokenTypeAccessToken,
		TokenID:   token.ID,
	}
	if token.ExpiresAt != nil {
		resp.ExpiresAt = token.ExpiresAt.Unix()
	}
	if token.IssuedAt != nil {
		resp.IssuedAt = token.IssuedAt.Unix()
	}
	if token.NotBefore != nil {
		resp.NotBefore = token.NotBefore.Unix()
	}
	if clientID, ok := token.AudienceClientID(); ok {
		resp.Audience = clientID
		resp.ClientID = clientID
	}

	if subjectID, ok := token.SubjectID(); ok {
		resp.Subject = subjectID
		issuance, err := e.tokens.FindIssuance(ctx, token.ID)
		if err != nil {
			// A verified token whose issuance record is gone cannot be
			// attributed to a principal, so it is not described either.
			logger.AtLevel(log.LevelDebug, func(logFunc log.LogFunc) {
				logFunc(fmt.Sprintf("issuance record of token %q not resolvable", token.ID), log.Error(err))
			})
			return e.inactive(), nil
		}
		externalID, err := e.identities.ExternalID(ctx, issuance.SubjectID)
		if err != nil {
			e.promMetrics.IncRequestsTotal(metrics.RequestStatusError)
			return Response{}, fmt.Errorf("resolve external identity of subject %d: %w", issuance.SubjectID, err)
		}
		resp.ExternalID = externalID
	}

	e.promMetrics.IncRequestsTotal(metrics.RequestStatusActive)
	return resp, nil
}

func (e *Engine) inactive() Response {
	e.promMetrics.IncRequestsTotal(metrics.RequestStatusInactive)
	return Response{Active: false}
}

// authFailure mints a correlation ID, logs the internal reason once at error
// level together with that ID, and returns the failure the caller will see.
func (e *Engine) authFailure(
	logger log.FieldLogger, status, reason string, fields ...log.Field,
) *AuthFailureError {
	correlationID := uuid.NewString()
	logger.Error(fmt.Sprintf("%s (correlation ID: %s)", reason, correlationID), fields...)
	e.promMetrics.IncRequestsTotal(status)
	return &AuthFailureError{CorrelationID: correlationID}
}

// IsNoIdentityMapping reports whether the error returned by Introspect stems
// from a subject principal with no configured external identity mapping.
func IsNoIdentityMapping(err error) bool {
	return errors.Is(err, storage.ErrNoIdentityMapping)
}
