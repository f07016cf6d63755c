/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

// Package introspectionserver provides the HTTP surface of the token
// introspection service: request decoding, caller failure mapping and routing.
package introspectionserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/acronis/go-appkit/httpserver/middleware"
	"github.com/acronis/go-appkit/log"
	"github.com/acronis/go-appkit/restapi"
	"github.com/go-chi/chi/v5"

	"github.com/datahive/introspection-server/internal/logutil"
	"github.com/datahive/introspection-server/introspection"
)

// HeaderAuthorization contains the name of HTTP header with data that is used for authentication and authorization.
const HeaderAuthorization = "Authorization"

// FormFieldToken is the name of the request form field carrying the token under introspection.
const FormFieldToken = "token"

// Authentication and authorization error codes.
// We are using "var" here because some services may want to use different error codes.
var (
	ErrCodeBearerTokenMissing   = "bearerTokenMissing"
	ErrCodeAuthenticationFailed = "authenticationFailed"
	ErrCodeInternal             = "internalError"
)

// Error messages.
// We are using "var" here because some services may want to use different error messages.
var (
	ErrMessageBearerTokenMissing = "Authorization bearer token is missing."
	ErrMessageInternal           = "Internal server error."
)

// Introspector answers introspection requests. *introspection.Engine implements it.
type Introspector interface {
	Introspect(ctx context.Context, callerToken, subjectToken string) (introspection.Response, error)
}

// HandlerOpts are additional options for Handler.
type HandlerOpts struct {
	// LoggerProvider is a function that provides a logger for the Handler.
	LoggerProvider func(ctx context.Context) log.FieldLogger
}

// Handler serves POST introspection requests.
// errorDomain is used for error responses. It is usually the name of the service,
// and its goal is distinguishing errors from different services.
type Handler struct {
	errorDomain    string
	introspector   Introspector
	loggerProvider func(ctx context.Context) log.FieldLogger
}

// NewHandler creates a new Handler with the specified error domain and introspector.
func NewHandler(errorDomain string, introspector Introspector) *Handler {
	return NewHandlerWithOpts(errorDomain, introspector, HandlerOpts{})
}

// NewHandlerWithOpts creates a new Handler with the specified error domain,
// introspector and additional options.
func NewHandlerWithOpts(errorDomain string, introspector Introspector, opts HandlerOpts) *Handler {
	loggerProvider := opts.LoggerProvider
	if loggerProvider == nil {
		loggerProvider = middleware.GetLoggerFromContext
	}
	return &Handler{
		errorDomain:    errorDomain,
		introspector:   introspector,
		loggerProvider: loggerProvider,
	}
}

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	logger := logutil.GetLoggerFromProvider(r.Context(), h.loggerProvider)

	callerToken := GetBearerTokenFromRequest(r)
	if callerToken == "" {
		apiErr := restapi.NewError(h.errorDomain, ErrCodeBearerTokenMissing, ErrMessageBearerTokenMissing)
		restapi.RespondError(rw, http.StatusUnauthorized, apiErr, logger)
		return
	}

	// An unparsable form simply carries no subject token; that case folds
	// into the inactive response downstream.
	_ = r.ParseForm()
	subjectToken := r.PostFormValue(FormFieldToken)

	resp, err := h.introspector.Introspect(r.Context(), callerToken, subjectToken)
	if err != nil {
		var authErr *introspection.AuthFailureError
		if errors.As(err, &authErr) {
			apiErr := restapi.NewError(h.errorDomain, ErrCodeAuthenticationFailed, authErr.Error())
			restapi.RespondError(rw, http.StatusUnauthorized, apiErr, logger)
			return
		}
		logger.Error("introspection failed", log.Error(err))
		apiErr := restapi.NewError(h.errorDomain, ErrCodeInternal, ErrMessageInternal)
		restapi.RespondError(rw, http.StatusInternalServerError, apiErr, logger)
		return
	}

	restapi.RespondJSON(rw, &resp, logger)
}

// RouterOpts are additional options for NewRouter.
type RouterOpts struct {
	// PathPrefix is the route prefix under which the introspection endpoint
	// is mounted. Defaults to DefaultPathPrefix.
	PathPrefix string

	// HandlerOpts are passed through to the Handler.
	HandlerOpts HandlerOpts
}

// NewRouter creates a chi router serving POST {prefix}/introspect.
func NewRouter(errorDomain string, introspector Introspector, opts RouterOpts) chi.Router {
	prefix := opts.PathPrefix
	if prefix == "" {
		prefix = DefaultPathPrefix
	}
	handler := NewHandlerWithOpts(errorDomain, introspector, opts.HandlerOpts)
	router := chi.NewRouter()
	router.Route(prefix, func(r chi.Router) {
		r.Method(http.MethodPost, "/introspect", handler)
	})
	return router
}

// GetBearerTokenFromRequest extracts jwt token from request headers.
func GetBearerTokenFromRequest(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get(HeaderAuthorization))
	if strings.HasPrefix(authHeader, "Bearer ") || strings.HasPrefix(authHeader, "bearer ") {
		return authHeader[7:]
	}
	return ""
}
