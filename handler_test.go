/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

package introspectionserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	jwtgo "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/datahive/introspection-server/introspection"
	"github.com/datahive/introspection-server/introspecttest"
	"github.com/datahive/introspection-server/jwt"
	"github.com/datahive/introspection-server/storage"
	"github.com/datahive/introspection-server/storage/inmem"
)

const testErrorDomain = "TestService"

type errorResponse struct {
	Err struct {
		Domain  string `json:"domain"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T) (*httptest.Server, *inmem.Store) {
	t.Helper()
	store := inmem.New()
	engine := introspecttest.NewEngine(store, introspection.EngineOpts{})
	srv := httptest.NewServer(NewRouter(testErrorDomain, engine, RouterOpts{}))
	t.Cleanup(srv.Close)
	return srv, store
}

func doIntrospect(t *testing.T, srv *httptest.Server, callerToken, subjectToken string) *http.Response {
	t.Helper()
	form := url.Values{}
	if subjectToken != "" {
		form.Set(FormFieldToken, subjectToken)
	}
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/oauth/introspect", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if callerToken != "" {
		req.Header.Set(HeaderAuthorization, "Bearer "+callerToken)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func mintCallerToken(clientID string) string {
	return introspecttest.MustMakeTokenString(&jwt.Claims{
		RegisteredClaims: jwtgo.RegisteredClaims{
			Audience:  jwtgo.ClaimStrings{clientID},
			ExpiresAt: jwtgo.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
}

func TestHandler_ServeHTTP(t *testing.T) {
	t.Run("missing bearer token", func(t *testing.T) {
		srv, _ := newTestServer(t)
		resp := doIntrospect(t, srv, "", "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var errResp errorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
		require.Equal(t, testErrorDomain, errResp.Err.Domain)
		require.Equal(t, ErrCodeBearerTokenMissing, errResp.Err.Code)
	})

	t.Run("unauthorized caller discloses only a correlation ID", func(t *testing.T) {
		srv, _ := newTestServer(t)
		resp := doIntrospect(t, srv, mintCallerToken("99"), "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var errResp errorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
		require.Equal(t, ErrCodeAuthenticationFailed, errResp.Err.Code)
		require.Contains(t, errResp.Err.Message, "Unauthorized. Correlation ID: ")
		require.NotContains(t, errResp.Err.Message, "could not be located")
	})

	t.Run("no subject token yields inactive", func(t *testing.T) {
		srv, store := newTestServer(t)
		store.RegisterClient(&storage.ClientRecord{ID: 42, Name: "billing", CanIntrospect: true})

		resp := doIntrospect(t, srv, mintCallerToken("42"), "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, map[string]interface{}{"active": false}, body)
	})

	t.Run("active subject token", func(t *testing.T) {
		srv, store := newTestServer(t)
		store.RegisterClient(&storage.ClientRecord{ID: 42, Name: "billing", CanIntrospect: true})
		store.SaveIssuance(storage.IssuanceRecord{TokenID: "abc", SubjectID: 7})
		store.MapIdentity(7, "usr_abc123")

		subjectToken := introspecttest.MustMakeTokenString(&jwt.Claims{
			RegisteredClaims: jwtgo.RegisteredClaims{
				ID:        "abc",
				Subject:   "7",
				Audience:  jwtgo.ClaimStrings{"42"},
				ExpiresAt: jwtgo.NewNumericDate(time.Now().Add(time.Hour)),
			},
			Scopes: []string{"read", "write"},
		})
		resp := doIntrospect(t, srv, mintCallerToken("42"), subjectToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body introspection.Response
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.True(t, body.Active)
		require.Equal(t, "read write", body.Scope)
		require.Equal(t, int64(42), body.ClientID)
		require.Equal(t, introspection.TokenTypeAccessToken, body.TokenType)
		require.Equal(t, int64(7), body.Subject)
		require.Equal(t, "abc", body.TokenID)
		require.Equal(t, "usr_abc123", body.ExternalID)
	})

	t.Run("missing identity mapping yields 500", func(t *testing.T) {
		srv, store := newTestServer(t)
		store.RegisterClient(&storage.ClientRecord{ID: 42, Name: "billing", CanIntrospect: true})
		store.SaveIssuance(storage.IssuanceRecord{TokenID: "abc", SubjectID: 7})

		subjectToken := introspecttest.MustMakeTokenString(&jwt.Claims{
			RegisteredClaims: jwtgo.RegisteredClaims{
				ID:        "abc",
				Subject:   "7",
				ExpiresAt: jwtgo.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		resp := doIntrospect(t, srv, mintCallerToken("42"), subjectToken)
		require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		var errResp errorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
		require.Equal(t, ErrCodeInternal, errResp.Err.Code)
		require.Equal(t, ErrMessageInternal, errResp.Err.Message)
	})

	t.Run("method not allowed", func(t *testing.T) {
		srv, _ := newTestServer(t)
		resp, err := http.Get(srv.URL + "/oauth/introspect")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("custom path prefix", func(t *testing.T) {
		store := inmem.New()
		store.RegisterClient(&storage.ClientRecord{ID: 42, Name: "billing", CanIntrospect: true})
		engine := introspecttest.NewEngine(store, introspection.EngineOpts{})
		srv := httptest.NewServer(NewRouter(testErrorDomain, engine, RouterOpts{PathPrefix: "/auth"}))
		defer srv.Close()

		form := url.Values{}
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/auth/introspect", strings.NewReader(form.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set(HeaderAuthorization, "Bearer "+mintCallerToken("42"))
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestGetBearerTokenFromRequest(t *testing.T) {
	makeReq := func(header string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/oauth/introspect", nil)
		if header != "" {
			req.Header.Set(HeaderAuthorization, header)
		}
		return req
	}

	require.Equal(t, "abc", GetBearerTokenFromRequest(makeReq("Bearer abc")))
	require.Equal(t, "abc", GetBearerTokenFromRequest(makeReq("bearer abc")))
	require.Equal(t, "", GetBearerTokenFromRequest(makeReq("Basic abc")))
	require.Equal(t, "", GetBearerTokenFromRequest(makeReq("")))
}
