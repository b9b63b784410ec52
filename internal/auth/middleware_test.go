package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/linkhive/linkhive/internal"
	"github.com/linkhive/linkhive/internal/auth"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	identity internal.Identity
	err      error
}

func (s stubVerifier) Verify(ctx context.Context, rawToken string) (internal.Identity, error) {
	return s.identity, s.err
}

func invoke(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) (internal.Identity, error) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got internal.Identity
	err := mw(func(c echo.Context) error {
		identity, ok := auth.IdentityFrom(c)
		require.True(t, ok)
		got = identity
		return nil
	})(c)
	return got, err
}

func TestMiddleware_ValidToken(t *testing.T) {
	want := internal.Identity{Subject: "u1", Tenant: "t1", DisplayName: "U One"}
	mw := auth.NewMiddleware(stubVerifier{identity: want}, false)

	req := httptest.NewRequest(http.MethodGet, "/api/links", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer some-token")

	got, err := invoke(t, mw, req)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMiddleware_MissingOrBadHeader(t *testing.T) {
	mw := auth.NewMiddleware(stubVerifier{}, false)

	for _, header := range []string{"", "Bearer", "Bearer   ", "Basic dXNlcg=="} {
		req := httptest.NewRequest(http.MethodGet, "/api/links", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}

		_, err := invoke(t, mw, req)
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr, "header %q", header)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	}
}

func TestMiddleware_VerificationFailure(t *testing.T) {
	mw := auth.NewMiddleware(stubVerifier{err: errors.New("token has expired")}, false)

	req := httptest.NewRequest(http.MethodGet, "/api/links", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer expired-token")

	_, err := invoke(t, mw, req)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestMiddleware_TestMode(t *testing.T) {
	// No verifier at all: test mode must never reach one
	mw := auth.NewMiddleware(nil, true)

	req := httptest.NewRequest(http.MethodGet, "/api/links", nil)

	got, err := invoke(t, mw, req)
	require.NoError(t, err)
	assert.Equal(t, auth.TestIdentity, got)
	assert.Equal(t, "test-tenant-id", got.Tenant)
}
