package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/linkhive/linkhive/internal"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const identityContextKey = "auth.identity"

// TokenVerifier is the capability the middleware depends on: given a
// bearer token, return a verified identity or fail.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (internal.Identity, error)
}

// TestIdentity is the synthetic identity used when test mode is enabled.
var TestIdentity = internal.Identity{
	Subject:     "test-user-id",
	Tenant:      "test-tenant-id",
	DisplayName: "Test User",
	Email:       "test@example.com",
}

// NewMiddleware returns echo middleware that verifies the Authorization
// bearer token and stores the resulting identity in the request context.
// With testMode set, verification is bypassed and TestIdentity is used;
// the flag must never be enabled in production.
func NewMiddleware(verifier TokenVerifier, testMode bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if testMode {
				log.Debug().Msg("test mode enabled, using synthetic identity")
				c.Set(identityContextKey, TestIdentity)
				return next(c)
			}

			token, ok := bearerToken(c.Request())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			identity, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				log.Warn().Err(err).Msg("token verification failed")
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			c.Set(identityContextKey, identity)
			return next(c)
		}
	}
}

// IdentityFrom returns the verified identity stored by the middleware.
func IdentityFrom(c echo.Context) (internal.Identity, bool) {
	identity, ok := c.Get(identityContextKey).(internal.Identity)
	return identity, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(echo.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
