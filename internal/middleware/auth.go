// Package middleware holds the request guards: bearer-token authentication,
// role and ownership checks, rate limiting and request logging.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/paysim/gateway/internal/logging"
	"github.com/paysim/gateway/internal/tokens"
)

// Context keys populated by Protect and OptionalAuth.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
	CtxClaims = "claims"
)

// Protect rejects requests without a valid bearer access token. Verification
// is signature plus time claims only; this path never touches the database.
func Protect(ts *tokens.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			claims, err := ts.VerifyAccess(raw)
			if err != nil {
				// Expired vs invalid vs not-yet-valid is log-only;
				// clients see the same 401 either way.
				logging.FromContext(c.Request().Context()).
					Warn("access token rejected", "reason", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			setIdentity(c, claims)
			return next(c)
		}
	}
}

// OptionalAuth attaches an identity when a valid bearer token is present and
// silently proceeds anonymous otherwise. A stale token on a public endpoint
// must not turn into an error.
func OptionalAuth(ts *tokens.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, ok := bearerToken(c); ok {
				if claims, err := ts.VerifyAccess(raw); err == nil {
					setIdentity(c, claims)
				}
			}
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return auth[7:], true
	}
	return "", false
}

func setIdentity(c echo.Context, claims *tokens.AccessClaims) {
	c.Set(CtxUserID, claims.Subject)
	c.Set(CtxEmail, claims.Email)
	c.Set(CtxRole, claims.Role)
	c.Set(CtxClaims, claims)
}
