package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/paysim/gateway/internal/models"
)

// RestrictTo allows only the listed roles through. Membership is an explicit
// allow-list: ADMIN does not pass a MERCHANT-gated route unless the route
// lists ADMIN. Must run after Protect.
func RestrictTo(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	names := strings.Join(roles, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok {
				// Unreachable when route ordering is correct; kept so a
				// misconfigured route fails closed.
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !allowed[role] {
				return echo.NewHTTPError(http.StatusForbidden,
					fmt.Sprintf("requires one of the roles: %s", names))
			}
			return next(c)
		}
	}
}

// RequireOwner permits access only when the named path parameter equals the
// caller's own id. ADMIN bypasses the check unconditionally.
func RequireOwner(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if role == models.RoleAdmin {
				return next(c)
			}
			resourceID := c.Param(param)
			if resourceID == "" {
				return echo.NewHTTPError(http.StatusBadRequest,
					fmt.Sprintf("missing path parameter %q", param))
			}
			userID, _ := c.Get(CtxUserID).(string)
			if resourceID != userID {
				return echo.NewHTTPError(http.StatusForbidden, "you can only access your own resource")
			}
			return next(c)
		}
	}
}
