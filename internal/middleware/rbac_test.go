package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paysim/gateway/internal/models"
)

func authedContext(t *testing.T, userID, role string) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if role != "" {
		c.Set(CtxUserID, userID)
		c.Set(CtxRole, role)
	}
	return c
}

func TestRestrictTo_AllowListPermutations(t *testing.T) {
	t.Parallel()

	guard := RestrictTo(models.RoleMerchant, models.RoleAdmin)

	tests := []struct {
		role       string
		wantStatus int // 0 means allowed
	}{
		{role: models.RoleUser, wantStatus: http.StatusForbidden},
		{role: models.RoleMerchant, wantStatus: 0},
		{role: models.RoleAdmin, wantStatus: 0},
		{role: "", wantStatus: http.StatusUnauthorized}, // no identity attached
	}

	for _, tt := range tests {
		tt := tt
		name := tt.role
		if name == "" {
			name = "anonymous"
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c := authedContext(t, "some-id", tt.role)
			err := guard(okHandler)(c)

			if tt.wantStatus == 0 {
				assert.NoError(t, err)
				return
			}
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, tt.wantStatus, he.Code)
		})
	}
}

func TestRestrictTo_ForbiddenNamesAllowedRoles(t *testing.T) {
	t.Parallel()

	c := authedContext(t, "u1", models.RoleUser)
	err := RestrictTo(models.RoleMerchant, models.RoleAdmin)(okHandler)(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Contains(t, he.Message, models.RoleMerchant)
	assert.Contains(t, he.Message, models.RoleAdmin)
}

// No implicit hierarchy: ADMIN is denied on a MERCHANT-only route.
func TestRestrictTo_NoHierarchy(t *testing.T) {
	t.Parallel()

	c := authedContext(t, "a1", models.RoleAdmin)
	err := RestrictTo(models.RoleMerchant)(okHandler)(c)

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusForbidden, he.Code)
}

func TestRequireOwner(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		role       string
		userID     string
		paramValue string // empty means the param is absent
		wantStatus int    // 0 means allowed
	}{
		{name: "admin bypasses any id", role: models.RoleAdmin, userID: "admin-1", paramValue: "someone-else", wantStatus: 0},
		{name: "owner matches", role: models.RoleUser, userID: "user-1", paramValue: "user-1", wantStatus: 0},
		{name: "non-owner denied", role: models.RoleUser, userID: "user-1", paramValue: "user-2", wantStatus: http.StatusForbidden},
		{name: "missing param", role: models.RoleUser, userID: "user-1", paramValue: "", wantStatus: http.StatusBadRequest},
		{name: "no identity", role: "", userID: "", paramValue: "user-1", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := authedContext(t, tt.userID, tt.role)
			if tt.paramValue != "" {
				c.SetParamNames("id")
				c.SetParamValues(tt.paramValue)
			}

			err := RequireOwner("id")(okHandler)(c)
			if tt.wantStatus == 0 {
				assert.NoError(t, err)
				return
			}
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, tt.wantStatus, he.Code)
		})
	}
}
