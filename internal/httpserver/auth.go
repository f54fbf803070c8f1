package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/paysim/gateway/internal/middleware"
	"github.com/paysim/gateway/internal/repo"
	"github.com/paysim/gateway/internal/service"
)

// RefreshCookieName is the cookie carrying the refresh token. HTTP-only and
// same-origin by attribute; the refresh token never appears in a JSON body.
const RefreshCookieName = "jwt"

type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration // refresh token lifetime
}

type AuthHTTP struct {
	Svc     *service.AuthService
	Cookies CookieConfig
}

type registerReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authData struct {
	User        any    `json:"user"`
	AccessToken string `json:"accessToken"`
}

func (h *AuthHTTP) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Register(c.Request().Context(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, "email already registered")
		}
		return err
	}

	c.SetCookie(h.refreshCookie(res.RefreshToken))
	return respond(c, http.StatusCreated, "account created",
		authData{User: res.User, AccessToken: res.AccessToken})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, service.ErrAccountDisabled):
			return echo.NewHTTPError(http.StatusForbidden, "account is deactivated")
		}
		return err
	}

	c.SetCookie(h.refreshCookie(res.RefreshToken))
	return respond(c, http.StatusOK, "logged in",
		authData{User: res.User, AccessToken: res.AccessToken})
}

// Logout clears the refresh cookie. An already-issued access token stays
// usable until it expires; that window is bounded by the access TTL.
func (h *AuthHTTP) Logout(c echo.Context) error {
	c.SetCookie(h.clearedRefreshCookie())
	return respond(c, http.StatusOK, "logged out", nil)
}

// Refresh reads the refresh token from its cookie only, re-checks that the
// subject still exists and is active, and returns a fresh access token. The
// refresh cookie itself is left untouched.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	access, err := h.Svc.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefresh):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		case errors.Is(err, service.ErrAccountDisabled):
			return echo.NewHTTPError(http.StatusForbidden, "account is deactivated")
		}
		return err
	}

	return respond(c, http.StatusOK, "token refreshed", echo.Map{"accessToken": access})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	user, err := h.Svc.Me(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// The account vanished after the token was issued.
			return echo.NewHTTPError(http.StatusUnauthorized, "account no longer exists")
		}
		// Store failures are not an auth problem; a 401 here would push
		// every client into a doomed refresh cycle.
		return err
	}
	return respond(c, http.StatusOK, "ok", user)
}

func (h *AuthHTTP) refreshCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.Cookies.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   h.Cookies.Secure,
		SameSite: h.Cookies.SameSite,
	}
}

func (h *AuthHTTP) clearedRefreshCookie() *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.Cookies.Secure,
		SameSite: h.Cookies.SameSite,
	}
}

// callerID parses the authenticated subject set by the Protect middleware.
func callerID(c echo.Context) (uuid.UUID, error) {
	sub, ok := c.Get(middleware.CtxUserID).(string)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}
	return id, nil
}
