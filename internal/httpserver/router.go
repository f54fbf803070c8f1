package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	mw "github.com/paysim/gateway/internal/middleware"
	"github.com/paysim/gateway/internal/models"
	"github.com/paysim/gateway/internal/tokens"
)

type Deps struct {
	Auth  *AuthHTTP
	Tx    *TransactionHTTP
	Users *UserHTTP

	Tokens *tokens.Service
	Redis  *redis.Client // nil disables rate limiting
	Log    *slog.Logger
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler()
	e.Use(echomw.Recover())
	e.Use(mw.RequestLogger(d.Log))

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	protect := mw.Protect(d.Tokens)
	loginLimiter := mw.RateLimit(mw.RateLimitConfig{
		Enabled: d.Redis != nil,
		Limit:   10,
		Window:  time.Minute,
		Prefix:  "auth",
	}, d.Redis)

	auth := e.Group("/auth")
	auth.POST("/register", d.Auth.Register, loginLimiter)
	auth.POST("/login", d.Auth.Login, loginLimiter)
	auth.POST("/logout", d.Auth.Logout)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.GET("/me", d.Auth.Me, protect)

	tx := e.Group("/transaction", protect, mw.RestrictTo(models.RoleMerchant, models.RoleAdmin))
	tx.POST("/simulate", d.Tx.Simulate)
	tx.GET("/history", d.Tx.History)

	users := e.Group("/users", protect)
	users.GET("", d.Users.List, mw.RestrictTo(models.RoleAdmin))
	users.PATCH("/:id/status", d.Users.SetStatus, mw.RestrictTo(models.RoleAdmin))
	users.GET("/:id", d.Users.Get, mw.RequireOwner("id"))
}
