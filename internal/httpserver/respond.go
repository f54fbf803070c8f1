// Package httpserver wires the Echo handlers, the response envelope and the
// error boundary for the gateway's HTTP surface.
package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
)

// Envelope is the uniform response body. The HTTP status code carries the
// primary signal; the envelope is secondary and diagnostic.
type Envelope struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, Envelope{
		Success:   false,
		Message:   message,
		Error:     message,
		Timestamp: time.Now().UTC(),
	})
}
