package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/paysim/gateway/internal/logging"
)

// ErrorHandler is the single boundary every failed request funnels through.
// Domain errors arrive as *echo.HTTPError with their status and message
// already chosen; anything else is a programming error and surfaces as a
// generic 500 with the detail kept in the logs.
func ErrorHandler() echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		l := logging.FromContext(c.Request().Context())

		if he, ok := err.(*echo.HTTPError); ok {
			msg := fmt.Sprintf("%v", he.Message)
			l.Warn("request failed", "status", he.Code, "error", msg)
			if writeErr := respondError(c, he.Code, msg); writeErr != nil {
				l.Error("error response write failed", "error", writeErr)
			}
			return
		}

		l.Error("unhandled error", "error", err)
		if writeErr := respondError(c, http.StatusInternalServerError, "internal server error"); writeErr != nil {
			l.Error("error response write failed", "error", writeErr)
		}
	}
}
