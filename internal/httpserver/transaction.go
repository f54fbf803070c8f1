package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/paysim/gateway/internal/service"
)

type TransactionHTTP struct {
	Svc *service.TransactionService
}

func (h *TransactionHTTP) Simulate(c echo.Context) error {
	merchantID, err := callerID(c)
	if err != nil {
		return err
	}

	var in service.SimulateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	txn, err := h.Svc.Simulate(c.Request().Context(), merchantID, in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPaymentDeclined):
			return echo.NewHTTPError(http.StatusPaymentRequired, "payment declined")
		}
		return err
	}

	return respond(c, http.StatusCreated, "payment processed", txn)
}

func (h *TransactionHTTP) History(c echo.Context) error {
	merchantID, err := callerID(c)
	if err != nil {
		return err
	}

	hist, err := h.Svc.History(c.Request().Context(), merchantID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ok", hist)
}
