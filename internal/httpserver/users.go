package httpserver

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/paysim/gateway/internal/repo"
	"github.com/paysim/gateway/internal/service"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) List(c echo.Context) error {
	users, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "ok", users)
}

func (h *UserHTTP) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	user, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return err
	}
	return respond(c, http.StatusOK, "ok", user)
}

type statusReq struct {
	IsActive *bool `json:"isActive"`
}

func (h *UserHTTP) SetStatus(c echo.Context) error {
	actorID, err := callerID(c)
	if err != nil {
		return err
	}
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var req statusReq
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "isActive is required")
	}

	user, err := h.Svc.SetActive(c.Request().Context(), actorID, targetID, *req.IsActive)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfStatusChange):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAdminTarget):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, repo.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return err
	}

	return respond(c, http.StatusOK, "user status updated", user)
}
