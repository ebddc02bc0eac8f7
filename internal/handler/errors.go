package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/careers-portal/internal/repository"
	"github.com/iliyamo/careers-portal/internal/service"
	"github.com/iliyamo/careers-portal/internal/utils"
	"github.com/iliyamo/careers-portal/internal/workflow"
)

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, workflow.ErrUnknownStatus),
		errors.Is(err, utils.ErrWeakPassword),
		errors.Is(err, repository.ErrInvitationInvalid):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrInvalidToken),
		errors.Is(err, repository.ErrRefreshInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrAccessDenied),
		errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrDuplicate),
		errors.Is(err, repository.ErrEmailExists),
		errors.Is(err, workflow.ErrTerminalStatus),
		errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes {"error": ...} for err.  Internal errors are hidden from the
// client and left on the context for the request logger.
func fail(c echo.Context, err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		c.Set("error", err)
		return c.JSON(code, echo.Map{"error": "internal error"})
	}
	return c.JSON(code, echo.Map{"error": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
