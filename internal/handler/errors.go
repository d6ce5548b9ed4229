// Package handler contains the HTTP endpoints. Business failures reach this
// layer as members of the service error set and are translated to statuses
// here; nothing below the boundary ever formats an HTTP response.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/presenca-app/presenca-api/internal/service"
)

// businessStatus maps every member of the closed service error set to its
// HTTP status. Unknown errors deliberately have no entry: they are server
// faults and must not leak details to the client.
var businessStatus = []struct {
	err    error
	status int
}{
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},
	{service.ErrTokenReuse, http.StatusUnauthorized},
	{service.ErrTokenExpired, http.StatusUnauthorized},
	{service.ErrAccessNotGranted, http.StatusForbidden},
	{service.ErrAccessExpired, http.StatusForbidden},
	{service.ErrNoActiveEvent, http.StatusBadRequest},
	{service.ErrEventRemoved, http.StatusBadRequest},
	{service.ErrEventInactive, http.StatusBadRequest},
	{service.ErrEventMisconfigured, http.StatusBadRequest},
	{service.ErrWindowNotOpen, http.StatusBadRequest},
	{service.ErrWindowClosed, http.StatusBadRequest},
	{service.ErrSummonsRequired, http.StatusBadRequest},
	{service.ErrCityRequired, http.StatusBadRequest},
	{service.ErrInvalidCity, http.StatusBadRequest},
	{service.ErrInvalidInstrument, http.StatusBadRequest},
}

// writeServiceError renders a service failure. Matched errors carry their
// message verbatim (wrapped variants keep the wrapping, e.g. the window
// opening time); anything else is logged with context and sanitized to a
// plain 500.
func writeServiceError(c echo.Context, log *slog.Logger, err error) error {
	for _, m := range businessStatus {
		if errors.Is(err, m.err) {
			return c.JSON(m.status, echo.Map{"error": err.Error()})
		}
	}
	log.Error("unexpected failure",
		slog.String("method", c.Request().Method),
		slog.String("path", c.Path()),
		slog.Any("error", err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}
