package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/presenca-app/presenca-api/internal/middleware"
	"github.com/presenca-app/presenca-api/internal/repository"
)

// ReferenceHandler serves the tenant-scoped lookup lists the registration
// form needs. All three endpoints sit behind the reference-list cache.
type ReferenceHandler struct {
	Cities      *repository.ReferenceRepo
	Instruments *repository.ReferenceRepo
	Roles       *repository.RoleRepo
	Log         *slog.Logger
}

func NewReferenceHandler(cities, instruments *repository.ReferenceRepo,
	roles *repository.RoleRepo, log *slog.Logger) *ReferenceHandler {
	return &ReferenceHandler{Cities: cities, Instruments: instruments, Roles: roles, Log: log}
}

// ListCities handles GET /v1/cities.
func (h *ReferenceHandler) ListCities(c echo.Context) error {
	return h.listReference(c, h.Cities)
}

// ListInstruments handles GET /v1/instruments.
func (h *ReferenceHandler) ListInstruments(c echo.Context) error {
	return h.listReference(c, h.Instruments)
}

// ListRoles handles GET /v1/roles.
func (h *ReferenceHandler) ListRoles(c echo.Context) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	roles, err := h.Roles.List(c.Request().Context(), claims.TenantID)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	out := make([]echo.Map, 0, len(roles))
	for _, r := range roles {
		out = append(out, echo.Map{"id": r.ID, "name": r.Name})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReferenceHandler) listReference(c echo.Context, repo *repository.ReferenceRepo) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := repo.List(c.Request().Context(), claims.TenantID)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	out := make([]echo.Map, 0, len(items))
	for _, it := range items {
		out = append(out, echo.Map{"id": it.ID, "name": it.Name})
	}
	return c.JSON(http.StatusOK, out)
}
