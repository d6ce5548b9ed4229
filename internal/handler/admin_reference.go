package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/presenca-app/presenca-api/internal/middleware"
	"github.com/presenca-app/presenca-api/internal/queue"
	"github.com/presenca-app/presenca-api/internal/repository"
	"github.com/presenca-app/presenca-api/internal/utils"
)

// AdminReferenceHandler manages the city and instrument catalogs. Creates go
// through the same find-or-create path registration uses, so an admin adding
// "sao paulo" and a registrant typing "São Paulo" land on the same row.
type AdminReferenceHandler struct {
	Cities      *repository.ReferenceRepo
	Instruments *repository.ReferenceRepo
	Publisher   *queue.Publisher
	Redis       *redis.Client
	Log         *slog.Logger
}

func NewAdminReferenceHandler(cities, instruments *repository.ReferenceRepo,
	pub *queue.Publisher, rdb *redis.Client, log *slog.Logger) *AdminReferenceHandler {
	return &AdminReferenceHandler{Cities: cities, Instruments: instruments,
		Publisher: pub, Redis: rdb, Log: log}
}

type referenceReq struct {
	Name string `json:"name"`
}

// CreateCity handles POST /v1/admin/cities.
func (h *AdminReferenceHandler) CreateCity(c echo.Context) error {
	return h.create(c, h.Cities, "City", utils.NormalizeName)
}

// CreateInstrument handles POST /v1/admin/instruments.
func (h *AdminReferenceHandler) CreateInstrument(c echo.Context) error {
	return h.create(c, h.Instruments, "Instrument", utils.NormalizeInstrumentName)
}

// DeleteCity handles DELETE /v1/admin/cities/:id.
func (h *AdminReferenceHandler) DeleteCity(c echo.Context) error {
	return h.delete(c, h.Cities, "City")
}

// DeleteInstrument handles DELETE /v1/admin/instruments/:id.
func (h *AdminReferenceHandler) DeleteInstrument(c echo.Context) error {
	return h.delete(c, h.Instruments, "Instrument")
}

func (h *AdminReferenceHandler) create(c echo.Context, repo *repository.ReferenceRepo,
	entity string, normalize func(string) string) error {
	claims := middleware.Claims(c)
	var req referenceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	name := normalize(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx := c.Request().Context()
	id, err := repo.FindOrCreate(ctx, claims.TenantID, name)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}

	middleware.InvalidateReferenceLists(ctx, h.Redis, claims.TenantID)
	_ = h.Publisher.PublishAudit(ctx, queue.AuditEvent{
		TenantID: claims.TenantID,
		UserID:   claims.UserID,
		Action:   "CREATE",
		Entity:   entity,
		EntityID: queue.EntityKey(id),
		Details:  name,
	})
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "name": name})
}

func (h *AdminReferenceHandler) delete(c echo.Context, repo *repository.ReferenceRepo, entity string) error {
	claims := middleware.Claims(c)
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx := c.Request().Context()
	if err := repo.SoftDelete(ctx, id, claims.TenantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": entity + " not found"})
		}
		return writeServiceError(c, h.Log, err)
	}

	middleware.InvalidateReferenceLists(ctx, h.Redis, claims.TenantID)
	_ = h.Publisher.PublishAudit(ctx, queue.AuditEvent{
		TenantID: claims.TenantID,
		UserID:   claims.UserID,
		Action:   "DELETE",
		Entity:   entity,
		EntityID: queue.EntityKey(id),
	})
	return c.NoContent(http.StatusNoContent)
}
