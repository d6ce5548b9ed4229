package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/presenca-app/presenca-api/internal/middleware"
	"github.com/presenca-app/presenca-api/internal/model"
	"github.com/presenca-app/presenca-api/internal/queue"
	"github.com/presenca-app/presenca-api/internal/repository"
)

// AdminEventHandler manages events, summons batches and the attendance
// listing for the dashboard. All routes require an admin role.
type AdminEventHandler struct {
	DB         *sql.DB
	Events     *repository.EventRepo
	Summons    *repository.SummonsRepo
	Users      *repository.UserRepo
	Attendance *repository.AttendanceRepo
	Publisher  *queue.Publisher
	Log        *slog.Logger
}

func NewAdminEventHandler(db *sql.DB, events *repository.EventRepo, summons *repository.SummonsRepo,
	users *repository.UserRepo, attendance *repository.AttendanceRepo,
	pub *queue.Publisher, log *slog.Logger) *AdminEventHandler {
	return &AdminEventHandler{DB: db, Events: events, Summons: summons, Users: users,
		Attendance: attendance, Publisher: pub, Log: log}
}

type eventReq struct {
	Name            string    `json:"name"`
	RegionID        *uint64   `json:"region_id"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	Active          bool      `json:"active"`
	RequiresSummons bool      `json:"requires_summons"`
}

type eventResp struct {
	ID              uint64     `json:"id"`
	RegionID        *uint64    `json:"region_id,omitempty"`
	Name            string     `json:"name"`
	StartsAt        time.Time  `json:"starts_at"`
	EndsAt          time.Time  `json:"ends_at"`
	Active          bool       `json:"active"`
	RequiresSummons bool       `json:"requires_summons"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

func toEventResp(e *model.Event) eventResp {
	resp := eventResp{
		ID:              e.ID,
		RegionID:        e.RegionID,
		Name:            e.Name,
		StartsAt:        e.StartsAt,
		EndsAt:          e.EndsAt,
		Active:          e.Active,
		RequiresSummons: e.RequiresSummons,
	}
	if !e.CreatedAt.IsZero() {
		created := e.CreatedAt
		resp.CreatedAt = &created
	}
	return resp
}

func (r *eventReq) validate() string {
	if strings.TrimSpace(r.Name) == "" {
		return "name required"
	}
	if r.StartsAt.IsZero() || r.EndsAt.IsZero() {
		return "starts_at and ends_at required"
	}
	if r.EndsAt.Before(r.StartsAt) {
		return "ends_at must not precede starts_at"
	}
	return ""
}

// List handles GET /v1/admin/events.
func (h *AdminEventHandler) List(c echo.Context) error {
	claims := middleware.Claims(c)
	events, err := h.Events.List(c.Request().Context(), claims.TenantID)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	out := make([]eventResp, 0, len(events))
	for i := range events {
		out = append(out, toEventResp(&events[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Create handles POST /v1/admin/events.
func (h *AdminEventHandler) Create(c echo.Context) error {
	claims := middleware.Claims(c)
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	e := &model.Event{
		TenantID:        claims.TenantID,
		RegionID:        req.RegionID,
		Name:            strings.TrimSpace(req.Name),
		StartsAt:        req.StartsAt.UTC(),
		EndsAt:          req.EndsAt.UTC(),
		Active:          req.Active,
		RequiresSummons: req.RequiresSummons,
	}
	if err := h.Events.Create(c.Request().Context(), e); err != nil {
		return writeServiceError(c, h.Log, err)
	}
	h.audit(c, claims.UserID, claims.TenantID, "CREATE", "Event", e.ID, "")
	return c.JSON(http.StatusCreated, toEventResp(e))
}

// Update handles PUT /v1/admin/events/:id.
func (h *AdminEventHandler) Update(c echo.Context) error {
	claims := middleware.Claims(c)
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	e := &model.Event{
		ID:              id,
		TenantID:        claims.TenantID,
		RegionID:        req.RegionID,
		Name:            strings.TrimSpace(req.Name),
		StartsAt:        req.StartsAt.UTC(),
		EndsAt:          req.EndsAt.UTC(),
		Active:          req.Active,
		RequiresSummons: req.RequiresSummons,
	}
	if err := h.Events.Update(c.Request().Context(), e); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return writeServiceError(c, h.Log, err)
	}
	h.audit(c, claims.UserID, claims.TenantID, "UPDATE", "Event", id, "")
	return c.JSON(http.StatusOK, toEventResp(e))
}

// Delete handles DELETE /v1/admin/events/:id (soft delete).
func (h *AdminEventHandler) Delete(c echo.Context) error {
	claims := middleware.Claims(c)
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if err := h.Events.SoftDelete(c.Request().Context(), id, claims.TenantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return writeServiceError(c, h.Log, err)
	}
	h.audit(c, claims.UserID, claims.TenantID, "DELETE", "Event", id, "")
	return c.NoContent(http.StatusNoContent)
}

type summonsReq struct {
	UserIDs []uint64 `json:"user_ids"`
}

// ReplaceSummons handles PUT /v1/admin/events/:id/summons. The event's
// allow-list is replaced wholesale and the summoned users get their login
// access liberated and linked to the event, all in one transaction. A batch
// naming any user outside the caller's tenant is rejected whole.
func (h *AdminEventHandler) ReplaceSummons(c echo.Context) error {
	claims := middleware.Claims(c)
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req summonsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx := c.Request().Context()
	if _, err := h.Events.GetByID(ctx, id, claims.TenantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return writeServiceError(c, h.Log, err)
	}

	tx, err := h.DB.BeginTx(ctx, nil)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	n, err := h.Users.CountInTenantTx(ctx, tx, claims.TenantID, req.UserIDs)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	if n != len(req.UserIDs) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "summons batch includes unknown users"})
	}
	if err := h.Summons.ReplaceForEventTx(ctx, tx, id, req.UserIDs); err != nil {
		return writeServiceError(c, h.Log, err)
	}
	if err := h.Users.GrantAccessTx(ctx, tx, claims.TenantID, id, req.UserIDs); err != nil {
		return writeServiceError(c, h.Log, err)
	}
	if err := tx.Commit(); err != nil {
		return writeServiceError(c, h.Log, err)
	}
	committed = true

	h.audit(c, claims.UserID, claims.TenantID, "REPLACE", "Summons", id,
		"summoned users: "+strconv.Itoa(len(req.UserIDs)))
	return c.JSON(http.StatusOK, echo.Map{"event_id": id, "summoned": len(req.UserIDs)})
}

// ListAttendance handles GET /v1/admin/events/:id/attendance.
func (h *AdminEventHandler) ListAttendance(c echo.Context) error {
	claims := middleware.Claims(c)
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	records, err := h.Attendance.ListByEvent(c.Request().Context(), claims.TenantID, id)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, records)
}

// Summary handles GET /v1/admin/events/:id/summary: the dashboard badge
// numbers for one event.
func (h *AdminEventHandler) Summary(c echo.Context) error {
	claims := middleware.Claims(c)
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx := c.Request().Context()
	event, err := h.Events.GetByID(ctx, id, claims.TenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return writeServiceError(c, h.Log, err)
	}
	registered, err := h.Attendance.CountByEvent(ctx, claims.TenantID, id)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	summoned, err := h.Summons.CountForEvent(ctx, id)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event":      toEventResp(event),
		"registered": registered,
		"summoned":   summoned,
	})
}

func (h *AdminEventHandler) audit(c echo.Context, userID, tenantID uint64, action, entity string, entityID uint64, details string) {
	_ = h.Publisher.PublishAudit(c.Request().Context(), queue.AuditEvent{
		TenantID: tenantID,
		UserID:   userID,
		Action:   action,
		Entity:   entity,
		EntityID: queue.EntityKey(entityID),
		Details:  details,
	})
}

func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
