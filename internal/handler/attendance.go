package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/presenca-app/presenca-api/internal/middleware"
	"github.com/presenca-app/presenca-api/internal/queue"
	"github.com/presenca-app/presenca-api/internal/service"
)

// AttendanceHandler exposes the registration endpoint and the "which event
// is open for me" lookup backing the registration form.
type AttendanceHandler struct {
	Attendance *service.AttendanceService
	Resolver   *service.EventResolver
	Publisher  *queue.Publisher
	Log        *slog.Logger
}

func NewAttendanceHandler(att *service.AttendanceService, res *service.EventResolver,
	pub *queue.Publisher, log *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{Attendance: att, Resolver: res, Publisher: pub, Log: log}
}

type registerReq struct {
	MinistryRole   string  `json:"ministry_role"`
	CityID         *uint64 `json:"city_id"`
	CityName       string  `json:"city_name"`
	InstrumentID   *uint64 `json:"instrument_id"`
	InstrumentName string  `json:"instrument_name"`
}

// Register handles POST /v1/attendance. The event is resolved server-side
// from the caller's identity; clients only supply role, city and optional
// instrument.
func (h *AttendanceHandler) Register(c echo.Context) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.MinistryRole) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ministry_role required"})
	}
	if req.CityID == nil && strings.TrimSpace(req.CityName) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "city_id or city_name required"})
	}

	rec, err := h.Attendance.Register(c.Request().Context(), service.RegisterInput{
		UserID:         claims.UserID,
		TenantID:       claims.TenantID,
		MinistryRole:   req.MinistryRole,
		CityID:         req.CityID,
		CityName:       req.CityName,
		InstrumentID:   req.InstrumentID,
		InstrumentName: req.InstrumentName,
	})
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}

	// Best effort; the registration already committed.
	_ = h.Publisher.PublishAttendanceRegistered(c.Request().Context(), queue.AttendanceRegisteredEvent{
		RecordID:     rec.ID,
		TenantID:     rec.TenantID,
		UserID:       rec.UserID,
		OccasionID:   rec.EventID,
		MinistryRole: rec.MinistryRole,
	})

	return c.JSON(http.StatusCreated, echo.Map{"id": rec.ID, "message": "attendance registered"})
}

// ActiveEvent handles GET /v1/attendance/event: the event currently open
// for the caller, or 400 when none is.
func (h *AttendanceHandler) ActiveEvent(c echo.Context) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var linked *uint64
	if claims.Event != nil {
		linked = &claims.Event.ID
	}
	e, err := h.Resolver.Resolve(c.Request().Context(), claims.TenantID, linked, time.Now().UTC())
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":               e.ID,
		"name":             e.Name,
		"starts_at":        e.StartsAt,
		"ends_at":          e.EndsAt,
		"requires_summons": e.RequiresSummons,
	})
}
