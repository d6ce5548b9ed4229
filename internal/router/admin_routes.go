package router

import (
	"github.com/labstack/echo/v4"

	"github.com/presenca-app/presenca-api/internal/handler"
	"github.com/presenca-app/presenca-api/internal/middleware"
	"github.com/presenca-app/presenca-api/internal/model"
)

// RegisterAdmin registers the dashboard endpoints under /v1/admin. Every
// route requires a valid JWT carrying the ADMIN or SUPERADMIN role.
func RegisterAdmin(e *echo.Echo, ev *handler.AdminEventHandler, ref *handler.AdminReferenceHandler,
	usr *handler.AdminUserHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin, model.RoleSuperadmin),
	)

	g.GET("/events", ev.List)
	g.POST("/events", ev.Create)
	g.PUT("/events/:id", ev.Update)
	g.DELETE("/events/:id", ev.Delete)
	g.PUT("/events/:id/summons", ev.ReplaceSummons)
	g.GET("/events/:id/attendance", ev.ListAttendance)
	g.GET("/events/:id/summary", ev.Summary)

	g.POST("/cities", ref.CreateCity)
	g.DELETE("/cities/:id", ref.DeleteCity)
	g.POST("/instruments", ref.CreateInstrument)
	g.DELETE("/instruments/:id", ref.DeleteInstrument)

	g.POST("/users", usr.Create)
	g.POST("/users/:id/revoke-sessions", usr.RevokeSessions)
}
