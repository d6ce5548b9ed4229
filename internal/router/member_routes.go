package router

import (
	"github.com/labstack/echo/v4"

	"github.com/presenca-app/presenca-api/internal/handler"
	"github.com/presenca-app/presenca-api/internal/middleware"
)

// RegisterMember registers the endpoints every authenticated member uses:
// attendance registration, the active-event lookup and the reference
// catalogs. Catalog listings sit behind the tenant-scoped Redis cache.
func RegisterMember(e *echo.Echo, att *handler.AttendanceHandler, ref *handler.ReferenceHandler,
	listCache echo.MiddlewareFunc, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	g.POST("/attendance", att.Register)
	g.GET("/attendance/event", att.ActiveEvent)

	lists := g.Group("", listCache)
	lists.GET("/cities", ref.ListCities)
	lists.GET("/instruments", ref.ListInstruments)
	lists.GET("/roles", ref.ListRoles)
}
