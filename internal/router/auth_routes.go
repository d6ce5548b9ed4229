package router

import (
	"github.com/labstack/echo/v4"

	"github.com/presenca-app/presenca-api/internal/handler"
	"github.com/presenca-app/presenca-api/internal/middleware"
)

// RegisterAuth registers the credential endpoints. Unauthenticated
// operations live under /v1/auth behind the rate limiter; /v1/me requires a
// valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc, jwtSecret string) {
	g := e.Group("/v1/auth", limiter)
	g.POST("/login", a.Login)
	// Refresh and logout read the refresh token from the http-only cookie,
	// never from the body, so a leaked access token cannot rotate a session.
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}
