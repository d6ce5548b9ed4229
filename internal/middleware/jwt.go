// Package middleware provides the reusable request processing applied by
// the router: bearer authentication, role enforcement, rate limiting and
// the reference-list cache.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/presenca-app/presenca-api/internal/utils"
)

// claimsKey is the context key under which JWTAuth stores the parsed claims.
const claimsKey = "claims"

// JWTAuth validates the Bearer access token and stores its typed claims in
// the Echo context for handlers and downstream middleware.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// Claims returns the authenticated caller's claims, or nil when the request
// did not pass JWTAuth.
func Claims(c echo.Context) *utils.Claims {
	if v, ok := c.Get(claimsKey).(*utils.Claims); ok {
		return v
	}
	return nil
}
