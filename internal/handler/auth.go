package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/presenca-app/presenca-api/internal/config"
	"github.com/presenca-app/presenca-api/internal/middleware"
	"github.com/presenca-app/presenca-api/internal/service"
)

// refreshCookieName is the http-only cookie carrying the raw refresh token.
// The token never appears in a response body.
const refreshCookieName = "refresh_token"

// AuthHandler exposes the credential lifecycle endpoints.
type AuthHandler struct {
	Cfg         config.Config
	Credentials *service.CredentialService
	Log         *slog.Logger
}

func NewAuthHandler(cfg config.Config, creds *service.CredentialService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Credentials: creds, Log: log}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials, returns the access token in the body and the
// refresh token as a secure cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := h.reqCtx(c)
	defer cancel()

	pair, err := h.Credentials.Login(ctx, req.Email, req.Password)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	h.setRefreshCookie(c, pair.Refresh.Raw, pair.Refresh.Exp)
	return c.JSON(http.StatusOK, echo.Map{"access": pair.Access})
}

// Refresh rotates the refresh token from the cookie. Any failure clears the
// cookie: an invalid, expired or reused token means this session is over,
// and on reuse in particular the client must not retry.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := h.refreshCookie(c)
	if raw == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token missing"})
	}

	ctx, cancel := h.reqCtx(c)
	defer cancel()

	pair, err := h.Credentials.Refresh(ctx, raw)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrTokenReuse) ||
			errors.Is(err, service.ErrTokenExpired) {
			h.clearRefreshCookie(c)
		}
		return writeServiceError(c, h.Log, err)
	}
	h.setRefreshCookie(c, pair.Refresh.Raw, pair.Refresh.Exp)
	return c.JSON(http.StatusOK, echo.Map{"access": pair.Access})
}

// Logout revokes the cookie's token if present and clears the cookie.
// Always succeeds; logging out twice is fine.
func (h *AuthHandler) Logout(c echo.Context) error {
	if raw := h.refreshCookie(c); raw != "" {
		ctx, cancel := h.reqCtx(c)
		defer cancel()
		if err := h.Credentials.Logout(ctx, raw); err != nil {
			h.Log.Warn("logout revoke failed", slog.Any("error", err))
		}
	}
	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the authenticated caller's claims (protected).
func (h *AuthHandler) Me(c echo.Context) error {
	claims := middleware.Claims(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":    claims.UserID,
		"tenant_id":  claims.TenantID,
		"role":       claims.Role,
		"region_ids": claims.RegionIDs,
		"event":      claims.Event,
	})
}

func (h *AuthHandler) reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

func (h *AuthHandler) refreshCookie(c echo.Context) string {
	ck, err := c.Cookie(refreshCookieName)
	if err != nil || ck.Value == "" {
		return ""
	}
	return ck.Value
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, raw string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    raw,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
