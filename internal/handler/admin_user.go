package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/presenca-app/presenca-api/internal/middleware"
	"github.com/presenca-app/presenca-api/internal/model"
	"github.com/presenca-app/presenca-api/internal/queue"
	"github.com/presenca-app/presenca-api/internal/repository"
	"github.com/presenca-app/presenca-api/internal/utils"
)

// AdminUserHandler covers the user-level interventions admins can make.
type AdminUserHandler struct {
	Users      *repository.UserRepo
	Tokens     *repository.TokenRepo
	BcryptCost int
	Publisher  *queue.Publisher
	Log        *slog.Logger
}

func NewAdminUserHandler(users *repository.UserRepo, tokens *repository.TokenRepo, bcryptCost int,
	pub *queue.Publisher, log *slog.Logger) *AdminUserHandler {
	return &AdminUserHandler{Users: users, Tokens: tokens, BcryptCost: bcryptCost, Publisher: pub, Log: log}
}

type createUserReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Create handles POST /v1/admin/users. New users always belong to the
// caller's tenant and start with registration access locked; only a
// superadmin may create elevated roles.
func (h *AdminUserHandler) Create(c echo.Context) error {
	claims := middleware.Claims(c)
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and password required"})
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	switch req.Role {
	case model.RoleUser, model.RoleAdmin, model.RoleSuperadmin:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	if model.IsElevated(req.Role) && claims.Role != model.RoleSuperadmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only superadmins may create elevated users"})
	}

	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return writeServiceError(c, h.Log, err)
	}
	u := &model.User{
		TenantID:     claims.TenantID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	ctx := c.Request().Context()
	if err := h.Users.Create(ctx, u); err != nil {
		if repository.IsDuplicateKey(err) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return writeServiceError(c, h.Log, err)
	}

	_ = h.Publisher.PublishAudit(ctx, queue.AuditEvent{
		TenantID: claims.TenantID,
		UserID:   claims.UserID,
		Action:   "CREATE",
		Entity:   "User",
		EntityID: queue.EntityKey(u.ID),
	})
	return c.JSON(http.StatusCreated, echo.Map{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	})
}

// RevokeSessions handles POST /v1/admin/users/:id/revoke-sessions. Every
// live refresh token of the user is revoked, forcing a fresh login on all
// their devices; already-issued access tokens age out within their TTL.
// Only tokens of the caller's own tenant are ever touched.
func (h *AdminUserHandler) RevokeSessions(c echo.Context) error {
	claims := middleware.Claims(c)
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx := c.Request().Context()
	if err := h.Tokens.RevokeAllForUser(ctx, id, claims.TenantID); err != nil {
		return writeServiceError(c, h.Log, err)
	}
	_ = h.Publisher.PublishAudit(ctx, queue.AuditEvent{
		TenantID: claims.TenantID,
		UserID:   claims.UserID,
		Action:   "REVOKE_SESSIONS",
		Entity:   "User",
		EntityID: queue.EntityKey(id),
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "sessions revoked"})
}
