package handler

import (
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/presenca-app/presenca-api/internal/middleware"
	"github.com/presenca-app/presenca-api/internal/model"
	"github.com/presenca-app/presenca-api/internal/queue"
	"github.com/presenca-app/presenca-api/internal/repository"
	"github.com/presenca-app/presenca-api/internal/utils"
)

const adminTestSecret = "admin-handler-test-secret"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHandlerDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newJSONContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// invokeAs runs a handler behind the real bearer middleware so the claims
// reach it the same way they do in production.
func invokeAs(t *testing.T, c echo.Context, claims utils.Claims, next echo.HandlerFunc) {
	t.Helper()
	tok, err := utils.NewAccessToken(adminTestSecret, claims, 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	c.Request().Header.Set("Authorization", "Bearer "+tok.Token)
	if err := middleware.JWTAuth(adminTestSecret)(next)(c); err != nil {
		t.Fatalf("handler returned %v", err)
	}
}

func tenantOneAdmin() utils.Claims {
	return utils.Claims{UserID: 5, TenantID: 1, Role: model.RoleAdmin}
}

func newAdminUserHandler(db *sql.DB) *AdminUserHandler {
	return NewAdminUserHandler(
		repository.NewUserRepo(db),
		repository.NewTokenRepo(db),
		bcrypt.MinCost,
		queue.NewPublisher("", quietLogger()),
		quietLogger(),
	)
}

func TestRevokeSessionsScopedToCallerTenant(t *testing.T) {
	db, mock := newHandlerDB(t)
	h := newAdminUserHandler(db)

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND tenant_id=? AND revoked_at IS NULL")).
		WithArgs(uint64(42), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	c, rec := newJSONContext(t, http.MethodPost, "/v1/admin/users/42/revoke-sessions", "")
	c.SetPath("/v1/admin/users/:id/revoke-sessions")
	c.SetParamNames("id")
	c.SetParamValues("42")

	invokeAs(t, c, tenantOneAdmin(), h.RevokeSessions)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateUserBelongsToCallerTenant(t *testing.T) {
	db, mock := newHandlerDB(t)
	h := newAdminUserHandler(db)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO users (tenant_id, name, email, password_hash, role, access_granted) VALUES (?,?,?,?,?,0)")).
		WithArgs(uint64(1), "Ana", "ana@example.com", sqlmock.AnyArg(), model.RoleUser).
		WillReturnResult(sqlmock.NewResult(77, 1))

	c, rec := newJSONContext(t, http.MethodPost, "/v1/admin/users",
		`{"name":"Ana","email":" Ana@Example.com ","password":"s3cret"}`)

	invokeAs(t, c, tenantOneAdmin(), h.Create)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"id":77`) {
		t.Errorf("body = %s, want generated id", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock := newHandlerDB(t)
	h := newAdminUserHandler(db)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO users (tenant_id, name, email, password_hash, role, access_granted) VALUES (?,?,?,?,?,0)")).
		WillReturnError(&mysql.MySQLError{Number: 1062})

	c, rec := newJSONContext(t, http.MethodPost, "/v1/admin/users",
		`{"name":"Ana","email":"ana@example.com","password":"s3cret"}`)

	invokeAs(t, c, tenantOneAdmin(), h.Create)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateUserElevatedRoleNeedsSuperadmin(t *testing.T) {
	db, mock := newHandlerDB(t)
	h := newAdminUserHandler(db)

	c, rec := newJSONContext(t, http.MethodPost, "/v1/admin/users",
		`{"name":"Ana","email":"ana@example.com","password":"s3cret","role":"ADMIN"}`)

	invokeAs(t, c, tenantOneAdmin(), h.Create)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", rec.Code, rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database access: %v", err)
	}
}
