package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"github.com/presenca-app/presenca-api/internal/config"
	"github.com/presenca-app/presenca-api/internal/model"
	"github.com/presenca-app/presenca-api/internal/repository"
	"github.com/presenca-app/presenca-api/internal/utils"
)

const (
	userSelectByEmail = "SELECT id, tenant_id, name, email, password_hash, role, access_granted, event_id, deleted_at, created_at FROM users WHERE email=? AND deleted_at IS NULL LIMIT 1"
	userSelectByID    = "SELECT id, tenant_id, name, email, password_hash, role, access_granted, event_id, deleted_at, created_at FROM users WHERE id=? AND deleted_at IS NULL LIMIT 1"
	regionsSelect     = "SELECT region_id FROM user_regions WHERE user_id=? ORDER BY region_id"
	tokenSelectLock   = "SELECT id, user_id, tenant_id, token_hash, expires_at, revoked_at, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1 FOR UPDATE"
	tokenInsert       = "INSERT INTO refresh_tokens (user_id, tenant_id, token_hash, expires_at) VALUES (?,?,?,?)"
	tokenRevokeByID   = "UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE id=? AND revoked_at IS NULL"
)

var testCfg = config.Config{
	JWTSecret:      "unit-test-secret",
	AccessTTLMin:   15,
	RefreshTTLDays: 7,
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCredentialService(t *testing.T) (*CredentialService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	svc := NewCredentialService(db, testCfg,
		repository.NewUserRepo(db), repository.NewTokenRepo(db), repository.NewEventRepo(db),
		discardLogger())
	return svc, mock
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := utils.HashPassword(plain, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return h
}

func userRow(id uint64, hash, role string, accessGranted bool, eventID interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "name", "email", "password_hash", "role",
		"access_granted", "event_id", "deleted_at", "created_at",
	}).AddRow(id, 1, "Maria", "maria@example.com", hash, role, accessGranted, eventID, nil, time.Now())
}

func noRegions() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"region_id"})
}

func TestLoginSuccess(t *testing.T) {
	svc, mock := newCredentialService(t)
	hash := mustHash(t, "pw")

	mock.ExpectQuery(regexp.QuoteMeta(userSelectByEmail)).
		WithArgs("maria@example.com").
		WillReturnRows(userRow(7, hash, model.RoleUser, true, nil))
	mock.ExpectQuery(regexp.QuoteMeta(regionsSelect)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"region_id"}).AddRow(2).AddRow(5))
	mock.ExpectExec(regexp.QuoteMeta(tokenInsert)).
		WithArgs(uint64(7), uint64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	pair, err := svc.Login(context.Background(), "maria@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.Refresh.Raw == "" {
		t.Fatal("no refresh token returned")
	}

	claims, err := utils.ParseAccessToken(testCfg.JWTSecret, pair.Access.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != 7 || claims.TenantID != 1 || claims.Role != model.RoleUser {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if len(claims.RegionIDs) != 2 {
		t.Errorf("region ids = %v, want two entries", claims.RegionIDs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, mock := newCredentialService(t)
	hash := mustHash(t, "pw")

	mock.ExpectQuery(regexp.QuoteMeta(userSelectByEmail)).
		WithArgs("maria@example.com").
		WillReturnRows(userRow(7, hash, model.RoleUser, true, nil))
	mock.ExpectQuery(regexp.QuoteMeta(regionsSelect)).
		WithArgs(uint64(7)).
		WillReturnRows(noRegions())

	_, err := svc.Login(context.Background(), "maria@example.com", "nope")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, mock := newCredentialService(t)

	mock.ExpectQuery(regexp.QuoteMeta(userSelectByEmail)).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Login(context.Background(), "ghost@example.com", "pw")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginAccessNotGranted(t *testing.T) {
	svc, mock := newCredentialService(t)
	hash := mustHash(t, "pw")

	mock.ExpectQuery(regexp.QuoteMeta(userSelectByEmail)).
		WithArgs("maria@example.com").
		WillReturnRows(userRow(7, hash, model.RoleUser, false, nil))
	mock.ExpectQuery(regexp.QuoteMeta(regionsSelect)).
		WithArgs(uint64(7)).
		WillReturnRows(noRegions())

	_, err := svc.Login(context.Background(), "maria@example.com", "pw")
	if !errors.Is(err, ErrAccessNotGranted) {
		t.Fatalf("err = %v, want ErrAccessNotGranted", err)
	}
}

func TestLoginElevatedRoleBypassesGate(t *testing.T) {
	svc, mock := newCredentialService(t)
	hash := mustHash(t, "pw")

	mock.ExpectQuery(regexp.QuoteMeta(userSelectByEmail)).
		WithArgs("admin@example.com").
		WillReturnRows(userRow(8, hash, model.RoleAdmin, false, nil))
	mock.ExpectQuery(regexp.QuoteMeta(regionsSelect)).
		WithArgs(uint64(8)).
		WillReturnRows(noRegions())
	mock.ExpectExec(regexp.QuoteMeta(tokenInsert)).
		WithArgs(uint64(8), uint64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if _, err := svc.Login(context.Background(), "admin@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLoginAccessExpired(t *testing.T) {
	svc, mock := newCredentialService(t)
	hash := mustHash(t, "pw")

	mock.ExpectQuery(regexp.QuoteMeta(userSelectByEmail)).
		WithArgs("maria@example.com").
		WillReturnRows(userRow(7, hash, model.RoleUser, true, 11))
	mock.ExpectQuery(regexp.QuoteMeta(regionsSelect)).
		WithArgs(uint64(7)).
		WillReturnRows(noRegions())
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, tenant_id, region_id, name, starts_at, ends_at, active, requires_summons, deleted_at, created_at FROM events WHERE id=? AND tenant_id=? LIMIT 1")).
		WithArgs(uint64(11), uint64(1)).
		WillReturnRows(eventRows(11, time.Now().Add(-48*time.Hour), time.Now().Add(-24*time.Hour), true, false, nil))

	_, err := svc.Login(context.Background(), "maria@example.com", "pw")
	if !errors.Is(err, ErrAccessExpired) {
		t.Fatalf("err = %v, want ErrAccessExpired", err)
	}
}

func liveTokenRow(id, userID uint64, hash string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "tenant_id", "token_hash", "expires_at", "revoked_at", "created_at"}).
		AddRow(id, userID, 1, hash, time.Now().Add(24*time.Hour), nil, time.Now())
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, mock := newCredentialService(t)
	raw := "raw-refresh-token"
	hash := utils.HashRefreshRaw(raw)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(tokenSelectLock)).
		WithArgs(hash).
		WillReturnRows(liveTokenRow(3, 7, hash))
	mock.ExpectExec(regexp.QuoteMeta(tokenRevokeByID)).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(userSelectByID)).
		WithArgs(uint64(7)).
		WillReturnRows(userRow(7, "irrelevant", model.RoleUser, true, nil))
	mock.ExpectQuery(regexp.QuoteMeta(regionsSelect)).
		WithArgs(uint64(7)).
		WillReturnRows(noRegions())
	mock.ExpectExec(regexp.QuoteMeta(tokenInsert)).
		WithArgs(uint64(7), uint64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectCommit()

	pair, err := svc.Refresh(context.Background(), raw)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if pair.Refresh.Raw == raw {
		t.Fatal("refresh token was not rotated")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRefreshReuseDetected(t *testing.T) {
	svc, mock := newCredentialService(t)
	raw := "already-rotated"
	hash := utils.HashRefreshRaw(raw)

	revoked := sqlmock.NewRows([]string{"id", "user_id", "tenant_id", "token_hash", "expires_at", "revoked_at", "created_at"}).
		AddRow(3, 7, 1, hash, time.Now().Add(24*time.Hour), time.Now().Add(-time.Minute), time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(tokenSelectLock)).
		WithArgs(hash).
		WillReturnRows(revoked)
	mock.ExpectRollback()

	_, err := svc.Refresh(context.Background(), raw)
	if !errors.Is(err, ErrTokenReuse) {
		t.Fatalf("err = %v, want ErrTokenReuse", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRefreshExpiredToken(t *testing.T) {
	svc, mock := newCredentialService(t)
	raw := "stale"
	hash := utils.HashRefreshRaw(raw)

	expired := sqlmock.NewRows([]string{"id", "user_id", "tenant_id", "token_hash", "expires_at", "revoked_at", "created_at"}).
		AddRow(3, 7, 1, hash, time.Now().Add(-time.Hour), nil, time.Now())

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(tokenSelectLock)).
		WithArgs(hash).
		WillReturnRows(expired)
	mock.ExpectRollback()

	_, err := svc.Refresh(context.Background(), raw)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	svc, mock := newCredentialService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(tokenSelectLock)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Refresh(context.Background(), "never-issued")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestLogoutIdempotent(t *testing.T) {
	svc, mock := newCredentialService(t)
	raw := "some-token"
	hash := utils.HashRefreshRaw(raw)

	q := regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL")
	mock.ExpectExec(q).WithArgs(hash).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(hash).WillReturnResult(sqlmock.NewResult(0, 0))

	if err := svc.Logout(context.Background(), raw); err != nil {
		t.Fatalf("first logout: %v", err)
	}
	if err := svc.Logout(context.Background(), raw); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}
