package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

const tokenSelectForUpdate = "SELECT " + tokenColumns + " FROM refresh_tokens WHERE token_hash=? LIMIT 1 FOR UPDATE"

func tokenRow(id uint64, revokedAt interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "tenant_id", "token_hash", "expires_at", "revoked_at", "created_at"}).
		AddRow(id, 7, 1, "hash", time.Now().Add(time.Hour), revokedAt, time.Now())
}

func TestFindByHashForUpdateTx(t *testing.T) {
	db, mock := newMockDB(t)
	tx := beginTx(t, db, mock)

	mock.ExpectQuery(regexp.QuoteMeta(tokenSelectForUpdate)).
		WithArgs("hash").
		WillReturnRows(tokenRow(3, nil))

	tok, err := NewTokenRepo(db).FindByHashForUpdateTx(context.Background(), tx, "hash")
	if err != nil {
		t.Fatalf("FindByHashForUpdateTx: %v", err)
	}
	if tok.ID != 3 || tok.UserID != 7 || tok.Revoked() {
		t.Errorf("unexpected token: %+v", tok)
	}
	expectationsMet(t, mock)
}

func TestFindByHashForUpdateTxRevokedFlag(t *testing.T) {
	db, mock := newMockDB(t)
	tx := beginTx(t, db, mock)

	mock.ExpectQuery(regexp.QuoteMeta(tokenSelectForUpdate)).
		WithArgs("hash").
		WillReturnRows(tokenRow(3, time.Now().Add(-time.Minute)))

	tok, err := NewTokenRepo(db).FindByHashForUpdateTx(context.Background(), tx, "hash")
	if err != nil {
		t.Fatalf("FindByHashForUpdateTx: %v", err)
	}
	if !tok.Revoked() {
		t.Error("revoked_at set but Revoked() is false")
	}
	expectationsMet(t, mock)
}

func TestFindByHashUnknown(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT "+tokenColumns+" FROM refresh_tokens WHERE token_hash=? LIMIT 1")).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := NewTokenRepo(db).FindByHash(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	expectationsMet(t, mock)
}

func TestRevokeAllForUserScopedToTenant(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND tenant_id=? AND revoked_at IS NULL")).
		WithArgs(uint64(42), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	if err := NewTokenRepo(db).RevokeAllForUser(context.Background(), 42, 1); err != nil {
		t.Fatalf("RevokeAllForUser: %v", err)
	}
	expectationsMet(t, mock)
}

func TestRevokeByHashIdempotent(t *testing.T) {
	db, mock := newMockDB(t)

	// second call matches zero rows; still no error
	q := regexp.QuoteMeta("UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL")
	mock.ExpectExec(q).WithArgs("hash").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("hash").WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewTokenRepo(db)
	if err := repo.RevokeByHash(context.Background(), "hash"); err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	if err := repo.RevokeByHash(context.Background(), "hash"); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
	expectationsMet(t, mock)
}
