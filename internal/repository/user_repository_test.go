package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/presenca-app/presenca-api/internal/model"
)

func TestGrantAccessTxScopedToTenant(t *testing.T) {
	db, mock := newMockDB(t)
	tx := beginTx(t, db, mock)

	q := regexp.QuoteMeta("UPDATE users SET access_granted=1, event_id=? WHERE id=? AND tenant_id=? AND deleted_at IS NULL")
	mock.ExpectExec(q).WithArgs(uint64(10), uint64(21), uint64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(uint64(10), uint64(22), uint64(1)).WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewUserRepo(db).GrantAccessTx(context.Background(), tx, 1, 10, []uint64{21, 22})
	if err != nil {
		t.Fatalf("GrantAccessTx: %v", err)
	}
	expectationsMet(t, mock)
}

func TestCountInTenantTx(t *testing.T) {
	db, mock := newMockDB(t)
	tx := beginTx(t, db, mock)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM users WHERE tenant_id=? AND deleted_at IS NULL AND id IN (?,?)")).
		WithArgs(uint64(1), uint64(21), uint64(22)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1))

	n, err := NewUserRepo(db).CountInTenantTx(context.Background(), tx, 1, []uint64{21, 22})
	if err != nil {
		t.Fatalf("CountInTenantTx: %v", err)
	}
	if n != 1 {
		t.Errorf("n = %d, want 1", n)
	}
	expectationsMet(t, mock)
}

func TestCountInTenantTxEmptyBatch(t *testing.T) {
	db, mock := newMockDB(t)
	tx := beginTx(t, db, mock)

	// no query expected for an empty batch
	n, err := NewUserRepo(db).CountInTenantTx(context.Background(), tx, 1, nil)
	if err != nil {
		t.Fatalf("CountInTenantTx: %v", err)
	}
	if n != 0 {
		t.Errorf("n = %d, want 0", n)
	}
	expectationsMet(t, mock)
}

func TestCreatePopulatesID(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO users (tenant_id, name, email, password_hash, role, access_granted) VALUES (?,?,?,?,?,0)")).
		WithArgs(uint64(1), "Ana", "ana@example.com", "hash", model.RoleUser).
		WillReturnResult(sqlmock.NewResult(77, 1))

	u := &model.User{TenantID: 1, Name: "Ana", Email: "ana@example.com", PasswordHash: "hash", Role: model.RoleUser}
	if err := NewUserRepo(db).Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID != 77 {
		t.Errorf("u.ID = %d, want 77", u.ID)
	}
	expectationsMet(t, mock)
}
