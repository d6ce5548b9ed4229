package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/presenca-app/presenca-api/internal/model"
)

// TokenRepo persists refresh tokens. Rows are append-only: revocation sets
// revoked_at and nothing is ever deleted, which keeps the full rotation
// chain as an audit trail.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

const tokenColumns = "id, user_id, tenant_id, token_hash, expires_at, revoked_at, created_at"

// StoreTx inserts a refresh token hash row inside the caller's transaction.
func (r *TokenRepo) StoreTx(ctx context.Context, tx *sql.Tx, userID, tenantID uint64, tokenHash string, exp time.Time) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, tenant_id, token_hash, expires_at) VALUES (?,?,?,?)",
		userID, tenantID, tokenHash, exp)
	return err
}

// Store inserts a refresh token hash row outside any transaction (login path).
func (r *TokenRepo) Store(ctx context.Context, userID, tenantID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, tenant_id, token_hash, expires_at) VALUES (?,?,?,?)",
		userID, tenantID, tokenHash, exp)
	return err
}

// FindByHashForUpdateTx loads a token row by hash and locks it for the
// remainder of the transaction. The row lock is what serializes two
// concurrent refresh calls presenting the same token: the loser blocks here
// until the winner commits its revocation, then observes revoked_at set.
func (r *TokenRepo) FindByHashForUpdateTx(ctx context.Context, tx *sql.Tx, tokenHash string) (*model.RefreshToken, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+tokenColumns+" FROM refresh_tokens WHERE token_hash=? LIMIT 1 FOR UPDATE",
		tokenHash)
	return scanToken(row)
}

// FindByHash loads a token row without locking (logout path).
func (r *TokenRepo) FindByHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+tokenColumns+" FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash)
	return scanToken(row)
}

// RevokeTx marks a single token revoked inside the caller's transaction.
func (r *TokenRepo) RevokeTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE id=? AND revoked_at IS NULL", id)
	return err
}

// RevokeByHash marks a token revoked. Revoking an unknown or already-revoked
// hash is a no-op, which makes logout idempotent.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes every live token of a user (admin deactivation).
// The tenant predicate keeps an admin from touching sessions of a user in
// another tenant.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID, tenantID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND tenant_id=? AND revoked_at IS NULL",
		userID, tenantID)
	return err
}

func scanToken(row *sql.Row) (*model.RefreshToken, error) {
	var (
		t         model.RefreshToken
		revokedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &t.UserID, &t.TenantID, &t.TokenHash, &t.ExpiresAt, &revokedAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if revokedAt.Valid {
		v := revokedAt.Time
		t.RevokedAt = &v
	}
	return &t, nil
}
