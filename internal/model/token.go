package model

import "time"

// RefreshToken models a row of the `refresh_tokens` table. Only the SHA-256
// hash of the raw token is stored; the raw value is handed to the client
// once and never retrievable again. Rows are never deleted — revocation
// sets RevokedAt, and a revoked row later presented for exchange is the
// reuse-detection signal.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TenantID  – owning tenant.
//  TokenHash – SHA-256 hex digest of the raw token value.
//  ExpiresAt – fixed expiry assigned at mint time.
//  RevokedAt – when the token was exchanged or logged out (null if live).
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TenantID  uint64     // refresh_tokens.tenant_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

// Revoked reports whether the token has already been exchanged or revoked.
func (t *RefreshToken) Revoked() bool { return t.RevokedAt != nil }

// Expired reports whether the token's lifetime has passed at instant now.
func (t *RefreshToken) Expired(now time.Time) bool { return now.After(t.ExpiresAt) }
