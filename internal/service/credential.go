package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/presenca-app/presenca-api/internal/config"
	"github.com/presenca-app/presenca-api/internal/metrics"
	"github.com/presenca-app/presenca-api/internal/model"
	"github.com/presenca-app/presenca-api/internal/repository"
	"github.com/presenca-app/presenca-api/internal/utils"
)

// TokenPair is the result of a successful login or refresh. Access goes in
// the response body; Refresh.Raw goes into the http-only cookie and is never
// persisted or shown again.
type TokenPair struct {
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// CredentialService owns the login/refresh/logout lifecycle. Refresh runs as
// one database transaction so rotation and reuse detection stay linearized
// under concurrent use of the same token.
type CredentialService struct {
	db     *sql.DB
	cfg    config.Config
	users  *repository.UserRepo
	tokens *repository.TokenRepo
	events *repository.EventRepo
	log    *slog.Logger
}

func NewCredentialService(db *sql.DB, cfg config.Config, users *repository.UserRepo,
	tokens *repository.TokenRepo, events *repository.EventRepo, log *slog.Logger) *CredentialService {
	return &CredentialService{db: db, cfg: cfg, users: users, tokens: tokens, events: events, log: log}
}

// Login verifies the password, enforces the event-access gate for
// non-elevated users and mints a fresh token pair.
func (s *CredentialService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return TokenPair{}, ErrInvalidCredentials
	}

	var snapshot *utils.EventSnapshot
	if u.EventID != nil {
		event, err := s.events.GetByID(ctx, *u.EventID, u.TenantID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, err
		}
		snapshot = snapshotOf(event)
	}
	if !model.IsElevated(u.Role) {
		if !u.AccessGranted {
			return TokenPair{}, ErrAccessNotGranted
		}
		if snapshot != nil && time.Now().UTC().After(snapshot.EndsAt) {
			return TokenPair{}, ErrAccessExpired
		}
	}

	pair, err := s.mint(u, snapshot)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.tokens.Store(ctx, u.ID, u.TenantID, utils.HashRefreshRaw(pair.Refresh.Raw), pair.Refresh.Exp); err != nil {
		return TokenPair{}, err
	}
	metrics.LoginsTotal.Inc()
	return pair, nil
}

// Refresh exchanges a live refresh token for a new pair, revoking the old
// one first. The whole exchange is one transaction; the SELECT ... FOR
// UPDATE inside FindByHashForUpdateTx guarantees that of two concurrent
// calls with the same token exactly one succeeds and the other observes the
// revocation.
func (s *CredentialService) Refresh(ctx context.Context, rawToken string) (TokenPair, error) {
	hash := utils.HashRefreshRaw(rawToken)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TokenPair{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rec, err := s.tokens.FindByHashForUpdateTx(ctx, tx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrInvalidToken
		}
		return TokenPair{}, err
	}
	if rec.Revoked() {
		metrics.TokenReuseTotal.Inc()
		s.log.Warn("refresh token reuse detected",
			slog.Uint64("user_id", rec.UserID), slog.Uint64("tenant_id", rec.TenantID))
		return TokenPair{}, ErrTokenReuse
	}
	if rec.Expired(time.Now().UTC()) {
		return TokenPair{}, ErrTokenExpired
	}

	// Revoke before minting anything; the successor must never coexist with
	// a live predecessor.
	if err := s.tokens.RevokeTx(ctx, tx, rec.ID); err != nil {
		return TokenPair{}, err
	}

	// Re-read the user so the new access token reflects current role, event
	// link and regions rather than the snapshot from the original login.
	u, err := s.users.GetByIDTx(ctx, tx, rec.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrInvalidToken
		}
		return TokenPair{}, err
	}
	var snapshot *utils.EventSnapshot
	if u.EventID != nil {
		event, err := s.events.GetByIDTx(ctx, tx, *u.EventID, u.TenantID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, err
		}
		snapshot = snapshotOf(event)
	}

	pair, err := s.mint(u, snapshot)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.tokens.StoreTx(ctx, tx, u.ID, u.TenantID, utils.HashRefreshRaw(pair.Refresh.Raw), pair.Refresh.Exp); err != nil {
		return TokenPair{}, err
	}
	if err := tx.Commit(); err != nil {
		return TokenPair{}, err
	}
	committed = true
	return pair, nil
}

// Logout revokes the token matching rawToken. Unknown and already-revoked
// tokens are not errors; logging out twice is fine.
func (s *CredentialService) Logout(ctx context.Context, rawToken string) error {
	return s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(rawToken))
}

func (s *CredentialService) mint(u *model.User, snapshot *utils.EventSnapshot) (TokenPair, error) {
	claims := utils.Claims{
		UserID:    u.ID,
		TenantID:  u.TenantID,
		Role:      u.Role,
		RegionIDs: u.RegionIDs,
		Event:     snapshot,
	}
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, claims, s.cfg.AccessTTLMin)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// snapshotOf tolerates a dangling event link: a missing event yields no
// snapshot rather than a failed login.
func snapshotOf(e *model.Event) *utils.EventSnapshot {
	if e == nil {
		return nil
	}
	return &utils.EventSnapshot{ID: e.ID, Name: e.Name, StartsAt: e.StartsAt, EndsAt: e.EndsAt}
}
