package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/presenca-app/presenca-api/internal/model"
)

// UserRepo reads users and their region affiliations. User mutation beyond
// the summons-driven access grant lives with the admin tooling and is not
// part of this service.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, tenant_id, name, email, password_hash, role, access_granted, event_id, deleted_at, created_at"

// GetByEmail loads an active user by email. Email is unique across tenants,
// so the tenant is implied by the match.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? AND deleted_at IS NULL LIMIT 1", email)
	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadRegions(ctx, r.DB, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetByIDTx loads an active user inside the caller's transaction. The
// refresh flow uses this to re-read role, event link and regions so a
// rotated token reflects current privileges rather than the ones captured
// at the original login.
func (r *UserRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.User, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? AND deleted_at IS NULL LIMIT 1", id)
	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadRegions(ctx, tx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// LinkedEventIDTx returns the user's direct event link, if any.
func (r *UserRepo) LinkedEventIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*uint64, error) {
	var eventID sql.NullInt64
	err := tx.QueryRowContext(ctx,
		"SELECT event_id FROM users WHERE id=? AND deleted_at IS NULL LIMIT 1", id).Scan(&eventID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !eventID.Valid {
		return nil, nil
	}
	v := uint64(eventID.Int64)
	return &v, nil
}

// GrantAccessTx links users to an event and liberates their login access.
// Called while replacing a summons batch so that summoned users can sign in.
// The tenant predicate keeps a batch from ever touching another tenant's
// users.
func (r *UserRepo) GrantAccessTx(ctx context.Context, tx *sql.Tx, tenantID, eventID uint64, userIDs []uint64) error {
	for _, id := range userIDs {
		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET access_granted=1, event_id=? WHERE id=? AND tenant_id=? AND deleted_at IS NULL",
			eventID, id, tenantID); err != nil {
			return err
		}
	}
	return nil
}

// CountInTenantTx returns how many of the given ids are active users of the
// tenant. A summons batch is valid only when every id counts.
func (r *UserRepo) CountInTenantTx(ctx context.Context, tx *sql.Tx, tenantID uint64, userIDs []uint64) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	query := "SELECT COUNT(*) FROM users WHERE tenant_id=? AND deleted_at IS NULL AND id IN ("
	args := make([]any, 0, len(userIDs)+1)
	args = append(args, tenantID)
	for i, id := range userIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += ")"

	var n int
	err := tx.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// Create inserts a new user and populates its generated id. Access starts
// locked; a summons batch liberates it later.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (tenant_id, name, email, password_hash, role, access_granted) VALUES (?,?,?,?,?,0)",
		u.TenantID, u.Name, u.Email, u.PasswordHash, u.Role)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

func (r *UserRepo) loadRegions(ctx context.Context, q Querier, u *model.User) error {
	rows, err := q.QueryContext(ctx,
		"SELECT region_id FROM user_regions WHERE user_id=? ORDER BY region_id", u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		u.RegionIDs = append(u.RegionIDs, id)
	}
	return rows.Err()
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		u         model.User
		eventID   sql.NullInt64
		deletedAt sql.NullTime
	)
	err := row.Scan(&u.ID, &u.TenantID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.AccessGranted, &eventID, &deletedAt, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if eventID.Valid {
		v := uint64(eventID.Int64)
		u.EventID = &v
	}
	if deletedAt.Valid {
		v := deletedAt.Time
		u.DeletedAt = &v
	}
	return &u, nil
}
