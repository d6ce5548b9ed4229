package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/presenca-app/presenca-api/internal/model"
)

// EventRepo provides event lookups for the registration engine and CRUD for
// the admin surface. Soft-deleted events stay in the table so attendance
// records keep a valid reference.
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

const eventColumns = "id, tenant_id, region_id, name, starts_at, ends_at, active, requires_summons, deleted_at, created_at"

// GetByIDTx loads an event by id within a tenant, including soft-deleted
// rows; the registration engine reports deleted state as its own failure
// rather than "not found".
func (r *EventRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id, tenantID uint64) (*model.Event, error) {
	return r.getByID(ctx, tx, id, tenantID)
}

// GetByID is the non-transactional variant used by read-only handlers.
func (r *EventRepo) GetByID(ctx context.Context, id, tenantID uint64) (*model.Event, error) {
	return r.getByID(ctx, r.DB, id, tenantID)
}

func (r *EventRepo) getByID(ctx context.Context, q Querier, id, tenantID uint64) (*model.Event, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id=? AND tenant_id=? LIMIT 1", id, tenantID)
	return scanEvent(row)
}

// FindOpenTx returns the tenant-wide event whose registration window
// contains now, preferring the most recently opened when several overlap.
// Returns ErrNotFound when no event is open.
func (r *EventRepo) FindOpenTx(ctx context.Context, tx *sql.Tx, tenantID uint64, now time.Time) (*model.Event, error) {
	return r.findOpen(ctx, tx, tenantID, now)
}

// FindOpen is the non-transactional variant of FindOpenTx.
func (r *EventRepo) FindOpen(ctx context.Context, tenantID uint64, now time.Time) (*model.Event, error) {
	return r.findOpen(ctx, r.DB, tenantID, now)
}

func (r *EventRepo) findOpen(ctx context.Context, q Querier, tenantID uint64, now time.Time) (*model.Event, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE tenant_id=? AND active=1 AND deleted_at IS NULL AND starts_at<=? AND ends_at>=?
		 ORDER BY starts_at DESC LIMIT 1`,
		tenantID, now, now)
	return scanEvent(row)
}

// Create inserts a new event and populates its generated id.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO events (tenant_id, region_id, name, starts_at, ends_at, active, requires_summons)
		 VALUES (?,?,?,?,?,?,?)`,
		e.TenantID, e.RegionID, e.Name, e.StartsAt, e.EndsAt, e.Active, e.RequiresSummons)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// Update rewrites the mutable columns of an event. Returns ErrNotFound when
// the event does not exist in the tenant or was soft-deleted.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE events SET region_id=?, name=?, starts_at=?, ends_at=?, active=?, requires_summons=?
		 WHERE id=? AND tenant_id=? AND deleted_at IS NULL`,
		e.RegionID, e.Name, e.StartsAt, e.EndsAt, e.Active, e.RequiresSummons, e.ID, e.TenantID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SoftDelete marks an event deleted; already-deleted events return
// ErrNotFound.
func (r *EventRepo) SoftDelete(ctx context.Context, id, tenantID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE events SET deleted_at=UTC_TIMESTAMP() WHERE id=? AND tenant_id=? AND deleted_at IS NULL",
		id, tenantID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// List returns all live events of a tenant, newest window first.
func (r *EventRepo) List(ctx context.Context, tenantID uint64) ([]model.Event, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE tenant_id=? AND deleted_at IS NULL ORDER BY starts_at DESC",
		tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		e, err := scanEventRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanEvent(row *sql.Row) (*model.Event, error) {
	var (
		e         model.Event
		regionID  sql.NullInt64
		deletedAt sql.NullTime
	)
	err := row.Scan(&e.ID, &e.TenantID, &regionID, &e.Name, &e.StartsAt, &e.EndsAt,
		&e.Active, &e.RequiresSummons, &deletedAt, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	applyEventNullables(&e, regionID, deletedAt)
	return &e, nil
}

func scanEventRows(rows *sql.Rows) (*model.Event, error) {
	var (
		e         model.Event
		regionID  sql.NullInt64
		deletedAt sql.NullTime
	)
	if err := rows.Scan(&e.ID, &e.TenantID, &regionID, &e.Name, &e.StartsAt, &e.EndsAt,
		&e.Active, &e.RequiresSummons, &deletedAt, &e.CreatedAt); err != nil {
		return nil, err
	}
	applyEventNullables(&e, regionID, deletedAt)
	return &e, nil
}

func applyEventNullables(e *model.Event, regionID sql.NullInt64, deletedAt sql.NullTime) {
	if regionID.Valid {
		v := uint64(regionID.Int64)
		e.RegionID = &v
	}
	if deletedAt.Valid {
		v := deletedAt.Time
		e.DeletedAt = &v
	}
}
