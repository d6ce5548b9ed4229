package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/presenca-app/presenca-api/internal/model"
)

// ReferenceRepo implements the shared city/instrument pattern: tenant-scoped
// rows whose normalized name is a natural key spanning soft-deleted rows.
// The table name is fixed at construction; cities and instruments are
// structurally identical.
type ReferenceRepo struct {
	DB    *sql.DB
	table string
}

func NewCityRepo(db *sql.DB) *ReferenceRepo       { return &ReferenceRepo{DB: db, table: "cities"} }
func NewInstrumentRepo(db *sql.DB) *ReferenceRepo { return &ReferenceRepo{DB: db, table: "instruments"} }

// FindOrCreateTx resolves a normalized name to a row id inside the caller's
// transaction:
//
//  1. lookup including soft-deleted rows (the unique key spans them);
//  2. found live -> return as is; found deleted -> restore;
//  3. absent -> optimistic insert; a duplicate-key failure means a
//     concurrent writer won the race, so the lookup is retried once and
//     resolved the same way.
//
// The caller must pass an already-normalized name.
func (r *ReferenceRepo) FindOrCreateTx(ctx context.Context, tx *sql.Tx, tenantID uint64, name string) (uint64, error) {
	id, err := r.resolveExisting(ctx, tx, tenantID, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	insert := fmt.Sprintf("INSERT INTO %s (tenant_id, name) VALUES (?,?)", r.table)
	res, err := tx.ExecContext(ctx, insert, tenantID, name)
	if err == nil {
		newID, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		return uint64(newID), nil
	}
	if !IsDuplicateKey(err) {
		return 0, err
	}

	// Lost the insert race; the winner's row must be visible now. A second
	// miss is an unexpected state and the original error propagates.
	id, retryErr := r.resolveExisting(ctx, tx, tenantID, name)
	if retryErr != nil {
		if errors.Is(retryErr, ErrNotFound) {
			return 0, err
		}
		return 0, retryErr
	}
	return id, nil
}

// resolveExisting finds a row by natural key including soft-deleted ones and
// restores it when needed.
func (r *ReferenceRepo) resolveExisting(ctx context.Context, q Querier, tenantID uint64, name string) (uint64, error) {
	query := fmt.Sprintf("SELECT id, deleted_at FROM %s WHERE tenant_id=? AND name=? LIMIT 1", r.table)
	var (
		id        uint64
		deletedAt sql.NullTime
	)
	err := q.QueryRowContext(ctx, query, tenantID, name).Scan(&id, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if deletedAt.Valid {
		restore := fmt.Sprintf("UPDATE %s SET deleted_at=NULL WHERE id=?", r.table)
		if _, err := q.ExecContext(ctx, restore, id); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// ExistsTx verifies that an id refers to a live row of the tenant; used to
// validate ids supplied directly by clients.
func (r *ReferenceRepo) ExistsTx(ctx context.Context, tx *sql.Tx, id, tenantID uint64) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE id=? AND tenant_id=? AND deleted_at IS NULL LIMIT 1", r.table)
	var one int
	err := tx.QueryRowContext(ctx, query, id, tenantID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FindOrCreate runs the same resolution outside a caller-owned transaction
// (admin create path). It opens its own short transaction so that restore
// and insert stay atomic.
func (r *ReferenceRepo) FindOrCreate(ctx context.Context, tenantID uint64, name string) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	id, err := r.FindOrCreateTx(ctx, tx, tenantID, name)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// List returns the tenant's live rows ordered by name.
func (r *ReferenceRepo) List(ctx context.Context, tenantID uint64) ([]model.ReferenceEntity, error) {
	query := fmt.Sprintf(
		"SELECT id, tenant_id, name, deleted_at, created_at FROM %s WHERE tenant_id=? AND deleted_at IS NULL ORDER BY name",
		r.table)
	rows, err := r.DB.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ReferenceEntity
	for rows.Next() {
		var (
			e         model.ReferenceEntity
			deletedAt sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Name, &deletedAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		if deletedAt.Valid {
			v := deletedAt.Time
			e.DeletedAt = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SoftDelete marks a row deleted; its name stays reserved by the unique key
// so a later re-creation restores the same id.
func (r *ReferenceRepo) SoftDelete(ctx context.Context, id, tenantID uint64) error {
	query := fmt.Sprintf(
		"UPDATE %s SET deleted_at=UTC_TIMESTAMP() WHERE id=? AND tenant_id=? AND deleted_at IS NULL", r.table)
	res, err := r.DB.ExecContext(ctx, query, id, tenantID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
