package repository

import (
	"context"
	"database/sql"

	"github.com/presenca-app/presenca-api/internal/model"
)

// RoleRepo lists the ministry-role reference rows backing the registration
// form picker. The attendance record itself stores free text, so this table
// is purely a suggestion list.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// List returns the tenant's ministry roles ordered by name.
func (r *RoleRepo) List(ctx context.Context, tenantID uint64) ([]model.MinistryRole, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, tenant_id, name FROM ministry_roles WHERE tenant_id=? ORDER BY name", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MinistryRole
	for rows.Next() {
		var m model.MinistryRole
		if err := rows.Scan(&m.ID, &m.TenantID, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
