package repository

import (
	"context"
	"database/sql"

	"github.com/presenca-app/presenca-api/internal/model"
)

// AuditRepo appends audit-log rows. Writes come from the queue consumer, so
// a failure here never propagates into the request that caused the event.
type AuditRepo struct{ DB *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{DB: db} }

// Insert appends one audit row.
func (r *AuditRepo) Insert(ctx context.Context, l *model.AuditLog) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO audit_logs (tenant_id, user_id, action, entity, entity_id, details) VALUES (?,?,?,?,?,?)",
		l.TenantID, l.UserID, l.Action, l.Entity, l.EntityID, l.Details)
	return err
}
