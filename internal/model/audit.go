package model

import "time"

// AuditLog records an administrative mutation or security-relevant event.
// Rows are written asynchronously by the queue consumer so that audit
// persistence never blocks or fails the originating request.
type AuditLog struct {
	ID        uint64    // audit_logs.id
	TenantID  uint64    // audit_logs.tenant_id
	UserID    uint64    // audit_logs.user_id
	Action    string    // audit_logs.action (CREATE, UPDATE, DELETE, ...)
	Entity    string    // audit_logs.entity (Event, City, ...)
	EntityID  string    // audit_logs.entity_id
	Details   string    // audit_logs.details (free text)
	CreatedAt time.Time // audit_logs.created_at
}
