package model

import "time"

// ReferenceEntity is a tenant-scoped free-text-backed lookup row. Cities and
// instruments share the exact same shape and semantics: the (tenant_id, name)
// pair is unique including among soft-deleted rows, which is what allows a
// re-created entity to be restored instead of duplicated.
//
// Fields:
//  ID        – primary key identifier.
//  TenantID  – owning tenant.
//  Name      – normalized display name (trimmed, upper-cased, accents
//              stripped, whitespace collapsed).
//  DeletedAt – soft-delete marker; deleted rows still occupy the name.
type ReferenceEntity struct {
	ID        uint64     // id
	TenantID  uint64     // tenant_id
	Name      string     // name (normalized)
	DeletedAt *time.Time // deleted_at (nullable)
	CreatedAt time.Time  // created_at
}

// MinistryRole is a tenant-scoped reference row backing the role picker of
// the registration form.
type MinistryRole struct {
	ID       uint64 // ministry_roles.id
	TenantID uint64 // ministry_roles.tenant_id
	Name     string // ministry_roles.name
}
