package model

import "time"

// Role names stored in users.role. Privilege increases from RoleUser to
// RoleSuperadmin. Elevated roles bypass the event-access gate at login.
const (
	RoleUser       = "USER"
	RoleAdmin      = "ADMIN"
	RoleSuperadmin = "SUPERADMIN"
)

// IsElevated reports whether a role name belongs to one of the admin tiers.
func IsElevated(role string) bool {
	return role == RoleAdmin || role == RoleSuperadmin
}

// User represents a row of the `users` table. Every user belongs to exactly
// one tenant; nothing is ever visible across tenant boundaries. A user may
// be linked directly to the event it was summoned for (EventID), which is
// the first candidate during event-window resolution.
//
// Fields:
//  ID            – primary key identifier.
//  TenantID      – owning tenant.
//  Name          – display name.
//  Email         – unique login email (unique across all tenants).
//  PasswordHash  – bcrypt hashed password.
//  Role          – USER, ADMIN or SUPERADMIN.
//  AccessGranted – whether registration access has been liberated for
//                  non-elevated users.
//  EventID       – optional direct link to the user's active event.
//  RegionIDs     – region affiliations loaded from user_regions.
//  DeletedAt     – soft-delete marker (null when active).
type User struct {
	ID            uint64     // users.id
	TenantID      uint64     // users.tenant_id
	Name          string     // users.name
	Email         string     // users.email
	PasswordHash  string     // users.password_hash
	Role          string     // users.role
	AccessGranted bool       // users.access_granted
	EventID       *uint64    // users.event_id (nullable)
	RegionIDs     []uint64   // user_regions.region_id
	DeletedAt     *time.Time // users.deleted_at (nullable)
	CreatedAt     time.Time  // users.created_at
}

// Region is a grouping of users and events inside a tenant (a geographic
// administrative area in the original deployment).
type Region struct {
	ID       uint64 // regions.id
	TenantID uint64 // regions.tenant_id
	Name     string // regions.name
}
