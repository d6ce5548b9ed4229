package model

import "time"

// Event is a scheduled occasion users register attendance for. Registration
// is accepted only while `now` falls inside the [StartsAt, EndsAt] window,
// both bounds inclusive. Events are soft-deleted, never removed.
//
// Fields:
//  ID              – primary key identifier.
//  TenantID        – owning tenant.
//  RegionID        – optional region the event belongs to.
//  Name            – display name.
//  StartsAt        – registration window opening time.
//  EndsAt          – registration window closing time.
//  Active          – admins can pause registration without deleting.
//  RequiresSummons – when set, only users with an active summons row may
//                    register; when unset the summons table is ignored.
//  DeletedAt       – soft-delete marker.
type Event struct {
	ID              uint64     // events.id
	TenantID        uint64     // events.tenant_id
	RegionID        *uint64    // events.region_id (nullable)
	Name            string     // events.name
	StartsAt        time.Time  // events.starts_at
	EndsAt          time.Time  // events.ends_at
	Active          bool       // events.active
	RequiresSummons bool       // events.requires_summons
	DeletedAt       *time.Time // events.deleted_at (nullable)
	CreatedAt       time.Time  // events.created_at
}

// WindowContains reports whether t falls inside the registration window.
// Both boundaries are inclusive: a registration at exactly StartsAt or
// exactly EndsAt is accepted.
func (e *Event) WindowContains(t time.Time) bool {
	return !t.Before(e.StartsAt) && !t.After(e.EndsAt)
}

// Summons is an allow-list entry for a summons-gated event. The whole set
// for an event is replaced wholesale when an admin re-issues the batch.
type Summons struct {
	EventID  uint64 // summons.event_id
	UserID   uint64 // summons.user_id
	Summoned bool   // summons.summoned
}
