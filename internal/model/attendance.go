package model

import "time"

// AttendanceRecord is one confirmed attendance submission. Records are
// immutable once created, and a user may legitimately hold several records
// for the same event (one per ministry role performed); no uniqueness is
// enforced on (user_id, event_id).
//
// Fields:
//  ID              – primary key identifier.
//  TenantID        – owning tenant.
//  UserID          – registering user.
//  EventID         – event resolved at registration time.
//  MinistryRole    – normalized free-text role performed at the event.
//  CityID          – resolved city reference (mandatory).
//  InstrumentID    – resolved instrument reference (nullable).
//  InstrumentOther – free-text fallback when no instrument was resolved.
type AttendanceRecord struct {
	ID              uint64    // attendance_records.id
	TenantID        uint64    // attendance_records.tenant_id
	UserID          uint64    // attendance_records.user_id
	EventID         uint64    // attendance_records.event_id
	MinistryRole    string    // attendance_records.ministry_role
	CityID          uint64    // attendance_records.city_id
	InstrumentID    *uint64   // attendance_records.instrument_id (nullable)
	InstrumentOther *string   // attendance_records.instrument_other (nullable)
	CreatedAt       time.Time // attendance_records.created_at
}
