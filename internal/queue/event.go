// Package queue defines the message payloads exchanged over the broker and
// the background consumer that turns them into audit-log rows.
package queue

// AuditEvent is the envelope published for every auditable action. EventID
// is a UUID assigned at publish time so consumers can deduplicate
// redeliveries.
type AuditEvent struct {
	EventID  string `json:"event_id"`
	TenantID uint64 `json:"tenant_id"`
	UserID   uint64 `json:"user_id"`
	Action   string `json:"action"`
	Entity   string `json:"entity"`
	EntityID string `json:"entity_key"`
	Details  string `json:"details,omitempty"`
	At       string `json:"at"`
}

// AttendanceRegisteredEvent is published after a registration commits. It
// carries enough context for analytics and notification consumers without a
// database round trip.
type AttendanceRegisteredEvent struct {
	EventID      string `json:"event_id"`
	RecordID     uint64 `json:"record_id"`
	TenantID     uint64 `json:"tenant_id"`
	UserID       uint64 `json:"user_id"`
	OccasionID   uint64 `json:"occasion_id"`
	MinistryRole string `json:"ministry_role"`
	RegisteredAt string `json:"registered_at"`
}
