package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/presenca-app/presenca-api/internal/model"
)

// AttendanceRepo writes and lists attendance records. Records are immutable
// once inserted; there is deliberately no uniqueness over (user_id,
// event_id) because a user submits one record per ministry role performed.
type AttendanceRepo struct{ DB *sql.DB }

func NewAttendanceRepo(db *sql.DB) *AttendanceRepo { return &AttendanceRepo{DB: db} }

// InsertTx inserts a record inside the caller's transaction and populates
// its generated id and creation time.
func (r *AttendanceRepo) InsertTx(ctx context.Context, tx *sql.Tx, rec *model.AttendanceRecord) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO attendance_records
		 (tenant_id, user_id, event_id, ministry_role, city_id, instrument_id, instrument_other)
		 VALUES (?,?,?,?,?,?,?)`,
		rec.TenantID, rec.UserID, rec.EventID, rec.MinistryRole, rec.CityID, rec.InstrumentID, rec.InstrumentOther)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	rec.CreatedAt = time.Now().UTC()
	return nil
}

// AttendanceDetail is the joined row shape used by the admin dashboard
// listing: record fields plus the display names the UI needs without extra
// round trips.
type AttendanceDetail struct {
	ID             uint64    `json:"id"`
	UserID         uint64    `json:"user_id"`
	UserName       string    `json:"user_name"`
	MinistryRole   string    `json:"ministry_role"`
	CityName       string    `json:"city_name"`
	InstrumentName *string   `json:"instrument_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ListByEvent returns the event's records newest first, joined with user,
// city and instrument names.
func (r *AttendanceRepo) ListByEvent(ctx context.Context, tenantID, eventID uint64) ([]AttendanceDetail, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT ar.id, ar.user_id, u.name, ar.ministry_role, c.name,
		        COALESCE(i.name, ar.instrument_other) AS instrument, ar.created_at
		 FROM attendance_records ar
		 JOIN users u ON u.id = ar.user_id
		 JOIN cities c ON c.id = ar.city_id
		 LEFT JOIN instruments i ON i.id = ar.instrument_id
		 WHERE ar.tenant_id=? AND ar.event_id=?
		 ORDER BY ar.created_at DESC`,
		tenantID, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttendanceDetail
	for rows.Next() {
		var (
			d          AttendanceDetail
			instrument sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.UserName, &d.MinistryRole, &d.CityName,
			&instrument, &d.CreatedAt); err != nil {
			return nil, err
		}
		if instrument.Valid {
			v := instrument.String
			d.InstrumentName = &v
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountByEvent returns the number of records for an event (dashboard badge).
func (r *AttendanceRepo) CountByEvent(ctx context.Context, tenantID, eventID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM attendance_records WHERE tenant_id=? AND event_id=?",
		tenantID, eventID).Scan(&n)
	return n, err
}
