package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/presenca-app/presenca-api/internal/model"
)

// SummonsRepo stores the allow-list rows gating summons-enabled events. An
// admin re-issuing a summons batch replaces the event's whole set.
type SummonsRepo struct{ DB *sql.DB }

func NewSummonsRepo(db *sql.DB) *SummonsRepo { return &SummonsRepo{DB: db} }

// GetTx loads the summons entry for (event, user) inside the caller's
// transaction. Returns ErrNotFound when the user was never summoned.
func (r *SummonsRepo) GetTx(ctx context.Context, tx *sql.Tx, eventID, userID uint64) (*model.Summons, error) {
	var s model.Summons
	err := tx.QueryRowContext(ctx,
		"SELECT event_id, user_id, summoned FROM summons WHERE event_id=? AND user_id=? LIMIT 1",
		eventID, userID).Scan(&s.EventID, &s.UserID, &s.Summoned)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ReplaceForEventTx deletes the event's summons set and inserts the new
// batch in one statement. Passing an empty slice clears the list.
func (r *SummonsRepo) ReplaceForEventTx(ctx context.Context, tx *sql.Tx, eventID uint64, userIDs []uint64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM summons WHERE event_id=?", eventID); err != nil {
		return err
	}
	if len(userIDs) == 0 {
		return nil
	}
	query := "INSERT INTO summons (event_id, user_id, summoned) VALUES "
	args := make([]any, 0, len(userIDs)*2)
	for i, uid := range userIDs {
		if i > 0 {
			query += ","
		}
		query += "(?,?,1)"
		args = append(args, eventID, uid)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// CountForEvent returns the size of the current summons list (admin view).
func (r *SummonsRepo) CountForEvent(ctx context.Context, eventID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM summons WHERE event_id=? AND summoned=1", eventID).Scan(&n)
	return n, err
}
