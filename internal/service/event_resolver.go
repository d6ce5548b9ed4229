package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/presenca-app/presenca-api/internal/model"
	"github.com/presenca-app/presenca-api/internal/repository"
)

// EventResolver decides which event a user registers against. Most users
// carry a direct event link; floating users fall back to whatever event is
// open tenant-wide. When several tenant-wide events are open at once the
// one with the latest window start wins (documented tie-break).
type EventResolver struct {
	users  *repository.UserRepo
	events *repository.EventRepo
}

func NewEventResolver(users *repository.UserRepo, events *repository.EventRepo) *EventResolver {
	return &EventResolver{users: users, events: events}
}

// ResolveForRegistrationTx picks the registration target inside the
// caller's transaction: the user's linked event when a link exists
// (whatever its state — the registrar reports deleted/inactive/closed as
// specific failures), else the tenant's open event. Returns
// ErrNoActiveEvent when nothing can be resolved.
func (r *EventResolver) ResolveForRegistrationTx(ctx context.Context, tx *sql.Tx, tenantID, userID uint64, now time.Time) (*model.Event, error) {
	linkedID, err := r.users.LinkedEventIDTx(ctx, tx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if linkedID != nil {
		e, err := r.events.GetByIDTx(ctx, tx, *linkedID, tenantID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveEvent
		}
		if err != nil {
			return nil, err
		}
		return e, nil
	}

	e, err := r.events.FindOpenTx(ctx, tx, tenantID, now)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoActiveEvent
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Resolve is the read-only lookup behind the "current event" endpoint: the
// linked event counts only while live and inside its window; a stale link
// falls back to the tenant-wide open event.
func (r *EventResolver) Resolve(ctx context.Context, tenantID uint64, linkedEventID *uint64, now time.Time) (*model.Event, error) {
	if linkedEventID != nil {
		e, err := r.events.GetByID(ctx, *linkedEventID, tenantID)
		if err == nil && usable(e, now) {
			return e, nil
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	e, err := r.events.FindOpen(ctx, tenantID, now)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoActiveEvent
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func usable(e *model.Event, now time.Time) bool {
	return e.DeletedAt == nil && e.Active && e.WindowContains(now)
}
