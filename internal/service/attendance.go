package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/presenca-app/presenca-api/internal/metrics"
	"github.com/presenca-app/presenca-api/internal/model"
	"github.com/presenca-app/presenca-api/internal/repository"
	"github.com/presenca-app/presenca-api/internal/utils"
)

// RegisterInput carries one attendance submission. City and instrument each
// accept either an id of an existing reference row or free text; free text
// is normalized and resolved through find-or-create. City is mandatory in
// one of the two forms, instrument is optional in both.
type RegisterInput struct {
	UserID         uint64
	TenantID       uint64
	MinistryRole   string
	CityID         *uint64
	CityName       string
	InstrumentID   *uint64
	InstrumentName string
}

// AttendanceService is the registration engine. Register runs event
// resolution, window and summons checks, reference resolution and the
// record insert inside one transaction, so a registration and any reference
// rows it creates commit or roll back together.
type AttendanceService struct {
	db          *sql.DB
	resolver    *EventResolver
	summons     *repository.SummonsRepo
	cities      *repository.ReferenceRepo
	instruments *repository.ReferenceRepo
	records     *repository.AttendanceRepo
	log         *slog.Logger
	now         func() time.Time
}

func NewAttendanceService(db *sql.DB, resolver *EventResolver, summons *repository.SummonsRepo,
	cities, instruments *repository.ReferenceRepo, records *repository.AttendanceRepo, log *slog.Logger) *AttendanceService {
	return &AttendanceService{
		db:          db,
		resolver:    resolver,
		summons:     summons,
		cities:      cities,
		instruments: instruments,
		records:     records,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Register performs the atomic registration operation and returns the
// created record.
func (s *AttendanceService) Register(ctx context.Context, in RegisterInput) (*model.AttendanceRecord, error) {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	event, err := s.resolver.ResolveForRegistrationTx(ctx, tx, in.TenantID, in.UserID, now)
	if err != nil {
		return nil, err
	}
	if err := validateEventState(event); err != nil {
		return nil, err
	}
	if now.Before(event.StartsAt) {
		return nil, fmt.Errorf("%w: opens at %s", ErrWindowNotOpen, event.StartsAt.Format(time.RFC3339))
	}
	if now.After(event.EndsAt) {
		return nil, ErrWindowClosed
	}

	// Summons gating is opt-in per event; when the flag is unset the
	// summons table is not consulted at all.
	if event.RequiresSummons {
		sum, err := s.summons.GetTx(ctx, tx, event.ID, in.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSummonsRequired
		}
		if err != nil {
			return nil, err
		}
		if !sum.Summoned {
			return nil, ErrSummonsRequired
		}
	}

	cityID, err := s.resolveCity(ctx, tx, in)
	if err != nil {
		return nil, err
	}
	instrumentID, instrumentOther, err := s.resolveInstrument(ctx, tx, in)
	if err != nil {
		return nil, err
	}

	rec := &model.AttendanceRecord{
		TenantID:        in.TenantID,
		UserID:          in.UserID,
		EventID:         event.ID,
		MinistryRole:    utils.NormalizeName(in.MinistryRole),
		CityID:          cityID,
		InstrumentID:    instrumentID,
		InstrumentOther: instrumentOther,
	}
	if err := s.records.InsertTx(ctx, tx, rec); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	metrics.RegistrationsTotal.Inc()
	s.log.Info("attendance registered",
		slog.Uint64("record_id", rec.ID),
		slog.Uint64("user_id", rec.UserID),
		slog.Uint64("event_id", rec.EventID))
	return rec, nil
}

func validateEventState(e *model.Event) error {
	if e.DeletedAt != nil {
		return ErrEventRemoved
	}
	if !e.Active {
		return ErrEventInactive
	}
	if e.StartsAt.IsZero() || e.EndsAt.IsZero() || e.EndsAt.Before(e.StartsAt) {
		return ErrEventMisconfigured
	}
	return nil
}

// resolveCity enforces the mandatory city reference: an id is validated
// tenant-scoped and live, free text goes through find-or-create, neither is
// an error.
func (s *AttendanceService) resolveCity(ctx context.Context, tx *sql.Tx, in RegisterInput) (uint64, error) {
	if in.CityID != nil {
		ok, err := s.cities.ExistsTx(ctx, tx, *in.CityID, in.TenantID)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, ErrInvalidCity
		}
		return *in.CityID, nil
	}
	name := utils.NormalizeName(in.CityName)
	if name == "" {
		return 0, ErrCityRequired
	}
	return s.cities.FindOrCreateTx(ctx, tx, in.TenantID, name)
}

// resolveInstrument mirrors resolveCity but is optional: absent input stores
// a null reference. A typed instrument name becomes a permanent reference
// row via the same find-or-create path, after synonym correction.
func (s *AttendanceService) resolveInstrument(ctx context.Context, tx *sql.Tx, in RegisterInput) (*uint64, *string, error) {
	if in.InstrumentID != nil {
		ok, err := s.instruments.ExistsTx(ctx, tx, *in.InstrumentID, in.TenantID)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, ErrInvalidInstrument
		}
		return in.InstrumentID, nil, nil
	}
	if strings.TrimSpace(in.InstrumentName) == "" {
		return nil, nil, nil
	}
	name := utils.NormalizeInstrumentName(in.InstrumentName)
	id, err := s.instruments.FindOrCreateTx(ctx, tx, in.TenantID, name)
	if err != nil {
		return nil, nil, err
	}
	return &id, nil, nil
}
