package repository

import (
	"context"
	"errors"
	"time"

	"voltshare/internal/domain/session"
	"voltshare/internal/infra"
	"voltshare/internal/infra/db"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var sessionColumns = []string{
	"id", "booking_id", "started_at", "ended_at", "energy_wh", "outcome",
	"created_at", "updated_at",
}

type SessionRepository struct{}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{}
}

func (r *SessionRepository) Create(ctx context.Context, tx db.DBTX, s *session.Session) error {
	query, args, err := psql.Insert("sessions").
		Columns(sessionColumns...).
		Values(
			s.ID(), s.BookingID(), s.StartedAt(), s.EndedAt(), s.EnergyWh(), string(s.Outcome()),
			s.CreatedAt(), s.UpdatedAt(),
		).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build create session query", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return infra.WrapRepoErr("failed to create session", err, pgErrKind(err))
	}
	return nil
}

// FindOpenByBookingIDForUpdate locks the booking's open session, if any.
func (r *SessionRepository) FindOpenByBookingIDForUpdate(ctx context.Context, tx db.DBTX, bookingID uuid.UUID) (*session.Session, error) {
	query, args, err := psql.Select(sessionColumns...).
		From("sessions").
		Where(squirrel.Eq{"booking_id": bookingID}).
		Where("ended_at IS NULL").
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build find session query", err)
	}

	var (
		id, bID            uuid.UUID
		startedAt          time.Time
		endedAt            *time.Time
		energyWh           int64
		outcome            string
		createdAt, updated time.Time
	)
	if err := tx.QueryRow(ctx, query, args...).Scan(
		&id, &bID, &startedAt, &endedAt, &energyWh, &outcome,
		&createdAt, &updated,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("open session not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find open session", err)
	}

	return session.ReconstructSession(
		id, bID, startedAt, endedAt, energyWh, session.Outcome(outcome),
		createdAt, updated,
	), nil
}

func (r *SessionRepository) Update(ctx context.Context, tx db.DBTX, s *session.Session) error {
	query, args, err := psql.Update("sessions").
		Set("ended_at", s.EndedAt()).
		Set("energy_wh", s.EnergyWh()).
		Set("outcome", string(s.Outcome())).
		Set("updated_at", s.UpdatedAt()).
		Where(squirrel.Eq{"id": s.ID()}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build update session query", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to update session", err)
	}
	if ct.RowsAffected() == 0 {
		return infra.WrapRepoErr("session not found", nil, infra.KindNotFound)
	}
	return nil
}
