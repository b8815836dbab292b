package readstore

import (
	"context"
	"errors"

	"voltshare/internal/infra"
	"voltshare/internal/infra/db"
	"voltshare/internal/usecase/queries"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SessionReadStore struct {
	db db.DBTX
}

func NewSessionReadStore(dbtx db.DBTX) *SessionReadStore {
	return &SessionReadStore{db: dbtx}
}

func (r *SessionReadStore) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*queries.SessionView, error) {
	query, args, err := psql.Select("id", "booking_id", "started_at", "ended_at", "energy_wh", "outcome").
		From("sessions").
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build find session view query", err)
	}

	var view queries.SessionView
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&view.ID, &view.BookingID, &view.StartedAt, &view.EndedAt, &view.EnergyWh, &view.Outcome,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("session not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find session view", err)
	}
	return &view, nil
}
