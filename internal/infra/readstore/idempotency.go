package readstore

import (
	"context"
	"errors"

	"voltshare/internal/infra"
	"voltshare/internal/infra/db"
	"voltshare/internal/usecase/shared"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type IdempotencyReadStore struct{}

func NewIdempotencyReadStore() *IdempotencyReadStore {
	return &IdempotencyReadStore{}
}

func (r *IdempotencyReadStore) Get(ctx context.Context, dbtx db.DBTX, key, userID uuid.UUID) (*shared.IdempotencyRecord, error) {
	query, args, err := psql.Select("key", "user_id", "status", "request_hash", "result_booking_id", "expires_at").
		From("idempotency_keys").
		Where(squirrel.Eq{"key": key, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build get idempotency key query", err)
	}

	var record shared.IdempotencyRecord
	if err := dbtx.QueryRow(ctx, query, args...).Scan(
		&record.Key, &record.UserID, &record.Status, &record.RequestHash,
		&record.ResultBookingID, &record.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("idempotency key not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to get idempotency key", err)
	}
	return &record, nil
}
