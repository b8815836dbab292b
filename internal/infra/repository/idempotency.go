package repository

import (
	"context"
	"time"

	"voltshare/internal/infra"
	"voltshare/internal/infra/db"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const (
	IdempotencyStatusProcessing = "processing"
	IdempotencyStatusCompleted  = "completed"
)

type IdempotencyRepository struct{}

func NewIdempotencyRepository() *IdempotencyRepository {
	return &IdempotencyRepository{}
}

// TryInsert claims the key for this request. Returns the number of rows
// inserted: 0 means a concurrent or earlier request already holds the key.
// ON CONFLICT keeps the surrounding transaction usable on the taken path.
func (r *IdempotencyRepository) TryInsert(ctx context.Context, tx db.DBTX, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (int64, error) {
	query, args, err := psql.Insert("idempotency_keys").
		Columns("key", "user_id", "endpoint", "request_hash", "status", "expires_at").
		Values(key, userID, endpoint, requestHash, IdempotencyStatusProcessing, expiresAt).
		Suffix("ON CONFLICT (key, user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return 0, infra.WrapRepoErr("failed to build insert idempotency key query", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to insert idempotency key", err, pgErrKind(err))
	}
	return ct.RowsAffected(), nil
}

func (r *IdempotencyRepository) UpdateStatusCompleted(ctx context.Context, tx db.DBTX, key, userID uuid.UUID, responseHash string, resultBookingID uuid.UUID) error {
	query, args, err := psql.Update("idempotency_keys").
		Set("status", IdempotencyStatusCompleted).
		Set("response_hash", responseHash).
		Set("result_booking_id", resultBookingID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"key": key, "user_id": userID}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build update idempotency key query", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return infra.WrapRepoErr("failed to update idempotency key", err)
	}
	return nil
}

// ClaimExpired re-arms a key whose TTL lapsed so the request can run again.
// Returns the number of rows claimed (0 means the key is still live).
func (r *IdempotencyRepository) ClaimExpired(ctx context.Context, tx db.DBTX, key, userID uuid.UUID, requestHash string, expiresAt time.Time) (int64, error) {
	query, args, err := psql.Update("idempotency_keys").
		Set("request_hash", requestHash).
		Set("response_hash", nil).
		Set("result_booking_id", nil).
		Set("status", IdempotencyStatusProcessing).
		Set("expires_at", expiresAt).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"key": key, "user_id": userID}).
		Where("expires_at < now()").
		ToSql()
	if err != nil {
		return 0, infra.WrapRepoErr("failed to build claim expired idempotency key query", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to claim expired idempotency key", err)
	}
	return ct.RowsAffected(), nil
}

// Delete drops a claim whose request failed after the key was committed, so
// the client's retry with the same key starts clean instead of waiting out
// the TTL on a processing record.
func (r *IdempotencyRepository) Delete(ctx context.Context, tx db.DBTX, key, userID uuid.UUID) error {
	query, args, err := psql.Delete("idempotency_keys").
		Where(squirrel.Eq{"key": key, "user_id": userID}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build delete idempotency key query", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return infra.WrapRepoErr("failed to delete idempotency key", err)
	}
	return nil
}

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context, tx db.DBTX) (int64, error) {
	query, args, err := psql.Delete("idempotency_keys").
		Where("expires_at < now()").
		ToSql()
	if err != nil {
		return 0, infra.WrapRepoErr("failed to build delete expired idempotency keys query", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to delete expired idempotency keys", err)
	}
	return ct.RowsAffected(), nil
}
