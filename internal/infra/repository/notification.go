package repository

import (
	"context"
	"time"

	"voltshare/internal/infra"
	"voltshare/internal/infra/db"
)

// NotificationRepository is the outbox: jobs are written in the same
// transaction as the state change they announce, and drained out of band.
type NotificationRepository struct{}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) CreateJob(ctx context.Context, tx db.DBTX, kind, topic string, payload []byte, runAt time.Time) error {
	query, args, err := psql.Insert("notification_jobs").
		Columns("kind", "topic", "payload", "run_at").
		Values(kind, topic, payload, runAt).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build create notification job query", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return infra.WrapRepoErr("failed to create notification job", err)
	}
	return nil
}
