package shared

import (
	"context"
	"time"

	"voltshare/internal/domain/booking"
	"voltshare/internal/domain/charger"
	"voltshare/internal/domain/session"
	"voltshare/internal/infra/db"

	"github.com/google/uuid"
)

type UnitOfWork interface {
	// Within: full transaction for write operations with retry logic
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// WithinReadOnly: read-only transaction for multi-table consistent reads
	WithinReadOnly(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error
	// WithDB: single query operations using implicit transactions
	WithDB(ctx context.Context, fn func(ctx context.Context, dbtx db.DBTX) error) error
	// CommandReads: direct access to command reads for validation outside transactions
	CommandReads() CommandReads
}

type Tx interface {
	Bookings() BookingRepository
	Chargers() ChargerRepository
	Sessions() SessionRepository
	Idempotency() IdempotencyRepository
	Notifications() NotificationRepository
	Reads() CommandReads
	DB() db.DBTX
}

type CommandReads interface {
	IdempotencyByKey(ctx context.Context, key, userID uuid.UUID) (*IdempotencyRecord, error)
	BookingByID(ctx context.Context, id uuid.UUID) (*BookingSnapshot, error)
	ChargerByID(ctx context.Context, id uuid.UUID) (*ChargerSnapshot, error)
}

type BookingRepository interface {
	Create(ctx context.Context, tx db.DBTX, b *booking.Booking) error
	FindByIDForUpdate(ctx context.Context, tx db.DBTX, id uuid.UUID) (*booking.Booking, error)
	Update(ctx context.Context, tx db.DBTX, b *booking.Booking) error
}

type ChargerRepository interface {
	Create(ctx context.Context, tx db.DBTX, c *charger.Charger, now time.Time) error
	FindByID(ctx context.Context, tx db.DBTX, id uuid.UUID) (*charger.Charger, error)
	SetActive(ctx context.Context, tx db.DBTX, id uuid.UUID, active bool, now time.Time) error
}

type SessionRepository interface {
	Create(ctx context.Context, tx db.DBTX, s *session.Session) error
	FindOpenByBookingIDForUpdate(ctx context.Context, tx db.DBTX, bookingID uuid.UUID) (*session.Session, error)
	Update(ctx context.Context, tx db.DBTX, s *session.Session) error
}

type IdempotencyRepository interface {
	TryInsert(ctx context.Context, tx db.DBTX, key, userID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (int64, error)
	UpdateStatusCompleted(ctx context.Context, tx db.DBTX, key, userID uuid.UUID, responseHash string, resultBookingID uuid.UUID) error
	ClaimExpired(ctx context.Context, tx db.DBTX, key, userID uuid.UUID, requestHash string, expiresAt time.Time) (int64, error)
	Delete(ctx context.Context, tx db.DBTX, key, userID uuid.UUID) error
}

type NotificationRepository interface {
	CreateJob(ctx context.Context, tx db.DBTX, kind, topic string, payload []byte, runAt time.Time) error
}
