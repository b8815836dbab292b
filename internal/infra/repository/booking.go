package repository

import (
	"context"
	"errors"

	"voltshare/internal/domain/booking"
	"voltshare/internal/infra"
	"voltshare/internal/infra/db"
	"voltshare/internal/infra/repository/converter"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var bookingColumns = []string{
	"id", "charger_id", "renter_id", "start_time", "end_time",
	"status", "payment_status", "price_snapshot", "pricing_rule",
	"booking_code", "access_code_hash", "extended_times", "overstay_minutes",
	"created_at", "updated_at",
}

type BookingRepository struct{}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{}
}

func (r *BookingRepository) Create(ctx context.Context, tx db.DBTX, b *booking.Booking) error {
	priceJSON, err := converter.MarshalPriceSnapshot(b.Price())
	if err != nil {
		return infra.WrapRepoErr("failed to encode booking price", err)
	}
	ruleJSON, err := converter.MarshalPricingRule(b.Rule())
	if err != nil {
		return infra.WrapRepoErr("failed to encode booking rule", err)
	}

	query, args, err := psql.Insert("bookings").
		Columns(bookingColumns...).
		Values(
			b.ID(), b.ChargerID(), b.RenterID(), b.Slot().Start(), b.Slot().End(),
			b.Status().String(), string(b.PaymentStatus()), priceJSON, ruleJSON,
			b.BookingCode(), b.AccessHash(), b.ExtendedTimes(), b.OverstayMinutes(),
			b.CreatedAt(), b.UpdatedAt(),
		).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build create booking query", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return infra.WrapRepoErr("failed to create booking", err, pgErrKind(err))
	}
	return nil
}

// FindByIDForUpdate loads the booking with a row lock so lifecycle
// transitions on the same booking serialize at the database.
func (r *BookingRepository) FindByIDForUpdate(ctx context.Context, tx db.DBTX, id uuid.UUID) (*booking.Booking, error) {
	query, args, err := psql.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build find booking query", err)
	}

	row := tx.QueryRow(ctx, query, args...)
	var rec converter.BookingRow
	if err := row.Scan(
		&rec.ID, &rec.ChargerID, &rec.RenterID, &rec.StartTime, &rec.EndTime,
		&rec.Status, &rec.PaymentStatus, &rec.PriceSnapshot, &rec.PricingRule,
		&rec.BookingCode, &rec.AccessCodeHash, &rec.ExtendedTimes, &rec.OverstayMinutes,
		&rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking", err)
	}

	entity, err := converter.BookingToEntity(rec)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to convert booking row", err)
	}
	return entity, nil
}

// Update persists the mutable half of the entity. Immutable columns
// (charger, renter, codes, created_at) are never touched.
func (r *BookingRepository) Update(ctx context.Context, tx db.DBTX, b *booking.Booking) error {
	priceJSON, err := converter.MarshalPriceSnapshot(b.Price())
	if err != nil {
		return infra.WrapRepoErr("failed to encode booking price", err)
	}

	update := psql.Update("bookings").
		Set("start_time", b.Slot().Start()).
		Set("end_time", b.Slot().End()).
		Set("status", b.Status().String()).
		Set("payment_status", string(b.PaymentStatus())).
		Set("price_snapshot", priceJSON).
		Set("extended_times", b.ExtendedTimes()).
		Set("overstay_minutes", b.OverstayMinutes()).
		Set("updated_at", b.UpdatedAt()).
		Where(squirrel.Eq{"id": b.ID()})

	if b.CancelledAt() != nil {
		update = update.
			Set("cancelled_at", b.CancelledAt()).
			Set("cancelled_by", string(b.CancelledBy())).
			Set("cancel_note", b.CancelNote())
	}

	query, args, err := update.ToSql()
	if err != nil {
		return infra.WrapRepoErr("failed to build update booking query", err)
	}

	ct, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return infra.WrapRepoErr("failed to update booking", err, pgErrKind(err))
	}
	if ct.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return nil
}

// pgErrKind maps Postgres error codes onto repository kinds. The exclusion
// constraint on bookings is the storage backstop behind the interval index,
// so it surfaces as a slot conflict rather than a generic failure.
func pgErrKind(err error) infra.RepositoryErrorKind {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return infra.KindDBFailure
	}
	switch pgErr.Code {
	case pgerrcode.ExclusionViolation:
		return infra.KindConflict
	case pgerrcode.UniqueViolation:
		return infra.KindDuplicateKey
	case pgerrcode.ForeignKeyViolation:
		return infra.KindForeignKeyViolated
	default:
		return infra.KindDBFailure
	}
}
