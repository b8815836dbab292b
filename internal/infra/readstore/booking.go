package readstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"voltshare/internal/domain/booking"
	"voltshare/internal/infra"
	"voltshare/internal/infra/db"
	"voltshare/internal/usecase/queries"
	"voltshare/internal/usecase/shared"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type BookingReadStore struct {
	db db.DBTX
}

func NewBookingReadStore(dbtx db.DBTX) *BookingReadStore {
	return &BookingReadStore{db: dbtx}
}

func (r *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	query, args, err := psql.Select(
		"b.id", "b.charger_id", "c.title", "c.host_id", "b.renter_id",
		"b.start_time", "b.end_time", "b.status", "b.payment_status",
		"b.price_snapshot", "b.booking_code", "b.extended_times", "b.overstay_minutes",
		"b.created_at", "b.updated_at",
	).
		From("bookings b").
		Join("chargers c ON b.charger_id = c.id").
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build find booking view query", err)
	}

	var (
		view      queries.BookingView
		priceJSON []byte
	)
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&view.ID, &view.ChargerID, &view.ChargerTitle, &view.HostID, &view.RenterID,
		&view.StartTime, &view.EndTime, &view.Status, &view.PaymentStatus,
		&priceJSON, &view.BookingCode, &view.ExtendedTimes, &view.OverstayMinutes,
		&view.CreatedAt, &view.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking view", err)
	}

	if err := json.Unmarshal(priceJSON, &view.Price); err != nil {
		return nil, infra.WrapRepoErr("failed to decode price snapshot", err)
	}
	view.TotalCents = view.Price.TotalCents()
	return &view, nil
}

func (r *BookingReadStore) FindByRenterFirstPage(ctx context.Context, renterID uuid.UUID, limit int32) ([]*queries.BookingListItem, error) {
	builder := r.listBuilder(renterID)
	return r.scanList(ctx, builder.Limit(uint64(limit)))
}

func (r *BookingReadStore) FindByRenterKeyset(ctx context.Context, renterID uuid.UUID, after *queries.BookingListItem, limit int32) ([]*queries.BookingListItem, error) {
	builder := r.listBuilder(renterID).
		Where(squirrel.Or{
			squirrel.Lt{"b.created_at": after.CreatedAt},
			squirrel.And{
				squirrel.Eq{"b.created_at": after.CreatedAt},
				squirrel.Lt{"b.id": after.ID},
			},
		})
	return r.scanList(ctx, builder.Limit(uint64(limit)))
}

func (r *BookingReadStore) listBuilder(renterID uuid.UUID) squirrel.SelectBuilder {
	return psql.Select(
		"b.id", "b.charger_id", "c.title", "b.start_time", "b.end_time",
		"b.status", "b.price_snapshot", "b.created_at",
	).
		From("bookings b").
		Join("chargers c ON b.charger_id = c.id").
		Where(squirrel.Eq{"b.renter_id": renterID}).
		OrderBy("b.created_at DESC", "b.id DESC")
}

func (r *BookingReadStore) scanList(ctx context.Context, builder squirrel.SelectBuilder) ([]*queries.BookingListItem, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build list bookings query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings", err)
	}
	defer rows.Close()

	var items []*queries.BookingListItem
	for rows.Next() {
		var (
			item      queries.BookingListItem
			priceJSON []byte
		)
		if err := rows.Scan(
			&item.ID, &item.ChargerID, &item.ChargerTitle, &item.StartTime, &item.EndTime,
			&item.Status, &priceJSON, &item.CreatedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking list row", err)
		}
		var price booking.PriceSnapshot
		if err := json.Unmarshal(priceJSON, &price); err != nil {
			return nil, infra.WrapRepoErr("failed to decode price snapshot", err)
		}
		item.TotalCents = price.TotalCents()
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate booking list rows", err)
	}
	return items, nil
}

// SnapshotByID is the command-side validation read.
func (r *BookingReadStore) SnapshotByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*shared.BookingSnapshot, error) {
	query, args, err := psql.Select("id", "charger_id", "renter_id", "status", "start_time", "end_time").
		From("bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build booking snapshot query", err)
	}

	var snap shared.BookingSnapshot
	if err := dbtx.QueryRow(ctx, query, args...).Scan(
		&snap.ID, &snap.ChargerID, &snap.RenterID, &snap.Status, &snap.StartTime, &snap.EndTime,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to read booking snapshot", err)
	}
	return &snap, nil
}

// ActiveClaims streams every claim-holding booking, to rebuild the interval
// index at startup.
func (r *BookingReadStore) ActiveClaims(ctx context.Context) ([]shared.ClaimRecord, error) {
	query, args, err := psql.Select("charger_id", "id", "start_time", "end_time").
		From("bookings").
		Where(squirrel.Eq{"status": []string{
			booking.StatusPending.String(),
			booking.StatusConfirmed.String(),
			booking.StatusActive.String(),
		}}).
		OrderBy("charger_id", "start_time").
		ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build active claims query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to read active claims", err)
	}
	defer rows.Close()

	var claims []shared.ClaimRecord
	for rows.Next() {
		var c shared.ClaimRecord
		if err := rows.Scan(&c.ChargerID, &c.BookingID, &c.StartTime, &c.EndTime); err != nil {
			return nil, infra.WrapRepoErr("failed to scan claim row", err)
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate claim rows", err)
	}
	return claims, nil
}

// OverdueActive finds active bookings whose booked end has passed.
func (r *BookingReadStore) OverdueActive(ctx context.Context, now time.Time) ([]shared.SweepCandidate, error) {
	builder := r.sweepBuilder().
		Where(squirrel.Eq{"status": booking.StatusActive.String()}).
		Where(squirrel.LtOrEq{"end_time": now})
	return r.scanSweep(ctx, builder)
}

// StalePending finds pending bookings the host never answered within the
// response window.
func (r *BookingReadStore) StalePending(ctx context.Context, cutoff time.Time) ([]shared.SweepCandidate, error) {
	builder := r.sweepBuilder().
		Where(squirrel.Eq{"status": booking.StatusPending.String()}).
		Where(squirrel.LtOrEq{"created_at": cutoff})
	return r.scanSweep(ctx, builder)
}

// NoShows finds confirmed bookings where no session started by the grace
// deadline after the booked start.
func (r *BookingReadStore) NoShows(ctx context.Context, now time.Time, grace time.Duration) ([]shared.SweepCandidate, error) {
	builder := r.sweepBuilder().
		Where(squirrel.Eq{"status": booking.StatusConfirmed.String()}).
		Where(squirrel.LtOrEq{"start_time": now.Add(-grace)}).
		Where("NOT EXISTS (SELECT 1 FROM sessions s WHERE s.booking_id = bookings.id)")
	return r.scanSweep(ctx, builder)
}

func (r *BookingReadStore) sweepBuilder() squirrel.SelectBuilder {
	return psql.Select("id", "charger_id", "end_time").
		From("bookings").
		OrderBy("end_time")
}

func (r *BookingReadStore) scanSweep(ctx context.Context, builder squirrel.SelectBuilder) ([]shared.SweepCandidate, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to build sweep query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to run sweep query", err)
	}
	defer rows.Close()

	var candidates []shared.SweepCandidate
	for rows.Next() {
		var c shared.SweepCandidate
		if err := rows.Scan(&c.BookingID, &c.ChargerID, &c.EndTime); err != nil {
			return nil, infra.WrapRepoErr("failed to scan sweep row", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate sweep rows", err)
	}
	return candidates, nil
}
