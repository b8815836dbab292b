package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"voltshare/internal/domain/booking"
	"voltshare/internal/infra"
	"voltshare/internal/infra/interval"
	"voltshare/internal/pkg/clock"
	"voltshare/internal/pkg/config"
	"voltshare/internal/pkg/errs"
	"voltshare/internal/usecase/queries"
	"voltshare/internal/usecase/shared"

	"github.com/google/uuid"
)

// Sentinels shared across the engine live in errs; the command layer
// re-exports them so handlers keep matching on commands.Err*.
var (
	ErrChargerNotFound         = errs.ErrChargerNotFound
	ErrBookingNotFound         = errs.ErrBookingNotFound
	ErrInvalidTimeSlot         = errs.ErrInvalidTimeSlot
	ErrSlotConflict            = errs.ErrSlotConflict
	ErrDuplicateRequest        = errs.ErrDuplicateRequest
	ErrIdempotencyInProgress   = errs.ErrIdempotencyInProgress
	ErrIdempotencyKeyRequired  = errs.ErrIdempotencyKeyRequired
	ErrIdempotencyCheckFailed  = errs.ErrIdempotencyCheckFailed
	ErrLifecycleViolation      = errs.ErrInvalidTransition
	ErrDatabaseOperationFailed = errs.ErrDatabaseOperationFailed

	ErrDomainValidation      = errs.New("domain validation error")
	ErrNotBookingParticipant = errs.New("caller is neither renter nor host of this booking")
	ErrNotChargerHost        = errs.New("caller does not host this charger")
)

type CreateBookingParams struct {
	ChargerID uuid.UUID
	StartTime time.Time
	EndTime   time.Time
}

type CreateBookingResult struct {
	Booking    *queries.BookingView
	AccessCode string
	IsReplayed bool
}

type BookingCommands interface {
	CreateBooking(ctx context.Context, params CreateBookingParams, renterID, idempotencyKey uuid.UUID) (*CreateBookingResult, error)
	CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID, reason string) error
	AcceptBooking(ctx context.Context, bookingID, hostID uuid.UUID) error
}

type bookingUseCaseImpl struct {
	uow            shared.UnitOfWork
	index          *interval.Index
	factory        *booking.Factory
	gateway        PaymentGateway
	bookingQueries queries.BookingQueries
	clock          clock.Clock
	engine         config.EngineConfig
}

func NewBookingUseCase(
	uow shared.UnitOfWork,
	index *interval.Index,
	factory *booking.Factory,
	gateway PaymentGateway,
	bookingQueries queries.BookingQueries,
	clk clock.Clock,
	engine config.EngineConfig,
) BookingCommands {
	return &bookingUseCaseImpl{
		uow:            uow,
		index:          index,
		factory:        factory,
		gateway:        gateway,
		bookingQueries: bookingQueries,
		clock:          clk,
		engine:         engine,
	}
}

// CreateBooking runs the commit protocol: idempotency claim, domain
// validation, interval reservation, then durable persistence. The in-memory
// claim is taken before the transaction and compensated on any persistence
// failure, so the index never under-reports occupancy.
func (r *bookingUseCaseImpl) CreateBooking(
	ctx context.Context,
	params CreateBookingParams,
	renterID, idempotencyKey uuid.UUID,
) (*CreateBookingResult, error) {
	requestHash := calculateRequestHash(params)
	expiresAt := r.clock.Now().Add(r.engine.IdempotencyTTL)

	replayed, err := r.handleIdempotency(ctx, idempotencyKey, renterID, requestHash, expiresAt)
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		return &CreateBookingResult{Booking: replayed, IsReplayed: true}, nil
	}

	chargerSnap, err := r.uow.CommandReads().ChargerByID(ctx, params.ChargerID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrChargerNotFound
		}
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	slot, err := booking.NewTimeSlot(params.StartTime, params.EndTime)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidTimeSlot)
	}

	entity, accessPlain, err := r.factory.CreateBooking(chargerFromSnapshot(chargerSnap), renterID, slot)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}

	span := interval.Span{Start: slot.Start(), End: slot.End()}
	if err := r.index.Reserve(entity.ChargerID(), span, entity.ID()); err != nil {
		return nil, ErrSlotConflict
	}

	if err := r.persistNewBooking(ctx, entity, idempotencyKey, renterID); err != nil {
		// Compensating release keeps the index consistent with storage, and
		// dropping the idempotency claim lets a retry with the same key run
		// instead of stalling on a processing record until its TTL.
		r.index.Release(entity.ChargerID(), entity.ID())
		if clearErr := r.releaseIdempotencyClaim(ctx, idempotencyKey, renterID); clearErr != nil {
			slog.Error("idempotency claim not released after failed persist",
				"idempotency_key", idempotencyKey, "error", clearErr.Error())
			return nil, errs.Mark(err, errs.ErrReconciliationRequired)
		}
		return nil, err
	}

	if entity.Status() == booking.StatusConfirmed {
		r.requestCapture(ctx, entity.ID(), entity.Price().TotalCents())
	}

	view, err := r.bookingQueries.GetByIDSystem(ctx, entity.ID())
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return &CreateBookingResult{Booking: view, AccessCode: accessPlain}, nil
}

// requestCapture asks the collaborator to charge the renter. The engine never
// blocks on the answer; the verdict arrives later through the webhook, so a
// failed request is logged and left to the collaborator's own retries.
func (r *bookingUseCaseImpl) requestCapture(ctx context.Context, bookingID uuid.UUID, amountCents int64) {
	if err := r.gateway.RequestCapture(ctx, bookingID, amountCents); err != nil {
		slog.Warn("capture request failed", "booking_id", bookingID, "error", err.Error())
	}
}

func (r *bookingUseCaseImpl) releaseIdempotencyClaim(ctx context.Context, key, userID uuid.UUID) error {
	return r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Idempotency().Delete(ctx, tx.DB(), key, userID)
	})
}

func (r *bookingUseCaseImpl) persistNewBooking(
	ctx context.Context,
	entity *booking.Booking,
	idempotencyKey, renterID uuid.UUID,
) error {
	return r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if err := tx.Bookings().Create(ctx, tx.DB(), entity); err != nil {
			// The exclusion constraint is the storage backstop for a claim
			// the index missed (e.g. a competing instance).
			if infra.IsKind(err, infra.KindConflict) {
				return ErrSlotConflict
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if err := r.notifyBookingEvent(ctx, tx, entity.ID(), "booking_created"); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		responseHash := calculateIDHash(entity.ID())
		if err := tx.Idempotency().UpdateStatusCompleted(ctx, tx.DB(), idempotencyKey, renterID, responseHash, entity.ID()); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return nil
	})
}

func (r *bookingUseCaseImpl) handleIdempotency(
	ctx context.Context,
	idempotencyKey, userID uuid.UUID,
	requestHash string,
	expiresAt time.Time,
) (*queries.BookingView, error) {
	var replay *queries.BookingView
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		inserted, err := tx.Idempotency().TryInsert(ctx, tx.DB(), idempotencyKey, userID, "POST /bookings", requestHash, expiresAt)
		if err != nil {
			return errs.Mark(err, ErrIdempotencyCheckFailed)
		}
		if inserted > 0 {
			return nil
		}

		existing, err := tx.Reads().IdempotencyByKey(ctx, idempotencyKey, userID)
		if err != nil {
			return errs.Mark(err, ErrIdempotencyCheckFailed)
		}

		if r.clock.Now().After(existing.ExpiresAt) {
			claimed, err := tx.Idempotency().ClaimExpired(ctx, tx.DB(), idempotencyKey, userID, requestHash, expiresAt)
			if err != nil {
				return errs.Mark(err, ErrIdempotencyCheckFailed)
			}
			if claimed > 0 {
				return nil
			}
			// Lost the race to another claimer.
			return ErrIdempotencyInProgress
		}

		if existing.RequestHash != requestHash {
			return ErrDuplicateRequest
		}

		switch existing.Status {
		case "completed":
			if existing.ResultBookingID == nil {
				return errs.New("completed request missing result booking ID")
			}
			view, err := r.bookingQueries.GetByIDSystem(ctx, *existing.ResultBookingID)
			if err != nil {
				return errs.Mark(err, ErrIdempotencyCheckFailed)
			}
			replay = view
			return nil
		case "processing":
			return ErrIdempotencyInProgress
		default:
			return errs.New("invalid idempotency key status")
		}
	})
	if err != nil {
		return nil, err
	}
	return replay, nil
}

// CancelBooking releases the slot. The renter may always cancel their own
// booking; the host may cancel bookings on their charger. The interval claim
// is dropped only after the terminal status is durable.
func (r *bookingUseCaseImpl) CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID, reason string) error {
	var chargerID uuid.UUID
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, err := tx.Bookings().FindByIDForUpdate(ctx, tx.DB(), bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrBookingNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		chargerID = entity.ChargerID()

		actor, err := r.resolveCancelActor(ctx, tx, entity, actorID)
		if err != nil {
			return err
		}

		now := r.clock.Now()
		if err := entity.Cancel(now, actor, reason); err != nil {
			return errs.Mark(err, ErrLifecycleViolation)
		}

		if entity.PaymentStatus() == booking.PaymentCompleted {
			refund := entity.Price().BaseTotalCents()
			if err := r.gateway.Refund(ctx, entity.ID(), refund); err != nil {
				return errs.Wrap(err, "refund request failed")
			}
			entity.SetPaymentStatus(booking.PaymentRefunded, now)
		}

		if err := tx.Bookings().Update(ctx, tx.DB(), entity); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return r.notifyBookingEvent(ctx, tx, entity.ID(), "booking_cancelled")
	})
	if err != nil {
		return err
	}

	r.index.Release(chargerID, bookingID)
	return nil
}

// AcceptBooking is the host's answer to a pending request. Confirmation is
// when the renter gets charged, so the capture intent goes out once the new
// status is durable.
func (r *bookingUseCaseImpl) AcceptBooking(ctx context.Context, bookingID, hostID uuid.UUID) error {
	var totalCents int64
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, err := tx.Bookings().FindByIDForUpdate(ctx, tx.DB(), bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrBookingNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		chargerEntity, err := tx.Chargers().FindByID(ctx, tx.DB(), entity.ChargerID())
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if chargerEntity.HostID() != hostID {
			return ErrNotChargerHost
		}

		if err := entity.Confirm(r.clock.Now()); err != nil {
			return errs.Mark(err, ErrLifecycleViolation)
		}
		if err := tx.Bookings().Update(ctx, tx.DB(), entity); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		totalCents = entity.Price().TotalCents()
		return r.notifyBookingEvent(ctx, tx, entity.ID(), "booking_confirmed")
	})
	if err != nil {
		return err
	}

	r.requestCapture(ctx, bookingID, totalCents)
	return nil
}

func (r *bookingUseCaseImpl) resolveCancelActor(ctx context.Context, tx shared.Tx, entity *booking.Booking, actorID uuid.UUID) (booking.CancelActor, error) {
	if entity.RenterID() == actorID {
		return booking.CancelledByRenter, nil
	}
	chargerEntity, err := tx.Chargers().FindByID(ctx, tx.DB(), entity.ChargerID())
	if err != nil {
		return "", errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if chargerEntity.HostID() == actorID {
		return booking.CancelledByHost, nil
	}
	return "", ErrNotBookingParticipant
}

func (r *bookingUseCaseImpl) notifyBookingEvent(ctx context.Context, tx shared.Tx, bookingID uuid.UUID, topic string) error {
	payload, err := json.Marshal(map[string]any{
		"booking_id": bookingID,
		"type":       topic,
	})
	if err != nil {
		return err
	}
	return tx.Notifications().CreateJob(ctx, tx.DB(), "email", topic, payload, r.clock.Now())
}

func calculateRequestHash(params CreateBookingParams) string {
	data := fmt.Sprintf("%s|%d|%d",
		params.ChargerID, params.StartTime.UTC().UnixMicro(), params.EndTime.UTC().UnixMicro())
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

func calculateIDHash(id uuid.UUID) string {
	hash := sha256.Sum256([]byte(id.String()))
	return hex.EncodeToString(hash[:])
}
