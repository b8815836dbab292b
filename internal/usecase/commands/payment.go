package commands

import (
	"context"
	"encoding/json"

	"voltshare/internal/domain/booking"
	"voltshare/internal/infra"
	"voltshare/internal/infra/interval"
	"voltshare/internal/pkg/clock"
	"voltshare/internal/pkg/errs"
	"voltshare/internal/usecase/shared"

	"github.com/google/uuid"
)

type PaymentResultParams struct {
	BookingID uuid.UUID
	Succeeded bool
	Reference string
}

type PaymentCommands interface {
	HandlePaymentResult(ctx context.Context, params PaymentResultParams) error
}

type paymentUseCaseImpl struct {
	uow   shared.UnitOfWork
	index *interval.Index
	clock clock.Clock
}

func NewPaymentUseCase(uow shared.UnitOfWork, index *interval.Index, clk clock.Clock) PaymentCommands {
	return &paymentUseCaseImpl{uow: uow, index: index, clock: clk}
}

// HandlePaymentResult applies an asynchronous verdict from the payment
// collaborator. A failure on a booking that still holds its claim fails the
// booking and frees the slot; a failure after activation only flags the
// payment, since charging already happened.
func (r *paymentUseCaseImpl) HandlePaymentResult(ctx context.Context, params PaymentResultParams) error {
	var (
		chargerID    uuid.UUID
		claimDropped bool
	)
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, err := tx.Bookings().FindByIDForUpdate(ctx, tx.DB(), params.BookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrBookingNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		chargerID = entity.ChargerID()
		now := r.clock.Now()

		if params.Succeeded {
			entity.SetPaymentStatus(booking.PaymentCompleted, now)
		} else {
			switch entity.Status() {
			case booking.StatusPending, booking.StatusConfirmed:
				if err := entity.Fail(now); err != nil {
					return errs.Mark(err, ErrLifecycleViolation)
				}
				claimDropped = true
			default:
				entity.SetPaymentStatus(booking.PaymentFailed, now)
			}
		}

		if err := tx.Bookings().Update(ctx, tx.DB(), entity); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return r.notifyPaymentEvent(ctx, tx, entity.ID(), params)
	})
	if err != nil {
		return err
	}

	if claimDropped {
		r.index.Release(chargerID, params.BookingID)
	}
	return nil
}

func (r *paymentUseCaseImpl) notifyPaymentEvent(ctx context.Context, tx shared.Tx, bookingID uuid.UUID, params PaymentResultParams) error {
	topic := "payment_completed"
	if !params.Succeeded {
		topic = "payment_failed"
	}
	payload, err := json.Marshal(map[string]any{
		"booking_id": bookingID,
		"reference":  params.Reference,
		"type":       topic,
	})
	if err != nil {
		return err
	}
	return tx.Notifications().CreateJob(ctx, tx.DB(), "email", topic, payload, r.clock.Now())
}
