package commands

import (
	"context"
	"errors"
	"time"

	"voltshare/internal/domain/booking"
	"voltshare/internal/domain/pricing"
	"voltshare/internal/domain/session"
	"voltshare/internal/infra"
	"voltshare/internal/infra/interval"
	"voltshare/internal/pkg/bookingcode"
	"voltshare/internal/pkg/clock"
	"voltshare/internal/pkg/config"
	"voltshare/internal/pkg/errs"
	"voltshare/internal/usecase/queries"
	"voltshare/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound   = errs.ErrSessionNotFound
	ErrInvalidAccessCode = errs.New("access code rejected")
	ErrNotBookingRenter  = errs.New("caller is not the renter of this booking")
	ErrStartTooEarly     = errs.New("session cannot start before the grace window opens")
	ErrSlotLapsed        = errs.New("booked slot has lapsed")
)

type StopSessionResult struct {
	Session *queries.SessionView
	Booking *queries.BookingView
}

type SessionCommands interface {
	StartSession(ctx context.Context, bookingID, renterID uuid.UUID, accessCode string) (*queries.SessionView, error)
	StopSession(ctx context.Context, bookingID, renterID uuid.UUID, energyWh int64) (*StopSessionResult, error)
}

type sessionUseCaseImpl struct {
	uow            shared.UnitOfWork
	index          *interval.Index
	calculator     *pricing.Calculator
	bookingQueries queries.BookingQueries
	clock          clock.Clock
	engine         config.EngineConfig
}

func NewSessionUseCase(
	uow shared.UnitOfWork,
	index *interval.Index,
	calculator *pricing.Calculator,
	bookingQueries queries.BookingQueries,
	clk clock.Clock,
	engine config.EngineConfig,
) SessionCommands {
	return &sessionUseCaseImpl{
		uow:            uow,
		index:          index,
		calculator:     calculator,
		bookingQueries: bookingQueries,
		clock:          clk,
		engine:         engine,
	}
}

// StartSession moves the booking to active on a verified start signal. The
// signal is accepted from the grace window before the booked start until the
// booked end; a later signal means the sweep should no-show the booking.
func (r *sessionUseCaseImpl) StartSession(ctx context.Context, bookingID, renterID uuid.UUID, accessCode string) (*queries.SessionView, error) {
	var view queries.SessionView
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, err := tx.Bookings().FindByIDForUpdate(ctx, tx.DB(), bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrBookingNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if entity.RenterID() != renterID {
			return ErrNotBookingRenter
		}
		if !bookingcode.VerifyAccessCode(entity.AccessHash(), accessCode) {
			return ErrInvalidAccessCode
		}

		now := r.clock.Now()
		if err := entity.Activate(now, r.engine.StartGracePeriod); err != nil {
			switch {
			case errors.Is(err, booking.ErrStartTooEarly):
				return ErrStartTooEarly
			case errors.Is(err, booking.ErrSlotLapsed):
				return ErrSlotLapsed
			default:
				return errs.Mark(err, ErrLifecycleViolation)
			}
		}

		sess := session.NewSession(entity.ID(), now)
		if err := tx.Sessions().Create(ctx, tx.DB(), sess); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := tx.Bookings().Update(ctx, tx.DB(), entity); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		view = queries.SessionView{
			ID:        sess.ID(),
			BookingID: sess.BookingID(),
			StartedAt: sess.StartedAt(),
			EnergyWh:  sess.EnergyWh(),
			Outcome:   string(sess.Outcome()),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// StopSession closes the session and completes the booking. A stop signal
// after the booked end still succeeds; the minutes past the end are billed
// as an overstay amendment.
func (r *sessionUseCaseImpl) StopSession(ctx context.Context, bookingID, renterID uuid.UUID, energyWh int64) (*StopSessionResult, error) {
	var (
		chargerID uuid.UUID
		sessView  queries.SessionView
	)
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, err := tx.Bookings().FindByIDForUpdate(ctx, tx.DB(), bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrBookingNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if entity.RenterID() != renterID {
			return ErrNotBookingRenter
		}
		chargerID = entity.ChargerID()

		sess, err := tx.Sessions().FindOpenByBookingIDForUpdate(ctx, tx.DB(), bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrSessionNotFound
			}
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		now := r.clock.Now()
		if err := sess.Close(now, energyWh, session.OutcomeCompleted); err != nil {
			return errs.Mark(err, ErrLifecycleViolation)
		}

		if overstay := now.Sub(entity.Slot().End()); overstay > 0 {
			rule := entity.Rule()
			fee := r.calculator.OverstayFee(overstay, rule)
			minutes := int((overstay + time.Minute - 1) / time.Minute)
			entity.ApplyOverstayFee(fee, minutes, now)
		}

		if err := entity.Complete(now); err != nil {
			return errs.Mark(err, ErrLifecycleViolation)
		}

		if err := tx.Sessions().Update(ctx, tx.DB(), sess); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := tx.Bookings().Update(ctx, tx.DB(), entity); err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}

		sessView = queries.SessionView{
			ID:        sess.ID(),
			BookingID: sess.BookingID(),
			StartedAt: sess.StartedAt(),
			EndedAt:   sess.EndedAt(),
			EnergyWh:  sess.EnergyWh(),
			Outcome:   string(sess.Outcome()),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.index.Release(chargerID, bookingID)

	bookingView, err := r.bookingQueries.GetByIDSystem(ctx, bookingID)
	if err != nil {
		return nil, errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return &StopSessionResult{Session: &sessView, Booking: bookingView}, nil
}
