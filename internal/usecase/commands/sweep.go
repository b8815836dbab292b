package commands

import (
	"context"
	"log/slog"
	"time"

	"voltshare/internal/domain/booking"
	"voltshare/internal/domain/pricing"
	"voltshare/internal/domain/session"
	"voltshare/internal/infra"
	"voltshare/internal/infra/interval"
	"voltshare/internal/pkg/clock"
	"voltshare/internal/pkg/config"
	"voltshare/internal/pkg/errs"
	"voltshare/internal/usecase/shared"

	"github.com/google/uuid"
)

// SweepReads are the scan queries the monitor runs between ticks.
type SweepReads interface {
	OverdueActive(ctx context.Context, now time.Time) ([]shared.SweepCandidate, error)
	StalePending(ctx context.Context, cutoff time.Time) ([]shared.SweepCandidate, error)
	NoShows(ctx context.Context, now time.Time, grace time.Duration) ([]shared.SweepCandidate, error)
	ActiveClaims(ctx context.Context) ([]shared.ClaimRecord, error)
}

type SweepCommands interface {
	// RehydrateIndex rebuilds the in-memory interval index from storage.
	RehydrateIndex(ctx context.Context) error
	// Sweep runs one pass over all deadline-driven transitions.
	Sweep(ctx context.Context) error
}

type sweepUseCaseImpl struct {
	uow        shared.UnitOfWork
	reads      SweepReads
	index      *interval.Index
	calculator *pricing.Calculator
	clock      clock.Clock
	engine     config.EngineConfig
}

func NewSweepUseCase(
	uow shared.UnitOfWork,
	reads SweepReads,
	index *interval.Index,
	calculator *pricing.Calculator,
	clk clock.Clock,
	engine config.EngineConfig,
) SweepCommands {
	return &sweepUseCaseImpl{
		uow:        uow,
		reads:      reads,
		index:      index,
		calculator: calculator,
		clock:      clk,
		engine:     engine,
	}
}

func (r *sweepUseCaseImpl) RehydrateIndex(ctx context.Context) error {
	claims, err := r.reads.ActiveClaims(ctx)
	if err != nil {
		return err
	}

	grouped := make(map[uuid.UUID][]interval.Claim)
	for _, c := range claims {
		grouped[c.ChargerID] = append(grouped[c.ChargerID], interval.Claim{
			Span:      interval.Span{Start: c.StartTime, End: c.EndTime},
			BookingID: c.BookingID,
		})
	}
	for chargerID, chargerClaims := range grouped {
		r.index.Load(chargerID, chargerClaims)
	}
	slog.Info("interval index rehydrated", "claims", len(claims), "chargers", len(grouped))
	return nil
}

// Sweep handles one booking per transaction so a single poisoned row cannot
// wedge the whole pass, and checks ctx between bookings so shutdown is
// prompt.
func (r *sweepUseCaseImpl) Sweep(ctx context.Context) error {
	now := r.clock.Now()

	if err := r.expireStalePending(ctx, now); err != nil {
		return err
	}
	if err := r.markNoShows(ctx, now); err != nil {
		return err
	}
	return r.sweepOverstays(ctx, now)
}

func (r *sweepUseCaseImpl) expireStalePending(ctx context.Context, now time.Time) error {
	candidates, err := r.reads.StalePending(ctx, now.Add(-r.engine.HostResponseWindow))
	if err != nil {
		return err
	}

	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		released, err := r.transitionCandidate(ctx, cand.BookingID, booking.StatusPending, "booking_expired",
			func(b *booking.Booking) error { return b.Expire(now) })
		if err != nil {
			slog.Warn("failed to expire pending booking", "booking_id", cand.BookingID, "error", err.Error())
			continue
		}
		if released {
			r.index.Release(cand.ChargerID, cand.BookingID)
		}
	}
	return nil
}

func (r *sweepUseCaseImpl) markNoShows(ctx context.Context, now time.Time) error {
	candidates, err := r.reads.NoShows(ctx, now, r.engine.NoShowGracePeriod)
	if err != nil {
		return err
	}

	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		released, err := r.transitionCandidate(ctx, cand.BookingID, booking.StatusConfirmed, "booking_no_show",
			func(b *booking.Booking) error { return b.MarkNoShow(now) })
		if err != nil {
			slog.Warn("failed to mark no-show", "booking_id", cand.BookingID, "error", err.Error())
			continue
		}
		if released {
			r.index.Release(cand.ChargerID, cand.BookingID)
		}
	}
	return nil
}

// transitionCandidate re-checks the status under the row lock: the candidate
// list is a stale scan and the booking may have moved on since.
func (r *sweepUseCaseImpl) transitionCandidate(
	ctx context.Context,
	bookingID uuid.UUID,
	expected booking.Status,
	topic string,
	apply func(*booking.Booking) error,
) (bool, error) {
	transitioned := false
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, err := tx.Bookings().FindByIDForUpdate(ctx, tx.DB(), bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil
			}
			return err
		}
		if entity.Status() != expected {
			return nil
		}
		if err := apply(entity); err != nil {
			return err
		}
		if err := tx.Bookings().Update(ctx, tx.DB(), entity); err != nil {
			return err
		}
		transitioned = true
		payload := []byte(`{"booking_id":"` + bookingID.String() + `"}`)
		return tx.Notifications().CreateJob(ctx, tx.DB(), "email", topic, payload, r.clock.Now())
	})
	return transitioned, err
}

func (r *sweepUseCaseImpl) sweepOverstays(ctx context.Context, now time.Time) error {
	candidates, err := r.reads.OverdueActive(ctx, now)
	if err != nil {
		return err
	}

	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.resolveOverstay(ctx, cand, now); err != nil {
			slog.Warn("failed to resolve overstay", "booking_id", cand.BookingID, "error", err.Error())
		}
	}
	return nil
}

// resolveOverstay extends the booking when the rule allows and the slot
// behind it is free; otherwise it force-closes the session and bills the
// overstay fee.
func (r *sweepUseCaseImpl) resolveOverstay(ctx context.Context, cand shared.SweepCandidate, now time.Time) error {
	var (
		chargerID uuid.UUID
		released  bool
	)
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		entity, err := tx.Bookings().FindByIDForUpdate(ctx, tx.DB(), cand.BookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil
			}
			return err
		}
		if entity.Status() != booking.StatusActive || entity.Slot().End().After(now) {
			return nil
		}
		chargerID = entity.ChargerID()

		if r.tryAutoExtend(ctx, tx, entity, now) {
			return nil
		}
		released = true
		return r.forceClose(ctx, tx, entity, now)
	})
	if err != nil {
		return err
	}
	if released {
		r.index.Release(chargerID, cand.BookingID)
	}
	return nil
}

// tryAutoExtend pushes the end forward one step. The Replace on the index is
// atomic, so a pending or confirmed neighbor can never be displaced; any
// conflict falls through to force-close.
func (r *sweepUseCaseImpl) tryAutoExtend(ctx context.Context, tx shared.Tx, entity *booking.Booking, now time.Time) bool {
	rule := entity.Rule()
	if !rule.AutoExtend {
		return false
	}

	newEnd := entity.Slot().End().Add(r.engine.ExtensionStep)
	if rule.MaxOverstayMinutes > 0 {
		overstayAfter := int(newEnd.Sub(r.originalEnd(entity)) / time.Minute)
		if overstayAfter > rule.MaxOverstayMinutes {
			return false
		}
	}

	// Per-kWh rules price the extension off the charger's rated power.
	chargerEntity, err := tx.Chargers().FindByID(ctx, tx.DB(), entity.ChargerID())
	if err != nil {
		return false
	}

	newSpan := interval.Span{Start: entity.Slot().Start(), End: newEnd}
	if err := r.index.Replace(entity.ChargerID(), entity.ID(), newSpan); err != nil {
		return false
	}

	delta, err := r.calculator.Quote(entity.Slot().End(), newEnd, rule, chargerEntity.MaxPowerKw())
	if err != nil {
		r.index.Replace(entity.ChargerID(), entity.ID(), interval.Span{Start: entity.Slot().Start(), End: entity.Slot().End()})
		return false
	}
	deltaCents := delta.SubtotalCents + delta.PlatformFeeCents

	if err := entity.Extend(newEnd, deltaCents, now); err != nil {
		r.index.Replace(entity.ChargerID(), entity.ID(), interval.Span{Start: entity.Slot().Start(), End: entity.Slot().End()})
		return false
	}
	if err := tx.Bookings().Update(ctx, tx.DB(), entity); err != nil {
		// Shrink the claim back so the index stays consistent with storage.
		r.index.Replace(entity.ChargerID(), entity.ID(), interval.Span{Start: entity.Slot().Start(), End: entity.Slot().End().Add(-r.engine.ExtensionStep)})
		return false
	}
	slog.Info("booking auto-extended",
		"booking_id", entity.ID(), "new_end", newEnd, "delta_cents", deltaCents)
	return true
}

func (r *sweepUseCaseImpl) forceClose(ctx context.Context, tx shared.Tx, entity *booking.Booking, now time.Time) error {
	sess, err := tx.Sessions().FindOpenByBookingIDForUpdate(ctx, tx.DB(), entity.ID())
	if err == nil {
		if closeErr := sess.Close(now, sess.EnergyWh(), session.OutcomeForceClosed); closeErr != nil {
			return closeErr
		}
		if err := tx.Sessions().Update(ctx, tx.DB(), sess); err != nil {
			return err
		}
	} else if !infra.IsKind(err, infra.KindNotFound) {
		return err
	}

	overstay := now.Sub(entity.Slot().End())
	rule := entity.Rule()
	fee := r.calculator.OverstayFee(overstay, rule)
	minutes := int((overstay + time.Minute - 1) / time.Minute)
	entity.ApplyOverstayFee(fee, minutes, now)

	if err := entity.Complete(now); err != nil {
		return errs.Mark(err, ErrLifecycleViolation)
	}
	if err := tx.Bookings().Update(ctx, tx.DB(), entity); err != nil {
		return err
	}

	payload := []byte(`{"booking_id":"` + entity.ID().String() + `"}`)
	if err := tx.Notifications().CreateJob(ctx, tx.DB(), "email", "session_force_closed", payload, now); err != nil {
		return err
	}
	slog.Info("session force-closed",
		"booking_id", entity.ID(), "overstay_minutes", minutes, "fee_cents", fee)
	return nil
}

// originalEnd is the booked end before any extensions, derived from the
// extension step count.
func (r *sweepUseCaseImpl) originalEnd(entity *booking.Booking) time.Time {
	return entity.Slot().End().Add(-time.Duration(entity.ExtendedTimes()) * r.engine.ExtensionStep)
}
