//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"voltshare/internal/domain/booking"
	"voltshare/internal/domain/session"
	"voltshare/internal/infra/interval"
	"voltshare/internal/usecase/commands"
	"voltshare/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedConfirmedBooking books tomorrow 10:00-11:30 and returns the booking ID
// with the plaintext access code.
func seedConfirmedBooking(t *testing.T, e *env, mutate ...func(*builder.ChargerBuilder)) (uuid.UUID, uuid.UUID, string, time.Time) {
	t.Helper()
	ch := seedCharger(t, e, mutate...)
	renterID := uuid.New()
	start := testNow.Add(25 * time.Hour)

	result, err := e.bookings.CreateBooking(context.Background(), bookingParams(ch, start, 90*time.Minute), renterID, uuid.New())
	require.NoError(t, err)
	return result.Booking.ID, renterID, result.AccessCode, start
}

func TestStartSessionCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("valid code inside the grace window activates the booking", func(t *testing.T) {
		e := newEnv(testNow)
		bookingID, renterID, code, start := seedConfirmedBooking(t, e)
		e.clock.Set(start.Add(-10 * time.Minute))

		view, err := e.sessions.StartSession(ctx, bookingID, renterID, code)
		require.NoError(t, err)
		require.NotNil(t, view)

		assert.Equal(t, bookingID, view.BookingID)
		assert.Equal(t, e.clock.Now(), view.StartedAt)
		assert.Equal(t, booking.StatusActive, e.store.bookings[bookingID].Status())
	})

	t.Run("wrong access code", func(t *testing.T) {
		e := newEnv(testNow)
		bookingID, renterID, _, start := seedConfirmedBooking(t, e)
		e.clock.Set(start)

		_, err := e.sessions.StartSession(ctx, bookingID, renterID, "WRONGCODE")
		require.ErrorIs(t, err, commands.ErrInvalidAccessCode)
		assert.Equal(t, booking.StatusConfirmed, e.store.bookings[bookingID].Status())
	})

	t.Run("only the renter may start", func(t *testing.T) {
		e := newEnv(testNow)
		bookingID, _, code, start := seedConfirmedBooking(t, e)
		e.clock.Set(start)

		_, err := e.sessions.StartSession(ctx, bookingID, uuid.New(), code)
		require.ErrorIs(t, err, commands.ErrNotBookingRenter)
	})

	t.Run("too early", func(t *testing.T) {
		e := newEnv(testNow)
		bookingID, renterID, code, start := seedConfirmedBooking(t, e)
		e.clock.Set(start.Add(-time.Hour))

		_, err := e.sessions.StartSession(ctx, bookingID, renterID, code)
		require.ErrorIs(t, err, commands.ErrStartTooEarly)
	})

	t.Run("after the booked end the slot has lapsed", func(t *testing.T) {
		e := newEnv(testNow)
		bookingID, renterID, code, start := seedConfirmedBooking(t, e)
		e.clock.Set(start.Add(2 * time.Hour))

		_, err := e.sessions.StartSession(ctx, bookingID, renterID, code)
		require.ErrorIs(t, err, commands.ErrSlotLapsed)
	})

	t.Run("pending bookings cannot start", func(t *testing.T) {
		e := newEnv(testNow)
		bookingID, renterID, code, start := seedConfirmedBooking(t, e, func(b *builder.ChargerBuilder) { b.AsManualAccept() })
		e.clock.Set(start)

		_, err := e.sessions.StartSession(ctx, bookingID, renterID, code)
		require.ErrorIs(t, err, commands.ErrLifecycleViolation)
	})

	t.Run("unknown booking", func(t *testing.T) {
		e := newEnv(testNow)

		_, err := e.sessions.StartSession(ctx, uuid.New(), uuid.New(), "ABCD1234")
		require.ErrorIs(t, err, commands.ErrBookingNotFound)
	})
}

func TestStopSessionCommand(t *testing.T) {
	ctx := context.Background()

	startSession := func(t *testing.T, e *env, mutate ...func(*builder.ChargerBuilder)) (uuid.UUID, uuid.UUID, time.Time) {
		t.Helper()
		bookingID, renterID, code, start := seedConfirmedBooking(t, e, mutate...)
		e.clock.Set(start)
		_, err := e.sessions.StartSession(ctx, bookingID, renterID, code)
		require.NoError(t, err)
		return bookingID, renterID, start
	}

	t.Run("stop before the booked end completes without penalty", func(t *testing.T) {
		e := newEnv(testNow)
		bookingID, renterID, start := startSession(t, e)
		e.clock.Set(start.Add(80 * time.Minute))

		result, err := e.sessions.StopSession(ctx, bookingID, renterID, 42000)
		require.NoError(t, err)

		assert.Equal(t, int64(42000), result.Session.EnergyWh)
		assert.Equal(t, string(session.OutcomeCompleted), result.Session.Outcome)
		require.NotNil(t, result.Session.EndedAt)

		assert.Equal(t, string(booking.StatusCompleted), result.Booking.Status)
		assert.Empty(t, result.Booking.Price.Amendments)
		assert.Equal(t, int64(9625), result.Booking.TotalCents)

		stored := e.store.bookings[bookingID]
		span := interval.Span{Start: stored.Slot().Start(), End: stored.Slot().End()}
		assert.False(t, e.index.Query(stored.ChargerID(), span), "claim should be released")
	})

	t.Run("stopping past the end bills the overstay", func(t *testing.T) {
		e := newEnv(testNow)
		bookingID, renterID, start := startSession(t, e, func(b *builder.ChargerBuilder) {
			b.Rule.OverstayFeePerHourCents = 100
		})
		end := start.Add(90 * time.Minute)
		e.clock.Set(end.Add(45 * time.Minute))

		result, err := e.sessions.StopSession(ctx, bookingID, renterID, 50000)
		require.NoError(t, err)

		require.Len(t, result.Booking.Price.Amendments, 1)
		assert.Equal(t, booking.AmendmentOverstayFee, result.Booking.Price.Amendments[0].Kind)
		assert.Equal(t, int64(100), result.Booking.Price.Amendments[0].AmountCents)
		assert.Equal(t, 45, result.Booking.OverstayMinutes)
		assert.Equal(t, int64(9725), result.Booking.TotalCents)
	})

	t.Run("stop without an open session", func(t *testing.T) {
		e := newEnv(testNow)
		bookingID, renterID, start := startSession(t, e)
		e.clock.Set(start.Add(time.Hour))

		_, err := e.sessions.StopSession(ctx, bookingID, renterID, 1000)
		require.NoError(t, err)

		_, err = e.sessions.StopSession(ctx, bookingID, renterID, 1000)
		require.ErrorIs(t, err, commands.ErrSessionNotFound)
	})

	t.Run("only the renter may stop", func(t *testing.T) {
		e := newEnv(testNow)
		bookingID, _, start := startSession(t, e)
		e.clock.Set(start.Add(time.Hour))

		_, err := e.sessions.StopSession(ctx, bookingID, uuid.New(), 1000)
		require.ErrorIs(t, err, commands.ErrNotBookingRenter)
	})
}
