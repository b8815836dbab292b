//go:build unit

package booking_test

import (
	"strings"
	"testing"
	"time"

	"voltshare/internal/domain/booking"
	"voltshare/internal/domain/pricing"
	"voltshare/internal/pkg/bookingcode"
	"voltshare/internal/pkg/clock"
	"voltshare/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFactory(now time.Time) *booking.Factory {
	return booking.NewFactory(
		clock.NewMockClock(now),
		pricing.NewCalculator(1500, 800),
		booking.Policy{ClockSkewTolerance: 2 * time.Minute},
	)
}

func slotAt(t *testing.T, start time.Time, d time.Duration) booking.TimeSlot {
	t.Helper()
	slot, err := booking.NewTimeSlot(start, start.Add(d))
	require.NoError(t, err)
	return slot
}

func TestCreateBooking(t *testing.T) {
	now := time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	renterID := uuid.New()

	t.Run("auto-accept produces a confirmed, priced booking", func(t *testing.T) {
		ch, err := builder.NewChargerBuilder().BuildDomain()
		require.NoError(t, err)

		b, accessPlain, err := newFactory(now).CreateBooking(ch, renterID, slotAt(t, tomorrow, 90*time.Minute))
		require.NoError(t, err)
		require.NotNil(t, b)

		assert.Equal(t, booking.StatusConfirmed, b.Status())
		require.NotNil(t, b.ConfirmedAt())
		assert.Equal(t, ch.ID(), b.ChargerID())
		assert.Equal(t, renterID, b.RenterID())

		assert.Equal(t, int64(7500), b.Price().SubtotalCents)
		assert.Equal(t, int64(1125), b.Price().PlatformFeeCents)
		assert.Equal(t, int64(1000), b.Price().BookingFeeCents)
		assert.Equal(t, int64(9625), b.Price().TotalCents())

		assert.True(t, strings.HasPrefix(b.BookingCode(), "BK"))
		assert.NotEmpty(t, accessPlain)
		assert.NotEqual(t, accessPlain, b.AccessHash())
		assert.True(t, bookingcode.VerifyAccessCode(b.AccessHash(), accessPlain))
	})

	t.Run("manual-accept chargers start pending", func(t *testing.T) {
		ch, err := builder.NewChargerBuilder().AsManualAccept().BuildDomain()
		require.NoError(t, err)

		b, _, err := newFactory(now).CreateBooking(ch, renterID, slotAt(t, tomorrow, time.Hour))
		require.NoError(t, err)

		assert.Equal(t, booking.StatusPending, b.Status())
		assert.Nil(t, b.ConfirmedAt())
	})

	t.Run("inactive charger", func(t *testing.T) {
		ch, err := builder.NewChargerBuilder().AsInactive().BuildDomain()
		require.NoError(t, err)

		_, _, err = newFactory(now).CreateBooking(ch, renterID, slotAt(t, tomorrow, time.Hour))
		require.ErrorIs(t, err, booking.ErrChargerInactive)
	})

	t.Run("start in the past beyond the skew tolerance", func(t *testing.T) {
		ch, err := builder.NewChargerBuilder().BuildDomain()
		require.NoError(t, err)

		_, _, err = newFactory(now).CreateBooking(ch, renterID, slotAt(t, now.Add(-5*time.Minute), time.Hour))
		require.ErrorIs(t, err, booking.ErrStartInPast)
	})

	t.Run("slightly stale start inside the skew tolerance is accepted", func(t *testing.T) {
		ch, err := builder.NewChargerBuilder().BuildDomain()
		require.NoError(t, err)

		_, _, err = newFactory(now).CreateBooking(ch, renterID, slotAt(t, now.Add(-time.Minute), time.Hour))
		require.NoError(t, err)
	})

	t.Run("duration bounds", func(t *testing.T) {
		ch, err := builder.NewChargerBuilder().BuildDomain()
		require.NoError(t, err)
		factory := newFactory(now)

		_, _, err = factory.CreateBooking(ch, renterID, slotAt(t, tomorrow, 15*time.Minute))
		require.ErrorIs(t, err, booking.ErrDurationBounds)

		_, _, err = factory.CreateBooking(ch, renterID, slotAt(t, tomorrow, 6*time.Hour))
		require.ErrorIs(t, err, booking.ErrDurationBounds)
	})

	t.Run("advance-booking horizon", func(t *testing.T) {
		cb := builder.NewChargerBuilder()
		cb.Rule.AdvanceBookingHours = 48
		ch, err := cb.BuildDomain()
		require.NoError(t, err)

		_, _, err = newFactory(now).CreateBooking(ch, renterID, slotAt(t, now.Add(72*time.Hour), time.Hour))
		require.ErrorIs(t, err, booking.ErrTooFarAhead)
	})

	t.Run("same-day bookings blocked when the rule says so", func(t *testing.T) {
		cb := builder.NewChargerBuilder()
		cb.Rule.SameDayBooking = false
		ch, err := cb.BuildDomain()
		require.NoError(t, err)
		factory := newFactory(now)

		_, _, err = factory.CreateBooking(ch, renterID, slotAt(t, now.Add(3*time.Hour), time.Hour))
		require.ErrorIs(t, err, booking.ErrSameDayBlocked)

		_, _, err = factory.CreateBooking(ch, renterID, slotAt(t, tomorrow, time.Hour))
		require.NoError(t, err)
	})

	t.Run("access codes differ between bookings", func(t *testing.T) {
		ch, err := builder.NewChargerBuilder().BuildDomain()
		require.NoError(t, err)
		factory := newFactory(now)

		_, code1, err := factory.CreateBooking(ch, renterID, slotAt(t, tomorrow, time.Hour))
		require.NoError(t, err)
		_, code2, err := factory.CreateBooking(ch, renterID, slotAt(t, tomorrow.Add(2*time.Hour), time.Hour))
		require.NoError(t, err)

		assert.NotEqual(t, code1, code2)
	})
}
