//go:build unit

package booking_test

import (
	"testing"
	"time"

	"voltshare/internal/domain/booking"
	"voltshare/tests/common/builder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBuild(t *testing.T, b *builder.BookingBuilder) *booking.Booking {
	t.Helper()
	bk, err := b.BuildDomain()
	require.NoError(t, err)
	return bk
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    booking.Status
		to      booking.Status
		allowed bool
	}{
		{booking.StatusPending, booking.StatusConfirmed, true},
		{booking.StatusPending, booking.StatusCancelled, true},
		{booking.StatusPending, booking.StatusExpired, true},
		{booking.StatusPending, booking.StatusFailed, true},
		{booking.StatusPending, booking.StatusActive, false},
		{booking.StatusConfirmed, booking.StatusActive, true},
		{booking.StatusConfirmed, booking.StatusNoShow, true},
		{booking.StatusConfirmed, booking.StatusCompleted, false},
		{booking.StatusActive, booking.StatusCompleted, true},
		{booking.StatusActive, booking.StatusCancelled, false},
		{booking.StatusCompleted, booking.StatusActive, false},
		{booking.StatusCancelled, booking.StatusConfirmed, false},
		{booking.StatusExpired, booking.StatusPending, false},
	}
	for _, c := range cases {
		t.Run(string(c.from)+" to "+string(c.to), func(t *testing.T) {
			assert.Equal(t, c.allowed, c.from.CanTransitionTo(c.to))
		})
	}

	t.Run("terminal statuses have no outgoing edges", func(t *testing.T) {
		for _, s := range []booking.Status{
			booking.StatusCompleted, booking.StatusCancelled,
			booking.StatusExpired, booking.StatusFailed, booking.StatusNoShow,
		} {
			assert.True(t, s.IsTerminal(), "%s should be terminal", s)
			assert.False(t, s.HoldsClaim(), "%s should not hold a slot claim", s)
		}
	})

	t.Run("live statuses hold the slot claim", func(t *testing.T) {
		for _, s := range []booking.Status{
			booking.StatusPending, booking.StatusConfirmed, booking.StatusActive,
		} {
			assert.True(t, s.HoldsClaim(), "%s should hold a slot claim", s)
			assert.False(t, s.IsTerminal())
		}
	})
}

func TestActivate(t *testing.T) {
	grace := 15 * time.Minute

	t.Run("inside the grace window", func(t *testing.T) {
		b := mustBuild(t, builder.NewBookingBuilder())
		now := b.Slot().Start().Add(-10 * time.Minute)

		require.NoError(t, b.Activate(now, grace))
		assert.Equal(t, booking.StatusActive, b.Status())
		require.NotNil(t, b.StartedAt())
		assert.Equal(t, now, *b.StartedAt())
	})

	t.Run("too early", func(t *testing.T) {
		b := mustBuild(t, builder.NewBookingBuilder())
		now := b.Slot().Start().Add(-20 * time.Minute)

		err := b.Activate(now, grace)
		require.ErrorIs(t, err, booking.ErrStartTooEarly)
		assert.Equal(t, booking.StatusConfirmed, b.Status())
	})

	t.Run("after the slot end the claim has lapsed", func(t *testing.T) {
		b := mustBuild(t, builder.NewBookingBuilder())
		now := b.Slot().End()

		err := b.Activate(now, grace)
		require.ErrorIs(t, err, booking.ErrSlotLapsed)
	})

	t.Run("pending bookings cannot start a session", func(t *testing.T) {
		b := mustBuild(t, builder.NewBookingBuilder().AsPending())
		now := b.Slot().Start()

		err := b.Activate(now, grace)
		require.ErrorIs(t, err, booking.ErrInvalidTransition)
	})
}

func TestCancel(t *testing.T) {
	t.Run("early cancellation carries no fee", func(t *testing.T) {
		bb := builder.NewBookingBuilder()
		bb.Rule.LateCancellationFeeCents = 500
		bb.Rule.LateCancellationWindowMins = 120
		b := mustBuild(t, bb)

		now := b.Slot().Start().Add(-3 * time.Hour)
		require.NoError(t, b.Cancel(now, booking.CancelledByRenter, "change of plans"))

		assert.Equal(t, booking.StatusCancelled, b.Status())
		assert.Equal(t, booking.CancelledByRenter, b.CancelledBy())
		assert.Empty(t, b.Price().Amendments)
		assert.Equal(t, b.Price().BaseTotalCents(), b.Price().TotalCents())
	})

	t.Run("late cancellation appends the fee as an amendment", func(t *testing.T) {
		bb := builder.NewBookingBuilder()
		bb.Rule.LateCancellationFeeCents = 500
		bb.Rule.LateCancellationWindowMins = 120
		b := mustBuild(t, bb)
		base := b.Price().BaseTotalCents()

		now := b.Slot().Start().Add(-30 * time.Minute)
		require.NoError(t, b.Cancel(now, booking.CancelledByRenter, ""))

		require.Len(t, b.Price().Amendments, 1)
		a := b.Price().Amendments[0]
		assert.Equal(t, booking.AmendmentLateCancellation, a.Kind)
		assert.Equal(t, int64(500), a.AmountCents)
		assert.Equal(t, base+500, b.Price().TotalCents())
		assert.Equal(t, base, b.Price().BaseTotalCents())
	})

	t.Run("cancelling a terminal booking fails", func(t *testing.T) {
		b := mustBuild(t, builder.NewBookingBuilder().WithStatus(booking.StatusCompleted))

		err := b.Cancel(time.Now().UTC(), booking.CancelledByHost, "")
		require.ErrorIs(t, err, booking.ErrInvalidTransition)
		assert.Equal(t, booking.StatusCompleted, b.Status())
	})
}

func TestExtend(t *testing.T) {
	t.Run("extension moves the end and records the charge", func(t *testing.T) {
		b := mustBuild(t, builder.NewBookingBuilder().AsActive())
		originalEnd := b.Slot().End()
		newEnd := originalEnd.Add(30 * time.Minute)

		require.NoError(t, b.Extend(newEnd, 2500, newEnd.Add(-time.Minute)))

		assert.Equal(t, newEnd, b.Slot().End())
		assert.Equal(t, 1, b.ExtendedTimes())
		require.Len(t, b.Price().Amendments, 1)
		assert.Equal(t, booking.AmendmentExtension, b.Price().Amendments[0].Kind)
		assert.Equal(t, int64(2500), b.Price().Amendments[0].AmountCents)
	})

	t.Run("only active bookings can extend", func(t *testing.T) {
		b := mustBuild(t, builder.NewBookingBuilder())
		newEnd := b.Slot().End().Add(30 * time.Minute)

		err := b.Extend(newEnd, 2500, time.Now().UTC())
		require.ErrorIs(t, err, booking.ErrInvalidTransition)
	})

	t.Run("end time must move forward", func(t *testing.T) {
		b := mustBuild(t, builder.NewBookingBuilder().AsActive())

		err := b.Extend(b.Slot().End(), 0, time.Now().UTC())
		require.ErrorIs(t, err, booking.ErrShrinkingSlot)
	})
}

func TestApplyOverstayFee(t *testing.T) {
	t.Run("fee stacks on earlier amendments", func(t *testing.T) {
		b := mustBuild(t, builder.NewBookingBuilder().AsActive())
		base := b.Price().BaseTotalCents()
		newEnd := b.Slot().End().Add(30 * time.Minute)
		require.NoError(t, b.Extend(newEnd, 2500, newEnd))

		b.ApplyOverstayFee(100, 45, newEnd.Add(45*time.Minute))

		require.Len(t, b.Price().Amendments, 2)
		assert.Equal(t, booking.AmendmentOverstayFee, b.Price().Amendments[1].Kind)
		assert.Equal(t, 45, b.OverstayMinutes())
		assert.Equal(t, base+2500+100, b.Price().TotalCents())
		assert.Equal(t, base, b.Price().BaseTotalCents())
	})

	t.Run("zero fee records minutes without an amendment", func(t *testing.T) {
		b := mustBuild(t, builder.NewBookingBuilder().AsActive())

		b.ApplyOverstayFee(0, 10, time.Now().UTC())

		assert.Equal(t, 10, b.OverstayMinutes())
		assert.Empty(t, b.Price().Amendments)
	})
}

func TestTimeSlot(t *testing.T) {
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	t.Run("rejects inverted and empty slots", func(t *testing.T) {
		_, err := booking.NewTimeSlot(start, start)
		require.ErrorIs(t, err, booking.ErrSlotNotOrdered)

		_, err = booking.NewTimeSlot(start, start.Add(-time.Hour))
		require.ErrorIs(t, err, booking.ErrSlotNotOrdered)
	})

	t.Run("adjacent slots do not overlap", func(t *testing.T) {
		a, err := booking.NewTimeSlot(start, start.Add(time.Hour))
		require.NoError(t, err)
		b, err := booking.NewTimeSlot(start.Add(time.Hour), start.Add(2*time.Hour))
		require.NoError(t, err)

		assert.False(t, a.Overlaps(b))
		assert.False(t, b.Overlaps(a))
	})

	t.Run("half-open containment", func(t *testing.T) {
		s, err := booking.NewTimeSlot(start, start.Add(time.Hour))
		require.NoError(t, err)

		assert.True(t, s.Contains(start))
		assert.False(t, s.Contains(start.Add(time.Hour)))
	})

	t.Run("normalizes to UTC", func(t *testing.T) {
		jst := time.FixedZone("JST", 9*3600)
		s, err := booking.NewTimeSlot(start.In(jst), start.In(jst).Add(time.Hour))
		require.NoError(t, err)

		assert.Equal(t, time.UTC, s.Start().Location())
		assert.True(t, s.Start().Equal(start))
	})
}
