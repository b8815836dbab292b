//go:build unit

package commands_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"voltshare/internal/domain/booking"
	"voltshare/internal/domain/charger"
	"voltshare/internal/infra"
	"voltshare/internal/infra/interval"
	"voltshare/internal/pkg/errs"
	"voltshare/internal/usecase/commands"
	"voltshare/internal/usecase/shared"
	"voltshare/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)

func seedCharger(t *testing.T, e *env, mutate ...func(*builder.ChargerBuilder)) *charger.Charger {
	t.Helper()
	cb := builder.NewChargerBuilder()
	for _, m := range mutate {
		m(cb)
	}
	ch, err := cb.BuildDomain()
	require.NoError(t, err)
	e.store.putCharger(ch)
	return ch
}

func bookingParams(ch *charger.Charger, start time.Time, d time.Duration) commands.CreateBookingParams {
	return commands.CreateBookingParams{
		ChargerID: ch.ID(),
		StartTime: start,
		EndTime:   start.Add(d),
	}
}

// requestHashOf pins the wire format of the idempotency request hash.
func requestHashOf(p commands.CreateBookingParams) string {
	data := fmt.Sprintf("%s|%d|%d",
		p.ChargerID, p.StartTime.UTC().UnixMicro(), p.EndTime.UTC().UnixMicro())
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

func TestCreateBookingCommand(t *testing.T) {
	ctx := context.Background()
	slotStart := testNow.Add(25 * time.Hour)

	t.Run("commits the slot and returns the access code once", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e)
		renterID := uuid.New()

		result, err := e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart, 90*time.Minute), renterID, uuid.New())
		require.NoError(t, err)
		require.NotNil(t, result)

		assert.False(t, result.IsReplayed)
		assert.NotEmpty(t, result.AccessCode)
		assert.Equal(t, string(booking.StatusConfirmed), result.Booking.Status)
		assert.Equal(t, int64(9625), result.Booking.TotalCents)
		assert.Equal(t, renterID, result.Booking.RenterID)

		span := interval.Span{Start: slotStart, End: slotStart.Add(90 * time.Minute)}
		assert.True(t, e.index.Query(ch.ID(), span))
		assert.Contains(t, e.store.jobTopics(), "booking_created")

		// auto-accept confirms immediately, so the capture intent goes out
		assert.Equal(t, []int64{9625}, e.gateway.captures)
	})

	t.Run("a pending booking does not request capture", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e, func(b *builder.ChargerBuilder) { b.AsManualAccept() })

		_, err := e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart, 90*time.Minute), uuid.New(), uuid.New())
		require.NoError(t, err)
		assert.Empty(t, e.gateway.captures)
	})

	t.Run("replaying the same key returns the stored result without the code", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e)
		renterID := uuid.New()
		key := uuid.New()
		params := bookingParams(ch, slotStart, 90*time.Minute)

		first, err := e.bookings.CreateBooking(ctx, params, renterID, key)
		require.NoError(t, err)

		second, err := e.bookings.CreateBooking(ctx, params, renterID, key)
		require.NoError(t, err)

		assert.True(t, second.IsReplayed)
		assert.Empty(t, second.AccessCode)
		assert.Equal(t, first.Booking.ID, second.Booking.ID)
		assert.Len(t, e.store.bookings, 1)
	})

	t.Run("same key with different parameters is rejected", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e)
		renterID := uuid.New()
		key := uuid.New()

		_, err := e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart, 90*time.Minute), renterID, key)
		require.NoError(t, err)

		_, err = e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart.Add(3*time.Hour), time.Hour), renterID, key)
		require.ErrorIs(t, err, commands.ErrDuplicateRequest)
	})

	t.Run("an expired key can be reclaimed for a fresh request", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e)
		renterID := uuid.New()
		key := uuid.New()

		_, err := e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart, time.Hour), renterID, key)
		require.NoError(t, err)

		e.clock.Advance(25 * time.Hour) // past the idempotency TTL
		laterStart := e.clock.Now().Add(24 * time.Hour)

		result, err := e.bookings.CreateBooking(ctx, bookingParams(ch, laterStart, time.Hour), renterID, key)
		require.NoError(t, err)
		assert.False(t, result.IsReplayed)
		assert.Len(t, e.store.bookings, 2)
	})

	t.Run("overlapping slot loses to the earlier claim", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e)

		_, err := e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart, 90*time.Minute), uuid.New(), uuid.New())
		require.NoError(t, err)

		_, err = e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart.Add(time.Hour), 90*time.Minute), uuid.New(), uuid.New())
		require.ErrorIs(t, err, commands.ErrSlotConflict)
		assert.Len(t, e.store.bookings, 1)
	})

	t.Run("adjacent slot succeeds", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e)

		_, err := e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart, 90*time.Minute), uuid.New(), uuid.New())
		require.NoError(t, err)

		_, err = e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart.Add(90*time.Minute), time.Hour), uuid.New(), uuid.New())
		require.NoError(t, err)
	})

	t.Run("unknown charger", func(t *testing.T) {
		e := newEnv(testNow)
		params := commands.CreateBookingParams{ChargerID: uuid.New(), StartTime: slotStart, EndTime: slotStart.Add(time.Hour)}

		_, err := e.bookings.CreateBooking(ctx, params, uuid.New(), uuid.New())
		require.ErrorIs(t, err, commands.ErrChargerNotFound)
	})

	t.Run("inverted slot", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e)
		params := commands.CreateBookingParams{ChargerID: ch.ID(), StartTime: slotStart, EndTime: slotStart.Add(-time.Hour)}

		_, err := e.bookings.CreateBooking(ctx, params, uuid.New(), uuid.New())
		require.ErrorIs(t, err, commands.ErrInvalidTimeSlot)
	})

	t.Run("inactive charger fails domain validation", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e, func(b *builder.ChargerBuilder) { b.AsInactive() })

		_, err := e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart, time.Hour), uuid.New(), uuid.New())
		require.ErrorIs(t, err, commands.ErrDomainValidation)
		require.ErrorIs(t, err, booking.ErrChargerInactive)
	})

	t.Run("persistence failure releases the in-memory claim", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e)
		e.store.failBookingCreate = infra.WrapRepoErr("insert failed", nil, infra.KindDBFailure)

		_, err := e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart, time.Hour), uuid.New(), uuid.New())
		require.ErrorIs(t, err, commands.ErrDatabaseOperationFailed)

		// the slot must be bookable again once storage recovers
		e.store.failBookingCreate = nil
		_, err = e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart, time.Hour), uuid.New(), uuid.New())
		require.NoError(t, err)
	})

	t.Run("persistence failure frees the idempotency key for a retry", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e)
		renterID := uuid.New()
		key := uuid.New()
		params := bookingParams(ch, slotStart, time.Hour)

		e.store.failBookingCreate = infra.WrapRepoErr("insert failed", nil, infra.KindDBFailure)
		_, err := e.bookings.CreateBooking(ctx, params, renterID, key)
		require.ErrorIs(t, err, commands.ErrDatabaseOperationFailed)

		// same key, same parameters: the claim must not linger in processing
		e.store.failBookingCreate = nil
		result, err := e.bookings.CreateBooking(ctx, params, renterID, key)
		require.NoError(t, err)
		assert.False(t, result.IsReplayed)
		assert.NotEmpty(t, result.AccessCode)
	})

	t.Run("failed compensation demands reconciliation", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e)
		e.store.failBookingCreate = infra.WrapRepoErr("insert failed", nil, infra.KindDBFailure)
		e.store.failIdemDelete = infra.WrapRepoErr("delete failed", nil, infra.KindDBFailure)

		_, err := e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart, time.Hour), uuid.New(), uuid.New())
		require.ErrorIs(t, err, errs.ErrReconciliationRequired)
	})

	t.Run("storage exclusion conflict surfaces as a slot conflict", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e)
		e.store.failBookingCreate = infra.WrapRepoErr("overlapping range", nil, infra.KindConflict)

		_, err := e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart, time.Hour), uuid.New(), uuid.New())
		require.ErrorIs(t, err, commands.ErrSlotConflict)
	})

	t.Run("a processing key blocks concurrent retries", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e)
		renterID := uuid.New()
		key := uuid.New()
		params := bookingParams(ch, slotStart, time.Hour)

		// another instance holds the key mid-flight
		e.store.idem[idemKey{key: key, user: renterID}] = &shared.IdempotencyRecord{
			Key:         key,
			UserID:      renterID,
			Status:      "processing",
			RequestHash: requestHashOf(params),
			ExpiresAt:   testNow.Add(time.Hour),
		}

		_, err := e.bookings.CreateBooking(ctx, params, renterID, key)
		require.ErrorIs(t, err, commands.ErrIdempotencyInProgress)
	})
}

func TestCancelBookingCommand(t *testing.T) {
	ctx := context.Background()
	slotStart := testNow.Add(25 * time.Hour)

	create := func(t *testing.T, e *env, ch *charger.Charger, renterID uuid.UUID) uuid.UUID {
		t.Helper()
		result, err := e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart, 90*time.Minute), renterID, uuid.New())
		require.NoError(t, err)
		return result.Booking.ID
	}

	t.Run("renter cancels and the slot frees up", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e)
		renterID := uuid.New()
		bookingID := create(t, e, ch, renterID)

		require.NoError(t, e.bookings.CancelBooking(ctx, bookingID, renterID, "change of plans"))

		stored := e.store.bookings[bookingID]
		assert.Equal(t, booking.StatusCancelled, stored.Status())
		assert.Equal(t, booking.CancelledByRenter, stored.CancelledBy())

		span := interval.Span{Start: slotStart, End: slotStart.Add(90 * time.Minute)}
		assert.False(t, e.index.Query(ch.ID(), span))
		assert.Contains(t, e.store.jobTopics(), "booking_cancelled")
	})

	t.Run("host may cancel bookings on their charger", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e)
		bookingID := create(t, e, ch, uuid.New())

		require.NoError(t, e.bookings.CancelBooking(ctx, bookingID, ch.HostID(), "maintenance"))
		assert.Equal(t, booking.CancelledByHost, e.store.bookings[bookingID].CancelledBy())
	})

	t.Run("strangers cannot cancel", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e)
		bookingID := create(t, e, ch, uuid.New())

		err := e.bookings.CancelBooking(ctx, bookingID, uuid.New(), "")
		require.ErrorIs(t, err, commands.ErrNotBookingParticipant)
		assert.Equal(t, booking.StatusConfirmed, e.store.bookings[bookingID].Status())
	})

	t.Run("cancelling twice violates the lifecycle", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e)
		renterID := uuid.New()
		bookingID := create(t, e, ch, renterID)

		require.NoError(t, e.bookings.CancelBooking(ctx, bookingID, renterID, ""))
		err := e.bookings.CancelBooking(ctx, bookingID, renterID, "")
		require.ErrorIs(t, err, commands.ErrLifecycleViolation)
	})

	t.Run("paid booking is refunded on cancellation", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e)
		renterID := uuid.New()
		bookingID := create(t, e, ch, renterID)

		require.NoError(t, e.payments.HandlePaymentResult(ctx, commands.PaymentResultParams{
			BookingID: bookingID, Succeeded: true,
		}))
		require.NoError(t, e.bookings.CancelBooking(ctx, bookingID, renterID, ""))

		require.Len(t, e.gateway.refunds, 1)
		assert.Equal(t, int64(9625), e.gateway.refunds[0])
		assert.Equal(t, booking.PaymentRefunded, e.store.bookings[bookingID].PaymentStatus())
	})

	t.Run("late cancellation bills the fee", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e, func(b *builder.ChargerBuilder) {
			b.Rule.LateCancellationFeeCents = 500
			b.Rule.LateCancellationWindowMins = 120
		})
		renterID := uuid.New()
		bookingID := create(t, e, ch, renterID)

		e.clock.Set(slotStart.Add(-time.Hour)) // inside the 2h window
		require.NoError(t, e.bookings.CancelBooking(ctx, bookingID, renterID, ""))

		stored := e.store.bookings[bookingID]
		require.Len(t, stored.Price().Amendments, 1)
		assert.Equal(t, booking.AmendmentLateCancellation, stored.Price().Amendments[0].Kind)
	})

	t.Run("unknown booking", func(t *testing.T) {
		e := newEnv(testNow)

		err := e.bookings.CancelBooking(ctx, uuid.New(), uuid.New(), "")
		require.ErrorIs(t, err, commands.ErrBookingNotFound)
	})
}

func TestAcceptBookingCommand(t *testing.T) {
	ctx := context.Background()
	slotStart := testNow.Add(25 * time.Hour)

	t.Run("host confirms a pending booking", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e, func(b *builder.ChargerBuilder) { b.AsManualAccept() })

		result, err := e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart, time.Hour), uuid.New(), uuid.New())
		require.NoError(t, err)
		require.Equal(t, string(booking.StatusPending), result.Booking.Status)

		require.NoError(t, e.bookings.AcceptBooking(ctx, result.Booking.ID, ch.HostID()))
		assert.Equal(t, booking.StatusConfirmed, e.store.bookings[result.Booking.ID].Status())
		assert.Contains(t, e.store.jobTopics(), "booking_confirmed")

		// confirmation triggers the capture intent for the full quote
		assert.Equal(t, []int64{6750}, e.gateway.captures)
	})

	t.Run("only the charger host may accept", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e, func(b *builder.ChargerBuilder) { b.AsManualAccept() })

		result, err := e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart, time.Hour), uuid.New(), uuid.New())
		require.NoError(t, err)

		err = e.bookings.AcceptBooking(ctx, result.Booking.ID, uuid.New())
		require.ErrorIs(t, err, commands.ErrNotChargerHost)
	})

	t.Run("accepting a confirmed booking violates the lifecycle", func(t *testing.T) {
		e := newEnv(testNow)
		ch := seedCharger(t, e) // auto-accept

		result, err := e.bookings.CreateBooking(ctx, bookingParams(ch, slotStart, time.Hour), uuid.New(), uuid.New())
		require.NoError(t, err)

		err = e.bookings.AcceptBooking(ctx, result.Booking.ID, ch.HostID())
		require.ErrorIs(t, err, commands.ErrLifecycleViolation)
	})
}
