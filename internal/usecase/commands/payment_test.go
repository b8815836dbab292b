//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"voltshare/internal/domain/booking"
	"voltshare/internal/infra/interval"
	"voltshare/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlePaymentResult(t *testing.T) {
	ctx := context.Background()

	t.Run("success marks the payment completed", func(t *testing.T) {
		e := newEnv(testNow)
		bookingID, _, _, _ := seedConfirmedBooking(t, e)

		err := e.payments.HandlePaymentResult(ctx, commands.PaymentResultParams{
			BookingID: bookingID, Succeeded: true, Reference: "psp-123",
		})
		require.NoError(t, err)

		stored := e.store.bookings[bookingID]
		assert.Equal(t, booking.PaymentCompleted, stored.PaymentStatus())
		assert.Equal(t, booking.StatusConfirmed, stored.Status())
		assert.Contains(t, e.store.jobTopics(), "payment_completed")
	})

	t.Run("failure before activation fails the booking and frees the slot", func(t *testing.T) {
		e := newEnv(testNow)
		bookingID, _, _, start := seedConfirmedBooking(t, e)

		err := e.payments.HandlePaymentResult(ctx, commands.PaymentResultParams{
			BookingID: bookingID, Succeeded: false,
		})
		require.NoError(t, err)

		stored := e.store.bookings[bookingID]
		assert.Equal(t, booking.StatusFailed, stored.Status())
		assert.Equal(t, booking.PaymentFailed, stored.PaymentStatus())

		span := interval.Span{Start: start, End: start.Add(90 * time.Minute)}
		assert.False(t, e.index.Query(stored.ChargerID(), span))
		assert.Contains(t, e.store.jobTopics(), "payment_failed")
	})

	t.Run("failure after activation only flags the payment", func(t *testing.T) {
		e := newEnv(testNow)
		bookingID, renterID, code, start := seedConfirmedBooking(t, e)
		e.clock.Set(start)
		_, err := e.sessions.StartSession(ctx, bookingID, renterID, code)
		require.NoError(t, err)

		err = e.payments.HandlePaymentResult(ctx, commands.PaymentResultParams{
			BookingID: bookingID, Succeeded: false,
		})
		require.NoError(t, err)

		stored := e.store.bookings[bookingID]
		assert.Equal(t, booking.StatusActive, stored.Status())
		assert.Equal(t, booking.PaymentFailed, stored.PaymentStatus())

		// charging already happened, the claim stays
		span := interval.Span{Start: start, End: start.Add(90 * time.Minute)}
		assert.True(t, e.index.Query(stored.ChargerID(), span))
	})

	t.Run("unknown booking", func(t *testing.T) {
		e := newEnv(testNow)

		err := e.payments.HandlePaymentResult(ctx, commands.PaymentResultParams{
			BookingID: uuid.New(), Succeeded: true,
		})
		require.ErrorIs(t, err, commands.ErrBookingNotFound)
	})
}
