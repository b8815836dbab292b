//go:build unit || e2e

package builder

import (
	"time"

	dombooking "voltshare/internal/domain/booking"
	"voltshare/internal/domain/pricing"
	"voltshare/internal/usecase/shared"

	"github.com/google/uuid"
)

type BookingBuilder struct {
	ID          uuid.UUID
	ChargerID   uuid.UUID
	RenterID    uuid.UUID
	Start       time.Time
	End         time.Time
	Status      dombooking.Status
	Payment     dombooking.PaymentStatus
	Price       dombooking.PriceSnapshot
	Rule        pricing.Rule
	BookingCode string
	AccessHash  string
	CreatedAt   time.Time
}

func NewBookingBuilder() *BookingBuilder {
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	return &BookingBuilder{
		ID:        uuid.New(),
		ChargerID: uuid.New(),
		RenterID:  uuid.New(),
		Start:     start,
		End:       start.Add(90 * time.Minute),
		Status:    dombooking.StatusConfirmed,
		Payment:   dombooking.PaymentPending,
		Price: dombooking.PriceSnapshot{
			SubtotalCents:    7500,
			PlatformFeeCents: 1125,
			BookingFeeCents:  1000,
		},
		Rule: pricing.Rule{
			Mode:                pricing.ModePerHour,
			UnitPriceCents:      5000,
			MinSessionMinutes:   30,
			MaxSessionMinutes:   300,
			PeakMultiplierBP:    pricing.OneBP,
			WeekendMultiplierBP: pricing.OneBP,
			BookingFeeCents:     1000,
			SameDayBooking:      true,
		},
		BookingCode: "BK2A3B4C",
		AccessHash:  "$2a$10$fakedhashfortestingonlyfakedhashfortestingonly",
		CreatedAt:   start.Add(-24 * time.Hour),
	}
}

func (b *BookingBuilder) With(mutate func(*BookingBuilder)) *BookingBuilder {
	mutate(b)
	return b
}

func (b *BookingBuilder) BuildDomain() (*dombooking.Booking, error) {
	slot, err := dombooking.NewTimeSlot(b.Start, b.End)
	if err != nil {
		return nil, err
	}
	return dombooking.ReconstructBooking(
		b.ID, b.ChargerID, b.RenterID,
		slot, b.Status, b.Payment,
		b.Price, b.Rule,
		b.BookingCode, b.AccessHash,
		0, 0,
		b.CreatedAt, b.CreatedAt,
	), nil
}

func (b *BookingBuilder) BuildSnapshot() *shared.BookingSnapshot {
	return &shared.BookingSnapshot{
		ID:        b.ID,
		ChargerID: b.ChargerID,
		RenterID:  b.RenterID,
		Status:    string(b.Status),
		StartTime: b.Start,
		EndTime:   b.End,
	}
}

// Fluent builder methods
func (b *BookingBuilder) WithChargerID(chargerID uuid.UUID) *BookingBuilder {
	b.ChargerID = chargerID
	return b
}

func (b *BookingBuilder) WithRenterID(renterID uuid.UUID) *BookingBuilder {
	b.RenterID = renterID
	return b
}

func (b *BookingBuilder) WithSlot(start, end time.Time) *BookingBuilder {
	b.Start = start
	b.End = end
	return b
}

func (b *BookingBuilder) WithStatus(status dombooking.Status) *BookingBuilder {
	b.Status = status
	return b
}

func (b *BookingBuilder) WithRule(rule pricing.Rule) *BookingBuilder {
	b.Rule = rule
	return b
}

func (b *BookingBuilder) AsPending() *BookingBuilder {
	b.Status = dombooking.StatusPending
	return b
}

func (b *BookingBuilder) AsActive() *BookingBuilder {
	b.Status = dombooking.StatusActive
	return b
}
