package converter

import (
	"encoding/json"
	"time"

	"voltshare/internal/domain/booking"
	"voltshare/internal/domain/pricing"
	"voltshare/internal/pkg/errs"

	"github.com/google/uuid"
)

// BookingRow mirrors the bookings table columns the write side needs to
// rebuild a domain entity.
type BookingRow struct {
	ID              uuid.UUID
	ChargerID       uuid.UUID
	RenterID        uuid.UUID
	StartTime       time.Time
	EndTime         time.Time
	Status          string
	PaymentStatus   string
	PriceSnapshot   []byte
	PricingRule     []byte
	BookingCode     string
	AccessCodeHash  string
	ExtendedTimes   int32
	OverstayMinutes int32
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func BookingToEntity(row BookingRow) (*booking.Booking, error) {
	slot, err := booking.NewTimeSlot(row.StartTime, row.EndTime)
	if err != nil {
		return nil, errs.Wrap(err, "stored booking has an invalid slot")
	}

	var price booking.PriceSnapshot
	if err := json.Unmarshal(row.PriceSnapshot, &price); err != nil {
		return nil, errs.Wrap(err, "failed to decode price snapshot")
	}

	var rule pricing.Rule
	if err := json.Unmarshal(row.PricingRule, &rule); err != nil {
		return nil, errs.Wrap(err, "failed to decode pricing rule snapshot")
	}

	return booking.ReconstructBooking(
		row.ID, row.ChargerID, row.RenterID,
		slot,
		booking.Status(row.Status),
		booking.PaymentStatus(row.PaymentStatus),
		price,
		rule,
		row.BookingCode, row.AccessCodeHash,
		int(row.ExtendedTimes), int(row.OverstayMinutes),
		row.CreatedAt, row.UpdatedAt,
	), nil
}

func MarshalPriceSnapshot(p booking.PriceSnapshot) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, errs.Wrap(err, "failed to encode price snapshot")
	}
	return data, nil
}

func MarshalPricingRule(r pricing.Rule) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, errs.Wrap(err, "failed to encode pricing rule")
	}
	return data, nil
}
