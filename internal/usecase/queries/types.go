package queries

import (
	"time"

	"voltshare/internal/domain/booking"

	"github.com/google/uuid"
)

// Read models (DTO for read side)
type BookingView struct {
	ID              uuid.UUID             `json:"id"`
	ChargerID       uuid.UUID             `json:"charger_id"`
	ChargerTitle    string                `json:"charger_title"`
	HostID          uuid.UUID             `json:"host_id"`
	RenterID        uuid.UUID             `json:"renter_id"`
	StartTime       time.Time             `json:"start_time"`
	EndTime         time.Time             `json:"end_time"`
	Status          string                `json:"status"`
	PaymentStatus   string                `json:"payment_status"`
	Price           booking.PriceSnapshot `json:"price"`
	TotalCents      int64                 `json:"total_cents"`
	BookingCode     string                `json:"booking_code"`
	ExtendedTimes   int                   `json:"extended_times"`
	OverstayMinutes int                   `json:"overstay_minutes"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

type BookingListItem struct {
	ID           uuid.UUID `json:"id"`
	ChargerID    uuid.UUID `json:"charger_id"`
	ChargerTitle string    `json:"charger_title"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
	TotalCents   int64     `json:"total_cents"`
	CreatedAt    time.Time `json:"created_at"`
}

type ChargerView struct {
	ID         uuid.UUID `json:"id"`
	HostID     uuid.UUID `json:"host_id"`
	Title      string    `json:"title"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Connector  string    `json:"connector_type"`
	MaxPowerKw float64   `json:"max_power_kw"`
	IsActive   bool      `json:"is_active"`
	AutoAccept bool      `json:"auto_accept"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type FreeSlot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type SessionView struct {
	ID        uuid.UUID  `json:"id"`
	BookingID uuid.UUID  `json:"booking_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	EnergyWh  int64      `json:"energy_wh"`
	Outcome   string     `json:"outcome,omitempty"`
}
