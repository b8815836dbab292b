package shared

import (
	"time"

	"voltshare/internal/domain/pricing"

	"github.com/google/uuid"
)

// Minimal snapshots for command-side validation; view assembly lives on the
// query side.
type BookingSnapshot struct {
	ID        uuid.UUID
	ChargerID uuid.UUID
	RenterID  uuid.UUID
	Status    string
	StartTime time.Time
	EndTime   time.Time
}

type ChargerSnapshot struct {
	ID         uuid.UUID
	HostID     uuid.UUID
	Title      string
	Latitude   float64
	Longitude  float64
	Connector  string
	MaxPowerKw float64
	IsActive   bool
	AutoAccept bool
	Rule       pricing.Rule
}

type IdempotencyRecord struct {
	Key             uuid.UUID
	UserID          uuid.UUID
	Status          string
	RequestHash     string
	ResultBookingID *uuid.UUID
	ExpiresAt       time.Time
}

// SweepCandidate is one booking the overstay monitor needs to act on.
type SweepCandidate struct {
	BookingID uuid.UUID
	ChargerID uuid.UUID
	EndTime   time.Time
}

// ClaimRecord rehydrates the interval index from storage at startup.
type ClaimRecord struct {
	ChargerID uuid.UUID
	BookingID uuid.UUID
	StartTime time.Time
	EndTime   time.Time
}
