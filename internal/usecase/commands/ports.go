package commands

import (
	"context"
	"time"

	"voltshare/internal/domain/charger"
	"voltshare/internal/usecase/shared"

	"github.com/google/uuid"
)

// PaymentGateway is the payment collaborator port. The engine never blocks a
// booking on it; capture and refund are intents, and the authoritative
// results come back asynchronously through the webhook.
type PaymentGateway interface {
	RequestCapture(ctx context.Context, bookingID uuid.UUID, amountCents int64) error
	Refund(ctx context.Context, bookingID uuid.UUID, amountCents int64) error
}

// chargerFromSnapshot rebuilds the domain entity the factory needs from a
// command-side read.
func chargerFromSnapshot(snap *shared.ChargerSnapshot) *charger.Charger {
	return charger.ReconstructCharger(
		snap.ID, snap.HostID, snap.Title,
		snap.Latitude, snap.Longitude,
		charger.ConnectorType(snap.Connector),
		snap.MaxPowerKw, snap.IsActive, snap.AutoAccept,
		snap.Rule,
		// creation timestamps are irrelevant to command validation
		time.Time{}, time.Time{},
	)
}
