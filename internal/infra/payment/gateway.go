package payment

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogGateway stands in for the external payment collaborator. Capture and
// refund intents are logged and acknowledged; the real verdicts arrive
// through the webhook.
type LogGateway struct {
	logger *slog.Logger
}

func NewLogGateway(logger *slog.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) RequestCapture(_ context.Context, bookingID uuid.UUID, amountCents int64) error {
	g.logger.Info("capture requested",
		"booking_id", bookingID,
		"amount_cents", amountCents,
	)
	return nil
}

func (g *LogGateway) Refund(_ context.Context, bookingID uuid.UUID, amountCents int64) error {
	g.logger.Info("refund requested",
		"booking_id", bookingID,
		"amount_cents", amountCents,
	)
	return nil
}
