package request

import (
	"voltshare/internal/usecase/commands"

	"github.com/google/uuid"
)

type PaymentWebhookRequest struct {
	BookingID uuid.UUID `json:"booking_id" binding:"required"`
	Status    string    `json:"status" binding:"required,oneof=succeeded failed"`
	Reference string    `json:"reference,omitempty"`
}

func (r PaymentWebhookRequest) ToParams() commands.PaymentResultParams {
	return commands.PaymentResultParams{
		BookingID: r.BookingID,
		Succeeded: r.Status == "succeeded",
		Reference: r.Reference,
	}
}
