package request

import (
	"strings"
	"time"

	"voltshare/internal/usecase/commands"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	ChargerID uuid.UUID `json:"charger_id" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

func (r CreateBookingRequest) ToParams() commands.CreateBookingParams {
	return commands.CreateBookingParams{
		ChargerID: r.ChargerID,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}

type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (r CancelBookingRequest) TrimmedReason() string {
	return strings.TrimSpace(r.Reason)
}

type StartSessionRequest struct {
	AccessCode string `json:"access_code" binding:"required"`
}

type StopSessionRequest struct {
	EnergyWh int64 `json:"energy_wh" binding:"min=0"`
}
