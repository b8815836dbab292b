package response

import (
	"time"

	"voltshare/internal/usecase/queries"

	"github.com/google/uuid"
)

type FreeSlotResponse struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type AvailabilityResponse struct {
	ChargerID uuid.UUID          `json:"chargerId"`
	From      time.Time          `json:"from"`
	To        time.Time          `json:"to"`
	Slots     []FreeSlotResponse `json:"slots"`
}

func FromFreeSlots(chargerID uuid.UUID, from, to time.Time, slots []queries.FreeSlot) *AvailabilityResponse {
	resp := &AvailabilityResponse{
		ChargerID: chargerID,
		From:      from,
		To:        to,
		Slots:     make([]FreeSlotResponse, len(slots)),
	}
	for i, s := range slots {
		resp.Slots[i] = FreeSlotResponse{StartTime: s.StartTime, EndTime: s.EndTime}
	}
	return resp
}
