package response

import (
	"time"

	"voltshare/internal/usecase/commands"
	"voltshare/internal/usecase/queries"

	"github.com/google/uuid"
)

type SessionResponse struct {
	ID        uuid.UUID  `json:"id"`
	BookingID uuid.UUID  `json:"bookingId"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	EnergyWh  int64      `json:"energyWh"`
	Outcome   string     `json:"outcome,omitempty"`
}

type StopSessionResponse struct {
	Session *SessionResponse `json:"session"`
	Booking *BookingResponse `json:"booking"`
}

func FromSessionView(rm *queries.SessionView) *SessionResponse {
	return &SessionResponse{
		ID:        rm.ID,
		BookingID: rm.BookingID,
		StartedAt: rm.StartedAt,
		EndedAt:   rm.EndedAt,
		EnergyWh:  rm.EnergyWh,
		Outcome:   rm.Outcome,
	}
}

func FromStopSessionResult(res *commands.StopSessionResult) *StopSessionResponse {
	return &StopSessionResponse{
		Session: FromSessionView(res.Session),
		Booking: FromBookingView(res.Booking),
	}
}
