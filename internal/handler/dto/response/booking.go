package response

import (
	"time"

	"voltshare/internal/usecase/commands"
	"voltshare/internal/usecase/queries"

	"github.com/google/uuid"
)

type AmendmentResponse struct {
	Kind        string    `json:"kind"`
	AmountCents int64     `json:"amountCents"`
	AppliedAt   time.Time `json:"appliedAt"`
}

type PriceResponse struct {
	SubtotalCents    int64               `json:"subtotalCents"`
	PlatformFeeCents int64               `json:"platformFeeCents"`
	BookingFeeCents  int64               `json:"bookingFeeCents"`
	Amendments       []AmendmentResponse `json:"amendments,omitempty"`
	TotalCents       int64               `json:"totalCents"`
}

type BookingResponse struct {
	ID              uuid.UUID     `json:"id"`
	ChargerID       uuid.UUID     `json:"chargerId"`
	ChargerTitle    string        `json:"chargerTitle"`
	HostID          uuid.UUID     `json:"hostId"`
	RenterID        uuid.UUID     `json:"renterId"`
	StartTime       time.Time     `json:"startTime"`
	EndTime         time.Time     `json:"endTime"`
	Status          string        `json:"status"`
	PaymentStatus   string        `json:"paymentStatus"`
	Price           PriceResponse `json:"price"`
	BookingCode     string        `json:"bookingCode"`
	ExtendedTimes   int           `json:"extendedTimes"`
	OverstayMinutes int           `json:"overstayMinutes"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// AccessCode is returned exactly once, on the creating response. Replays of
// the same idempotency key do not carry it again.
type CreateBookingResponse struct {
	BookingResponse
	AccessCode string `json:"accessCode,omitempty"`
	IsReplayed bool   `json:"isReplayed"`
}

type BookingListItemResponse struct {
	ID           uuid.UUID `json:"id"`
	ChargerID    uuid.UUID `json:"chargerId"`
	ChargerTitle string    `json:"chargerTitle"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	Status       string    `json:"status"`
	TotalCents   int64     `json:"totalCents"`
	CreatedAt    time.Time `json:"createdAt"`
}

type BookingListResponse struct {
	Items      []*BookingListItemResponse `json:"items"`
	NextCursor *string                    `json:"nextCursor,omitempty"`
}

func FromBookingView(rm *queries.BookingView) *BookingResponse {
	return &BookingResponse{
		ID:              rm.ID,
		ChargerID:       rm.ChargerID,
		ChargerTitle:    rm.ChargerTitle,
		HostID:          rm.HostID,
		RenterID:        rm.RenterID,
		StartTime:       rm.StartTime,
		EndTime:         rm.EndTime,
		Status:          rm.Status,
		PaymentStatus:   rm.PaymentStatus,
		Price:           fromPriceSnapshot(rm),
		BookingCode:     rm.BookingCode,
		ExtendedTimes:   rm.ExtendedTimes,
		OverstayMinutes: rm.OverstayMinutes,
		CreatedAt:       rm.CreatedAt,
		UpdatedAt:       rm.UpdatedAt,
	}
}

func fromPriceSnapshot(rm *queries.BookingView) PriceResponse {
	price := PriceResponse{
		SubtotalCents:    rm.Price.SubtotalCents,
		PlatformFeeCents: rm.Price.PlatformFeeCents,
		BookingFeeCents:  rm.Price.BookingFeeCents,
		TotalCents:       rm.TotalCents,
	}
	for _, a := range rm.Price.Amendments {
		price.Amendments = append(price.Amendments, AmendmentResponse{
			Kind:        string(a.Kind),
			AmountCents: a.AmountCents,
			AppliedAt:   a.AppliedAt,
		})
	}
	return price
}

func FromCreateBookingResult(res *commands.CreateBookingResult) *CreateBookingResponse {
	return &CreateBookingResponse{
		BookingResponse: *FromBookingView(res.Booking),
		AccessCode:      res.AccessCode,
		IsReplayed:      res.IsReplayed,
	}
}

func FromBookingListItem(rm *queries.BookingListItem) *BookingListItemResponse {
	return &BookingListItemResponse{
		ID:           rm.ID,
		ChargerID:    rm.ChargerID,
		ChargerTitle: rm.ChargerTitle,
		StartTime:    rm.StartTime,
		EndTime:      rm.EndTime,
		Status:       rm.Status,
		TotalCents:   rm.TotalCents,
		CreatedAt:    rm.CreatedAt,
	}
}

func FromBookingList(items []*queries.BookingListItem, next *queries.Cursor) *BookingListResponse {
	resp := &BookingListResponse{
		Items: make([]*BookingListItemResponse, len(items)),
	}
	for i, item := range items {
		resp.Items[i] = FromBookingListItem(item)
	}
	if next != nil {
		resp.NextCursor = &next.After
	}
	return resp
}
