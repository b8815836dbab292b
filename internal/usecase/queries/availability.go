package queries

import (
	"context"
	"time"

	"voltshare/internal/infra/interval"
	"voltshare/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrInvalidWindow = errs.New("availability window must be ordered and non-empty")

const maxAvailabilityWindow = 31 * 24 * time.Hour

type AvailabilityQueries interface {
	FreeSlots(ctx context.Context, chargerID uuid.UUID, from, to time.Time) ([]FreeSlot, error)
}

type ChargerViewRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ChargerView, error)
}

// Availability reads come straight from the interval index: the index is the
// authority on claims, so no storage round-trip is needed for the slots
// themselves.
type availabilityQueriesImpl struct {
	chargers ChargerViewRepo
	index    *interval.Index
}

func NewAvailabilityQueries(chargers ChargerViewRepo, index *interval.Index) AvailabilityQueries {
	return &availabilityQueriesImpl{chargers: chargers, index: index}
}

func (q *availabilityQueriesImpl) FreeSlots(ctx context.Context, chargerID uuid.UUID, from, to time.Time) ([]FreeSlot, error) {
	from = from.UTC()
	to = to.UTC()
	if !from.Before(to) || to.Sub(from) > maxAvailabilityWindow {
		return nil, ErrInvalidWindow
	}

	// Existence check so an unknown charger is an error, not an empty calendar.
	if _, err := q.chargers.FindByID(ctx, chargerID); err != nil {
		return nil, err
	}

	spans := q.index.FreeSlots(chargerID, interval.Span{Start: from, End: to})
	slots := make([]FreeSlot, len(spans))
	for i, s := range spans {
		slots[i] = FreeSlot{StartTime: s.Start, EndTime: s.End}
	}
	return slots, nil
}
