package queries

import (
	"context"

	"voltshare/internal/pkg/errs"

	"github.com/google/uuid"
)

var ErrBookingAccessDenied = errs.New("booking access denied")

type BookingQueries interface {
	// GetByIDSystem skips the ownership check; used for idempotent replay
	// and internal reads.
	GetByIDSystem(ctx context.Context, id uuid.UUID) (*BookingView, error)
	GetByID(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*BookingView, error)
	ListByRenter(ctx context.Context, renterID uuid.UUID, after *Cursor, limit int) ([]*BookingListItem, *Cursor, error)
}

type BookingViewRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	FindByRenterFirstPage(ctx context.Context, renterID uuid.UUID, limit int32) ([]*BookingListItem, error)
	FindByRenterKeyset(ctx context.Context, renterID uuid.UUID, after *BookingListItem, limit int32) ([]*BookingListItem, error)
}

type bookingQueriesImpl struct {
	repo BookingViewRepo
}

func NewBookingQueries(repo BookingViewRepo) BookingQueries {
	return &bookingQueriesImpl{repo: repo}
}

func (q *bookingQueriesImpl) GetByIDSystem(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	return q.repo.FindByID(ctx, id)
}

// Renter and host both may read a booking; everyone else is denied.
func (q *bookingQueriesImpl) GetByID(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*BookingView, error) {
	view, err := q.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if view.RenterID != actorID && view.HostID != actorID {
		return nil, ErrBookingAccessDenied
	}
	return view, nil
}

func (q *bookingQueriesImpl) ListByRenter(ctx context.Context, renterID uuid.UUID, after *Cursor, limit int) ([]*BookingListItem, *Cursor, error) {
	limit = ValidateLimit(limit)

	var (
		items []*BookingListItem
		err   error
	)
	if after == nil || after.After == "" {
		items, err = q.repo.FindByRenterFirstPage(ctx, renterID, int32(limit))
	} else {
		createdAt, id, decodeErr := DecodeAfterCursor(after.After)
		if decodeErr != nil {
			return nil, nil, errs.Wrap(decodeErr, "invalid list cursor")
		}
		anchor := &BookingListItem{ID: id, CreatedAt: createdAt}
		items, err = q.repo.FindByRenterKeyset(ctx, renterID, anchor, int32(limit))
	}
	if err != nil {
		return nil, nil, err
	}

	var next *Cursor
	if len(items) == limit {
		last := items[len(items)-1]
		next = &Cursor{After: EncodeAfterCursor(last.CreatedAt, last.ID)}
	}
	return items, next, nil
}
