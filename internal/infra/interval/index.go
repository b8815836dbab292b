package interval

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConflict = errors.New("interval conflicts with an existing claim")
	ErrNotHeld  = errors.New("no claim held for booking")
)

// Span is a half-open interval [Start, End). Adjacent spans do not overlap.
type Span struct {
	Start time.Time
	End   time.Time
}

func (s Span) Overlaps(other Span) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

func (s Span) IsValid() bool {
	return s.Start.Before(s.End)
}

type Claim struct {
	Span      Span
	BookingID uuid.UUID
}

// chargerState holds the committed claims of one charger, sorted by start.
// Claims are pairwise non-overlapping, so start order implies end order and
// the overlap check only needs the two neighbors of the insertion point.
type chargerState struct {
	mu     sync.Mutex
	claims []Claim
}

// Index is the per-charger authority on claimed time intervals. The unit of
// serialization is the charger: operations on different chargers run in
// parallel, operations on the same charger are linearized by its mutex held
// across the whole query+insert critical section.
type Index struct {
	mu       sync.Mutex
	chargers map[uuid.UUID]*chargerState
}

func NewIndex() *Index {
	return &Index{
		chargers: make(map[uuid.UUID]*chargerState),
	}
}

func (i *Index) state(chargerID uuid.UUID) *chargerState {
	i.mu.Lock()
	defer i.mu.Unlock()
	st, ok := i.chargers[chargerID]
	if !ok {
		st = &chargerState{}
		i.chargers[chargerID] = st
	}
	return st
}

// Query reports whether span intersects any existing claim for the charger.
func (i *Index) Query(chargerID uuid.UUID, span Span) bool {
	st := i.state(chargerID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.overlaps(span, uuid.Nil)
}

// Reserve atomically inserts the span iff it conflicts with nothing.
func (i *Index) Reserve(chargerID uuid.UUID, span Span, bookingID uuid.UUID) error {
	if !span.IsValid() {
		return ErrConflict
	}
	st := i.state(chargerID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.overlaps(span, uuid.Nil) {
		return ErrConflict
	}
	st.insert(Claim{Span: span, BookingID: bookingID})
	return nil
}

// Release drops the claim held by bookingID, if any. Releasing an unknown
// booking is a no-op so cancellation stays idempotent.
func (i *Index) Release(chargerID, bookingID uuid.UUID) {
	st := i.state(chargerID)
	st.mu.Lock()
	defer st.mu.Unlock()
	st.remove(bookingID)
}

// Replace swaps the booking's claim for a new span inside one critical
// section; used by auto-extension so the old claim never appears free to a
// concurrent reservation.
func (i *Index) Replace(chargerID uuid.UUID, bookingID uuid.UUID, span Span) error {
	if !span.IsValid() {
		return ErrConflict
	}
	st := i.state(chargerID)
	st.mu.Lock()
	defer st.mu.Unlock()

	held := st.find(bookingID)
	if held < 0 {
		return ErrNotHeld
	}
	if st.overlaps(span, bookingID) {
		return ErrConflict
	}
	st.remove(bookingID)
	st.insert(Claim{Span: span, BookingID: bookingID})
	return nil
}

// FreeSlots returns the complement of claims within the window, in order.
func (i *Index) FreeSlots(chargerID uuid.UUID, window Span) []Span {
	st := i.state(chargerID)
	st.mu.Lock()
	defer st.mu.Unlock()

	free := make([]Span, 0, len(st.claims)+1)
	cursor := window.Start
	for _, c := range st.claims {
		if !c.Span.End.After(window.Start) {
			continue
		}
		if !c.Span.Start.Before(window.End) {
			break
		}
		if c.Span.Start.After(cursor) {
			free = append(free, Span{Start: cursor, End: c.Span.Start})
		}
		if c.Span.End.After(cursor) {
			cursor = c.Span.End
		}
	}
	if cursor.Before(window.End) {
		free = append(free, Span{Start: cursor, End: window.End})
	}
	return free
}

// Load rehydrates one charger's claims from storage at startup. Existing
// in-memory claims for the charger are discarded.
func (i *Index) Load(chargerID uuid.UUID, claims []Claim) {
	st := i.state(chargerID)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.claims = st.claims[:0]
	for _, c := range claims {
		if c.Span.IsValid() {
			st.insert(c)
		}
	}
}

// Claims returns a copy of the charger's current claims, for diagnostics.
func (i *Index) Claims(chargerID uuid.UUID) []Claim {
	st := i.state(chargerID)
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]Claim, len(st.claims))
	copy(out, st.claims)
	return out
}

func (s *chargerState) overlaps(span Span, exclude uuid.UUID) bool {
	idx := sort.Search(len(s.claims), func(n int) bool {
		return !s.claims[n].Span.Start.Before(span.Start)
	})
	// Predecessor may still reach into the candidate; successor may start
	// before the candidate ends.
	for _, n := range []int{idx - 1, idx, idx + 1} {
		if n < 0 || n >= len(s.claims) {
			continue
		}
		c := s.claims[n]
		if c.BookingID == exclude {
			continue
		}
		if c.Span.Overlaps(span) {
			return true
		}
	}
	return false
}

func (s *chargerState) insert(c Claim) {
	idx := sort.Search(len(s.claims), func(n int) bool {
		return !s.claims[n].Span.Start.Before(c.Span.Start)
	})
	s.claims = append(s.claims, Claim{})
	copy(s.claims[idx+1:], s.claims[idx:])
	s.claims[idx] = c
}

func (s *chargerState) find(bookingID uuid.UUID) int {
	for n, c := range s.claims {
		if c.BookingID == bookingID {
			return n
		}
	}
	return -1
}

func (s *chargerState) remove(bookingID uuid.UUID) {
	idx := s.find(bookingID)
	if idx < 0 {
		return
	}
	s.claims = append(s.claims[:idx], s.claims[idx+1:]...)
}
