package booking

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrSlotNotOrdered = errors.New("start time must be before end time")
)

// TimeSlot is the half-open interval [start, end) a booking claims. Both
// instants are normalized to UTC on construction; adjacency (one slot ending
// exactly when another starts) is not an overlap.
type TimeSlot struct {
	start time.Time
	end   time.Time
}

func NewTimeSlot(start, end time.Time) (TimeSlot, error) {
	start = start.UTC()
	end = end.UTC()
	if !start.Before(end) {
		return TimeSlot{}, ErrSlotNotOrdered
	}
	return TimeSlot{start: start, end: end}, nil
}

func (ts TimeSlot) Start() time.Time        { return ts.start }
func (ts TimeSlot) End() time.Time          { return ts.end }
func (ts TimeSlot) Duration() time.Duration { return ts.end.Sub(ts.start) }

func (ts TimeSlot) Overlaps(other TimeSlot) bool {
	return ts.start.Before(other.end) && other.start.Before(ts.end)
}

func (ts TimeSlot) Contains(t time.Time) bool {
	return !t.Before(ts.start) && t.Before(ts.end)
}

// WithEnd extends or shrinks the slot; used by auto-extension.
func (ts TimeSlot) WithEnd(end time.Time) (TimeSlot, error) {
	return NewTimeSlot(ts.start, end)
}

func (ts TimeSlot) ToTstzrange() string {
	return fmt.Sprintf("[%s,%s)", ts.start.Format(time.RFC3339), ts.end.Format(time.RFC3339))
}

// AmendmentKind tags auditable additions to a committed price snapshot.
type AmendmentKind string

const (
	AmendmentOverstayFee      AmendmentKind = "overstay_fee"
	AmendmentLateCancellation AmendmentKind = "late_cancellation_fee"
	AmendmentExtension        AmendmentKind = "extension_charge"
)

type Amendment struct {
	Kind        AmendmentKind `json:"kind"`
	AmountCents int64         `json:"amount_cents"`
	AppliedAt   time.Time     `json:"applied_at"`
}

// PriceSnapshot is the cost breakdown frozen at commit time. The base fields
// never change after construction; post-commit charges are appended as
// amendments and Total folds them in.
type PriceSnapshot struct {
	SubtotalCents    int64       `json:"subtotal_cents"`
	PlatformFeeCents int64       `json:"platform_fee_cents"`
	BookingFeeCents  int64       `json:"booking_fee_cents"`
	Amendments       []Amendment `json:"amendments,omitempty"`
}

func (p PriceSnapshot) BaseTotalCents() int64 {
	return p.SubtotalCents + p.PlatformFeeCents + p.BookingFeeCents
}

func (p PriceSnapshot) TotalCents() int64 {
	total := p.BaseTotalCents()
	for _, a := range p.Amendments {
		total += a.AmountCents
	}
	return total
}

func (p PriceSnapshot) withAmendment(a Amendment) PriceSnapshot {
	amended := p
	amended.Amendments = append(append([]Amendment(nil), p.Amendments...), a)
	return amended
}
