package pricing

import (
	"errors"
	"time"
)

var (
	ErrUnknownMode         = errors.New("unknown pricing mode")
	ErrNonPositiveUnit     = errors.New("unit price must be positive")
	ErrSessionBounds       = errors.New("invalid session duration bounds")
	ErrInvalidPeakWindow   = errors.New("invalid peak window")
	ErrInvalidMultiplier   = errors.New("multiplier must be at least 1x")
	ErrNegativeFee         = errors.New("fee cannot be negative")
	ErrInvalidOverstayCap  = errors.New("max overstay must be positive when auto-extend is enabled")
	ErrInvalidCancelWindow = errors.New("late-cancellation window cannot be negative")
)

type Mode string

const (
	ModePerHour  Mode = "per_hour"
	ModePerKwh   Mode = "per_kwh"
	ModeFlatRate Mode = "flat_rate"
)

func (m Mode) IsValid() bool {
	switch m {
	case ModePerHour, ModePerKwh, ModeFlatRate:
		return true
	default:
		return false
	}
}

// PeakWindow is a daily clock-time window in minutes from midnight,
// half-open like booking intervals.
type PeakWindow struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// Rule is the closed pricing configuration for a charger. Mode-dependent
// fields are checked once by Validate at load time; the calculator assumes a
// validated rule and never re-checks. Multipliers are basis points
// (10000 = 1.0x) so quotes stay fixed-point.
type Rule struct {
	Mode           Mode  `json:"mode"`
	UnitPriceCents int64 `json:"unit_price_cents"`

	MinSessionMinutes int `json:"min_session_minutes"`
	MaxSessionMinutes int `json:"max_session_minutes"`

	PeakWindow          *PeakWindow `json:"peak_window,omitempty"`
	PeakMultiplierBP    int64       `json:"peak_multiplier_bp"`
	WeekendMultiplierBP int64       `json:"weekend_multiplier_bp"`

	BookingFeeCents         int64 `json:"booking_fee_cents"`
	OverstayFeePerHourCents int64 `json:"overstay_fee_per_hour_cents"`

	LateCancellationFeeCents   int64 `json:"late_cancellation_fee_cents"`
	LateCancellationWindowMins int   `json:"late_cancellation_window_mins"`

	AdvanceBookingHours int  `json:"advance_booking_hours"`
	SameDayBooking      bool `json:"same_day_booking"`

	AutoExtend         bool `json:"auto_extend"`
	MaxOverstayMinutes int  `json:"max_overstay_minutes"`
}

func (r Rule) Validate() error {
	if !r.Mode.IsValid() {
		return ErrUnknownMode
	}
	if r.UnitPriceCents <= 0 {
		return ErrNonPositiveUnit
	}
	if r.MinSessionMinutes <= 0 || r.MaxSessionMinutes < r.MinSessionMinutes {
		return ErrSessionBounds
	}
	if r.PeakWindow != nil {
		if r.PeakWindow.StartMinute < 0 || r.PeakWindow.EndMinute > 24*60 ||
			r.PeakWindow.StartMinute >= r.PeakWindow.EndMinute {
			return ErrInvalidPeakWindow
		}
	}
	if r.PeakMultiplierBP < OneBP || r.WeekendMultiplierBP < OneBP {
		return ErrInvalidMultiplier
	}
	if r.BookingFeeCents < 0 || r.OverstayFeePerHourCents < 0 || r.LateCancellationFeeCents < 0 {
		return ErrNegativeFee
	}
	if r.LateCancellationWindowMins < 0 {
		return ErrInvalidCancelWindow
	}
	if r.AutoExtend && r.MaxOverstayMinutes <= 0 {
		return ErrInvalidOverstayCap
	}
	return nil
}

func (r Rule) MinSession() time.Duration {
	return time.Duration(r.MinSessionMinutes) * time.Minute
}

func (r Rule) MaxSession() time.Duration {
	return time.Duration(r.MaxSessionMinutes) * time.Minute
}

func (r Rule) MaxOverstay() time.Duration {
	return time.Duration(r.MaxOverstayMinutes) * time.Minute
}

func (r Rule) LateCancellationWindow() time.Duration {
	return time.Duration(r.LateCancellationWindowMins) * time.Minute
}
