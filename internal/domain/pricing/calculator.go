package pricing

import (
	"errors"
	"math"
	"time"
)

var ErrInvalidPower = errors.New("estimated power must be positive for per-kwh pricing")

const (
	// OneBP is the basis-point representation of a 1.0x multiplier.
	OneBP = int64(10000)

	perMilleScale = int64(1000)
)

// Breakdown is the cost snapshot stored with a booking. All amounts are
// cents. EstimatedEnergyWh is informational (watt-hours, already adjusted by
// the charge-efficiency factor).
type Breakdown struct {
	SubtotalCents     int64 `json:"subtotal_cents"`
	PlatformFeeCents  int64 `json:"platform_fee_cents"`
	BookingFeeCents   int64 `json:"booking_fee_cents"`
	TotalCents        int64 `json:"total_cents"`
	EstimatedEnergyWh int64 `json:"estimated_energy_wh"`
}

// Calculator prices a time slot against a validated rule. It is a pure
// function of its inputs: no clock, no randomness, so stored snapshots can be
// reproduced bit-for-bit by tests and audits.
type Calculator struct {
	PlatformFeeBP      int64
	EfficiencyPerMille int64
}

func NewCalculator(platformFeeBP, efficiencyPerMille int64) *Calculator {
	return &Calculator{
		PlatformFeeBP:      platformFeeBP,
		EfficiencyPerMille: efficiencyPerMille,
	}
}

// Quote computes the cost breakdown for the half-open interval [start, end).
// estimatedPowerKw is only consulted in per-kwh mode.
//
// When a slot is both in the peak window and on a weekend the HIGHER of the
// two multipliers applies; they are never combined.
func (c *Calculator) Quote(start, end time.Time, rule Rule, estimatedPowerKw float64) (Breakdown, error) {
	minutes := int64(end.Sub(start) / time.Minute)

	energyWh := c.estimatedEnergyWh(minutes, estimatedPowerKw)

	var subtotal int64
	switch rule.Mode {
	case ModePerHour:
		subtotal = divRound(rule.UnitPriceCents*minutes, 60)
		subtotal = applyBP(subtotal, c.multiplierBP(start, end, rule))
	case ModePerKwh:
		if estimatedPowerKw <= 0 {
			return Breakdown{}, ErrInvalidPower
		}
		subtotal = divRound(rule.UnitPriceCents*energyWh, 1000)
	case ModeFlatRate:
		subtotal = rule.UnitPriceCents
	default:
		return Breakdown{}, ErrUnknownMode
	}

	platformFee := applyBP(subtotal, c.PlatformFeeBP)
	bookingFee := rule.BookingFeeCents

	return Breakdown{
		SubtotalCents:     subtotal,
		PlatformFeeCents:  platformFee,
		BookingFeeCents:   bookingFee,
		TotalCents:        subtotal + platformFee + bookingFee,
		EstimatedEnergyWh: energyWh,
	}, nil
}

// OverstayFee charges whole billing increments of one hour, rounded up.
func (c *Calculator) OverstayFee(overstay time.Duration, rule Rule) int64 {
	if overstay <= 0 {
		return 0
	}
	hours := int64(overstay+time.Hour-1) / int64(time.Hour)
	return hours * rule.OverstayFeePerHourCents
}

func (c *Calculator) estimatedEnergyWh(minutes int64, estimatedPowerKw float64) int64 {
	if estimatedPowerKw <= 0 {
		return 0
	}
	powerW := int64(math.Round(estimatedPowerKw * 1000))
	rawWh := divRound(powerW*minutes, 60)
	return divRound(rawWh*c.EfficiencyPerMille, perMilleScale)
}

func (c *Calculator) multiplierBP(start, end time.Time, rule Rule) int64 {
	mult := OneBP
	if rule.PeakWindow != nil && overlapsPeak(start, end, *rule.PeakWindow) {
		mult = rule.PeakMultiplierBP
	}
	if isWeekend(start) && rule.WeekendMultiplierBP > mult {
		mult = rule.WeekendMultiplierBP
	}
	return mult
}

// overlapsPeak reports whether [start, end) intersects the daily peak window
// on any day the interval touches.
func overlapsPeak(start, end time.Time, w PeakWindow) bool {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	for !day.After(end) {
		peakStart := day.Add(time.Duration(w.StartMinute) * time.Minute)
		peakEnd := day.Add(time.Duration(w.EndMinute) * time.Minute)
		if start.Before(peakEnd) && peakStart.Before(end) {
			return true
		}
		day = day.AddDate(0, 0, 1)
	}
	return false
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func applyBP(amount, bp int64) int64 {
	return divRound(amount*bp, OneBP)
}

func divRound(numerator, denominator int64) int64 {
	return (numerator + denominator/2) / denominator
}
