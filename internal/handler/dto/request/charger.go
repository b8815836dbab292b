package request

import (
	"voltshare/internal/domain/pricing"
	"voltshare/internal/usecase/commands"
)

type PeakWindowRequest struct {
	StartMinute int `json:"start_minute" binding:"min=0,max=1439"`
	EndMinute   int `json:"end_minute" binding:"min=0,max=1440"`
}

type PricingRuleRequest struct {
	Mode                        string             `json:"mode" binding:"required,oneof=per_hour per_kwh flat_rate"`
	UnitPriceCents              int64              `json:"unit_price_cents" binding:"required,min=1"`
	MinSessionMinutes           int                `json:"min_session_minutes" binding:"min=0"`
	MaxSessionMinutes           int                `json:"max_session_minutes" binding:"min=0"`
	PeakWindow                  *PeakWindowRequest `json:"peak_window,omitempty"`
	PeakMultiplierBP            int64              `json:"peak_multiplier_bp,omitempty"`
	WeekendMultiplierBP         int64              `json:"weekend_multiplier_bp,omitempty"`
	BookingFeeCents             int64              `json:"booking_fee_cents,omitempty"`
	OverstayFeePerHourCents     int64              `json:"overstay_fee_per_hour_cents,omitempty"`
	LateCancellationFeeCents    int64              `json:"late_cancellation_fee_cents,omitempty"`
	LateCancellationWindowMins  int                `json:"late_cancellation_window_mins,omitempty"`
	AdvanceBookingHours         int                `json:"advance_booking_hours,omitempty"`
	SameDayBooking              bool               `json:"same_day_booking"`
	AutoExtend                  bool               `json:"auto_extend"`
	MaxOverstayMinutes          int                `json:"max_overstay_minutes,omitempty"`
}

type RegisterChargerRequest struct {
	Title      string             `json:"title" binding:"required,max=255"`
	Latitude   float64            `json:"latitude" binding:"min=-90,max=90"`
	Longitude  float64            `json:"longitude" binding:"min=-180,max=180"`
	Connector  string             `json:"connector_type" binding:"required,oneof=ccs chademo type2 nacs"`
	MaxPowerKw float64            `json:"max_power_kw" binding:"required,gt=0"`
	AutoAccept bool               `json:"auto_accept"`
	Rule       PricingRuleRequest `json:"pricing_rule" binding:"required"`
}

func (r RegisterChargerRequest) ToParams() commands.RegisterChargerParams {
	rule := pricing.Rule{
		Mode:                       pricing.Mode(r.Rule.Mode),
		UnitPriceCents:             r.Rule.UnitPriceCents,
		MinSessionMinutes:          r.Rule.MinSessionMinutes,
		MaxSessionMinutes:          r.Rule.MaxSessionMinutes,
		PeakMultiplierBP:           r.Rule.PeakMultiplierBP,
		WeekendMultiplierBP:        r.Rule.WeekendMultiplierBP,
		BookingFeeCents:            r.Rule.BookingFeeCents,
		OverstayFeePerHourCents:    r.Rule.OverstayFeePerHourCents,
		LateCancellationFeeCents:   r.Rule.LateCancellationFeeCents,
		LateCancellationWindowMins: r.Rule.LateCancellationWindowMins,
		AdvanceBookingHours:        r.Rule.AdvanceBookingHours,
		SameDayBooking:             r.Rule.SameDayBooking,
		AutoExtend:                 r.Rule.AutoExtend,
		MaxOverstayMinutes:         r.Rule.MaxOverstayMinutes,
	}
	if r.Rule.PeakWindow != nil {
		rule.PeakWindow = &pricing.PeakWindow{
			StartMinute: r.Rule.PeakWindow.StartMinute,
			EndMinute:   r.Rule.PeakWindow.EndMinute,
		}
	}

	return commands.RegisterChargerParams{
		Title:      r.Title,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		Connector:  r.Connector,
		MaxPowerKw: r.MaxPowerKw,
		AutoAccept: r.AutoAccept,
		Rule:       rule,
	}
}

type SetChargerActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}
