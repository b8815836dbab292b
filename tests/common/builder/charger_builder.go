//go:build unit || e2e

package builder

import (
	domcharger "voltshare/internal/domain/charger"
	"voltshare/internal/domain/pricing"
	reqdto "voltshare/internal/handler/dto/request"
	"voltshare/internal/usecase/shared"

	"github.com/google/uuid"
)

type ChargerBuilder struct {
	ID         uuid.UUID
	HostID     uuid.UUID
	Title      string
	Latitude   float64
	Longitude  float64
	Connector  domcharger.ConnectorType
	MaxPowerKw float64
	IsActive   bool
	AutoAccept bool
	Rule       pricing.Rule
}

func NewChargerBuilder() *ChargerBuilder {
	return &ChargerBuilder{
		ID:         uuid.New(),
		HostID:     uuid.New(),
		Title:      "Driveway Fast Charger",
		Latitude:   35.6812,
		Longitude:  139.7671,
		Connector:  domcharger.ConnectorCCS,
		MaxPowerKw: 50,
		IsActive:   true,
		AutoAccept: true,
		Rule: pricing.Rule{
			Mode:                pricing.ModePerHour,
			UnitPriceCents:      5000,
			MinSessionMinutes:   30,
			MaxSessionMinutes:   300,
			PeakMultiplierBP:    pricing.OneBP,
			WeekendMultiplierBP: pricing.OneBP,
			BookingFeeCents:     1000,
			SameDayBooking:      true,
		},
	}
}

func (c *ChargerBuilder) With(mutate func(*ChargerBuilder)) *ChargerBuilder {
	mutate(c)
	return c
}

// Build methods
func (c *ChargerBuilder) BuildDomain() (*domcharger.Charger, error) {
	return domcharger.NewCharger(
		c.ID, c.HostID, c.Title,
		c.Latitude, c.Longitude,
		c.Connector, c.MaxPowerKw,
		c.IsActive, c.AutoAccept,
		c.Rule,
	)
}

func (c *ChargerBuilder) BuildSnapshot() *shared.ChargerSnapshot {
	return &shared.ChargerSnapshot{
		ID:         c.ID,
		HostID:     c.HostID,
		Title:      c.Title,
		Latitude:   c.Latitude,
		Longitude:  c.Longitude,
		Connector:  string(c.Connector),
		MaxPowerKw: c.MaxPowerKw,
		IsActive:   c.IsActive,
		AutoAccept: c.AutoAccept,
		Rule:       c.Rule,
	}
}

func (c *ChargerBuilder) BuildRegisterRequestDTO() reqdto.RegisterChargerRequest {
	req := reqdto.RegisterChargerRequest{
		Title:      c.Title,
		Latitude:   c.Latitude,
		Longitude:  c.Longitude,
		Connector:  string(c.Connector),
		MaxPowerKw: c.MaxPowerKw,
		AutoAccept: c.AutoAccept,
		Rule: reqdto.PricingRuleRequest{
			Mode:                       string(c.Rule.Mode),
			UnitPriceCents:             c.Rule.UnitPriceCents,
			MinSessionMinutes:          c.Rule.MinSessionMinutes,
			MaxSessionMinutes:          c.Rule.MaxSessionMinutes,
			PeakMultiplierBP:           c.Rule.PeakMultiplierBP,
			WeekendMultiplierBP:        c.Rule.WeekendMultiplierBP,
			BookingFeeCents:            c.Rule.BookingFeeCents,
			OverstayFeePerHourCents:    c.Rule.OverstayFeePerHourCents,
			LateCancellationFeeCents:   c.Rule.LateCancellationFeeCents,
			LateCancellationWindowMins: c.Rule.LateCancellationWindowMins,
			AdvanceBookingHours:        c.Rule.AdvanceBookingHours,
			SameDayBooking:             c.Rule.SameDayBooking,
			AutoExtend:                 c.Rule.AutoExtend,
			MaxOverstayMinutes:         c.Rule.MaxOverstayMinutes,
		},
	}
	if c.Rule.PeakWindow != nil {
		req.Rule.PeakWindow = &reqdto.PeakWindowRequest{
			StartMinute: c.Rule.PeakWindow.StartMinute,
			EndMinute:   c.Rule.PeakWindow.EndMinute,
		}
	}
	return req
}

// Fluent builder methods
func (c *ChargerBuilder) WithHostID(hostID uuid.UUID) *ChargerBuilder {
	c.HostID = hostID
	return c
}

func (c *ChargerBuilder) WithTitle(title string) *ChargerBuilder {
	c.Title = title
	return c
}

func (c *ChargerBuilder) WithPosition(lat, lng float64) *ChargerBuilder {
	c.Latitude = lat
	c.Longitude = lng
	return c
}

func (c *ChargerBuilder) WithMaxPowerKw(kw float64) *ChargerBuilder {
	c.MaxPowerKw = kw
	return c
}

func (c *ChargerBuilder) WithRule(rule pricing.Rule) *ChargerBuilder {
	c.Rule = rule
	return c
}

func (c *ChargerBuilder) AsInactive() *ChargerBuilder {
	c.IsActive = false
	return c
}

func (c *ChargerBuilder) AsManualAccept() *ChargerBuilder {
	c.AutoAccept = false
	return c
}

func (c *ChargerBuilder) AsPerKwh(unitPriceCents int64) *ChargerBuilder {
	c.Rule.Mode = pricing.ModePerKwh
	c.Rule.UnitPriceCents = unitPriceCents
	return c
}

func (c *ChargerBuilder) AsFlatRate(unitPriceCents int64) *ChargerBuilder {
	c.Rule.Mode = pricing.ModeFlatRate
	c.Rule.UnitPriceCents = unitPriceCents
	return c
}
