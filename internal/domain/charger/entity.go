package charger

import (
	"errors"
	"strings"
	"time"

	"voltshare/internal/domain/pricing"

	"github.com/google/uuid"
)

var (
	ErrEmptyTitle      = errors.New("charger title cannot be empty")
	ErrTitleTooLong    = errors.New("charger title is too long (max 255 characters)")
	ErrInvalidPosition = errors.New("latitude/longitude out of range")
	ErrInvalidPower    = errors.New("max power must be positive")
	ErrInvalidRule     = errors.New("invalid pricing rule")
)

const MaxTitleLength = 255

type ConnectorType string

const (
	ConnectorCCS     ConnectorType = "ccs"
	ConnectorCHAdeMO ConnectorType = "chademo"
	ConnectorType2   ConnectorType = "type2"
	ConnectorNACS    ConnectorType = "nacs"
)

// Charger is the bookable resource. The engine treats it as read-mostly: the
// pricing rule here is the live rule, snapshotted onto each booking at commit
// so later edits never reprice existing bookings.
type Charger struct {
	id         uuid.UUID
	hostID     uuid.UUID
	title      string
	latitude   float64
	longitude  float64
	connector  ConnectorType
	maxPowerKw float64
	isActive   bool
	autoAccept bool
	rule       pricing.Rule
	createdAt  time.Time
	updatedAt  time.Time
}

func NewCharger(
	id, hostID uuid.UUID,
	title string,
	latitude, longitude float64,
	connector ConnectorType,
	maxPowerKw float64,
	isActive, autoAccept bool,
	rule pricing.Rule,
) (*Charger, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if len(title) > MaxTitleLength {
		return nil, ErrTitleTooLong
	}
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return nil, ErrInvalidPosition
	}
	if maxPowerKw <= 0 {
		return nil, ErrInvalidPower
	}
	if err := rule.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidRule, err)
	}

	return &Charger{
		id:         id,
		hostID:     hostID,
		title:      title,
		latitude:   latitude,
		longitude:  longitude,
		connector:  connector,
		maxPowerKw: maxPowerKw,
		isActive:   isActive,
		autoAccept: autoAccept,
		rule:       rule,
	}, nil
}

// ReconstructCharger rebuilds a persisted charger without re-running the
// creation validations.
func ReconstructCharger(
	id, hostID uuid.UUID,
	title string,
	latitude, longitude float64,
	connector ConnectorType,
	maxPowerKw float64,
	isActive, autoAccept bool,
	rule pricing.Rule,
	createdAt, updatedAt time.Time,
) *Charger {
	return &Charger{
		id:         id,
		hostID:     hostID,
		title:      title,
		latitude:   latitude,
		longitude:  longitude,
		connector:  connector,
		maxPowerKw: maxPowerKw,
		isActive:   isActive,
		autoAccept: autoAccept,
		rule:       rule,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

func (c *Charger) ID() uuid.UUID            { return c.id }
func (c *Charger) HostID() uuid.UUID        { return c.hostID }
func (c *Charger) Title() string            { return c.title }
func (c *Charger) Latitude() float64        { return c.latitude }
func (c *Charger) Longitude() float64       { return c.longitude }
func (c *Charger) Connector() ConnectorType { return c.connector }
func (c *Charger) MaxPowerKw() float64      { return c.maxPowerKw }
func (c *Charger) IsActive() bool           { return c.isActive }
func (c *Charger) AutoAccept() bool         { return c.autoAccept }
func (c *Charger) Rule() pricing.Rule       { return c.rule }
func (c *Charger) CreatedAt() time.Time     { return c.createdAt }
func (c *Charger) UpdatedAt() time.Time     { return c.updatedAt }
