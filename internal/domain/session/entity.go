package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadyClosed   = errors.New("session is already closed")
	ErrEndsBeforeStart = errors.New("session end cannot precede its start")
)

// Outcome records how a session terminated.
type Outcome string

const (
	OutcomeNone        Outcome = ""
	OutcomeCompleted   Outcome = "completed"
	OutcomeForceClosed Outcome = "force_closed"
)

// Session is the 1:1 record of actual usage against a booking. It is created
// when charging begins (possibly later than the booked start) and closed by
// an explicit stop signal or the overstay monitor.
type Session struct {
	id        uuid.UUID
	bookingID uuid.UUID
	startedAt time.Time
	endedAt   *time.Time
	energyWh  int64
	outcome   Outcome
	createdAt time.Time
	updatedAt time.Time
}

func NewSession(bookingID uuid.UUID, startedAt time.Time) *Session {
	return &Session{
		id:        uuid.New(),
		bookingID: bookingID,
		startedAt: startedAt.UTC(),
		outcome:   OutcomeNone,
		createdAt: startedAt.UTC(),
		updatedAt: startedAt.UTC(),
	}
}

func ReconstructSession(
	id, bookingID uuid.UUID,
	startedAt time.Time,
	endedAt *time.Time,
	energyWh int64,
	outcome Outcome,
	createdAt, updatedAt time.Time,
) *Session {
	return &Session{
		id:        id,
		bookingID: bookingID,
		startedAt: startedAt,
		endedAt:   endedAt,
		energyWh:  energyWh,
		outcome:   outcome,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (s *Session) Close(now time.Time, energyWh int64, outcome Outcome) error {
	if s.endedAt != nil {
		return ErrAlreadyClosed
	}
	if now.Before(s.startedAt) {
		return ErrEndsBeforeStart
	}
	t := now.UTC()
	s.endedAt = &t
	s.energyWh = energyWh
	s.outcome = outcome
	s.updatedAt = t
	return nil
}

func (s *Session) IsOpen() bool {
	return s.endedAt == nil
}

func (s *Session) Duration(now time.Time) time.Duration {
	if s.endedAt != nil {
		return s.endedAt.Sub(s.startedAt)
	}
	return now.Sub(s.startedAt)
}

func (s *Session) ID() uuid.UUID        { return s.id }
func (s *Session) BookingID() uuid.UUID { return s.bookingID }
func (s *Session) StartedAt() time.Time { return s.startedAt }
func (s *Session) EndedAt() *time.Time  { return s.endedAt }
func (s *Session) EnergyWh() int64      { return s.energyWh }
func (s *Session) Outcome() Outcome     { return s.outcome }
func (s *Session) CreatedAt() time.Time { return s.createdAt }
func (s *Session) UpdatedAt() time.Time { return s.updatedAt }
