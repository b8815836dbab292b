//go:build unit

package session_test

import (
	"testing"
	"time"

	"voltshare/internal/domain/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession(t *testing.T) {
	startedAt := time.Date(2026, 3, 10, 10, 5, 0, 0, time.UTC)

	t.Run("new session is open with no outcome", func(t *testing.T) {
		s := session.NewSession(uuid.New(), startedAt)

		assert.True(t, s.IsOpen())
		assert.Nil(t, s.EndedAt())
		assert.Equal(t, session.OutcomeNone, s.Outcome())
		assert.Equal(t, startedAt, s.StartedAt())
	})

	t.Run("close records energy and outcome", func(t *testing.T) {
		s := session.NewSession(uuid.New(), startedAt)
		endedAt := startedAt.Add(80 * time.Minute)

		require.NoError(t, s.Close(endedAt, 42000, session.OutcomeCompleted))

		assert.False(t, s.IsOpen())
		require.NotNil(t, s.EndedAt())
		assert.Equal(t, endedAt, *s.EndedAt())
		assert.Equal(t, int64(42000), s.EnergyWh())
		assert.Equal(t, session.OutcomeCompleted, s.Outcome())
		assert.Equal(t, 80*time.Minute, s.Duration(endedAt.Add(time.Hour)))
	})

	t.Run("close is not repeatable", func(t *testing.T) {
		s := session.NewSession(uuid.New(), startedAt)
		require.NoError(t, s.Close(startedAt.Add(time.Hour), 1000, session.OutcomeCompleted))

		err := s.Close(startedAt.Add(2*time.Hour), 2000, session.OutcomeForceClosed)
		require.ErrorIs(t, err, session.ErrAlreadyClosed)
		assert.Equal(t, int64(1000), s.EnergyWh())
		assert.Equal(t, session.OutcomeCompleted, s.Outcome())
	})

	t.Run("end cannot precede start", func(t *testing.T) {
		s := session.NewSession(uuid.New(), startedAt)

		err := s.Close(startedAt.Add(-time.Minute), 0, session.OutcomeCompleted)
		require.ErrorIs(t, err, session.ErrEndsBeforeStart)
		assert.True(t, s.IsOpen())
	})

	t.Run("force close marks the outcome", func(t *testing.T) {
		s := session.NewSession(uuid.New(), startedAt)
		require.NoError(t, s.Close(startedAt.Add(3*time.Hour), 90000, session.OutcomeForceClosed))

		assert.Equal(t, session.OutcomeForceClosed, s.Outcome())
	})
}
