package worker

import (
	"context"
	"log/slog"
	"time"

	"voltshare/internal/usecase/commands"
)

// Monitor drives the deadline-based transitions: pending expiry, no-show
// marking, and overstay resolution. One pass per tick; the sweep itself
// yields between bookings so the monitor never monopolizes the pool.
type Monitor struct {
	sweeper  commands.SweepCommands
	interval time.Duration
	done     chan struct{}
}

func NewMonitor(sweeper commands.SweepCommands, interval time.Duration) *Monitor {
	return &Monitor{
		sweeper:  sweeper,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled. Sweep errors are logged, not fatal;
// the next tick retries.
func (m *Monitor) Run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("overstay monitor started", "interval", m.interval.String())
	for {
		select {
		case <-ctx.Done():
			slog.Info("overstay monitor stopped")
			return
		case <-ticker.C:
			if err := m.sweeper.Sweep(ctx); err != nil && ctx.Err() == nil {
				slog.Error("sweep pass failed", "error", err.Error())
			}
		}
	}
}

// Wait blocks until Run has returned, for orderly shutdown.
func (m *Monitor) Wait() {
	<-m.done
}
