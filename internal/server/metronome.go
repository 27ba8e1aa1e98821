package server

import (
	"context"
	"time"

	"github.com/orbitsync/orbitsync/internal/core/observability/log"
)

// Metronome drives the tick callback at a fixed cadence. The simulation
// always advances by the nominal interval regardless of wall-clock jitter,
// so game time stays deterministic; overruns are logged and absorbed by
// skipping the missed beats.
type Metronome struct {
	interval time.Duration
	logger   log.Log
}

func NewMetronome(interval time.Duration, logger log.Log) *Metronome {
	return &Metronome{interval: interval, logger: logger}
}

// Run calls fn once per beat until the context is cancelled or fn fails.
func (m *Metronome) Run(ctx context.Context, fn func(dt float64) error) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	dt := m.interval.Seconds()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := fn(dt); err != nil {
				return err
			}
			if elapsed := time.Since(start); elapsed > m.interval {
				m.logger.Warn("tick overran its interval",
					log.Duration("elapsed", elapsed),
					log.Duration("interval", m.interval),
				)
			}
		}
	}
}
