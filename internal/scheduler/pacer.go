// Copyright 2025 James Ross
package scheduler

import (
	"context"
	"time"

	"github.com/flyingrobots/emu-plugin-host/internal/obs"
	"go.uber.org/zap"
)

// Pacer runs the manager's single pacing goroutine: sleep a constant
// interval, then perform one driver pass over whatever records the caller
// currently holds. There is deliberately no adaptive rate or backpressure
// — a slow plugin's main loop simply serializes the pacing goroutine
// behind it.
type Pacer struct {
	interval time.Duration
	driver   *Driver
	log      *zap.Logger
}

// NewPacer builds a Pacer. interval is config.Config.PacingInterval,
// nominally four frame times at the console's refresh rate.
func NewPacer(interval time.Duration, driver *Driver, log *zap.Logger) *Pacer {
	return &Pacer{interval: interval, driver: driver, log: log}
}

// Run blocks, ticking at the configured interval until ctx is cancelled.
// records is called fresh on every tick so the caller can return a
// lock-protected snapshot rather than handing the pacer a live slice.
func (p *Pacer) Run(ctx context.Context, records func() []*Record, inKeySet func(string) bool, onTeardown func(*Record)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			obs.PacerTicks.Inc()
			p.driver.Pace(records(), inKeySet, onTeardown)
		}
	}
}
