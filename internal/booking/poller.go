package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pfrederiksen/termin-watch/internal/logger"
)

// ErrMaxAttempts is returned when the attempt cap is reached without success
var ErrMaxAttempts = errors.New("maximum attempts reached")

// Runner performs one booking attempt
type Runner interface {
	Run(ctx context.Context) *Result
}

// MarkerStore persists the completion marker
type MarkerStore interface {
	Exists() (bool, error)
	Save(t time.Time) error
}

// Poller repeats attempts until one succeeds
type Poller struct {
	Attempt     Runner
	Marker      MarkerStore
	Delay       time.Duration // fixed wait after a failed attempt
	MaxAttempts int           // 0 means unlimited
	Clock       clockwork.Clock
}

// Run polls until an attempt succeeds, the marker is found, the attempt cap is
// reached or ctx is cancelled. A nil error means the marker is in place.
func (p *Poller) Run(ctx context.Context) error {
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	for n := 1; ; n++ {
		booked, err := p.Marker.Exists()
		if err != nil {
			logger.Error("Checking marker failed", nil, err)
			return err
		}
		if booked {
			logger.Info("Appointment already booked, not checking", nil)
			return nil
		}

		logger.Info("Starting attempt", logger.Fields{"attempt_number": n})
		logger.SetGauge("poller.attempt_number", float64(n))

		res := p.Attempt.Run(ctx)
		if res.Success {
			if err := p.Marker.Save(clock.Now()); err != nil {
				logger.Error("Writing marker failed", nil, err)
				return fmt.Errorf("saving marker: %w", err)
			}
			logger.IncrCounter("poller.booked")
			logger.Info("Marker written, stopping", nil)
			return nil
		}

		if p.MaxAttempts > 0 && n >= p.MaxAttempts {
			return fmt.Errorf("%w (%d)", ErrMaxAttempts, n)
		}

		logger.Debug("Waiting before next attempt", logger.Fields{"delay": p.Delay.String()})
		logger.IncrCounter("poller.waits")

		waitStart := clock.Now()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(p.Delay):
		}
		logger.RecordTiming("poller.wait", clock.Since(waitStart))
	}
}
