package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/pfrederiksen/termin-watch/internal/browser"
	"github.com/pfrederiksen/termin-watch/internal/calendar"
	"github.com/pfrederiksen/termin-watch/internal/logger"
	"github.com/pfrederiksen/termin-watch/internal/notifier"
	"github.com/pfrederiksen/termin-watch/internal/opener"
	"github.com/pfrederiksen/termin-watch/internal/scraper"
	"github.com/pfrederiksen/termin-watch/internal/slot"
)

// Scanner reads bookable slots from a page
type Scanner interface {
	Scan(ctx context.Context, page browser.Page) (*scraper.Result, error)
}

// Result describes one booking attempt
type Result struct {
	ID            string        `json:"id"`
	Candidates    []*slot.Slot  `json:"candidates"`
	AdvancedMonth bool          `json:"advanced_month"`
	Match         *slot.Slot    `json:"match,omitempty"`
	Success       bool          `json:"success"`
	Err           error         `json:"-"`
	Duration      time.Duration `json:"duration"`
}

// AttemptOptions holds the behaviour flags of an attempt
type AttemptOptions struct {
	Window          slot.Window
	ContinueForever bool
	OpenAppointment bool
	ICSFile         string
	Location        *time.Location // local day of a slot in the calendar file
}

// Attempt performs a single booking check
type Attempt struct {
	Options  AttemptOptions
	Browser  browser.Launcher
	Scanner  Scanner
	Notifier notifier.Notifier
	Opener   opener.Opener // used when Options.OpenAppointment is set
	Clock    clockwork.Clock
	Metrics  *logger.Metrics
}

// Run performs the attempt. Every failure is logged and reported in the Result;
// the browser session is always closed.
func (a *Attempt) Run(ctx context.Context) *Result {
	clock := a.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	start := clock.Now()

	res := &Result{ID: uuid.NewString()}
	log := logger.Default().With(logger.Fields{"attempt": res.ID})

	res.Err = a.run(ctx, res, log, clock)
	res.Duration = clock.Since(start)

	if a.Metrics != nil {
		a.Metrics.IncrCounter("attempts")
		a.Metrics.RecordTiming("attempt.duration", res.Duration)
		a.Metrics.SetGauge("attempt.candidates", float64(len(res.Candidates)))
		switch {
		case res.Err != nil:
			a.Metrics.IncrCounter("attempts.failed")
		case res.Match != nil:
			a.Metrics.IncrCounter("attempts.matched")
		default:
			a.Metrics.IncrCounter("attempts.empty")
		}
	}

	if res.Err != nil {
		log.Error("Attempt failed", logger.Fields{"duration": res.Duration.String()}, res.Err)
	}
	return res
}

func (a *Attempt) run(ctx context.Context, res *Result, log *logger.Logger, clock clockwork.Clock) error {
	page, err := a.Browser.Launch(ctx)
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warn("Closing browser failed", logger.Fields{"error": err.Error()})
		}
	}()

	scan, err := a.Scanner.Scan(ctx, page)
	if err != nil {
		return fmt.Errorf("scanning calendar: %w", err)
	}
	res.Candidates = scan.Slots
	res.AdvancedMonth = scan.AdvancedMonth

	log.Debug("Calendar scanned", logger.Fields{
		"candidates":     len(scan.Slots),
		"advanced_month": scan.AdvancedMonth,
	})

	for _, s := range scan.Slots {
		if !a.Options.Window.ContainsSlot(s) {
			continue
		}

		res.Match = s
		log.Info("Appointment found", logger.Fields{
			"date":  s.DateString(),
			"index": s.Index,
			"link":  s.Link,
		})
		a.announce(ctx, s, log, clock)

		res.Success = !a.Options.ContinueForever
		// Scanning stops at the first match even with ContinueForever set.
		break
	}

	if res.Match == nil {
		log.Info("No appointment in window", logger.Fields{
			"candidates": len(scan.Slots),
			"window":     a.Options.Window.String(),
		})
	}
	return nil
}

// announce notifies and opens the slot. Failures here never fail the attempt.
func (a *Attempt) announce(ctx context.Context, s *slot.Slot, log *logger.Logger, clock clockwork.Clock) {
	if a.Notifier != nil {
		if err := a.Notifier.Notify(ctx, s); err != nil {
			log.Warn("Notification failed", logger.Fields{"error": err.Error()})
		}
	}

	if a.Options.OpenAppointment && a.Opener != nil {
		if err := a.Opener.Open(ctx, s.Link); err != nil {
			log.Warn("Opening appointment failed", logger.Fields{"error": err.Error()})
		}
	}

	if a.Options.ICSFile != "" {
		if err := calendar.WriteICS(a.Options.ICSFile, s, a.Options.Location, clock.Now()); err != nil {
			log.Warn("Writing calendar file failed", logger.Fields{"error": err.Error()})
		}
	}
}
