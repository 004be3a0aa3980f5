package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/termin-watch/internal/browser"
	"github.com/pfrederiksen/termin-watch/internal/logger"
	"github.com/pfrederiksen/termin-watch/internal/slot"
)

// Options configures a calendar scan
type Options struct {
	EntryURL string
	BaseURL  string
	Timeout  time.Duration // bound for each selector wait

	// Screenshot paths; empty disables the corresponding capture
	ScreenshotBefore string
	ScreenshotAfter  string
}

// Result is what a scan found
type Result struct {
	Slots         []*slot.Slot `json:"slots"`
	AdvancedMonth bool         `json:"advanced_month"`
}

// Scraper scans the booking calendar through a browser page
type Scraper struct {
	opts Options
}

// New creates a Scraper
func New(opts Options) *Scraper {
	return &Scraper{opts: opts}
}

// Scan loads the entry page and collects bookable slots. If the current month has
// none it advances to the next month once and collects again.
func (s *Scraper) Scan(ctx context.Context, page browser.Page) (*Result, error) {
	if err := page.Navigate(ctx, s.opts.EntryURL); err != nil {
		return nil, err
	}

	if err := page.WaitVisible(ctx, ContentSelector, s.opts.Timeout); err != nil {
		return nil, err
	}

	s.screenshot(ctx, page, s.opts.ScreenshotBefore)

	slots, err := s.collect(ctx, page)
	if err != nil {
		return nil, err
	}

	result := &Result{Slots: slots}
	if len(slots) > 0 {
		return result, nil
	}

	logger.Info("Trying next month", nil)

	if err := page.WaitVisible(ctx, NextMonthSelector, s.opts.Timeout); err != nil {
		return nil, err
	}
	if err := page.Click(ctx, NextMonthSelector); err != nil {
		return nil, err
	}
	result.AdvancedMonth = true

	if err := page.WaitVisible(ctx, ContentSelector, s.opts.Timeout); err != nil {
		return nil, err
	}

	s.screenshot(ctx, page, s.opts.ScreenshotAfter)

	result.Slots, err = s.collect(ctx, page)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Scraper) collect(ctx context.Context, page browser.Page) ([]*slot.Slot, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	slots, err := ParseCalendar(strings.NewReader(html), s.opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("reading calendar: %w", err)
	}
	return slots, nil
}

func (s *Scraper) screenshot(ctx context.Context, page browser.Page, path string) {
	if path == "" {
		return
	}
	if err := page.Screenshot(ctx, path); err != nil {
		logger.Warn("Screenshot failed", logger.Fields{"path": path, "error": err.Error()})
	}
}
