// Package browsertest provides an in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pfrederiksen/termin-watch/internal/browser"
)

// Page serves a sequence of HTML documents. Each successful Click on the
// next-month link moves to the following document.
type Page struct {
	mu sync.Mutex

	// Documents returned by HTML, indexed by the number of clicks so far
	Documents []string
	// Missing selectors make WaitVisible fail as if the wait timed out
	Missing map[string]bool
	// NavigateErr is returned by Navigate
	NavigateErr error

	Navigated   []string
	Clicks      []string
	Screenshots []string
	Closed      bool
}

var _ browser.Page = (*Page)(nil)

// Navigate records url
func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Navigated = append(p.Navigated, url)
	return p.NavigateErr
}

// WaitVisible fails for selectors listed in Missing
func (p *Page) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Missing[selector] {
		return fmt.Errorf("waiting for %q: %w", selector, context.DeadlineExceeded)
	}
	return nil
}

// HTML returns the document for the current click count
func (p *Page) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := len(p.Clicks)
	if i >= len(p.Documents) {
		return "", fmt.Errorf("no document after %d clicks", i)
	}
	return p.Documents[i], nil
}

// Click records selector
func (p *Page) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Missing[selector] {
		return fmt.Errorf("clicking %q: not found", selector)
	}
	p.Clicks = append(p.Clicks, selector)
	return nil
}

// Screenshot records path without writing anything
func (p *Page) Screenshot(ctx context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Screenshots = append(p.Screenshots, path)
	return nil
}

// Close marks the page closed
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

// Launcher hands out pages from Pages in order
type Launcher struct {
	mu sync.Mutex

	Pages     []*Page
	LaunchErr error
	Launches  int
}

// Launch returns the next page
func (l *Launcher) Launch(ctx context.Context) (browser.Page, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.LaunchErr != nil {
		return nil, l.LaunchErr
	}
	if l.Launches >= len(l.Pages) {
		return nil, fmt.Errorf("no page for launch %d", l.Launches+1)
	}
	p := l.Pages[l.Launches]
	l.Launches++
	return p, nil
}
