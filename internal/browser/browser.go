// Package browser provides the page capabilities termin-watch needs from an
// automated browser: navigation, waiting for selectors, reading the page HTML,
// clicking and taking screenshots.
//
// Chrome launches a fresh headless (or headed, in debug mode) Chrome instance
// per session through chromedp. Image, stylesheet and font requests are blocked.
package browser

import (
	"context"
	"time"
)

// Page is a single browser tab
type Page interface {
	// Navigate loads url and waits for the document to load
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until selector matches a visible element or timeout expires
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// HTML returns the current document's outer HTML
	HTML(ctx context.Context) (string, error)
	// Click clicks the first element matching selector
	Click(ctx context.Context, selector string) error
	// Screenshot writes a full-page PNG to path
	Screenshot(ctx context.Context, path string) error
	// Close ends the session and releases the browser
	Close() error
}

// Launcher opens isolated browser sessions
type Launcher interface {
	Launch(ctx context.Context) (Page, error)
}
