package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/pfrederiksen/termin-watch/internal/logger"
)

// Options configures a Chrome session
type Options struct {
	Headless  bool
	SlowMo    time.Duration // pause before each page action
	UserAgent string
	ExecPath  string
}

// Chrome launches Chrome sessions through chromedp
type Chrome struct {
	opts Options
}

// NewChrome creates a Chrome launcher
func NewChrome(opts Options) *Chrome {
	return &Chrome{opts: opts}
}

// blockedResourceTypes are aborted to reduce page load time
var blockedResourceTypes = map[network.ResourceType]bool{
	network.ResourceTypeImage:      true,
	network.ResourceTypeStylesheet: true,
	network.ResourceTypeFont:       true,
}

// IsBlocked reports whether requests of type rt are aborted
func IsBlocked(rt network.ResourceType) bool {
	return blockedResourceTypes[rt]
}

func (c *Chrome) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.opts.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("window-position", "0,0"),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.Flag("ignore-certificate-errors-spki-list", true),
		chromedp.Flag("incognito", true),
	)
	if c.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.opts.UserAgent))
	}
	if c.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.opts.ExecPath))
	}
	return opts
}

// Launch starts a new browser and opens a tab with request interception enabled
func (c *Chrome) Launch(ctx context.Context) (Page, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, c.allocatorOptions()...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	page := &ChromePage{
		ctx:    tabCtx,
		slowMo: c.opts.SlowMo,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		paused, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go page.handlePaused(paused)
	})

	// The first Run starts the browser; it must use the tab context itself.
	if err := chromedp.Run(tabCtx, fetch.Enable()); err != nil {
		page.cancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	return page, nil
}

// ChromePage is a Page backed by a chromedp tab
type ChromePage struct {
	ctx    context.Context
	slowMo time.Duration
	cancel context.CancelFunc
}

func (p *ChromePage) handlePaused(ev *fetch.EventRequestPaused) {
	c := chromedp.FromContext(p.ctx)
	if c == nil || c.Target == nil {
		return
	}
	execCtx := cdp.WithExecutor(p.ctx, c.Target)

	var err error
	if IsBlocked(ev.ResourceType) {
		err = fetch.FailRequest(ev.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
	} else {
		err = fetch.ContinueRequest(ev.RequestID).Do(execCtx)
	}
	if err != nil && p.ctx.Err() == nil {
		logger.Debug("Request interception failed", logger.Fields{
			"url":  ev.Request.URL,
			"type": ev.ResourceType.String(),
		})
	}
}

// run executes actions on the tab, bounded by timeout (if positive) and by ctx
func (p *ChromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(p.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(p.ctx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if p.slowMo > 0 {
		actions = append([]chromedp.Action{chromedp.Sleep(p.slowMo)}, actions...)
	}

	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url
func (p *ChromePage) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, 0, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

// WaitVisible waits for selector to become visible
func (p *ChromePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := p.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("waiting for %q: %w", selector, err)
	}
	return nil
}

// HTML returns the document's outer HTML
func (p *ChromePage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading page HTML: %w", err)
	}
	return html, nil
}

// Click clicks the first element matching selector
func (p *ChromePage) Click(ctx context.Context, selector string) error {
	if err := p.run(ctx, 0, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("clicking %q: %w", selector, err)
	}
	return nil
}

// Screenshot writes a full-page screenshot to path
func (p *ChromePage) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := p.run(ctx, 0, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return fmt.Errorf("capturing screenshot: %w", err)
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		return fmt.Errorf("writing screenshot: %w", err)
	}
	return nil
}

// Close shuts the browser down
func (p *ChromePage) Close() error {
	if err := chromedp.Cancel(p.ctx); err != nil && p.ctx.Err() == nil {
		p.cancel()
		return fmt.Errorf("closing browser: %w", err)
	}
	p.cancel()
	return nil
}
