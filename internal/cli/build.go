package cli

import (
	"fmt"
	"io"

	"github.com/pfrederiksen/termin-watch/internal/booking"
	"github.com/pfrederiksen/termin-watch/internal/browser"
	"github.com/pfrederiksen/termin-watch/internal/config"
	"github.com/pfrederiksen/termin-watch/internal/logger"
	"github.com/pfrederiksen/termin-watch/internal/notifier"
	"github.com/pfrederiksen/termin-watch/internal/opener"
	"github.com/pfrederiksen/termin-watch/internal/scraper"
)

// newAttempt wires a booking attempt from cfg. Dry-run notifications go to out.
func newAttempt(cfg config.Config, out io.Writer) (*booking.Attempt, error) {
	window, err := cfg.Window()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	n, err := buildNotifier(cfg, out)
	if err != nil {
		return nil, err
	}

	return &booking.Attempt{
		Options: booking.AttemptOptions{
			Window:          window,
			ContinueForever: cfg.ContinueForever,
			OpenAppointment: cfg.Open.Enabled,
			ICSFile:         cfg.ICSFile,
			Location:        loc,
		},
		Browser:  browser.NewChrome(browserOptions(cfg)),
		Scanner:  scraper.New(scraperOptions(cfg)),
		Notifier: n,
		Opener:   opener.New(cfg.Open.App, cfg.Open.Args),
		Metrics:  logger.DefaultMetrics(),
	}, nil
}

func browserOptions(cfg config.Config) browser.Options {
	opts := browser.Options{
		Headless:  !cfg.Browser.Debug,
		UserAgent: cfg.Browser.UserAgent,
		ExecPath:  cfg.Browser.ExecPath,
	}
	if cfg.Browser.Debug {
		opts.SlowMo = cfg.Browser.SlowMo
	}
	return opts
}

func scraperOptions(cfg config.Config) scraper.Options {
	opts := scraper.Options{
		EntryURL: cfg.EntryURL,
		BaseURL:  cfg.BaseURL,
		Timeout:  cfg.Browser.Timeout,
	}
	if cfg.Screenshot.Enabled {
		opts.ScreenshotBefore = cfg.Screenshot.Before
		opts.ScreenshotAfter = cfg.Screenshot.After
	}
	return opts
}

// buildNotifier returns the configured channels. Dry run replaces all of them.
func buildNotifier(cfg config.Config, out io.Writer) (notifier.Notifier, error) {
	if cfg.Notify.DryRun {
		return notifier.NewDryRunNotifier(out), nil
	}

	var multi notifier.Multi

	if cfg.Notify.Desktop {
		multi = append(multi, notifier.NewDesktopNotifier(cfg.Notify.Sticky))
	}

	if cfg.Notify.Telegram.Enabled {
		tg, err := notifier.NewTelegramNotifier(cfg.Notify.Telegram.BotToken, cfg.Notify.Telegram.ChatID)
		if err != nil {
			return nil, fmt.Errorf("creating Telegram notifier: %w", err)
		}
		multi = append(multi, tg)
	}

	if cfg.Notify.Twitter.Enabled {
		loc, err := cfg.Location()
		if err != nil {
			return nil, err
		}
		tw := cfg.Notify.Twitter
		tn, err := notifier.NewTwitterNotifier(tw.APIKey, tw.APISecret, tw.AccessToken, tw.AccessSecret, loc)
		if err != nil {
			return nil, fmt.Errorf("creating Twitter notifier: %w", err)
		}
		multi = append(multi, tn)
	}

	return multi, nil
}
