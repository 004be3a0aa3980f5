package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/termin-watch/internal/booking"
	"github.com/pfrederiksen/termin-watch/internal/config"
	"github.com/pfrederiksen/termin-watch/internal/logger"
	"github.com/pfrederiksen/termin-watch/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
	ExitNoSlots = 2
)

// Version is reported by --version
var Version = "dev"

// rootFlags holds flag values. Run flags only override the configuration when
// set explicitly.
type rootFlags struct {
	configPath string
	verbose    bool

	debug           bool
	continueForever bool
	open            bool
	dryRun          bool
	screenshots     bool
	minDate         string
	maxDate         string
	markerFile      string
	icsFile         string
	retryDelay      time.Duration
	maxAttempts     int
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *rootFlags) {
	f := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "termin-watch",
		Short: "Watch service.berlin.de for a free appointment",
		Long: `Watches the service.berlin.de booking calendar for a bookable day inside a
date window and alerts when one appears.

Checks repeat every retry delay until a match is found. A marker file is then
written and later runs exit without checking.`,
		Version:      Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, f)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "config.yaml", "Path to YAML configuration file")
	pf.BoolVar(&f.verbose, "verbose", false, "Enable verbose logging")
	pf.BoolVar(&f.debug, "debug", false, "Show the browser window and slow it down")
	pf.BoolVar(&f.continueForever, "continue-forever", false, "Keep checking after a match")
	pf.BoolVar(&f.open, "open", false, "Open a matched appointment in the configured browser")
	pf.BoolVar(&f.dryRun, "dry-run", false, "Print notifications instead of sending them")
	pf.BoolVar(&f.screenshots, "screenshots", false, "Save screenshots of the calendar pages")
	pf.StringVar(&f.minDate, "min-date", "", "Earliest acceptable day, exclusive (YYYY-MM-DD)")
	pf.StringVar(&f.maxDate, "max-date", "", "Latest acceptable day, exclusive (YYYY-MM-DD)")
	pf.StringVar(&f.markerFile, "marker-file", "", "Completion marker path")
	pf.StringVar(&f.icsFile, "ics-file", "", "Write a matched appointment to this iCalendar file")
	pf.DurationVar(&f.retryDelay, "retry-delay", 0, "Wait between attempts")
	pf.IntVar(&f.maxAttempts, "max-attempts", 0, "Stop after this many attempts (0 = unlimited)")

	cmd.AddCommand(newCheckCmd(f))
	cmd.AddCommand(newStatusCmd(f))

	return cmd, f
}

// load reads the configuration and applies explicitly set flags on top
func (f *rootFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}

	f.apply(cmd, &cfg)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (f *rootFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("debug") {
		cfg.Browser.Debug = f.debug
	}
	if changed("continue-forever") {
		cfg.ContinueForever = f.continueForever
	}
	if changed("open") {
		cfg.Open.Enabled = f.open
	}
	if changed("dry-run") {
		cfg.Notify.DryRun = f.dryRun
	}
	if changed("screenshots") {
		cfg.Screenshot.Enabled = f.screenshots
	}
	if changed("min-date") {
		cfg.MinDate = f.minDate
	}
	if changed("max-date") {
		cfg.MaxDate = f.maxDate
	}
	if changed("marker-file") {
		cfg.MarkerFile = f.markerFile
	}
	if changed("ics-file") {
		cfg.ICSFile = f.icsFile
	}
	if changed("retry-delay") {
		cfg.RetryDelay = f.retryDelay
	}
	if changed("max-attempts") {
		cfg.MaxAttempts = f.maxAttempts
	}
	if f.verbose {
		cfg.Log.Level = "debug"
	}
}

// setupLogger installs the default logger described by cfg
func setupLogger(cfg config.Config, w io.Writer) *logger.Logger {
	level := logger.ParseLevel(cfg.Log.Level)

	var l *logger.Logger
	if cfg.Log.Format == "json" {
		l = logger.New(level, w)
	} else {
		l = logger.NewConsole(level, w)
	}
	logger.SetDefault(l)
	return l
}

// runWatch is the polling loop
func runWatch(cmd *cobra.Command, f *rootFlags) error {
	cfg, err := f.load(cmd)
	if err != nil {
		return err
	}
	setupLogger(cfg, cmd.ErrOrStderr())

	marker, err := storage.New(cfg.MarkerFile)
	if err != nil {
		return fmt.Errorf("initializing marker: %w", err)
	}

	attempt, err := newAttempt(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	logger.Info("Watching for appointments", logger.Fields{
		"window":           attempt.Options.Window.String(),
		"marker":           marker.Path(),
		"retry_delay":      cfg.RetryDelay.String(),
		"continue_forever": cfg.ContinueForever,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller := &booking.Poller{
		Attempt:     attempt,
		Marker:      marker,
		Delay:       cfg.RetryDelay,
		MaxAttempts: cfg.MaxAttempts,
	}
	err = poller.Run(ctx)

	logger.Info("Watch finished", logger.Fields{"metrics": logger.GetMetricsSnapshot()})

	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("Interrupted", nil)
		return nil
	case err != nil:
		logger.Error("Watch stopped", nil, err)
	}
	return err
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
