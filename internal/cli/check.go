package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/termin-watch/internal/booking"
)

func newCheckCmd(f *rootFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a single check and list bookable days",
		Long: `Runs one attempt and prints every bookable day found, marking those inside
the window. The completion marker is neither read nor written and no
notifications are sent.

Exit status is 0 when a day inside the window is bookable, 2 when none is and
1 on error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, f, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")

	return cmd
}

func runCheck(cmd *cobra.Command, f *rootFlags, rawFormat string) error {
	format := OutputFormat(strings.ToLower(rawFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", rawFormat)
	}

	cfg, err := f.load(cmd)
	if err != nil {
		return err
	}
	setupLogger(cfg, cmd.ErrOrStderr())

	attempt, err := newAttempt(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	attempt.Notifier = nil
	attempt.Options.OpenAppointment = false
	attempt.Options.ICSFile = ""
	attempt.Options.ContinueForever = false

	res := attempt.Run(cmd.Context())
	if res.Err != nil {
		return res.Err
	}

	out := newCheckOutput(res, attempt.Options.Window, time.Now())
	if err := WriteCheck(cmd.OutOrStdout(), out, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if code := checkExitCode(res); code != ExitSuccess {
		os.Exit(code)
	}
	return nil
}

func checkExitCode(res *booking.Result) int {
	switch {
	case res.Err != nil:
		return ExitError
	case res.Match == nil:
		return ExitNoSlots
	default:
		return ExitSuccess
	}
}
