package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/pfrederiksen/termin-watch/internal/booking"
	"github.com/pfrederiksen/termin-watch/internal/slot"
	"github.com/pfrederiksen/termin-watch/internal/storage"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Candidate is a bookable day as reported by check
type Candidate struct {
	*slot.Slot
	Date     string `json:"date"`
	InWindow bool   `json:"in_window"`
}

// CheckOutput contains the result of a single check
type CheckOutput struct {
	CheckedAt     time.Time    `json:"checked_at"`
	AttemptID     string       `json:"attempt_id"`
	Window        slot.Window  `json:"window"`
	AdvancedMonth bool         `json:"advanced_month"`
	Candidates    []*Candidate `json:"candidates"`
	Match         *slot.Slot   `json:"match"`
}

func newCheckOutput(res *booking.Result, window slot.Window, now time.Time) *CheckOutput {
	out := &CheckOutput{
		CheckedAt:     now.UTC(),
		AttemptID:     res.ID,
		Window:        window,
		AdvancedMonth: res.AdvancedMonth,
		Candidates:    make([]*Candidate, 0, len(res.Candidates)),
		Match:         res.Match,
	}
	for _, s := range res.Candidates {
		out.Candidates = append(out.Candidates, &Candidate{
			Slot:     s,
			Date:     s.DateString(),
			InWindow: window.ContainsSlot(s),
		})
	}
	return out
}

// WriteCheck writes the check result in the specified format
func WriteCheck(w io.Writer, out *CheckOutput, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, out)
	case FormatText:
		return writeCheckText(w, out)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeCheckText(w io.Writer, out *CheckOutput) error {
	if len(out.Candidates) == 0 {
		fmt.Fprintln(w, "No bookable days found.")
		return nil
	}

	if out.AdvancedMonth {
		fmt.Fprintln(w, "Current month fully booked, showing next month.")
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Date", "In window", "Link"})
	for _, c := range out.Candidates {
		mark := ""
		if c.InWindow {
			mark = "yes"
		}
		t.AppendRow(table.Row{c.Index, c.Date, mark, c.Link})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	if out.Match != nil {
		fmt.Fprintf(w, "\nMatch: %s %s\n", out.Match.DateString(), out.Match.Link)
	} else {
		fmt.Fprintf(w, "\nNo bookable day in window %s\n", out.Window)
	}
	return nil
}

// WriteStatus reports the completion marker
func WriteStatus(w io.Writer, marker *storage.Marker) error {
	booked, err := marker.Exists()
	if err != nil {
		return err
	}
	if !booked {
		fmt.Fprintf(w, "No appointment recorded (%s)\n", marker.Path())
		return nil
	}

	rec, err := marker.Load()
	if err != nil {
		// presence alone counts as booked
		fmt.Fprintf(w, "Appointment recorded (%s), time unreadable: %v\n", marker.Path(), err)
		return nil
	}
	fmt.Fprintf(w, "Appointment recorded at %s (%s)\n", rec.BookedAt().Format(time.RFC3339), marker.Path())
	return nil
}
