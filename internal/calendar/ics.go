// Package calendar renders a found appointment slot as an iCalendar file.
package calendar

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pfrederiksen/termin-watch/internal/slot"
)

// GenerateICS generates an iCalendar (.ics) document for a slot.
// The event covers the whole offered day in loc (UTC if nil) so it can act as
// a reminder to book.
func GenerateICS(s *slot.Slot, loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.UTC
	}
	day := s.Time().In(loc)

	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//termin-watch//termin-watch//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	ics.WriteString("BEGIN:VEVENT\r\n")

	ics.WriteString(fmt.Sprintf("UID:%d@termin-watch\r\n", s.Timestamp))
	ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", formatICSTime(now)))

	ics.WriteString(fmt.Sprintf("DTSTART;VALUE=DATE:%s\r\n", day.Format("20060102")))
	ics.WriteString(fmt.Sprintf("DTEND;VALUE=DATE:%s\r\n", day.AddDate(0, 0, 1).Format("20060102")))

	ics.WriteString(fmt.Sprintf("SUMMARY:%s\r\n", escapeICS("Bürgeramt appointment available")))

	description := fmt.Sprintf("Appointment slot offered on %s\nBook at: %s", day.Format(slot.DateLayout), s.Link)
	ics.WriteString(fmt.Sprintf("DESCRIPTION:%s\r\n", escapeICS(description)))

	ics.WriteString(fmt.Sprintf("URL:%s\r\n", s.Link))
	ics.WriteString("STATUS:TENTATIVE\r\n")
	ics.WriteString("SEQUENCE:0\r\n")
	ics.WriteString("TRANSP:TRANSPARENT\r\n")

	ics.WriteString("END:VEVENT\r\n")
	ics.WriteString("END:VCALENDAR\r\n")

	return ics.String()
}

// WriteICS writes the iCalendar document for s to path
func WriteICS(path string, s *slot.Slot, loc *time.Location, now time.Time) error {
	// owner read/write only
	if err := os.WriteFile(path, []byte(GenerateICS(s, loc, now)), 0600); err != nil {
		return fmt.Errorf("writing calendar file: %w", err)
	}
	return nil
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
