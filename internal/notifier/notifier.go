package notifier

import (
	"context"
	"fmt"

	"github.com/pfrederiksen/termin-watch/internal/slot"
)

// Notifier defines the interface for announcing a found appointment
type Notifier interface {
	// Notify announces that s is available
	Notify(ctx context.Context, s *slot.Slot) error
}

// Title is the notification headline for s
func Title(s *slot.Slot) string {
	return fmt.Sprintf("Appointment found for %s", s.DateString())
}

// formatMessage renders the notification body
func formatMessage(s *slot.Slot) string {
	return fmt.Sprintf("%s\n%s", Title(s), s.Link)
}
