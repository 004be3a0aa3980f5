package notifier

import (
	"context"

	"github.com/gen2brain/beeep"

	"github.com/pfrederiksen/termin-watch/internal/slot"
)

// DesktopNotifier shows an OS notification
type DesktopNotifier struct {
	sticky bool
	send   func(title, message string) error
}

// NewDesktopNotifier creates a desktop notifier. Sticky notifications use an
// alert, which stays on screen and plays a sound where the OS supports it.
func NewDesktopNotifier(sticky bool) *DesktopNotifier {
	n := &DesktopNotifier{sticky: sticky}
	if sticky {
		n.send = func(title, message string) error { return beeep.Alert(title, message, "") }
	} else {
		n.send = func(title, message string) error { return beeep.Notify(title, message, "") }
	}
	return n
}

// Notify shows the notification
func (n *DesktopNotifier) Notify(ctx context.Context, s *slot.Slot) error {
	return n.send(Title(s), s.Link)
}
