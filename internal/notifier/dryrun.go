package notifier

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pfrederiksen/termin-watch/internal/slot"
)

// DryRunNotifier prints what would be sent without contacting any service
type DryRunNotifier struct {
	out io.Writer
}

// NewDryRunNotifier creates a new dry-run notifier writing to out (stdout if nil)
func NewDryRunNotifier(out io.Writer) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out}
}

// Notify prints the message
func (n *DryRunNotifier) Notify(ctx context.Context, s *slot.Slot) error {
	_, err := fmt.Fprintf(n.out, "--- Notification ---\n%s\n\n", formatMessage(s))
	return err
}
