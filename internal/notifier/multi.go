package notifier

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/termin-watch/internal/slot"
)

// Multi sends every notification to all of its notifiers concurrently
type Multi []Notifier

// Notify waits for all notifiers and returns the first error
func (m Multi) Notify(ctx context.Context, s *slot.Slot) error {
	var g errgroup.Group
	for _, n := range m {
		n := n
		g.Go(func() error {
			return n.Notify(ctx, s)
		})
	}
	return g.Wait()
}
