package slot

import (
	"fmt"
	"time"
)

// Window is the range of acceptable appointment instants in Unix seconds.
// Both bounds are exclusive.
type Window struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// NewWindow builds a Window from two instants
func NewWindow(from, to time.Time) (Window, error) {
	w := Window{Min: from.Unix(), Max: to.Unix()}
	if w.Max <= w.Min {
		return Window{}, fmt.Errorf("window end %s is not after start %s",
			to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	return w, nil
}

// ParseWindow parses two YYYY-MM-DD dates at midnight in loc
func ParseWindow(from, to string, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation(DateLayout, from, loc)
	if err != nil {
		return Window{}, fmt.Errorf("parsing window start: %w", err)
	}
	end, err := time.ParseInLocation(DateLayout, to, loc)
	if err != nil {
		return Window{}, fmt.Errorf("parsing window end: %w", err)
	}
	return NewWindow(start, end)
}

// Contains reports whether ts lies strictly between Min and Max
func (w Window) Contains(ts int64) bool {
	return ts > w.Min && ts < w.Max
}

// ContainsSlot reports whether the slot's timestamp is inside the window
func (w Window) ContainsSlot(s *Slot) bool {
	return s != nil && w.Contains(s.Timestamp)
}

// String renders the window as an interval of UTC dates
func (w Window) String() string {
	return fmt.Sprintf("(%s, %s)",
		time.Unix(w.Min, 0).UTC().Format(time.RFC3339),
		time.Unix(w.Max, 0).UTC().Format(time.RFC3339))
}
