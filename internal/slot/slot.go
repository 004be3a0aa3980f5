package slot

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DateLayout is the format used when a slot's day is shown to the user.
const DateLayout = "2006-01-02"

// ErrNoTimestamp is returned when a link carries no numeric component.
var ErrNoTimestamp = errors.New("no timestamp in link")

var digitsPattern = regexp.MustCompile(`\d+`)

// Slot represents a bookable day found on the calendar
type Slot struct {
	Index     int    `json:"index"`     // position among bookable cells, DOM order
	Href      string `json:"href"`      // link as found on the page
	Link      string `json:"link"`      // absolute link
	Timestamp int64  `json:"timestamp"` // Unix seconds
}

// New creates a Slot from a cell link, extracting its timestamp.
// baseURL is prepended to relative links.
func New(index int, href, baseURL string) (*Slot, error) {
	ts, err := ExtractTimestamp(href)
	if err != nil {
		return nil, err
	}
	return &Slot{
		Index:     index,
		Href:      href,
		Link:      AbsoluteLink(baseURL, href),
		Timestamp: ts,
	}, nil
}

// ExtractTimestamp returns the first run of digits in href as Unix seconds.
func ExtractTimestamp(href string) (int64, error) {
	match := digitsPattern.FindString(href)
	if match == "" {
		return 0, fmt.Errorf("%w: %q", ErrNoTimestamp, href)
	}
	ts, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing timestamp %q: %w", match, err)
	}
	return ts, nil
}

// AbsoluteLink joins baseURL and href unless href is already absolute.
func AbsoluteLink(baseURL, href string) string {
	if absolutePattern.MatchString(href) {
		return href
	}
	return baseURL + href
}

var absolutePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// Time returns the slot's timestamp as a UTC time
func (s *Slot) Time() time.Time {
	return time.Unix(s.Timestamp, 0).UTC()
}

// DateString returns the slot's day formatted as YYYY-MM-DD (UTC)
func (s *Slot) DateString() string {
	return s.Time().Format(DateLayout)
}
