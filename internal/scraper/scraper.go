package scraper

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/termin-watch/internal/slot"
)

const (
	ContentSelector   = "div.span7.column-content"
	BookableSelector  = "td.buchbar"
	NextMonthSelector = "th.next > a"
)

// ErrNoLink is returned when a bookable cell has no usable link
var ErrNoLink = errors.New("bookable cell has no link")

// ParseCalendar extracts bookable slots, in document order, from calendar HTML.
// Relative links are resolved against baseURL.
func ParseCalendar(r io.Reader, baseURL string) ([]*slot.Slot, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	slots := make([]*slot.Slot, 0)
	var parseErr error

	doc.Find(BookableSelector).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		href, ok := sel.Find("a").First().Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			parseErr = fmt.Errorf("cell %d: %w", i, ErrNoLink)
			return false
		}

		s, err := slot.New(i, href, baseURL)
		if err != nil {
			parseErr = fmt.Errorf("cell %d: %w", i, err)
			return false
		}
		slots = append(slots, s)
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return slots, nil
}
