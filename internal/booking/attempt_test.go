package booking

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jonboulle/clockwork"

	"github.com/pfrederiksen/termin-watch/internal/browser/browsertest"
	"github.com/pfrederiksen/termin-watch/internal/logger"
	"github.com/pfrederiksen/termin-watch/internal/scraper"
	"github.com/pfrederiksen/termin-watch/internal/slot"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("../../testdata/fixtures/" + name)
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return string(data)
}

type fakeNotifier struct {
	mu    sync.Mutex
	slots []*slot.Slot
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, s *slot.Slot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slots = append(f.slots, s)
	return f.err
}

type fakeOpener struct {
	urls []string
}

func (f *fakeOpener) Open(ctx context.Context, url string) error {
	f.urls = append(f.urls, url)
	return nil
}

// summerWindow excludes the first fixture slot (2023-06-12 22:00 UTC)
var summerWindow = slot.Window{Min: 1686700000, Max: 1693526400}

func newAttempt(page *browsertest.Page, opts AttemptOptions) (*Attempt, *fakeNotifier, *fakeOpener) {
	n := &fakeNotifier{}
	o := &fakeOpener{}
	return &Attempt{
		Options: opts,
		Browser: &browsertest.Launcher{Pages: []*browsertest.Page{page}},
		Scanner: scraper.New(scraper.Options{
			EntryURL: "https://service.berlin.de/terminvereinbarung/termin/tag.php?termin=1",
			BaseURL:  "https://service.berlin.de",
			Timeout:  time.Second,
		}),
		Notifier: n,
		Opener:   o,
		Clock:    clockwork.NewFakeClockAt(time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC)),
		Metrics:  logger.NewMetrics(),
	}, n, o
}

func TestAttempt_Match(t *testing.T) {
	page := &browsertest.Page{Documents: []string{loadFixture(t, "calendar_bookable.html")}}
	a, n, o := newAttempt(page, AttemptOptions{Window: summerWindow})

	res := a.Run(context.Background())

	if res.Err != nil {
		t.Fatalf("Run() error = %v", res.Err)
	}
	if !res.Success {
		t.Error("Success = false, want true")
	}
	if res.Match == nil || res.Match.Timestamp != 1687000000 {
		t.Fatalf("Match = %+v, want slot 1687000000", res.Match)
	}
	if len(res.Candidates) != 3 {
		t.Errorf("Candidates = %d, want 3", len(res.Candidates))
	}
	if len(n.slots) != 1 || n.slots[0].Timestamp != 1687000000 {
		t.Errorf("notified %v, want one notification for 1687000000", n.slots)
	}
	if len(o.urls) != 0 {
		t.Errorf("opened %v with OpenAppointment disabled", o.urls)
	}
	if !page.Closed {
		t.Error("browser page not closed")
	}
	if got := a.Metrics.Counter("attempts.matched"); got != 1 {
		t.Errorf("attempts.matched = %d, want 1", got)
	}
}

func TestAttempt_ExampleLink(t *testing.T) {
	html := `<div class="span7 column-content"><table><tr>` +
		`<td class="buchbar"><a href="/terminvereinbarung/termin/day/1687000000/122210/">17</a></td>` +
		`</tr></table></div>`
	page := &browsertest.Page{Documents: []string{html}}
	a, n, _ := newAttempt(page, AttemptOptions{Window: slot.Window{Min: 1685577600, Max: 1693526400}})

	res := a.Run(context.Background())

	if !res.Success || res.Match == nil || res.Match.Timestamp != 1687000000 {
		t.Fatalf("Run() = %+v, want match on 1687000000", res)
	}
	if len(n.slots) != 1 {
		t.Errorf("notifications = %d, want 1", len(n.slots))
	}
}

func TestAttempt_ContinueForever(t *testing.T) {
	page := &browsertest.Page{Documents: []string{loadFixture(t, "calendar_bookable.html")}}
	a, n, _ := newAttempt(page, AttemptOptions{
		Window:          slot.Window{Min: 1685577600, Max: 1693526400},
		ContinueForever: true,
	})

	res := a.Run(context.Background())

	if res.Err != nil {
		t.Fatalf("Run() error = %v", res.Err)
	}
	if res.Success {
		t.Error("Success = true with ContinueForever, want false")
	}
	if res.Match == nil || res.Match.Index != 0 {
		t.Errorf("Match = %+v, want first cell", res.Match)
	}
	// scanning still stops at the first match
	if len(n.slots) != 1 {
		t.Errorf("notifications = %d, want 1", len(n.slots))
	}
}

func TestAttempt_NoMatch(t *testing.T) {
	page := &browsertest.Page{Documents: []string{loadFixture(t, "calendar_bookable.html")}}
	a, n, _ := newAttempt(page, AttemptOptions{Window: slot.Window{Min: 1704067200, Max: 1706745600}})

	res := a.Run(context.Background())

	if res.Err != nil {
		t.Fatalf("Run() error = %v", res.Err)
	}
	if res.Success || res.Match != nil {
		t.Errorf("Run() = %+v, want no match", res)
	}
	if len(n.slots) != 0 {
		t.Errorf("notifications = %d, want 0", len(n.slots))
	}
	if !page.Closed {
		t.Error("browser page not closed")
	}
}

func TestAttempt_BoundaryExcluded(t *testing.T) {
	html := `<div class="span7 column-content"><table><tr>` +
		`<td class="buchbar"><a href="/termin/time/1685577600/">1</a></td>` +
		`<td class="buchbar"><a href="/termin/time/1693526400/">1</a></td>` +
		`</tr></table></div>`
	page := &browsertest.Page{Documents: []string{html}}
	a, _, _ := newAttempt(page, AttemptOptions{Window: slot.Window{Min: 1685577600, Max: 1693526400}})

	res := a.Run(context.Background())

	if res.Match != nil {
		t.Errorf("Match = %+v, boundary timestamps must be excluded", res.Match)
	}
}

func TestAttempt_NextMonth(t *testing.T) {
	page := &browsertest.Page{Documents: []string{
		loadFixture(t, "calendar_empty.html"),
		loadFixture(t, "calendar_bookable.html"),
	}}
	a, _, _ := newAttempt(page, AttemptOptions{Window: summerWindow})

	res := a.Run(context.Background())

	if !res.AdvancedMonth {
		t.Error("AdvancedMonth = false, want true")
	}
	if len(page.Clicks) != 1 {
		t.Errorf("clicks = %d, want 1", len(page.Clicks))
	}
	if !res.Success {
		t.Error("Success = false, want true")
	}
}

func TestAttempt_Errors(t *testing.T) {
	tests := []struct {
		name     string
		launcher *browsertest.Launcher
		page     *browsertest.Page
	}{
		{
			name:     "launch fails",
			launcher: &browsertest.Launcher{LaunchErr: errors.New("chrome not found")},
		},
		{
			name: "navigation fails",
			page: &browsertest.Page{NavigateErr: errors.New("net::ERR_CONNECTION_REFUSED")},
		},
		{
			name: "selector timeout",
			page: &browsertest.Page{Missing: map[string]bool{scraper.ContentSelector: true}},
		},
		{
			name: "cell without link",
			page: &browsertest.Page{Documents: []string{loadFixture(t, "calendar_broken.html")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, n, _ := newAttempt(tt.page, AttemptOptions{Window: summerWindow})
			if tt.launcher != nil {
				a.Browser = tt.launcher
			}

			res := a.Run(context.Background())

			if res.Err == nil {
				t.Fatal("Run() expected error")
			}
			if res.Success {
				t.Error("Success = true on error")
			}
			if len(n.slots) != 0 {
				t.Errorf("notifications = %d, want 0", len(n.slots))
			}
			if tt.page != nil && !tt.page.Closed {
				t.Error("browser page not closed after error")
			}
			if got := a.Metrics.Counter("attempts.failed"); got != 1 {
				t.Errorf("attempts.failed = %d, want 1", got)
			}
		})
	}
}

func TestAttempt_AnnounceSideEffects(t *testing.T) {
	icsPath := filepath.Join(t.TempDir(), "appointment.ics")
	page := &browsertest.Page{Documents: []string{loadFixture(t, "calendar_bookable.html")}}
	a, n, o := newAttempt(page, AttemptOptions{
		Window:          summerWindow,
		OpenAppointment: true,
		ICSFile:         icsPath,
	})
	n.err = errors.New("notification center unavailable")

	res := a.Run(context.Background())

	if res.Err != nil || !res.Success {
		t.Fatalf("Run() = %+v; notifier failure must not fail the attempt", res)
	}
	want := "https://service.berlin.de/terminvereinbarung/termin/time/1687000000/"
	if len(o.urls) != 1 || o.urls[0] != want {
		t.Errorf("opened %v, want [%s]", o.urls, want)
	}

	data, err := os.ReadFile(icsPath)
	if err != nil {
		t.Fatalf("reading ICS: %v", err)
	}
	if !strings.Contains(string(data), "DTSTART;VALUE=DATE:20230617") {
		t.Errorf("ICS content missing slot day:\n%s", data)
	}
}

func TestAttempt_CalendarFileUsesLocalDay(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("loading Europe/Berlin: %v", err)
	}
	icsPath := filepath.Join(t.TempDir(), "appointment.ics")
	page := &browsertest.Page{Documents: []string{loadFixture(t, "calendar_bookable.html")}}
	// only the cell labelled 13, midnight Berlin time
	a, _, _ := newAttempt(page, AttemptOptions{
		Window:   slot.Window{Min: 1686600000, Max: 1686700000},
		ICSFile:  icsPath,
		Location: berlin,
	})

	res := a.Run(context.Background())
	if res.Match == nil || res.Match.Timestamp != 1686607200 {
		t.Fatalf("Match = %+v, want slot 1686607200", res.Match)
	}

	data, err := os.ReadFile(icsPath)
	if err != nil {
		t.Fatalf("reading ICS: %v", err)
	}
	if !strings.Contains(string(data), "DTSTART;VALUE=DATE:20230613") {
		t.Errorf("ICS does not start on the local day 2023-06-13:\n%s", data)
	}
}
