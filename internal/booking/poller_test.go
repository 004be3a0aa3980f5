package booking

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pfrederiksen/termin-watch/internal/logger"
	"github.com/pfrederiksen/termin-watch/internal/storage"
)

type scriptedRunner struct {
	mu      sync.Mutex
	results []bool // Success per call; the last value repeats
	calls   int
}

func (r *scriptedRunner) Run(ctx context.Context) *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.calls
	if i >= len(r.results) {
		i = len(r.results) - 1
	}
	r.calls++
	return &Result{Success: r.results[i]}
}

func (r *scriptedRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type memMarker struct {
	mu     sync.Mutex
	exists bool
	saves  []time.Time
	err    error
}

func (m *memMarker) Exists() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exists, m.err
}

func (m *memMarker) Save(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exists = true
	m.saves = append(m.saves, t)
	return nil
}

// runPoller runs p in the background, releasing the given number of delays
// on the fake clock, and returns its error.
func runPoller(t *testing.T, p *Poller, clock clockwork.FakeClock, waits int) error {
	t.Helper()

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	for i := 0; i < waits; i++ {
		clock.BlockUntil(1)
		clock.Advance(p.Delay)
	}

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not finish")
		return nil
	}
}

func TestPoller_MarkerPresent(t *testing.T) {
	runner := &scriptedRunner{results: []bool{true}}
	marker := &memMarker{exists: true}

	p := &Poller{Attempt: runner, Marker: marker, Delay: 30 * time.Second, Clock: clockwork.NewFakeClock()}
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if runner.Calls() != 0 {
		t.Errorf("attempts = %d, want 0 when marker exists", runner.Calls())
	}
	if len(marker.saves) != 0 {
		t.Error("marker rewritten")
	}
}

func TestPoller_RetriesUntilSuccess(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2023, 6, 1, 8, 0, 0, 0, time.UTC))
	runner := &scriptedRunner{results: []bool{false, false, true}}
	marker := &memMarker{}
	waits := logger.DefaultMetrics().Counter("poller.waits")
	booked := logger.DefaultMetrics().Counter("poller.booked")

	p := &Poller{Attempt: runner, Marker: marker, Delay: 30 * time.Second, Clock: clock}
	if err := runPoller(t, p, clock, 2); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if runner.Calls() != 3 {
		t.Errorf("attempts = %d, want 3", runner.Calls())
	}
	if len(marker.saves) != 1 {
		t.Fatalf("marker saves = %d, want 1", len(marker.saves))
	}
	// two fixed delays elapsed before the successful attempt
	want := time.Date(2023, 6, 1, 8, 1, 0, 0, time.UTC)
	if !marker.saves[0].Equal(want) {
		t.Errorf("marker time = %v, want %v", marker.saves[0], want)
	}

	if got := logger.DefaultMetrics().Counter("poller.waits") - waits; got != 2 {
		t.Errorf("poller.waits grew by %d, want 2", got)
	}
	if got := logger.DefaultMetrics().Counter("poller.booked") - booked; got != 1 {
		t.Errorf("poller.booked grew by %d, want 1", got)
	}
}

func TestPoller_MaxAttempts(t *testing.T) {
	clock := clockwork.NewFakeClock()
	runner := &scriptedRunner{results: []bool{false}}
	marker := &memMarker{}

	p := &Poller{Attempt: runner, Marker: marker, Delay: time.Second, MaxAttempts: 2, Clock: clock}
	err := runPoller(t, p, clock, 1)
	if !errors.Is(err, ErrMaxAttempts) {
		t.Fatalf("Run() error = %v, want ErrMaxAttempts", err)
	}
	if runner.Calls() != 2 {
		t.Errorf("attempts = %d, want 2", runner.Calls())
	}
	if marker.exists {
		t.Error("marker written without success")
	}
}

func TestPoller_Cancelled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	runner := &scriptedRunner{results: []bool{false}}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{Attempt: runner, Marker: &memMarker{}, Delay: time.Minute, Clock: clock}

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	clock.BlockUntil(1)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("poller did not stop after cancel")
	}
	if runner.Calls() != 1 {
		t.Errorf("attempts = %d, want 1", runner.Calls())
	}
}

func TestPoller_MarkerError(t *testing.T) {
	p := &Poller{
		Attempt: &scriptedRunner{results: []bool{true}},
		Marker:  &memMarker{err: errors.New("permission denied")},
		Delay:   time.Second,
	}
	if err := p.Run(context.Background()); err == nil {
		t.Error("Run() expected error")
	}
}

func TestPoller_FileMarkerGate(t *testing.T) {
	marker, err := storage.New(filepath.Join(t.TempDir(), "logFile.txt"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}

	runner := &scriptedRunner{results: []bool{true}}
	p := &Poller{Attempt: runner, Marker: marker, Delay: time.Second, Clock: clockwork.NewFakeClock()}

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if runner.Calls() != 1 {
		t.Fatalf("attempts = %d, want 1", runner.Calls())
	}

	// Writing the marker again changes nothing: presence alone gates attempts.
	if err := marker.Save(time.Now()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if runner.Calls() != 1 {
		t.Errorf("attempts = %d after marker written, want 1", runner.Calls())
	}
}
