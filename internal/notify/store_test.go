package notify

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type fakeTimer struct {
	fn      func()
	delay   time.Duration
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fire runs the callback the way a real timer would, even after Stop lost the
// race with an already-started callback.
func (t *fakeTimer) fire() { t.fn() }

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{fn: f, delay: d}
	c.timers = append(c.timers, t)
	return t
}

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{}
	s := NewStore(WithAfterFunc(clock.AfterFunc))
	t.Cleanup(s.Close)
	return s, clock
}

func ids(list []Notification) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.ID)
	}
	return out
}

func TestShowKeepsInsertionOrder(t *testing.T) {
	s, _ := newTestStore(t)

	a := s.Show(KindInfo, "first")
	b := s.Error("second", WithTitle("Upload failed"))
	c := s.Success("third")

	got := s.List()
	if len(got) != 3 {
		t.Fatalf("Expected 3 notifications, got %d", len(got))
	}
	want := []string{a, b, c}
	for i, id := range ids(got) {
		if id != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], id)
		}
	}
	if got[1].Title != "Upload failed" || got[1].Kind != KindError {
		t.Errorf("Unexpected second notification: %+v", got[1])
	}
	if a == b || b == c || a == c {
		t.Errorf("Expected unique ids, got %s %s %s", a, b, c)
	}
}

func TestAutoExpireSchedulesDefaultTTL(t *testing.T) {
	s, clock := newTestStore(t)

	s.Info("hello")
	s.Warning("sticky", Sticky())

	if len(clock.timers) != 1 {
		t.Fatalf("Expected 1 scheduled expiry, got %d", len(clock.timers))
	}
	if clock.timers[0].delay != DefaultTTL {
		t.Errorf("Expected delay %s, got %s", DefaultTTL, clock.timers[0].delay)
	}

	clock.timers[0].fire()

	got := s.List()
	if len(got) != 1 || got[0].Message != "sticky" {
		t.Errorf("Expected only the sticky notification to remain, got %+v", got)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)

	id := s.Info("bye")
	if !s.Remove(id) {
		t.Fatalf("Expected first remove to succeed")
	}
	if s.Remove(id) {
		t.Errorf("Expected second remove to be a no-op")
	}
	if s.Remove("does-not-exist") {
		t.Errorf("Expected removing an unknown id to be a no-op")
	}
}

func TestManualRemoveDisarmsExpiry(t *testing.T) {
	s, clock := newTestStore(t)

	first := s.Error("x")
	s.Remove(first)

	if !clock.timers[0].stopped {
		t.Errorf("Expected the expiry timer to be stopped")
	}

	later := s.Info("added afterwards", Sticky())

	// A callback that was already running when Stop was called must not
	// touch anything else.
	clock.timers[0].fire()

	got := s.List()
	if len(got) != 1 || got[0].ID != later {
		t.Fatalf("Expected the later notification to survive, got %+v", got)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	s, clock := newTestStore(t)

	var seen [][]string
	unsubscribe := s.Subscribe(func(list []Notification) {
		seen = append(seen, ids(list))
	})

	a := s.Info("a")
	b := s.Info("b")
	s.Remove(a)
	clock.timers[1].fire()

	unsubscribe()
	unsubscribe()
	s.Info("unobserved")

	want := [][]string{{a}, {a, b}, {b}, {}}
	if len(seen) != len(want) {
		t.Fatalf("Expected %d snapshots, got %d: %v", len(want), len(seen), seen)
	}
	for i := range want {
		if len(seen[i]) != len(want[i]) {
			t.Fatalf("Snapshot %d: expected %v, got %v", i, want[i], seen[i])
		}
		for j := range want[i] {
			if seen[i][j] != want[i][j] {
				t.Errorf("Snapshot %d: expected %v, got %v", i, want[i], seen[i])
			}
		}
	}
}

func TestConcurrentShow(t *testing.T) {
	s, _ := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Info("parallel")
		}()
	}
	wg.Wait()

	if got := len(s.List()); got != 50 {
		t.Errorf("Expected 50 notifications, got %d", got)
	}
}

func TestCloseStopsRealTimers(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewStore(WithTTL(time.Hour))
	for i := 0; i < 5; i++ {
		s.Info("pending")
	}
	s.Close()
	s.Close()

	s.Info("after close")
	if got := len(s.List()); got != 5 {
		t.Errorf("Expected notifications shown after Close to be dropped, got %d entries", got)
	}
}

func TestRealTimerExpires(t *testing.T) {
	s := NewStore(WithTTL(10 * time.Millisecond))
	defer s.Close()

	done := make(chan struct{})
	s.Subscribe(func(list []Notification) {
		if len(list) == 0 {
			close(done)
		}
	})
	s.Info("short lived")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected the notification to expire")
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]Kind{
		"success": KindSuccess,
		"error":   KindError,
		"warning": KindWarning,
		"info":    KindInfo,
		"bogus":   KindInfo,
		"":        KindInfo,
	}
	for in, want := range tests {
		if got := ParseKind(in); got != want {
			t.Errorf("ParseKind(%q): expected %s, got %s", in, want, got)
		}
	}
}
