package app

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// manualScheduler swallows frame and timer requests; tests drive Tick
// directly against the fake clock.
type manualScheduler struct {
	frames int
	timers int
}

func (s *manualScheduler) ScheduleFrame(fn func()) func() {
	s.frames++
	return func() {}
}

func (s *manualScheduler) ScheduleTimer(d time.Duration, fn func()) func() {
	s.timers++
	return func() {}
}

type fakeTrack struct {
	mu       sync.Mutex
	current  float64
	duration float64
	known    bool
}

func (t *fakeTrack) CurrentTime() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

func (t *fakeTrack) Duration() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration, t.known
}

func (t *fakeTrack) set(current float64) {
	t.mu.Lock()
	t.current = current
	t.mu.Unlock()
}

type revealRecorder struct {
	mu       sync.Mutex
	displays []string
	doneHits int
}

func (r *revealRecorder) callback() func(string, bool) {
	return func(display string, done bool) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.displays = append(r.displays, display)
		if done {
			r.doneHits++
		}
	}
}

func (r *revealRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.displays) == 0 {
		return ""
	}
	return r.displays[len(r.displays)-1]
}

func (r *revealRecorder) completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doneHits
}

func TestRevealWallClockPacing(t *testing.T) {
	clock := newFakeClock()
	rec := &revealRecorder{}
	session := NewRevealSession("Hello world", nil, 1.0, clock, &manualScheduler{}, rec.callback())
	session.Start()

	clock.Advance(500 * time.Millisecond)
	session.Tick()
	if got := session.Revealed(); got != 5 {
		t.Fatalf("Revealed() after 0.5s = %d, want 5", got)
	}

	clock.Advance(600 * time.Millisecond)
	session.Tick()
	if !session.Completed() {
		t.Fatal("session not completed after fallback elapsed")
	}
	if rec.last() != "Hello world" {
		t.Fatalf("final display = %q, want full text", rec.last())
	}
	if rec.completions() != 1 {
		t.Fatalf("done callbacks = %d, want exactly 1", rec.completions())
	}

	// Terminal state: further ticks must not fire the callback again.
	clock.Advance(time.Second)
	session.Tick()
	if rec.completions() != 1 {
		t.Fatalf("done callbacks after extra tick = %d, want 1", rec.completions())
	}
}

func TestRevealMonotonic(t *testing.T) {
	clock := newFakeClock()
	track := &fakeTrack{duration: 2.0, known: true}
	rec := &revealRecorder{}
	session := NewRevealSession("abcdefghij", track, 1.0, clock, &manualScheduler{}, rec.callback())
	session.Start()

	track.set(1.0)
	clock.Advance(1100 * time.Millisecond)
	session.Tick()
	revealed := session.Revealed()
	if revealed == 0 {
		t.Fatal("nothing revealed with audio at 1.0s")
	}

	// The audio clock regressing must never retract characters.
	track.set(0.1)
	clock.Advance(16 * time.Millisecond)
	session.Tick()
	if got := session.Revealed(); got < revealed {
		t.Fatalf("Revealed() regressed from %d to %d", revealed, got)
	}

	rec.mu.Lock()
	prev := 0
	for i, display := range rec.displays {
		if len(display) < prev {
			rec.mu.Unlock()
			t.Fatalf("display %d shrank: %q", i, display)
		}
		prev = len(display)
	}
	rec.mu.Unlock()
}

func TestRevealLeadCapBeforeAudioStarts(t *testing.T) {
	clock := newFakeClock()
	track := &fakeTrack{duration: 10.0, known: true}
	session := NewRevealSession("0123456789", track, 10.0, clock, &manualScheduler{}, nil)
	session.Start()

	// Audio attached but stuck at zero: reveal may not pass the lead cap.
	clock.Advance(5 * time.Second)
	session.Tick()
	leadChars := maxTextLeadSeconds / 10.0 * 10
	capped := int(leadChars)
	if got := session.Revealed(); got > capped+1 {
		t.Fatalf("Revealed() with silent track = %d, want at most %d", got, capped+1)
	}
	if session.Completed() {
		t.Fatal("session completed while audio never started")
	}

	// Once the audio clock moves, pacing follows it.
	track.set(5.0)
	clock.Advance(16 * time.Millisecond)
	session.Tick()
	if got := session.Revealed(); got < 5 {
		t.Fatalf("Revealed() with audio at 5s = %d, want >= 5", got)
	}
}

func TestRevealLeadCapDuringPlayback(t *testing.T) {
	clock := newFakeClock()
	track := &fakeTrack{duration: 10.0, known: true}
	session := NewRevealSession("0123456789", track, 10.0, clock, &manualScheduler{}, nil)
	session.Start()

	// Wall clock far ahead of the audio clock: the caption may lead by at
	// most the cap.
	track.set(2.0)
	clock.Advance(8 * time.Second)
	session.Tick()
	if got := session.Revealed(); got > 2 {
		t.Fatalf("Revealed() = %d, want <= 2 (2.35s of 10s reveals 2 chars)", got)
	}
}

func TestRevealDurationRefresh(t *testing.T) {
	clock := newFakeClock()
	track := &fakeTrack{} // duration unknown: fallback target applies
	session := NewRevealSession("0123456789", track, 2.0, clock, &manualScheduler{}, nil)
	session.Start()

	track.set(1.0)
	clock.Advance(time.Second)
	session.Tick()
	if got := session.Revealed(); got != 5 {
		t.Fatalf("Revealed() against fallback = %d, want 5", got)
	}

	// Real duration arrives and stretches the target.
	track.mu.Lock()
	track.duration = 4.0
	track.known = true
	track.mu.Unlock()
	track.set(2.0)
	clock.Advance(time.Second)
	session.Tick()
	if got := session.Revealed(); got != 5 {
		t.Fatalf("Revealed() after duration refresh = %d, want 5 (2s of 4s)", got)
	}
}

func TestRevealEmptyTextCompletesImmediately(t *testing.T) {
	rec := &revealRecorder{}
	session := NewRevealSession("", nil, 1.0, newFakeClock(), &manualScheduler{}, rec.callback())
	session.Start()
	if !session.Completed() {
		t.Fatal("empty session did not complete on Start")
	}
	if rec.completions() != 1 {
		t.Fatalf("done callbacks = %d, want 1", rec.completions())
	}
}

func TestRevealAtLeastOneChar(t *testing.T) {
	clock := newFakeClock()
	session := NewRevealSession("0123456789", nil, 100.0, clock, &manualScheduler{}, nil)
	session.Start()

	// Any positive progress reveals at least one character.
	clock.Advance(time.Millisecond)
	session.Tick()
	if got := session.Revealed(); got != 1 {
		t.Fatalf("Revealed() with tiny progress = %d, want 1", got)
	}
}

func TestRevealCancel(t *testing.T) {
	clock := newFakeClock()
	rec := &revealRecorder{}
	session := NewRevealSession("Hello world", nil, 1.0, clock, &manualScheduler{}, rec.callback())
	session.Start()

	clock.Advance(200 * time.Millisecond)
	session.Tick()
	before := session.Revealed()

	session.Cancel()
	session.Cancel() // idempotent

	clock.Advance(2 * time.Second)
	session.Tick()
	if got := session.Revealed(); got != before {
		t.Fatalf("Revealed() advanced after Cancel: %d -> %d", before, got)
	}
	if session.Completed() {
		t.Fatal("canceled session reports completed")
	}
	if rec.completions() != 0 {
		t.Fatalf("done callbacks on canceled session = %d, want 0", rec.completions())
	}
}
