package app

import (
	"math"
	"sync"
	"time"
)

const (
	// maxTextLeadSeconds caps how far the caption may run ahead of audible
	// playback; it also lets the first characters appear before the audio
	// clock starts moving, hiding startup latency.
	maxTextLeadSeconds = 0.35
	frameInterval      = 16 * time.Millisecond
	kickStartDelay     = 220 * time.Millisecond
)

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// AudioTrack is the playback clock a reveal session paces against.
// CurrentTime stays 0 until playback actually starts; Duration reports
// false until the sink knows the real length.
type AudioTrack interface {
	CurrentTime() float64
	Duration() (float64, bool)
}

// FrameScheduler abstracts the animation-frame and timer primitives so
// sessions are unit-testable without real time. Both methods return a
// cancel func that releases the pending callback.
type FrameScheduler interface {
	ScheduleFrame(fn func()) (cancel func())
	ScheduleTimer(d time.Duration, fn func()) (cancel func())
}

type timerScheduler struct{}

func (timerScheduler) ScheduleFrame(fn func()) func() {
	t := time.AfterFunc(frameInterval, fn)
	return func() { t.Stop() }
}

func (timerScheduler) ScheduleTimer(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// NewFrameScheduler returns the timer-backed scheduler used outside tests.
func NewFrameScheduler() FrameScheduler { return timerScheduler{} }

type revealState int

const (
	revealIdle revealState = iota
	revealRunning
	revealCompleted
	revealCanceled
)

// RevealSession paces a character-by-character reveal of target text against
// an audio clock. At most one session owns an audio track at a time; the
// orchestrator cancels the previous session before starting the next.
type RevealSession struct {
	mu    sync.Mutex
	state revealState

	runes    []rune
	total    int
	track    AudioTrack
	fallback float64
	target   float64

	clock    Clock
	sched    FrameScheduler
	onReveal func(display string, done bool)

	startedAt   time.Time
	revealed    int
	cancelFrame func()
	cancelKick  func()
}

// NewRevealSession builds an idle session. track may be nil: with no audio
// attached the session paces on wall clock against the fallback duration
// alone. A nil clock or scheduler selects the real ones.
func NewRevealSession(text string, track AudioTrack, fallbackSeconds float64, clock Clock, sched FrameScheduler, onReveal func(display string, done bool)) *RevealSession {
	if clock == nil {
		clock = systemClock{}
	}
	if sched == nil {
		sched = timerScheduler{}
	}
	runes := []rune(text)
	return &RevealSession{
		runes:    runes,
		total:    len(runes),
		track:    track,
		fallback: fallbackSeconds,
		target:   fallbackSeconds,
		clock:    clock,
		sched:    sched,
		onReveal: onReveal,
	}
}

// Start transitions idle -> running and schedules the first tick plus a
// short kick-start timer covering delayed or suppressed playback signals.
func (s *RevealSession) Start() {
	s.mu.Lock()
	if s.state != revealIdle {
		s.mu.Unlock()
		return
	}
	if s.total == 0 {
		s.state = revealCompleted
		cb := s.onReveal
		s.mu.Unlock()
		if cb != nil {
			cb("", true)
		}
		return
	}
	s.state = revealRunning
	s.startedAt = s.clock.Now()
	s.cancelFrame = s.sched.ScheduleFrame(s.Tick)
	s.cancelKick = s.sched.ScheduleTimer(kickStartDelay, s.kick)
	s.mu.Unlock()
}

func (s *RevealSession) kick() {
	s.mu.Lock()
	if s.state != revealRunning {
		s.mu.Unlock()
		return
	}
	if s.cancelFrame == nil {
		s.cancelFrame = s.sched.ScheduleFrame(s.Tick)
	}
	s.cancelKick = nil
	s.mu.Unlock()
}

// Tick advances the reveal. Safe to call directly (tests drive it with a
// fake clock); scheduling another frame is skipped in terminal states.
func (s *RevealSession) Tick() {
	s.mu.Lock()
	if s.state != revealRunning {
		s.mu.Unlock()
		return
	}
	s.cancelFrame = nil
	s.refreshTargetLocked()

	usable := s.target
	if usable <= 0 || math.IsInf(usable, 0) || math.IsNaN(usable) {
		usable = s.fallback
	}

	reference := s.referenceTimeLocked()
	progress := 1.0
	if usable > 0 {
		progress = math.Min(reference/usable, 1)
	}
	chars := int(math.Floor(progress * float64(s.total)))
	if chars > s.total {
		chars = s.total
	}
	if progress > 0 && chars == 0 {
		chars = 1
	}

	// No backward reveal: ticks that compute a lower count are discarded.
	if chars <= s.revealed {
		s.cancelFrame = s.sched.ScheduleFrame(s.Tick)
		s.mu.Unlock()
		return
	}

	s.revealed = chars
	display := string(s.runes[:chars])
	done := chars >= s.total
	cb := s.onReveal
	if done {
		s.state = revealCompleted
		s.releaseLocked()
	} else {
		s.cancelFrame = s.sched.ScheduleFrame(s.Tick)
	}
	s.mu.Unlock()

	if cb != nil {
		cb(display, done)
	}
}

// referenceTimeLocked computes the pacing clock. With a live audio time the
// caption may lead the audio by at most maxTextLeadSeconds; with a track
// attached but not yet playing, wall clock applies capped at the lead; with
// no track at all, wall clock paces the full fallback duration.
func (s *RevealSession) referenceTimeLocked() float64 {
	elapsed := s.clock.Now().Sub(s.startedAt).Seconds()
	if s.track == nil {
		return elapsed
	}
	audioTime := s.track.CurrentTime()
	if audioTime <= 0 {
		return math.Min(elapsed, maxTextLeadSeconds)
	}
	upper := math.Min(elapsed, audioTime+maxTextLeadSeconds)
	return math.Max(audioTime, upper)
}

func (s *RevealSession) refreshTargetLocked() {
	if s.track == nil {
		return
	}
	if d, ok := s.track.Duration(); ok && d > 0 && !math.IsInf(d, 0) {
		s.target = d
	}
}

// Cancel is idempotent and safe from any state. It releases all pending
// frame and timer handles; a canceled session never ticks again.
func (s *RevealSession) Cancel() {
	s.mu.Lock()
	if s.state == revealCompleted || s.state == revealCanceled {
		s.releaseLocked()
		s.mu.Unlock()
		return
	}
	s.state = revealCanceled
	s.releaseLocked()
	s.mu.Unlock()
}

func (s *RevealSession) releaseLocked() {
	if s.cancelFrame != nil {
		s.cancelFrame()
		s.cancelFrame = nil
	}
	if s.cancelKick != nil {
		s.cancelKick()
		s.cancelKick = nil
	}
}

func (s *RevealSession) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == revealCompleted
}

func (s *RevealSession) Revealed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revealed
}
