package app

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Playback is one in-flight audio rendition. Track is nil when no real
// audio clock exists (disabled audio, mock clips); the reveal engine then
// paces on its fallback duration.
type Playback struct {
	track AudioTrack
	done  chan error
	stop  func()

	once    sync.Once
	stopped atomic.Bool
}

func (p *Playback) Track() AudioTrack { return p.track }

// Done yields exactly one value: nil when playback finished, the failure
// otherwise.
func (p *Playback) Done() <-chan error { return p.done }

// Stop ends the rendition early. A stopped playback always finishes
// without error; killing the player process is not a failure.
func (p *Playback) Stop() {
	p.stopped.Store(true)
	if p.stop != nil {
		p.stop()
	}
}

func (p *Playback) finish(err error) {
	p.once.Do(func() {
		p.done <- err
		close(p.done)
	})
}

// AudioPlayer renders a speech clip. durationHint carries the estimated
// clip length for players that cannot measure it themselves.
type AudioPlayer interface {
	Play(ctx context.Context, clip SpeechClip, rate float64, durationHint float64) (*Playback, error)
}

// ExecPlayer shells out to the first available system audio player and
// tracks the playback clock from process start. Process start approximates
// audible start; the lead cap in the reveal engine absorbs the difference.
type ExecPlayer struct {
	Logger  *Logger
	WorkDir string
	binary  string
	args    func(path string, rate float64) []string
}

var playerCandidates = []struct {
	binary string
	args   func(path string, rate float64) []string
}{
	{"mpv", func(path string, rate float64) []string {
		return []string{"--no-video", "--really-quiet", fmt.Sprintf("--speed=%.2f", rate), path}
	}},
	{"ffplay", func(path string, rate float64) []string {
		return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", path}
	}},
	{"afplay", func(path string, rate float64) []string {
		return []string{"-r", fmt.Sprintf("%.2f", rate), path}
	}},
}

// NewExecPlayer probes the PATH for a usable player. Returns nil when none
// exists; callers fall back to the silent player.
func NewExecPlayer(logger *Logger, workDir string) *ExecPlayer {
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "jarvis", "audio")
	}
	for _, candidate := range playerCandidates {
		if _, err := exec.LookPath(candidate.binary); err == nil {
			return &ExecPlayer{Logger: logger, WorkDir: workDir, binary: candidate.binary, args: candidate.args}
		}
	}
	return nil
}

func (p *ExecPlayer) Play(ctx context.Context, clip SpeechClip, rate float64, durationHint float64) (*Playback, error) {
	if len(clip.Data) == 0 {
		return nil, fmt.Errorf("empty audio clip")
	}
	if rate <= 0 {
		rate = 1
	}
	if err := os.MkdirAll(p.WorkDir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(p.WorkDir, uuid.NewString()+clipExtension(clip.ContentType))
	if err := os.WriteFile(path, clip.Data, 0o644); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, p.binary, p.args(path, rate)...)
	if err := cmd.Start(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to start audio player: %v", err)
	}

	playback := &Playback{
		track: &processTrack{startedAt: time.Now()},
		done:  make(chan error, 1),
		stop: func() {
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		},
	}

	go func() {
		err := cmd.Wait()
		_ = os.Remove(path)
		if err != nil && ctx.Err() == nil && !playback.stopped.Load() {
			playback.finish(fmt.Errorf("audio playback failed: %v", err))
			return
		}
		playback.finish(nil)
	}()

	return playback, nil
}

func clipExtension(contentType string) string {
	switch contentType {
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/ogg":
		return ".ogg"
	default:
		return ".mp3"
	}
}

// processTrack derives the audio clock from wall time since the player
// process launched. Duration stays unknown; the reveal fallback estimate
// covers pacing.
type processTrack struct {
	startedAt time.Time
}

func (t *processTrack) CurrentTime() float64 {
	return time.Since(t.startedAt).Seconds()
}

func (t *processTrack) Duration() (float64, bool) { return 0, false }

// SilentPlayer renders nothing and completes after the duration hint,
// so captions keep their speech-like pacing when audio is unavailable.
type SilentPlayer struct{}

func (SilentPlayer) Play(ctx context.Context, clip SpeechClip, rate float64, durationHint float64) (*Playback, error) {
	if durationHint <= 0 {
		durationHint = minRevealSeconds
	}
	playback := &Playback{done: make(chan error, 1)}
	timer := time.AfterFunc(time.Duration(durationHint*float64(time.Second)), func() {
		playback.finish(nil)
	})
	playback.stop = func() {
		timer.Stop()
		playback.finish(nil)
	}
	return playback, nil
}
