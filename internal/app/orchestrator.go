package app

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultFramePrompt = "Describe what you see and call out anything important."

const identityResponse = "**Jarvis online.** I'm Jarvis, your operational intelligence interface crafted by Ayaan. " +
	"Explore his work at github.com/ayxn07 while I coordinate sensors, summarize observations, and orchestrate " +
	"tools so you can stay focused."

var identityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bwho\s+are\s+you\b`),
	regexp.MustCompile(`\bwho\s+are\s+u\b`),
	regexp.MustCompile(`\bwho\s+is\s+this\b`),
	regexp.MustCompile(`\bwhat(?:'s|\s+is)\s+your\s+name\b`),
	regexp.MustCompile(`\bwho\s+am\s+i\s+(?:speaking|talking)\s+to\b`),
	regexp.MustCompile(`\bidentify\s+yourself\b`),
	regexp.MustCompile(`\bsay\s+your\s+name\b`),
}

// IsIdentityQuery reports whether the normalized input asks who the
// assistant is. These turns never reach a model.
func IsIdentityQuery(input string) bool {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, pattern := range identityPatterns {
		if pattern.MatchString(normalized) {
			return true
		}
	}
	return false
}

// Orchestrator owns the reply path: dispatch, speech synthesis, reveal
// pacing, and every Turn the pipeline appends. It also exclusively owns the
// audio sink: starting a new reply cancels the previous reveal session
// before anything else touches it.
type Orchestrator struct {
	Store      *ConversationStore
	Dispatcher *Dispatcher
	TTS        *TTSClient
	Player     AudioPlayer
	Tools      *ToolClient
	Recorder   *ToolRecorder
	Logger     *Logger
	Settings   func() Settings

	clock Clock
	sched FrameScheduler

	mu       sync.Mutex
	session  *RevealSession
	playback *Playback
}

func NewOrchestrator(store *ConversationStore, dispatcher *Dispatcher, tts *TTSClient, player AudioPlayer, tools *ToolClient, logger *Logger, settings func() Settings) *Orchestrator {
	return &Orchestrator{
		Store:      store,
		Dispatcher: dispatcher,
		TTS:        tts,
		Player:     player,
		Tools:      tools,
		Recorder:   NewToolRecorder(store),
		Logger:     logger,
		Settings:   settings,
		clock:      systemClock{},
		sched:      NewFrameScheduler(),
	}
}

// SendUserText runs one text turn end to end: append the user Turn, route
// identity queries past the dispatcher, otherwise fan out to the model set
// the fallback policy selects, then hand the aggregate to HandleReply.
func (o *Orchestrator) SendUserText(ctx context.Context, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	o.Store.Append(Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Text:      trimmed,
		Timestamp: time.Now(),
	})

	settings := o.Settings()
	if IsIdentityQuery(trimmed) {
		o.Store.SetPhase(PhaseThinking)
		o.HandleReply(ctx, SyntheticResult(settings.Model, identityResponse))
		return
	}

	prompt := Prompt{Text: trimmed}
	o.Store.SetPhase(PhaseThinking)
	result, err := o.dispatch(ctx, prompt, settings, true)
	if err != nil {
		o.appendSystem(err.Error())
		o.Store.SetPhase(PhaseError)
		return
	}
	o.HandleReply(ctx, result)
}

// SendFrame runs one camera-frame turn: the frame goes to the models with
// the default prompt, and a describe_scene tool call is recorded afterwards.
// roi selects the detailed description level.
func (o *Orchestrator) SendFrame(ctx context.Context, imageBase64, thumbDataURL string, roi bool) {
	o.Store.Append(Message{
		ID:         uuid.NewString(),
		Role:       RoleUser,
		Timestamp:  time.Now(),
		ImageThumb: thumbDataURL,
	})

	settings := o.Settings()
	prompt := Prompt{Text: defaultFramePrompt, ImageBase64: imageBase64}
	o.Store.SetPhase(PhaseThinking)
	result, err := o.dispatch(ctx, prompt, settings, true)
	if err != nil {
		o.appendSystem(err.Error())
		o.Store.SetPhase(PhaseError)
		return
	}
	o.HandleReply(ctx, result)

	detailLevel := "normal"
	if roi {
		detailLevel = "detailed"
	}
	args := map[string]string{"detailLevel": detailLevel}
	scene, err := o.Tools.DescribeScene(ctx, detailLevel)
	if err != nil {
		o.Recorder.Record("describe_scene", args, ToolError(err.Error()))
		return
	}
	o.Recorder.Record("describe_scene", args, ToolSuccess(scene))
}

func (o *Orchestrator) dispatch(ctx context.Context, prompt Prompt, settings Settings, allowFallback bool) (DispatchResult, error) {
	models := append([]string{settings.Model}, DecideSecondaryModels(prompt, settings, allowFallback)...)
	return o.Dispatcher.Dispatch(ctx, prompt, o.historySnapshot(), models)
}

// historySnapshot collects prior user/assistant turns for model context.
// Thumbnail data URLs are reduced to bare base64 for the wire.
func (o *Orchestrator) historySnapshot() []HistoryItem {
	messages := o.Store.Messages()
	out := make([]HistoryItem, 0, len(messages))
	for _, msg := range messages {
		if msg.Role != RoleUser && msg.Role != RoleAssistant {
			continue
		}
		out = append(out, HistoryItem{
			Role:  msg.Role,
			Text:  msg.Text,
			Image: DataURLToBase64(msg.ImageThumb),
		})
	}
	return out
}

// HandleReply turns a dispatch result into a spoken, progressively revealed
// assistant Turn. The Turn is appended partial before any reveal tick; on
// every exit path it is finalized with the full text, and secondary-model
// failures are summarized strictly afterwards.
func (o *Orchestrator) HandleReply(ctx context.Context, result DispatchResult) {
	trimmed := strings.TrimSpace(result.Primary.Text)
	if trimmed == "" {
		trimmed = emptyReplyFallback
	}
	speech := SpeakableText(trimmed)

	settings := o.Settings()
	comparisons := make([]Comparison, 0, len(result.Alternatives))
	for _, alt := range result.Alternatives {
		comparisons = append(comparisons, Comparison{Model: alt.Model, Text: alt.Text})
	}

	messageID := uuid.NewString()
	o.Store.Append(Message{
		ID:           messageID,
		Role:         RoleAssistant,
		Text:         trimmed,
		DisplayText:  "",
		Timestamp:    time.Now(),
		Partial:      true,
		PrimaryModel: result.Primary.Model,
		Comparisons:  comparisons,
	})

	fallbackSeconds := EstimateSpeechSeconds(trimmed, settings.SpeechRate)

	o.Store.SetPhase(PhaseSpeaking)
	err := o.speak(ctx, messageID, trimmed, speech, fallbackSeconds, settings)

	o.Store.Update(messageID, func(current Message) Message {
		current.DisplayText = trimmed
		current.Partial = false
		current.Text = trimmed
		return current
	})

	if err != nil {
		o.Logger.Error("speech failed", map[string]interface{}{"error": err.Error()})
		o.appendSystem(err.Error())
		o.Store.SetPhase(PhaseError)
	}
	o.Store.SetPhase(PhaseIdle)

	if len(result.Failures) > 0 {
		details := make([]string, 0, len(result.Failures))
		for _, failure := range result.Failures {
			details = append(details, failure.Model+": "+failure.Error)
		}
		o.appendSystem("Secondary model issue - " + strings.Join(details, "; "))
	}
}

// speak synthesizes speech and paces the reveal against playback. The
// previous session is always canceled first, so the audio sink has at most
// one owner. Reveal cleanup is guaranteed on every return path.
func (o *Orchestrator) speak(ctx context.Context, messageID, displayText, speechText string, fallbackSeconds float64, settings Settings) error {
	clip, err := o.TTS.Synthesize(ctx, speechText, settings.Voice)
	if err != nil {
		return err
	}

	rate := settings.SpeechRate
	if rate < minSpeechRate {
		rate = minSpeechRate
	}
	player := o.Player
	if len(clip.Data) == 0 {
		// Mock clips carry no audio; keep caption pacing anyway.
		player = SilentPlayer{}
	}
	playback, err := player.Play(ctx, clip, rate, fallbackSeconds)
	if err != nil {
		return err
	}

	session := NewRevealSession(displayText, playback.Track(), fallbackSeconds, o.clock, o.sched, func(display string, done bool) {
		o.Store.Update(messageID, func(current Message) Message {
			if len(display) < len(current.DisplayText) {
				return current
			}
			current.DisplayText = display
			current.Partial = !done
			return current
		})
	})

	o.mu.Lock()
	if o.session != nil {
		o.session.Cancel()
	}
	if o.playback != nil {
		o.playback.Stop()
	}
	o.session = session
	o.playback = playback
	o.mu.Unlock()

	session.Start()
	defer session.Cancel()

	select {
	case err := <-playback.Done():
		return err
	case <-ctx.Done():
		playback.Stop()
		return ctx.Err()
	}
}

// CancelActive stops any in-flight reveal and playback, e.g. when the user
// clears the conversation mid-reply.
func (o *Orchestrator) CancelActive() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != nil {
		o.session.Cancel()
		o.session = nil
	}
	if o.playback != nil {
		o.playback.Stop()
		o.playback = nil
	}
}

func (o *Orchestrator) appendSystem(text string) {
	o.Store.Append(Message{
		ID:        uuid.NewString(),
		Role:      RoleSystem,
		Text:      text,
		Timestamp: time.Now(),
	})
}
