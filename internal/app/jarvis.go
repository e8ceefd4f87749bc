package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Application wires the Jarvis engine together: settings, conversation
// store, model backend, dispatcher, orchestrator, tool client, and the
// on-disk memory store.
type Application struct {
	Logger       *Logger
	Store        *ConversationStore
	Memory       *MemoryStore
	Orchestrator *Orchestrator
	Backend      ModelBackend
	GenAI        *GenAIBackend

	settingsMu sync.RWMutex
	settings   Settings
}

// NewApplication builds the engine. mockMode replaces the network clients
// with deterministic fakes so the TUI works without credentials.
func NewApplication(ctx context.Context, cfg Settings, mockMode bool) (*Application, error) {
	logger := NewLogger(DefaultLogWriter())
	store := NewConversationStore()
	memory := NewMemoryStore("")

	app := &Application{
		Logger:   logger,
		Store:    store,
		Memory:   memory,
		settings: cfg,
	}

	var backend ModelBackend
	var sdk *GenAIBackend
	switch {
	case mockMode:
		backend = NewGeminiClient("mock", "mock://")
	case cfg.UseSDKBackend:
		var err error
		sdk, err = NewGenAIBackend(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		backend = sdk
	default:
		backend = NewGeminiClient(cfg.GeminiAPIKey, cfg.ChatBaseURL)
	}
	app.Backend = backend
	app.GenAI = sdk

	ttsKey := cfg.ElevenLabsAPIKey
	if mockMode {
		ttsKey = "mock"
	}
	tts := NewTTSClient(ttsKey, cfg.TTSBaseURL, cfg.Voice)

	var player AudioPlayer
	if cfg.AudioEnabled && !mockMode {
		if execPlayer := NewExecPlayer(logger, ""); execPlayer != nil {
			player = execPlayer
		}
	}
	if player == nil {
		player = SilentPlayer{}
	}

	tools := NewToolClient(cfg.ToolsBaseURL)
	dispatcher := NewDispatcher(backend, logger)
	app.Orchestrator = NewOrchestrator(store, dispatcher, tts, player, tools, logger, app.SettingsSnapshot)

	if msgs, err := memory.LoadTranscript(); err == nil {
		for _, msg := range msgs {
			store.Append(msg)
		}
	} else {
		logger.Warn("transcript load failed", map[string]interface{}{"error": err.Error()})
	}

	return app, nil
}

func (a *Application) SettingsSnapshot() Settings {
	a.settingsMu.RLock()
	defer a.settingsMu.RUnlock()
	return a.settings
}

// UpdateSettings applies a patch and re-normalizes identifiers, then
// persists the result.
func (a *Application) UpdateSettings(patch func(Settings) Settings) error {
	a.settingsMu.Lock()
	a.settings = normalizeSettings(patch(a.settings))
	next := a.settings
	a.settingsMu.Unlock()
	return SaveSettings(next, "")
}

// Connect marks the session live. Microphone and camera attachment live in
// the UI layer; the engine only tracks the flag and phase.
func (a *Application) Connect() {
	a.Store.SetConnected(true)
	a.Store.SetPhase(PhaseIdle)
}

func (a *Application) Disconnect() {
	a.Orchestrator.CancelActive()
	a.Store.SetConnected(false)
	a.Store.SetPhase(PhaseIdle)
}

func (a *Application) SendUserText(ctx context.Context, text string) {
	a.Orchestrator.SendUserText(ctx, text)
	a.persist()
}

func (a *Application) SendFrame(ctx context.Context, imageBase64, thumbDataURL string, roi bool) {
	a.Orchestrator.SendFrame(ctx, imageBase64, thumbDataURL, roi)
	a.persist()
}

// RunTool invokes one auxiliary tool by name and records the outcome.
func (a *Application) RunTool(ctx context.Context, name string, args map[string]string) {
	tools := a.Orchestrator.Tools
	recorder := a.Orchestrator.Recorder
	switch name {
	case "describe_scene":
		level := args["detailLevel"]
		if level == "" {
			level = "normal"
		}
		if result, err := tools.DescribeScene(ctx, level); err != nil {
			recorder.Record(name, args, ToolError(err.Error()))
		} else {
			recorder.Record(name, args, ToolSuccess(result))
		}
	case "search_web":
		if result, err := tools.SearchWeb(ctx, args["query"]); err != nil {
			recorder.Record(name, args, ToolError(err.Error()))
		} else {
			recorder.Record(name, args, ToolSuccess(result))
		}
	case "open_link":
		if opened, err := tools.OpenLink(ctx, args["url"]); err != nil {
			recorder.Record(name, args, ToolError(err.Error()))
		} else {
			recorder.Record(name, args, ToolSuccess(map[string]bool{"opened": opened}))
		}
	case "create_calendar_event":
		if event, err := tools.CreateCalendarEvent(ctx, args["title"], args["startISO"], args["endISO"], nil); err != nil {
			recorder.Record(name, args, ToolError(err.Error()))
		} else {
			recorder.Record(name, args, ToolSuccess(event))
		}
	default:
		recorder.Record(name, args, ToolError("unknown tool "+name))
	}
	a.persist()
}

// GenerateImage renders prompt with the configured image model and saves
// the result next to the transcript. Outcome lands in the conversation as
// a system turn either way.
func (a *Application) GenerateImage(ctx context.Context, prompt string) {
	if a.GenAI == nil {
		a.appendSystem("Image generation needs the Gemini SDK backend. Set use_sdk_backend: true in config.yml.")
		a.persist()
		return
	}
	settings := a.SettingsSnapshot()
	img, err := a.GenAI.GenerateImage(ctx, settings.ImageModel, prompt)
	if err != nil {
		a.appendSystem("Image generation failed: " + err.Error())
		a.persist()
		return
	}
	path, err := a.Memory.SaveImage(img.Data, img.MIMEType)
	if err != nil {
		a.Logger.Warn("image save failed", map[string]interface{}{"error": err.Error()})
		a.appendSystem("Image generated but could not be saved: " + err.Error())
		a.persist()
		return
	}
	a.appendSystem("Image saved to " + path)
	a.persist()
}

func (a *Application) appendSystem(text string) {
	a.Store.Append(Message{
		ID:        uuid.NewString(),
		Role:      RoleSystem,
		Text:      text,
		Timestamp: time.Now(),
	})
}

// ClearConversation wipes the in-memory log and the persisted transcript.
func (a *Application) ClearConversation() {
	a.Orchestrator.CancelActive()
	a.Store.Clear()
	if err := a.Memory.ClearTranscript(); err != nil {
		a.Logger.Warn("transcript clear failed", map[string]interface{}{"error": err.Error()})
	}
}

func (a *Application) persist() {
	if err := a.Memory.SaveTranscript(a.Store.Messages()); err != nil {
		a.Logger.Warn("transcript save failed", map[string]interface{}{"error": err.Error()})
	}
}

// MockModeFor decides whether to run against canned backends: no key, or an
// explicit mock request.
func MockModeFor(cfg Settings, forced bool) bool {
	return forced || strings.TrimSpace(cfg.GeminiAPIKey) == ""
}
