package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel          = "gemini-2.5-flash"
	DefaultSecondaryModel = "gemini-2.5-pro"
	DefaultImageModel     = "imagen-3.0-generate"
)

// Settings is the persisted user configuration. Model and voice identifiers
// are normalized on every load and write so stale values from older builds
// collapse to something the backend accepts.
type Settings struct {
	GeminiAPIKey     string  `yaml:"gemini_api_key"`
	ElevenLabsAPIKey string  `yaml:"elevenlabs_api_key"`
	ChatBaseURL      string  `yaml:"chat_base_url"`
	TTSBaseURL       string  `yaml:"tts_base_url"`
	ToolsBaseURL     string  `yaml:"tools_base_url"`

	Model                string  `yaml:"model"`
	SecondaryModel       string  `yaml:"secondary_model"`
	ImageModel           string  `yaml:"image_model"`
	Voice                string  `yaml:"voice"`
	SpeechRate           float64 `yaml:"speech_rate"`
	DualModelPreview     bool    `yaml:"dual_model_preview"`
	AutoFallbackLongform bool    `yaml:"auto_fallback_longform"`
	AutoFrame            bool    `yaml:"auto_frame"`
	FrameRate            float64 `yaml:"frame_rate"`
	UseSDKBackend        bool    `yaml:"use_sdk_backend"`
	AudioEnabled         bool    `yaml:"audio_enabled"`
}

func DefaultSettings() Settings {
	return Settings{
		TTSBaseURL:           "https://api.elevenlabs.io",
		Model:                DefaultModel,
		SecondaryModel:       DefaultSecondaryModel,
		ImageModel:           DefaultImageModel,
		SpeechRate:           1,
		DualModelPreview:     false,
		AutoFallbackLongform: true,
		AutoFrame:            false,
		FrameRate:            1.5,
		AudioEnabled:         true,
	}
}

// NormalizeModel collapses legacy or foreign model identifiers to the default.
// A "models/" prefix is stripped and identifiers are lower-cased so first-seen
// dedupe in the dispatcher is case-insensitive.
func NormalizeModel(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return DefaultModel
	}
	lower := strings.ToLower(trimmed)
	lower = strings.TrimPrefix(lower, "models/")
	if strings.HasPrefix(lower, "gpt-") {
		return DefaultModel
	}
	if strings.HasPrefix(lower, "gemini-1.5") {
		return DefaultModel
	}
	return lower
}

func NormalizeImageModel(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return DefaultImageModel
	}
	return trimmed
}

// NormalizeVoice maps the placeholder voice names to "use the provider default".
func NormalizeVoice(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	if lower == "natural" || lower == "default" {
		return ""
	}
	return trimmed
}

func normalizeSettings(s Settings) Settings {
	s.Model = NormalizeModel(s.Model)
	if strings.TrimSpace(s.SecondaryModel) == "" {
		s.SecondaryModel = DefaultSecondaryModel
	}
	s.SecondaryModel = NormalizeModel(s.SecondaryModel)
	s.ImageModel = NormalizeImageModel(s.ImageModel)
	s.Voice = NormalizeVoice(s.Voice)
	if s.SpeechRate <= 0 {
		s.SpeechRate = 1
	}
	if s.FrameRate <= 0 {
		s.FrameRate = 1.5
	}
	if s.TTSBaseURL == "" {
		s.TTSBaseURL = "https://api.elevenlabs.io"
	}
	return s
}

func LoadSettings(path string) (Settings, error) {
	cfg := DefaultSettings()

	if path == "" {
		path = DefaultConfigPath()
	}
	if path == "" {
		return applyEnvOverrides(cfg), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return applyEnvOverrides(cfg), nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return applyEnvOverrides(normalizeSettings(cfg)), nil
}

func applyEnvOverrides(cfg Settings) Settings {
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.ElevenLabsAPIKey == "" {
		cfg.ElevenLabsAPIKey = os.Getenv("ELEVENLABS_API_KEY")
	}
	if v := strings.TrimSpace(os.Getenv("JARVIS_MODEL")); v != "" {
		cfg.Model = NormalizeModel(v)
	}
	if v := strings.TrimSpace(os.Getenv("JARVIS_SECONDARY_MODEL")); v != "" {
		cfg.SecondaryModel = NormalizeModel(v)
	}
	if v := strings.TrimSpace(os.Getenv("JARVIS_VOICE")); v != "" {
		cfg.Voice = NormalizeVoice(v)
	}
	if v := strings.TrimSpace(os.Getenv("JARVIS_CHAT_BASE_URL")); v != "" {
		cfg.ChatBaseURL = v
	}
	return cfg
}

func SaveSettings(cfg Settings, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if path == "" {
		return errors.New("no path provided for config")
	}
	cfg = normalizeSettings(cfg)
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "jarvis", "config.yml")
}
