package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTTSModelID = "eleven_monolingual_v2"

// SpeechClip is the raw synthesized audio returned by the TTS provider.
type SpeechClip struct {
	Data        []byte
	ContentType string
}

// TTSClient calls an ElevenLabs-style text-to-speech endpoint. A "mock" API
// key returns an empty clip so reveal pacing can be exercised offline.
type TTSClient struct {
	APIKey  string
	BaseURL string
	ModelID string
	Voice   string
	HTTP    *http.Client
}

type ttsRequest struct {
	Text          string           `json:"text"`
	ModelID       string           `json:"model_id"`
	VoiceSettings ttsVoiceSettings `json:"voice_settings"`
}

type ttsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

func NewTTSClient(apiKey, baseURL, voice string) *TTSClient {
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io"
	}
	return &TTSClient{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		ModelID: defaultTTSModelID,
		Voice:   voice,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *TTSClient) Synthesize(ctx context.Context, text, voiceID string) (SpeechClip, error) {
	if strings.TrimSpace(text) == "" {
		return SpeechClip{}, errors.New("nothing to synthesize")
	}
	if c.APIKey == "mock" {
		return SpeechClip{ContentType: "audio/mpeg"}, nil
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return SpeechClip{}, errors.New("elevenlabs api key is required")
	}

	voice := strings.TrimSpace(voiceID)
	if voice == "" {
		voice = strings.TrimSpace(c.Voice)
	}
	if voice == "" {
		return SpeechClip{}, errors.New("no voice configured")
	}

	payload, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: c.ModelID,
		VoiceSettings: ttsVoiceSettings{
			Stability:       0.35,
			SimilarityBoost: 0.85,
			Style:           0.4,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return SpeechClip{}, err
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.BaseURL, voice)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return SpeechClip{}, err
	}
	request.Header.Set("xi-api-key", c.APIKey)
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "audio/mpeg")

	resp, err := c.HTTP.Do(request)
	if err != nil {
		return SpeechClip{}, fmt.Errorf("tts request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SpeechClip{}, fmt.Errorf("failed to read tts response: %v", err)
	}
	if resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(body))
		if detail == "" {
			detail = resp.Status
		}
		return SpeechClip{}, fmt.Errorf("TTS provider error (%d): %s", resp.StatusCode, detail)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return SpeechClip{Data: body, ContentType: contentType}, nil
}
