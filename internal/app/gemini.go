package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Prompt is one user turn handed to a backend: text, an attached frame, or both.
type Prompt struct {
	Text        string
	ImageBase64 string
}

func (p Prompt) Empty() bool {
	return strings.TrimSpace(p.Text) == "" && p.ImageBase64 == ""
}

type HistoryItem struct {
	Role  Role   `json:"role"`
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRefusal
	OutcomeError
)

// Outcome is the normalized result of one model call. Provider shape
// sniffing stays behind this union; the dispatcher and orchestrator never
// see raw responses.
type Outcome struct {
	Kind OutcomeKind
	Text string
	Err  string
}

const emptyReplyFallback = "I do not have a response right now."

// ModelBackend generates one reply for one model. Implementations fold their
// own failures into the returned Outcome so a dispatch fan-out never panics
// or aborts siblings.
type ModelBackend interface {
	Generate(ctx context.Context, model string, prompt Prompt, history []HistoryItem) Outcome
}

const jarvisSystemPrompt = "You are Jarvis, a proactive multimodal assistant. " +
	"Refer to yourself as Jarvis when it adds clarity, but avoid repeating your identity in every reply. " +
	"Only when a user directly asks who you are, what your name is, or who built you should you confirm " +
	"that you are Jarvis, note that you were created by Ayaan, and share his GitHub profile at github.com/ayxn07. " +
	"Otherwise respond naturally with concise, helpful guidance. Use **bold** markdown only when emphasis is " +
	"essential so the UI can style it, and keep language natural for text-to-speech."

// GeminiClient talks to the chat completion endpoint over HTTP. A "mock" API
// key or "mock://" base URL short-circuits the network for tests and offline
// runs.
type GeminiClient struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

type chatRequest struct {
	Text        string            `json:"text,omitempty"`
	ImageBase64 string            `json:"imageBase64,omitempty"`
	History     []chatHistoryItem `json:"history"`
	Model       string            `json:"model"`
}

type chatHistoryItem struct {
	Role  string `json:"role"`
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

type chatResponse struct {
	Text    string `json:"text,omitempty"`
	Primary *struct {
		Model string `json:"model"`
		Text  string `json:"text"`
	} `json:"primary,omitempty"`
	Outputs []struct {
		Model string `json:"model"`
		Text  string `json:"text"`
	} `json:"outputs,omitempty"`
	BlockReason string `json:"blockReason,omitempty"`
	Error       string `json:"error,omitempty"`
}

func NewGeminiClient(apiKey, baseURL string) *GeminiClient {
	if baseURL == "" {
		baseURL = "http://localhost:3000/api/gemini/chat"
	}
	return &GeminiClient{
		APIKey:  apiKey,
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *GeminiClient) mockMode() bool {
	return c.APIKey == "mock" || strings.HasPrefix(c.BaseURL, "mock://")
}

func (c *GeminiClient) Generate(ctx context.Context, model string, prompt Prompt, history []HistoryItem) Outcome {
	if c.mockMode() {
		return mockGenerate(model, prompt)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return Outcome{Kind: OutcomeError, Err: "gemini api key is required"}
	}

	reqBody := chatRequest{
		Text:        prompt.Text,
		ImageBase64: prompt.ImageBase64,
		History:     toChatHistory(history),
		Model:       model,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Outcome{Kind: OutcomeError, Err: err.Error()}
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return Outcome{Kind: OutcomeError, Err: err.Error()}
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("x-api-key", c.APIKey)

	resp, err := c.HTTP.Do(request)
	if err != nil {
		return Outcome{Kind: OutcomeError, Err: fmt.Sprintf("api request failed: %v", err)}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{Kind: OutcomeError, Err: fmt.Sprintf("failed to read response: %v", err)}
	}

	var parsed chatResponse
	if resp.StatusCode >= 300 {
		if err := json.Unmarshal(bodyBytes, &parsed); err == nil && parsed.Error != "" {
			if strings.Contains(strings.ToLower(parsed.Error), "refused") {
				return Outcome{Kind: OutcomeRefusal, Err: parsed.Error}
			}
			return Outcome{Kind: OutcomeError, Err: parsed.Error}
		}
		return Outcome{Kind: OutcomeError, Err: fmt.Sprintf("gemini request failed (%d)", resp.StatusCode)}
	}

	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return Outcome{Kind: OutcomeError, Err: fmt.Sprintf("invalid api response format: %s", string(bodyBytes))}
	}
	return normalizeChatResponse(parsed)
}

// normalizeChatResponse flattens the endpoint's duck-typed shapes into the
// outcome union: structured primary first, then the outputs list, then the
// bare text field.
func normalizeChatResponse(parsed chatResponse) Outcome {
	if parsed.BlockReason != "" {
		return Outcome{Kind: OutcomeRefusal, Err: "Gemini refused the request: " + parsed.BlockReason}
	}
	if parsed.Error != "" {
		return Outcome{Kind: OutcomeError, Err: parsed.Error}
	}

	text := ""
	switch {
	case parsed.Primary != nil && parsed.Primary.Text != "":
		text = parsed.Primary.Text
	case len(parsed.Outputs) > 0:
		fragments := make([]string, 0, len(parsed.Outputs))
		for _, out := range parsed.Outputs {
			if out.Text != "" {
				fragments = append(fragments, out.Text)
			}
		}
		text = strings.Join(fragments, " ")
	default:
		text = parsed.Text
	}

	text = strings.TrimSpace(text)
	if text == "" {
		text = emptyReplyFallback
	}
	return Outcome{Kind: OutcomeSuccess, Text: text}
}

func toChatHistory(history []HistoryItem) []chatHistoryItem {
	out := make([]chatHistoryItem, 0, len(history))
	for _, item := range history {
		out = append(out, chatHistoryItem{
			Role:  string(item.Role),
			Text:  item.Text,
			Image: item.Image,
		})
	}
	return out
}

// mockGenerate returns a deterministic canned reply keyed off the prompt so
// the TUI and tests work without credentials.
func mockGenerate(model string, prompt Prompt) Outcome {
	if prompt.ImageBase64 != "" {
		return Outcome{Kind: OutcomeSuccess, Text: "I can see the frame you sent. Nothing urgent stands out, but lighting is low."}
	}
	trimmed := strings.TrimSpace(prompt.Text)
	if trimmed == "" {
		return Outcome{Kind: OutcomeSuccess, Text: emptyReplyFallback}
	}
	lower := strings.ToLower(trimmed)
	switch {
	case strings.Contains(lower, "hello") || strings.Contains(lower, "hi"):
		return Outcome{Kind: OutcomeSuccess, Text: "Hello. All systems nominal. What do you need?"}
	case strings.Contains(lower, "weather"):
		return Outcome{Kind: OutcomeSuccess, Text: "I have no live weather feed in mock mode, but **assume clear skies**."}
	default:
		return Outcome{Kind: OutcomeSuccess, Text: fmt.Sprintf("Mock reply from %s: %s", model, trimmed)}
	}
}

// DataURLToBase64 strips a data-URL prefix; history images travel as bare
// base64 on the wire.
func DataURLToBase64(input string) string {
	if input == "" || !strings.HasPrefix(input, "data:") {
		return input
	}
	comma := strings.Index(input, ",")
	if comma == -1 {
		return input
	}
	return input[comma+1:]
}
