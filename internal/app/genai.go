package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GenAIBackend calls Gemini through the official SDK instead of the HTTP
// chat endpoint. Selected via the use_sdk_backend setting.
type GenAIBackend struct {
	client *genai.Client
}

func NewGenAIBackend(ctx context.Context, apiKey string) (*GenAIBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIBackend{client: client}, nil
}

func (b *GenAIBackend) Generate(ctx context.Context, model string, prompt Prompt, history []HistoryItem) Outcome {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, item := range history {
		role := genai.Role(genai.RoleUser)
		if item.Role == RoleAssistant {
			role = genai.Role(genai.RoleModel)
		}
		parts := historyParts(item.Text, item.Image)
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}
	contents = append(contents, genai.NewContentFromParts(historyParts(prompt.Text, prompt.ImageBase64), genai.RoleUser))

	config := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0.6),
		TopP:              genai.Ptr[float32](0.95),
		TopK:              genai.Ptr[float32](32),
		MaxOutputTokens:   2048,
		SystemInstruction: genai.NewContentFromText(jarvisSystemPrompt, genai.RoleUser),
	}

	resp, err := b.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return Outcome{Kind: OutcomeError, Err: err.Error()}
	}
	return normalizeGenAIResponse(resp)
}

// normalizeGenAIResponse maps the SDK response onto the outcome union:
// blocked prompts become refusals, the text helper wins when it yields
// anything, otherwise candidate parts are flattened and joined with spaces.
func normalizeGenAIResponse(resp *genai.GenerateContentResponse) Outcome {
	if resp == nil {
		return Outcome{Kind: OutcomeError, Err: "empty response"}
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return Outcome{Kind: OutcomeRefusal, Err: "Gemini refused the request: " + string(resp.PromptFeedback.BlockReason)}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		var fragments []string
		for _, cand := range resp.Candidates {
			if cand == nil || cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if part != nil && part.Text != "" {
					fragments = append(fragments, part.Text)
				}
			}
		}
		text = strings.TrimSpace(strings.Join(fragments, " "))
	}
	if text == "" {
		text = emptyReplyFallback
	}
	return Outcome{Kind: OutcomeSuccess, Text: text}
}

func historyParts(text, imageBase64 string) []*genai.Part {
	var parts []*genai.Part
	if text != "" {
		parts = append(parts, genai.NewPartFromText(text))
	}
	if imageBase64 != "" {
		raw := DataURLToBase64(imageBase64)
		if data, err := base64.StdEncoding.DecodeString(raw); err == nil {
			parts = append(parts, genai.NewPartFromBytes(data, "image/jpeg"))
		}
	}
	return parts
}

// GeneratedImage is one inline image returned by the image model.
type GeneratedImage struct {
	Data     []byte
	MIMEType string
}

// GenerateImage asks the image model for a rendering of prompt. When the
// model returns only text (common on safety declines), that text is
// surfaced as the error.
func (b *GenAIBackend) GenerateImage(ctx context.Context, model, prompt string) (*GeneratedImage, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return nil, fmt.Errorf("prompt is required to generate an image")
	}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}
	resp, err := b.client.Models.GenerateContent(ctx, model,
		[]*genai.Content{genai.NewContentFromText(trimmed, genai.RoleUser)}, config)
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	var textParts []string
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return &GeneratedImage{Data: part.InlineData.Data, MIMEType: mime}, nil
			}
			if part.Text != "" {
				textParts = append(textParts, part.Text)
			}
		}
	}
	if len(textParts) > 0 {
		return nil, fmt.Errorf("no image returned: %s", strings.Join(textParts, " "))
	}
	return nil, fmt.Errorf("no image returned")
}
