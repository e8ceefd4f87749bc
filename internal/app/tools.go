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

	"github.com/google/uuid"
)

type DescribeSceneResult struct {
	Summary string      `json:"summary"`
	Items   []SceneItem `json:"items"`
	OCRText string      `json:"ocrText,omitempty"`
}

type SceneItem struct {
	Label string     `json:"label"`
	BBox  [4]float64 `json:"bbox,omitempty"`
}

type SearchWebResult struct {
	Results []SearchHit `json:"results"`
}

type SearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type CalendarEvent struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	StartISO  string   `json:"startISO"`
	EndISO    string   `json:"endISO"`
	Attendees []string `json:"attendees,omitempty"`
}

// ToolOutcome is the terminal state of one tool invocation.
type ToolOutcome struct {
	Status string      // "success" or "error"
	Result interface{} // set on success
	Error  string      // set on error
}

func ToolSuccess(result interface{}) ToolOutcome {
	return ToolOutcome{Status: "success", Result: result}
}

func ToolError(err string) ToolOutcome {
	return ToolOutcome{Status: "error", Error: err}
}

// FormatToolName turns snake_case tool identifiers into display labels.
func FormatToolName(name string) string {
	parts := strings.Split(name, "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

// ToolRecorder appends exactly one tool Turn per invocation, in call order.
// No retry, no dedup.
type ToolRecorder struct {
	Store *ConversationStore
}

func NewToolRecorder(store *ConversationStore) *ToolRecorder {
	return &ToolRecorder{Store: store}
}

func (r *ToolRecorder) Record(name string, args interface{}, outcome ToolOutcome) {
	label := FormatToolName(name)
	var text string
	var result interface{}
	if outcome.Status == "success" {
		text = fmt.Sprintf("**%s executed.** Output captured in the timeline.", label)
		result = outcome.Result
	} else {
		text = fmt.Sprintf("**%s failed.** %s", label, outcome.Error)
		result = map[string]string{"error": outcome.Error}
	}
	r.Store.Append(Message{
		ID:         uuid.NewString(),
		Role:       RoleTool,
		Timestamp:  time.Now(),
		ToolName:   name,
		ToolCall:   &ToolCall{Name: name, Args: args},
		ToolResult: result,
		Text:       text,
	})
}

// ToolClient invokes the auxiliary tool endpoints. With no base URL
// configured it serves the stub responses the endpoints themselves would.
type ToolClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewToolClient(baseURL string) *ToolClient {
	return &ToolClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *ToolClient) stubbed() bool {
	return c.BaseURL == "" || strings.HasPrefix(c.BaseURL, "mock://")
}

func (c *ToolClient) DescribeScene(ctx context.Context, detailLevel string) (DescribeSceneResult, error) {
	switch detailLevel {
	case "brief", "normal", "detailed":
	default:
		return DescribeSceneResult{}, fmt.Errorf("invalid detail level %q", detailLevel)
	}
	if c.stubbed() {
		summary := "Vision analysis pending"
		if detailLevel == "detailed" {
			summary = "Vision analysis placeholder: integrate OCR/object detection in future milestone."
		}
		return DescribeSceneResult{Summary: summary, Items: []SceneItem{}}, nil
	}
	var out DescribeSceneResult
	err := c.post(ctx, "/api/tools/describe-scene", map[string]string{"detailLevel": detailLevel}, &out)
	return out, err
}

func (c *ToolClient) SearchWeb(ctx context.Context, query string) (SearchWebResult, error) {
	if len(strings.TrimSpace(query)) < 3 {
		return SearchWebResult{}, fmt.Errorf("query too short")
	}
	if c.stubbed() {
		return SearchWebResult{Results: []SearchHit{{
			Title:   "Synthetic result for " + query,
			URL:     "https://example.com",
			Snippet: "Integrate a real search provider or custom RAG pipeline here.",
		}}}, nil
	}
	var out SearchWebResult
	err := c.post(ctx, "/api/tools/search-web", map[string]string{"query": query}, &out)
	return out, err
}

func (c *ToolClient) OpenLink(ctx context.Context, url string) (bool, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return false, fmt.Errorf("invalid url %q", url)
	}
	if c.stubbed() {
		return true, nil
	}
	var out struct {
		Opened bool `json:"opened"`
	}
	err := c.post(ctx, "/api/tools/open-link", map[string]string{"url": url}, &out)
	return out.Opened, err
}

func (c *ToolClient) CreateCalendarEvent(ctx context.Context, title, startISO, endISO string, attendees []string) (CalendarEvent, error) {
	if len(strings.TrimSpace(title)) < 3 {
		return CalendarEvent{}, fmt.Errorf("title too short")
	}
	if c.stubbed() {
		return CalendarEvent{
			ID:        "evt_" + uuid.NewString()[:8],
			Title:     title,
			StartISO:  startISO,
			EndISO:    endISO,
			Attendees: attendees,
		}, nil
	}
	var out CalendarEvent
	err := c.post(ctx, "/api/tools/create-calendar-event", map[string]interface{}{
		"title":     title,
		"startISO":  startISO,
		"endISO":    endISO,
		"attendees": attendees,
	}, &out)
	return out, err
}

func (c *ToolClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(request)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &errBody) == nil && errBody.Error != "" {
			return fmt.Errorf("%s", errBody.Error)
		}
		return fmt.Errorf("tool request failed (%d)", resp.StatusCode)
	}
	return json.Unmarshal(raw, out)
}
