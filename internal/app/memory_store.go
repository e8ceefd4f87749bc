package app

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MemoryStore persists the conversation transcript and prompt history on disk.
//
// Layout:
//
//	<root>/transcript/messages.json
//	<root>/history/prompts.json
type MemoryStore struct {
	Root string
}

type promptHistory struct {
	Entries   []string  `json:"entries"`
	UpdatedAt time.Time `json:"updated_at"`
}

const promptHistoryMax = 200

func DefaultMemoryRoot() string {
	if base := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); base != "" {
		return filepath.Join(base, "jarvis", "storage")
	}
	if base, err := os.UserHomeDir(); err == nil && base != "" {
		return filepath.Join(base, ".local", "share", "jarvis", "storage")
	}
	return filepath.Join(os.TempDir(), "jarvis", "storage")
}

func NewMemoryStore(root string) *MemoryStore {
	if strings.TrimSpace(root) == "" {
		root = DefaultMemoryRoot()
	}
	return &MemoryStore{Root: root}
}

func (s *MemoryStore) transcriptPath() string {
	return filepath.Join(s.Root, "transcript", "messages.json")
}

func (s *MemoryStore) promptHistoryPath() string {
	return filepath.Join(s.Root, "history", "prompts.json")
}

// SaveTranscript writes the message log, trimmed to the retention cap.
func (s *MemoryStore) SaveTranscript(messages []Message) error {
	trimmed := TrimMessages(messages, defaultRetainedMessages)
	if err := os.MkdirAll(filepath.Dir(s.transcriptPath()), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(trimmed, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.transcriptPath(), b, 0o644)
}

func (s *MemoryStore) LoadTranscript() ([]Message, error) {
	b, err := os.ReadFile(s.transcriptPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Message{}, nil
		}
		return nil, err
	}
	var msgs []Message
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil, err
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
	return msgs, nil
}

func (s *MemoryStore) ClearTranscript() error {
	err := os.Remove(s.transcriptPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SaveImage writes generated image bytes under <root>/images and returns
// the saved path.
func (s *MemoryStore) SaveImage(data []byte, mimeType string) (string, error) {
	ext := ".png"
	switch mimeType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/webp":
		ext = ".webp"
	}
	dir := filepath.Join(s.Root, "images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "jarvis-"+time.Now().Format("20060102-150405")+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func normalizePromptHistory(entries []string, max int) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1] == entry {
			continue
		}
		out = append(out, entry)
	}
	if max > 0 && len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}

func (s *MemoryStore) SavePromptHistory(entries []string) error {
	history := promptHistory{
		Entries:   normalizePromptHistory(entries, promptHistoryMax),
		UpdatedAt: time.Now(),
	}
	if err := os.MkdirAll(filepath.Dir(s.promptHistoryPath()), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.promptHistoryPath(), b, 0o644)
}

func (s *MemoryStore) LoadPromptHistory() ([]string, error) {
	b, err := os.ReadFile(s.promptHistoryPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}

	var payload promptHistory
	if err := json.Unmarshal(b, &payload); err == nil {
		return normalizePromptHistory(payload.Entries, promptHistoryMax), nil
	}

	// Backward-compatible fallback if file content is a raw JSON string array.
	var raw []string
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	return normalizePromptHistory(raw, promptHistoryMax), nil
}
