package app

import (
	"sort"
	"sync"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseListening Phase = "listening"
	PhaseThinking  Phase = "thinking"
	PhaseSpeaking  Phase = "speaking"
	PhaseError     Phase = "error"
)

type ToolCall struct {
	Name string      `json:"name"`
	Args interface{} `json:"args,omitempty"`
}

type Comparison struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// Message is one turn of the conversation. While Partial is true,
// DisplayText grows monotonically toward Text; once finalized the two match.
type Message struct {
	ID           string       `json:"id"`
	Role         Role         `json:"role"`
	Text         string       `json:"text,omitempty"`
	DisplayText  string       `json:"display_text,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
	Partial      bool         `json:"partial,omitempty"`
	PrimaryModel string       `json:"primary_model,omitempty"`
	Comparisons  []Comparison `json:"comparisons,omitempty"`
	ToolName     string       `json:"tool_name,omitempty"`
	ToolCall     *ToolCall    `json:"tool_call,omitempty"`
	ToolResult   interface{}  `json:"tool_result,omitempty"`
	ImageThumb   string       `json:"image_thumb,omitempty"`
}

const defaultRetainedMessages = 200

// ConversationStore is the single writer for the message log. Readers get
// copies ordered by timestamp (secondary sort at read time, so async updates
// landing out of order still render in conversation order).
type ConversationStore struct {
	mu        sync.RWMutex
	messages  []Message
	phase     Phase
	connected bool
	observers []func()
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{phase: PhaseIdle}
}

// Subscribe registers a callback fired after every mutation. Used by the TUI
// to trigger a repaint; callbacks must not call back into the store.
func (s *ConversationStore) Subscribe(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// notify fires every observer. Callers must not hold mu; the snapshot keeps
// callbacks outside the lock so they can read the store.
func (s *ConversationStore) notify() {
	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()
	for _, fn := range observers {
		fn()
	}
}

func (s *ConversationStore) Append(msg Message) {
	s.mu.Lock()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	s.notify()
}

// Update applies patch to the message with the given id. The patch receives
// the current value and returns the next one, so fields mutated concurrently
// (reveal progress vs tool results) merge atomically.
func (s *ConversationStore) Update(id string, patch func(Message) Message) {
	if patch == nil {
		return
	}
	s.mu.Lock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i] = patch(s.messages[i])
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// Messages returns a copy sorted by timestamp ascending, ID as tiebreaker.
func (s *ConversationStore) Messages() []Message {
	s.mu.RLock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func (s *ConversationStore) Get(id string) (Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

func (s *ConversationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

func (s *ConversationStore) Clear() {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
	s.notify()
}

func (s *ConversationStore) SetPhase(phase Phase) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()
	s.notify()
}

func (s *ConversationStore) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *ConversationStore) SetConnected(connected bool) {
	s.mu.Lock()
	s.connected = connected
	s.mu.Unlock()
	s.notify()
}

func (s *ConversationStore) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// TrimMessages caps retained history to the most recent max entries. Called
// on the persistence path, never during a turn.
func TrimMessages(messages []Message, max int) []Message {
	if max <= 0 {
		max = defaultRetainedMessages
	}
	if len(messages) <= max {
		return messages
	}
	return messages[len(messages)-max:]
}
