package app

import (
	"fmt"
	"testing"
	"time"
)

func TestConversationStoreOrdering(t *testing.T) {
	store := NewConversationStore()
	base := time.Unix(1700000000, 0)

	// Appended out of timestamp order; Messages must sort by timestamp,
	// then ID for ties.
	store.Append(Message{ID: "b", Role: RoleUser, Text: "second", Timestamp: base.Add(time.Second)})
	store.Append(Message{ID: "a", Role: RoleUser, Text: "first", Timestamp: base})
	store.Append(Message{ID: "c", Role: RoleUser, Text: "tie-late", Timestamp: base.Add(time.Second)})

	msgs := store.Messages()
	if len(msgs) != 3 {
		t.Fatalf("Len = %d, want 3", len(msgs))
	}
	wantIDs := []string{"a", "b", "c"}
	for i, want := range wantIDs {
		if msgs[i].ID != want {
			t.Fatalf("msgs[%d].ID = %q, want %q", i, msgs[i].ID, want)
		}
	}
}

func TestConversationStoreUpdate(t *testing.T) {
	store := NewConversationStore()
	store.Append(Message{ID: "m1", Role: RoleAssistant, Text: "full", Partial: true, Timestamp: time.Now()})

	store.Update("m1", func(current Message) Message {
		current.DisplayText = "fu"
		return current
	})
	got, ok := store.Get("m1")
	if !ok {
		t.Fatal("Get(m1) missing")
	}
	if got.DisplayText != "fu" || !got.Partial {
		t.Fatalf("after update: DisplayText=%q Partial=%v", got.DisplayText, got.Partial)
	}

	// Unknown IDs are a no-op.
	store.Update("missing", func(current Message) Message {
		current.Text = "boom"
		return current
	})
	if store.Len() != 1 {
		t.Fatalf("Len = %d after updating unknown ID, want 1", store.Len())
	}
}

func TestConversationStoreSubscribe(t *testing.T) {
	store := NewConversationStore()
	hits := 0
	store.Subscribe(func() { hits++ })

	store.Append(Message{ID: "m1", Role: RoleUser, Timestamp: time.Now()})
	store.Update("m1", func(m Message) Message { return m })
	store.SetPhase(PhaseThinking)
	store.SetConnected(true)
	store.Clear()

	if hits != 5 {
		t.Fatalf("observer hits = %d, want 5", hits)
	}
	if store.Len() != 0 {
		t.Fatalf("Len after Clear = %d, want 0", store.Len())
	}
}

func TestTrimMessages(t *testing.T) {
	messages := make([]Message, 0, 250)
	for i := 0; i < 250; i++ {
		messages = append(messages, Message{ID: fmt.Sprintf("m%03d", i)})
	}

	trimmed := TrimMessages(messages, defaultRetainedMessages)
	if len(trimmed) != defaultRetainedMessages {
		t.Fatalf("len = %d, want %d", len(trimmed), defaultRetainedMessages)
	}
	// Oldest entries dropped, newest kept.
	if trimmed[0].ID != "m050" || trimmed[len(trimmed)-1].ID != "m249" {
		t.Fatalf("kept window [%s..%s], want [m050..m249]", trimmed[0].ID, trimmed[len(trimmed)-1].ID)
	}

	short := []Message{{ID: "only"}}
	if got := TrimMessages(short, defaultRetainedMessages); len(got) != 1 {
		t.Fatalf("short input trimmed to %d, want 1", len(got))
	}
}

func TestPhaseAndConnectedFlags(t *testing.T) {
	store := NewConversationStore()
	if store.Phase() != PhaseIdle {
		t.Fatalf("initial phase = %q, want idle", store.Phase())
	}
	store.SetPhase(PhaseSpeaking)
	if store.Phase() != PhaseSpeaking {
		t.Fatalf("phase = %q, want speaking", store.Phase())
	}
	if store.Connected() {
		t.Fatal("store connected before Connect")
	}
	store.SetConnected(true)
	if !store.Connected() {
		t.Fatal("store not connected after SetConnected(true)")
	}
}
