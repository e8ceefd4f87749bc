package app

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestTranscriptRoundTrip(t *testing.T) {
	store := NewMemoryStore(t.TempDir())
	base := time.Unix(1700000000, 0).UTC()

	msgs := []Message{
		{ID: "m2", Role: RoleAssistant, Text: "reply", Timestamp: base.Add(time.Second)},
		{ID: "m1", Role: RoleUser, Text: "hello", Timestamp: base},
	}
	if err := store.SaveTranscript(msgs); err != nil {
		t.Fatalf("SaveTranscript() error = %v", err)
	}

	loaded, err := store.LoadTranscript()
	if err != nil {
		t.Fatalf("LoadTranscript() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("len = %d, want 2", len(loaded))
	}
	if loaded[0].ID != "m1" || loaded[1].ID != "m2" {
		t.Fatalf("order = [%s %s], want [m1 m2]", loaded[0].ID, loaded[1].ID)
	}
	if loaded[0].Text != "hello" || loaded[0].Role != RoleUser {
		t.Fatalf("loaded[0] = %+v", loaded[0])
	}
}

func TestTranscriptRetentionCap(t *testing.T) {
	store := NewMemoryStore(t.TempDir())
	msgs := make([]Message, 0, defaultRetainedMessages+50)
	base := time.Unix(1700000000, 0)
	for i := 0; i < defaultRetainedMessages+50; i++ {
		msgs = append(msgs, Message{
			ID:        fmt.Sprintf("m%04d", i),
			Role:      RoleUser,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
	}
	if err := store.SaveTranscript(msgs); err != nil {
		t.Fatalf("SaveTranscript() error = %v", err)
	}
	loaded, err := store.LoadTranscript()
	if err != nil {
		t.Fatalf("LoadTranscript() error = %v", err)
	}
	if len(loaded) != defaultRetainedMessages {
		t.Fatalf("len = %d, want retention cap %d", len(loaded), defaultRetainedMessages)
	}
	if loaded[0].ID != "m0050" {
		t.Fatalf("oldest kept = %s, want m0050", loaded[0].ID)
	}
}

func TestTranscriptMissingAndClear(t *testing.T) {
	store := NewMemoryStore(t.TempDir())

	loaded, err := store.LoadTranscript()
	if err != nil {
		t.Fatalf("LoadTranscript(missing) error = %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("missing transcript len = %d, want 0", len(loaded))
	}

	if err := store.ClearTranscript(); err != nil {
		t.Fatalf("ClearTranscript(missing) error = %v", err)
	}

	if err := store.SaveTranscript([]Message{{ID: "m1", Timestamp: time.Now()}}); err != nil {
		t.Fatal(err)
	}
	if err := store.ClearTranscript(); err != nil {
		t.Fatalf("ClearTranscript() error = %v", err)
	}
	loaded, _ = store.LoadTranscript()
	if len(loaded) != 0 {
		t.Fatalf("transcript survived clear: %d entries", len(loaded))
	}
}

func TestNormalizePromptHistory(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		max  int
		want []string
	}{
		{"empty", nil, 10, []string{}},
		{"blanksDropped", []string{"", "  ", "a"}, 10, []string{"a"}},
		{"adjacentDeduped", []string{"a", "a", "b", "a"}, 10, []string{"a", "b", "a"}},
		{"capped", []string{"a", "b", "c", "d"}, 2, []string{"c", "d"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizePromptHistory(tc.in, tc.max)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("normalizePromptHistory(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestPromptHistoryRoundTrip(t *testing.T) {
	store := NewMemoryStore(t.TempDir())

	if err := store.SavePromptHistory([]string{"first", "first", "second"}); err != nil {
		t.Fatalf("SavePromptHistory() error = %v", err)
	}
	loaded, err := store.LoadPromptHistory()
	if err != nil {
		t.Fatalf("LoadPromptHistory() error = %v", err)
	}
	want := []string{"first", "second"}
	if !reflect.DeepEqual(loaded, want) {
		t.Fatalf("LoadPromptHistory() = %v, want %v", loaded, want)
	}

	empty := NewMemoryStore(t.TempDir())
	loaded, err = empty.LoadPromptHistory()
	if err != nil || len(loaded) != 0 {
		t.Fatalf("LoadPromptHistory(missing) = %v, %v", loaded, err)
	}
}

func TestSaveImage(t *testing.T) {
	store := NewMemoryStore(t.TempDir())

	path, err := store.SaveImage([]byte{0x89, 0x50, 0x4e, 0x47}, "image/png")
	if err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}
	if !strings.HasSuffix(path, ".png") {
		t.Fatalf("SaveImage() path = %q, want .png suffix", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%q) error = %v", path, err)
	}
	if len(data) != 4 {
		t.Fatalf("saved %d bytes, want 4", len(data))
	}

	path, err = store.SaveImage([]byte("jpg"), "image/jpeg")
	if err != nil {
		t.Fatalf("SaveImage(jpeg) error = %v", err)
	}
	if !strings.HasSuffix(path, ".jpg") {
		t.Fatalf("SaveImage(jpeg) path = %q, want .jpg suffix", path)
	}
}
