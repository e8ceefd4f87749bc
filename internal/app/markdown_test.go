package app

import (
	"reflect"
	"testing"
)

func TestSegmentBold(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Span
	}{
		{"empty", "", nil},
		{"plain", "hello there", []Span{{SpanText, "hello there"}}},
		{"boldOnly", "**alert**", []Span{{SpanBold, "alert"}}},
		{"mixed", "status: **online** now", []Span{
			{SpanText, "status: "},
			{SpanBold, "online"},
			{SpanText, " now"},
		}},
		{"unterminated", "a **b", []Span{{SpanText, "a **b"}}},
		{"unterminatedTail", "**a** and **b", []Span{
			{SpanBold, "a"},
			{SpanText, " and **b"},
		}},
		{"adjacentBoldMerged", "**a****b**", []Span{{SpanBold, "ab"}}},
		{"emptyBoldDropped", "x****y", []Span{{SpanText, "xy"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SegmentBold(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("SegmentBold(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestStripBold(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "no markers", "no markers"},
		{"bold", "**Jarvis online.** Ready.", "Jarvis online. Ready."},
		{"unterminated", "half **open", "half **open"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := StripBold(tc.in)
			if got != tc.want {
				t.Fatalf("StripBold(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStripBoldRoundTrip(t *testing.T) {
	// Wrapping any marker-free string in bold and stripping returns it.
	inputs := []string{"x", "plain words", "punctuation! and *single* stars", "  padded  "}
	for _, in := range inputs {
		if got := StripBold("**" + in + "**"); got != in {
			t.Fatalf("StripBold(wrapped %q) = %q", in, got)
		}
	}
}

func TestPlainTextLengthMatchesStrip(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"**bold** and plain",
		"multi **a** and **b** spans",
	}
	for _, in := range inputs {
		spans := SegmentBold(in)
		if got, want := PlainTextLength(spans), len(StripBold(in)); got != want {
			t.Fatalf("PlainTextLength(%q) = %d, want %d", in, got, want)
		}
	}
}
