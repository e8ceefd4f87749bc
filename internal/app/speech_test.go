package app

import (
	"math"
	"strings"
	"testing"
)

func TestExpandSpeechAbbreviations(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"degreesF", "22°F outside", "22 degrees Fahrenheit outside"},
		{"degreesC", "22 °c now", "22  degrees Celsius now"},
		{"acronym", "the AI core", "the A I core"},
		{"httpsBeforeHttp", "HTTPS beats HTTP", "H T T P S beats H T T P"},
		{"hoursPlural", "3 hrs left", "3  hours left"},
		{"hoursSingular", "1 hr left", "1  hour left"},
		{"minutesPlural", "5 mins to go", "5  minutes to go"},
		{"speed", "60 mph wind", "60  miles per hour wind"},
		{"kmh", "80 km/h limit", "80  kilometres per hour limit"},
		{"caseInsensitiveUnits", "AVG load", " average load"},
		{"acronymCaseSensitive", "air is not AI R", "air is not A I R"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ExpandSpeechAbbreviations(tc.in)
			if got != tc.want {
				t.Fatalf("ExpandSpeechAbbreviations(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestSpeakableText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"stripsBold", "**Jarvis online.** Ready.", "Jarvis online. Ready."},
		{"expands", "**ETA** is 5 mins", "E T A is 5  minutes"},
		{"plain", "all clear", "all clear"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SpeakableText(tc.in)
			if got != tc.want {
				t.Fatalf("SpeakableText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestEstimateSpeechSeconds(t *testing.T) {
	t.Run("floor", func(t *testing.T) {
		if got := EstimateSpeechSeconds("hi", 1); got != minRevealSeconds {
			t.Fatalf("EstimateSpeechSeconds(short) = %v, want %v", got, minRevealSeconds)
		}
	})

	t.Run("wordRate", func(t *testing.T) {
		// 165 single-letter words: the word estimate (60s) dwarfs the
		// character estimate and must win.
		text := strings.TrimSpace(strings.Repeat("a ", 165))
		got := EstimateSpeechSeconds(text, 1)
		if math.Abs(got-60) > 0.5 {
			t.Fatalf("EstimateSpeechSeconds(165 words) = %v, want ~60", got)
		}
	})

	t.Run("charRateWins", func(t *testing.T) {
		// One long unbroken word: character pacing exceeds word pacing.
		text := strings.Repeat("x", 130)
		got := EstimateSpeechSeconds(text, 1)
		want := 130.0 / baseCharsPerSecond
		if math.Abs(got-want) > 0.01 {
			t.Fatalf("EstimateSpeechSeconds(long word) = %v, want %v", got, want)
		}
	})

	t.Run("rateClamped", func(t *testing.T) {
		text := strings.Repeat("x", 130)
		slow := EstimateSpeechSeconds(text, 0)
		clamped := EstimateSpeechSeconds(text, minSpeechRate)
		if slow != clamped {
			t.Fatalf("rate 0 estimate %v, want clamp to %v", slow, clamped)
		}
	})

	t.Run("fasterRateShorter", func(t *testing.T) {
		text := strings.Repeat("x", 130)
		if EstimateSpeechSeconds(text, 2) >= EstimateSpeechSeconds(text, 1) {
			t.Fatal("doubling the rate did not shorten the estimate")
		}
	})
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"spaces", "   ", 0},
		{"single", "jarvis", 1},
		{"multi", "all systems nominal", 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := countWords(tc.in); got != tc.want {
				t.Fatalf("countWords(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}
