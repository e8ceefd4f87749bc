package app

import (
	"reflect"
	"strings"
	"testing"
)

func TestIsLongform(t *testing.T) {
	tests := []struct {
		name   string
		prompt Prompt
		want   bool
	}{
		{"short", Prompt{Text: "hello"}, false},
		{"empty", Prompt{}, false},
		{"manyChars", Prompt{Text: strings.Repeat("x", longformCharThreshold)}, true},
		{"justUnderChars", Prompt{Text: strings.Repeat("x", longformCharThreshold-1)}, false},
		{"manyWords", Prompt{Text: strings.TrimSpace(strings.Repeat("w ", longformWordThreshold))}, true},
		{"image", Prompt{ImageBase64: "Zg=="}, true},
		{"paddedShort", Prompt{Text: "  short  "}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsLongform(tc.prompt); got != tc.want {
				t.Fatalf("IsLongform(%v) = %v, want %v", tc.prompt, got, tc.want)
			}
		})
	}
}

func TestDecideSecondaryModels(t *testing.T) {
	base := Settings{
		Model:          "gemini-2.5-flash",
		SecondaryModel: "gemini-2.5-pro",
	}
	long := Prompt{Text: strings.Repeat("x", longformCharThreshold)}
	short := Prompt{Text: "hi"}

	tests := []struct {
		name          string
		prompt        Prompt
		mutate        func(Settings) Settings
		allowFallback bool
		want          []string
	}{
		{
			name:   "shortNoPreview",
			prompt: short,
			mutate: func(s Settings) Settings { return s },
			want:   nil,
		},
		{
			name:          "shortNotEscalated",
			prompt:        short,
			allowFallback: true,
			mutate: func(s Settings) Settings {
				s.AutoFallbackLongform = true
				return s
			},
			want: nil,
		},
		{
			name:   "previewAlwaysQueries",
			prompt: short,
			mutate: func(s Settings) Settings {
				s.DualModelPreview = true
				return s
			},
			want: []string{"gemini-2.5-pro"},
		},
		{
			name:          "longformEscalates",
			prompt:        long,
			allowFallback: true,
			mutate: func(s Settings) Settings {
				s.AutoFallbackLongform = true
				return s
			},
			want: []string{"gemini-2.5-pro"},
		},
		{
			name:          "longformDisabled",
			prompt:        long,
			allowFallback: true,
			mutate:        func(s Settings) Settings { return s },
			want:          nil,
		},
		{
			name:   "longformNotEligible",
			prompt: long,
			mutate: func(s Settings) Settings {
				s.AutoFallbackLongform = true
				return s
			},
			want: nil,
		},
		{
			name:   "sameModelCaseInsensitive",
			prompt: short,
			mutate: func(s Settings) Settings {
				s.DualModelPreview = true
				s.SecondaryModel = "Gemini-2.5-FLASH"
				return s
			},
			want: nil,
		},
		{
			name:   "emptySecondary",
			prompt: short,
			mutate: func(s Settings) Settings {
				s.DualModelPreview = true
				s.SecondaryModel = ""
				return s
			},
			want: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := DecideSecondaryModels(tc.prompt, tc.mutate(base), tc.allowFallback)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("DecideSecondaryModels() = %v, want %v", got, tc.want)
			}
		})
	}
}
