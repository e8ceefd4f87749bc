package app

import "strings"

const (
	longformCharThreshold = 600
	longformWordThreshold = 120
)

// IsLongform reports whether a turn is heavy enough to justify querying the
// secondary model: long text, many words, or any attached image.
func IsLongform(prompt Prompt) bool {
	trimmed := strings.TrimSpace(prompt.Text)
	if len(trimmed) >= longformCharThreshold {
		return true
	}
	if countWords(trimmed) >= longformWordThreshold {
		return true
	}
	return prompt.ImageBase64 != ""
}

// DecideSecondaryModels picks the extra models queried alongside the
// primary. Pure function of the turn and settings; dual preview always wins,
// longform escalation only applies when the caller marked the turn eligible.
func DecideSecondaryModels(prompt Prompt, settings Settings, allowFallback bool) []string {
	primary := strings.ToLower(strings.TrimSpace(settings.Model))
	secondary := strings.ToLower(strings.TrimSpace(settings.SecondaryModel))
	if secondary == "" || secondary == primary {
		return nil
	}
	if settings.DualModelPreview {
		return []string{settings.SecondaryModel}
	}
	if allowFallback && settings.AutoFallbackLongform && IsLongform(prompt) {
		return []string{settings.SecondaryModel}
	}
	return nil
}
