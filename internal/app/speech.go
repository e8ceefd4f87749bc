package app

import (
	"regexp"
	"strings"
)

const (
	baseWordsPerMinute = 165
	baseCharsPerSecond = 13
	minSpeechRate      = 0.25
	minRevealSeconds   = 0.8
)

type speechReplacement struct {
	pattern *regexp.Regexp
	with    string
}

// Ordered: some patterns are substrings of others (hrs before hr, mins
// before min), so the slice order is load-bearing.
var speechReplacements = []speechReplacement{
	{regexp.MustCompile(`°\s*[Ff]`), " degrees Fahrenheit"},
	{regexp.MustCompile(`°\s*[Cc]`), " degrees Celsius"},
	{regexp.MustCompile(`°\s*[Kk]`), " degrees Kelvin"},
	{regexp.MustCompile(`\bAI\b`), "A I"},
	{regexp.MustCompile(`\bAR\b`), "A R"},
	{regexp.MustCompile(`\bVR\b`), "V R"},
	{regexp.MustCompile(`\bCPU\b`), "C P U"},
	{regexp.MustCompile(`\bGPU\b`), "G P U"},
	{regexp.MustCompile(`\bRAM\b`), "R A M"},
	{regexp.MustCompile(`\bAPI\b`), "A P I"},
	{regexp.MustCompile(`\bTTS\b`), "T T S"},
	{regexp.MustCompile(`\bETA\b`), "E T A"},
	{regexp.MustCompile(`\bHTTPS\b`), "H T T P S"},
	{regexp.MustCompile(`\bHTTP\b`), "H T T P"},
	{regexp.MustCompile(`\bSQL\b`), "S Q L"},
	{regexp.MustCompile(`\bGPS\b`), "G P S"},
	{regexp.MustCompile(`(?i)\bmph\b`), " miles per hour"},
	{regexp.MustCompile(`(?i)\bkm/?h\b`), " kilometres per hour"},
	{regexp.MustCompile(`(?i)\bkmph\b`), " kilometres per hour"},
	{regexp.MustCompile(`(?i)\bbpm\b`), " beats per minute"},
	{regexp.MustCompile(`(?i)\bhrs\b`), " hours"},
	{regexp.MustCompile(`(?i)\bhr\b`), " hour"},
	{regexp.MustCompile(`(?i)\bmins\b`), " minutes"},
	{regexp.MustCompile(`(?i)\bmin\b`), " minute"},
	{regexp.MustCompile(`(?i)\bsecs\b`), " seconds"},
	{regexp.MustCompile(`(?i)\bsec\b`), " second"},
	{regexp.MustCompile(`(?i)\bavg\b`), " average"},
	{regexp.MustCompile(`(?i)\best\b`), " estimate"},
	{regexp.MustCompile(`(?i)\btemp\b`), " temperature"},
}

// ExpandSpeechAbbreviations rewrites units and acronyms so the speech
// synthesizer pronounces them naturally.
func ExpandSpeechAbbreviations(input string) string {
	if input == "" {
		return ""
	}
	output := input
	for _, r := range speechReplacements {
		output = r.pattern.ReplaceAllString(output, r.with)
	}
	return output
}

// SpeakableText produces the string handed to the TTS engine: bold markers
// stripped, abbreviations expanded. Falls back to the raw text when
// stripping leaves nothing.
func SpeakableText(text string) string {
	plain := StripBold(text)
	if strings.TrimSpace(plain) == "" {
		plain = text
	}
	return ExpandSpeechAbbreviations(plain)
}

// EstimateSpeechSeconds returns the reveal duration used until the audio
// reports a real one. Word and character rates are both computed and the
// larger estimate wins, so short dense text does not finish too fast.
func EstimateSpeechSeconds(text string, rate float64) float64 {
	if rate < minSpeechRate {
		rate = minSpeechRate
	}
	trimmed := strings.TrimSpace(text)
	words := 0
	if trimmed != "" {
		words = len(strings.Fields(trimmed))
	}
	fromWords := 0.0
	if words > 0 {
		fromWords = float64(words) / (baseWordsPerMinute / 60.0 * rate)
	}
	fromChars := 0.0
	if len(text) > 0 {
		fromChars = float64(len(text)) / (baseCharsPerSecond * rate)
	}
	estimate := fromWords
	if fromChars > estimate {
		estimate = fromChars
	}
	if estimate < minRevealSeconds {
		estimate = minRevealSeconds
	}
	return estimate
}

func countWords(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	return len(strings.Fields(trimmed))
}
