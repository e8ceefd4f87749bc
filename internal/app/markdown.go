package app

import "strings"

type SpanKind int

const (
	SpanText SpanKind = iota
	SpanBold
)

type Span struct {
	Kind SpanKind
	Text string
}

// SegmentBold splits input on **bold** delimiters into a flat span list.
// An unterminated ** is kept as literal text. Adjacent spans of the same
// kind are merged.
func SegmentBold(input string) []Span {
	if input == "" {
		return nil
	}

	var spans []Span
	push := func(kind SpanKind, text string) {
		if text == "" {
			return
		}
		if n := len(spans); n > 0 && spans[n-1].Kind == kind {
			spans[n-1].Text += text
			return
		}
		spans = append(spans, Span{Kind: kind, Text: text})
	}

	index := 0
	for index < len(input) {
		open := strings.Index(input[index:], "**")
		if open == -1 {
			push(SpanText, input[index:])
			break
		}
		open += index
		if open > index {
			push(SpanText, input[index:open])
		}
		close := strings.Index(input[open+2:], "**")
		if close == -1 {
			push(SpanText, input[open:])
			break
		}
		close += open + 2
		push(SpanBold, input[open+2:close])
		index = close + 2
	}
	return spans
}

// StripBold removes ** markers, keeping their content.
func StripBold(input string) string {
	spans := SegmentBold(input)
	if len(spans) == 0 {
		return ""
	}
	var b strings.Builder
	for _, span := range spans {
		b.WriteString(span.Text)
	}
	return b.String()
}

func PlainTextLength(spans []Span) int {
	total := 0
	for _, span := range spans {
		total += len(span.Text)
	}
	return total
}
