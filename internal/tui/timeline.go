package tui

import (
	"fmt"
	"strings"

	"jarvis/internal/app"
)

const timelineMaxEntries = 12

type timelineEntry struct {
	Group  string
	Detail string
}

// FormatToolTimeline renders recorded tool turns as grouped bullets, one
// group per capability (Scene/Web/Links/Calendar) with per-call detail.
func FormatToolTimeline(messages []app.Message) string {
	entries := make([]timelineEntry, 0, len(messages))
	for _, msg := range messages {
		if msg.Role != app.RoleTool || msg.ToolName == "" {
			continue
		}
		entry, ok := timelineEntryForTool(msg)
		if !ok {
			continue
		}
		if failed(msg) {
			entry.Detail += " (failed)"
		}
		// De-noise duplicate adjacent calls.
		if len(entries) > 0 && entries[len(entries)-1] == entry {
			continue
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return ""
	}

	entries, omitted := trimTimelineEntries(entries, timelineMaxEntries)
	return renderTimeline(entries, omitted)
}

func timelineEntryForTool(msg app.Message) (timelineEntry, bool) {
	args := toolArgs(msg)
	switch msg.ToolName {
	case "describe_scene":
		level := args["detailLevel"]
		if level == "" {
			level = "normal"
		}
		return timelineEntry{Group: "Scene", Detail: "Describe view (" + level + ")"}, true
	case "search_web":
		query := strings.TrimSpace(args["query"])
		if query == "" {
			return timelineEntry{Group: "Web", Detail: "Search"}, true
		}
		return timelineEntry{Group: "Web", Detail: "Search " + timelineCode(truncateForTimeline(query, 64))}, true
	case "open_link":
		url := strings.TrimSpace(args["url"])
		if url == "" {
			return timelineEntry{Group: "Links", Detail: "Open link"}, true
		}
		return timelineEntry{Group: "Links", Detail: "Open " + timelineCode(truncateForTimeline(url, 64))}, true
	case "create_calendar_event":
		title := strings.TrimSpace(args["title"])
		if title == "" {
			title = "(untitled)"
		}
		return timelineEntry{Group: "Calendar", Detail: "Schedule " + timelineCode(title)}, true
	default:
		return timelineEntry{
			Group:  "Worked",
			Detail: strings.ReplaceAll(msg.ToolName, "_", " "),
		}, true
	}
}

func toolArgs(msg app.Message) map[string]string {
	if msg.ToolCall == nil {
		return nil
	}
	switch v := msg.ToolCall.Args.(type) {
	case map[string]string:
		return v
	case map[string]interface{}:
		out := make(map[string]string, len(v))
		for k, raw := range v {
			if s, ok := raw.(string); ok {
				out[k] = s
			}
		}
		return out
	default:
		return nil
	}
}

func failed(msg app.Message) bool {
	switch result := msg.ToolResult.(type) {
	case map[string]string:
		_, hasErr := result["error"]
		return hasErr
	case map[string]interface{}:
		_, hasErr := result["error"]
		return hasErr
	default:
		return false
	}
}

func trimTimelineEntries(entries []timelineEntry, max int) ([]timelineEntry, int) {
	if len(entries) <= max || max <= 0 {
		return entries, 0
	}
	trimmed := make([]timelineEntry, 0, max)
	trimmed = append(trimmed, entries[len(entries)-max:]...)
	return trimmed, len(entries) - len(trimmed)
}

func renderTimeline(entries []timelineEntry, omitted int) string {
	var b strings.Builder
	lastGroup := ""

	if omitted > 0 {
		b.WriteString(fmt.Sprintf("• ... %d earlier calls omitted\n", omitted))
	}

	for _, entry := range entries {
		if entry.Group != lastGroup {
			b.WriteString("• ")
			b.WriteString(entry.Group)
			b.WriteString("\n")
			lastGroup = entry.Group
		}
		b.WriteString("  └ ")
		b.WriteString(entry.Detail)
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}

func timelineCode(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return "``"
	}
	input = strings.ReplaceAll(input, "`", "'")
	return "`" + input + "`"
}

func truncateForTimeline(input string, max int) string {
	input = strings.TrimSpace(input)
	if max <= 0 || len(input) <= max {
		return input
	}
	return strings.TrimSpace(input[:max]) + "..."
}
