package session

import (
	"fmt"
	"strings"
)

func escapeText(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, "\r", "\\r")
	text = strings.ReplaceAll(text, "\n", "\\n")
	text = strings.ReplaceAll(text, "\t", "\\t")
	text = strings.ReplaceAll(text, "\x1b", "\\u001b")
	return text
}

// preview renders text for debug logs: control characters escaped and
// long payloads truncated head-and-tail.
func preview(text string, max int) string {
	if max <= 0 {
		max = 240
	}
	escaped := escapeText(text)
	if len(escaped) <= max {
		return escaped
	}
	if max < 16 {
		return escaped[:max]
	}
	head := max / 2
	tail := max - head
	return fmt.Sprintf("%s...(truncated:%d)...%s", escaped[:head], len(escaped), escaped[len(escaped)-tail:])
}

func lineCount(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(text, "\n") + 1
}
