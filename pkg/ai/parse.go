package ai

import (
	"strings"
)

// ExtractJSON pulls the JSON payload out of a model response: code fences are
// stripped and the text is cut to the outermost array or object. The result
// may still be invalid JSON.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```JSON")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	start := strings.IndexAny(text, "[{")
	if start == -1 {
		return text
	}
	closer := "]"
	if text[start] == '{' {
		closer = "}"
	}
	end := strings.LastIndex(text, closer)
	if end <= start {
		return text[start:]
	}
	return text[start : end+1]
}
