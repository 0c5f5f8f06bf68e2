package analysis

import "strings"

const jsonFence = "```json"

// ExtractJSON isolates a candidate JSON payload from a raw oracle response.
// A ```json fenced block wins; otherwise the span from the first '{' to the
// last '}' is taken; otherwise the raw text is returned unchanged and left
// for the parser to reject. This is a heuristic, not a guarantee.
func ExtractJSON(raw string) string {
	if idx := strings.Index(raw, jsonFence); idx >= 0 {
		rest := raw[idx+len(jsonFence):]
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		return strings.TrimSpace(rest)
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}

	return raw
}
