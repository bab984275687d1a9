package utils

import (
	"encoding/json"
	"strings"
)

// ExtractJSONArray pulls the first valid JSON array out of a model reply.
// Replies often wrap the payload in prose or markdown fences.
func ExtractJSONArray(text string) (string, bool) {
	return extractBalanced(stripCodeFences(text), '[', ']')
}

// ExtractJSONObject pulls the first valid JSON object out of a model reply.
func ExtractJSONObject(text string) (string, bool) {
	return extractBalanced(stripCodeFences(text), '{', '}')
}

func firstValidSpan(text string, start int, open, closing byte) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case open:
			if !inString {
				depth++
			}
		case closing:
			if !inString {
				depth--
				if depth == 0 {
					candidate := text[start : i+1]
					return candidate, json.Valid([]byte(candidate))
				}
			}
		}
	}
	return "", false
}

func stripCodeFences(text string) string {
	var sb strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// extractBalanced scans for a balanced open..closing span and validates each
// candidate, so stray brackets inside prose do not break extraction.
func extractBalanced(text string, open, closing byte) (string, bool) {
	for start := 0; start < len(text); start++ {
		if text[start] != open {
			continue
		}
		if candidate, ok := firstValidSpan(text, start, open, closing); ok {
			return candidate, true
		}
	}
	return "", false
}
