package llm

import (
	"encoding/json"
	"strings"
)

// Models wrap JSON in prose and markdown fences more often than not. The
// scanners below pull the first balanced JSON object or array out of raw
// model text; callers unmarshal the result themselves.

// ExtractObject finds the first balanced JSON object in a string.
func ExtractObject(s string) string {
	return extractBalanced(s, '{', '}')
}

// ExtractArray finds the first balanced JSON array in a string.
func ExtractArray(s string) string {
	return extractBalanced(s, '[', ']')
}

func extractBalanced(s string, openCh, closeCh byte) string {
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")

	// Remove markdown fences (commonly output by LLMs)
	for _, r := range []string{"```json", "```yaml", "```text", "```", "`json", "`"} {
		s = strings.ReplaceAll(s, r, "")
	}

	start := strings.IndexByte(s, openCh)
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				candidate := strings.TrimSpace(s[start : i+1])
				var tmp any
				if json.Unmarshal([]byte(candidate), &tmp) == nil {
					return candidate
				}
				// best effort: hand the malformed candidate back anyway
				return candidate
			}
		}
	}

	return ""
}
