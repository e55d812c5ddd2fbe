package helpers

import (
	"encoding/json"
	"strings"
)

// SpanMode selects which bracketed span the extractor looks for.
type SpanMode int

const (
	ArrayMode SpanMode = iota
	ObjectMode
)

func (m SpanMode) brackets() (byte, byte) {
	if m == ObjectMode {
		return '{', '}'
	}
	return '[', ']'
}

// FirstJSONSpan returns the first balanced bracketed span in text for the
// given mode. The scan is string-aware: brackets inside JSON string literals
// (including escaped quotes) do not affect nesting depth. The second return
// value is false when no balanced span exists.
func FirstJSONSpan(text string, mode SpanMode) (string, bool) {
	open, close := mode.brackets()
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// StripCodeFences removes markdown code-fence markers (``` with an optional
// language tag) from text and trims surrounding whitespace.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = text[3:]
		if idx := strings.IndexByte(text, '\n'); idx >= 0 {
			// Drop a language tag like "json" on the opening fence line.
			first := strings.TrimSpace(text[:idx])
			if first != "" && !strings.ContainsAny(first, "{}[]\"") {
				text = text[idx+1:]
			}
		}
	}
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// DecodeJSON extracts the best-effort structured payload from free-form model
// output and unmarshals it into v. The fallback chain is: first balanced
// bracketed span, then the fence-stripped remainder. It reports false when no
// structured payload could be decoded; it never returns an error, a parse
// failure is data for the caller, not an exception.
func DecodeJSON(text string, mode SpanMode, v interface{}) bool {
	if span, ok := FirstJSONSpan(text, mode); ok {
		if err := json.Unmarshal([]byte(span), v); err == nil {
			return true
		}
	}
	stripped := StripCodeFences(text)
	if stripped == "" {
		return false
	}
	return json.Unmarshal([]byte(stripped), v) == nil
}
