package document

import (
	"strings"
	"unicode/utf8"
)

// parseText decodes UTF-8, replacing invalid bytes; units is the line count.
func parseText(raw []byte) (string, int, error) {
	text := string(raw)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	text = strings.TrimSpace(strings.TrimPrefix(text, "\uFEFF"))
	if text == "" {
		return "", 0, nil
	}
	return text, strings.Count(text, "\n") + 1, nil
}
