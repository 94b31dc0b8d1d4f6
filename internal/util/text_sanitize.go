package util

import "strings"

// SanitizeText strips NUL bytes and non-printing control characters from
// OCR output before it is stored or rendered. Tabs and newlines survive.
func SanitizeText(s string) string {
	if s == "" {
		return s
	}
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return r
		case r < 0x20:
			return -1
		default:
			return r
		}
	}, s)
	return strings.TrimSpace(cleaned)
}
