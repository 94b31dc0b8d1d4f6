package extract

import (
	"fmt"
	"regexp"
	"strings"

	"paperscope/internal/models"
)

var (
	referenceHeadingPattern = regexp.MustCompile(`(?i)^#{1,3}\s*(References|Bibliography|Works Cited)`)
	referenceStopPattern    = regexp.MustCompile(`^#{1,2}\s+\w`)
	bracketedRefPattern     = regexp.MustCompile(`^\[(\d+)\]\s*(.+)`)
	numberedRefPattern      = regexp.MustCompile(`^(\d+)\.\s+(.+)`)
	apaRefPattern           = regexp.MustCompile(`^[A-Z][a-zA-Zéàü\-]+(?:,\s*[A-Z]\.?)+.{10,}`)
)

// ExtractReferences collects bibliography entries. Matching is confined to
// the region after a References/Bibliography/Works Cited heading and stops
// at the next top-level heading once at least one entry was found.
func ExtractReferences(text string) []models.Reference {
	refs := make([]models.Reference, 0)
	inRefs := false
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if referenceHeadingPattern.MatchString(line) {
			inRefs = true
			continue
		}
		if !inRefs {
			continue
		}
		if referenceStopPattern.MatchString(line) && len(refs) > 0 {
			break
		}
		var entry string
		if m := bracketedRefPattern.FindStringSubmatch(line); m != nil {
			entry = m[2]
		} else if m := numberedRefPattern.FindStringSubmatch(line); m != nil {
			entry = m[2]
		} else if apaRefPattern.MatchString(line) && len(line) > 20 {
			entry = line
		}
		if entry != "" {
			refs = append(refs, models.Reference{
				ID:   fmt.Sprintf("ref_%03d", len(refs)+1),
				Text: strings.TrimSpace(entry),
			})
		}
	}
	return refs
}
