package extract

import (
	"regexp"
	"strings"

	"paperscope/internal/models"
)

var (
	sectionHeaderPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	latexSectionPattern  = regexp.MustCompile(`\\(?:sub)*section\*?\{([^}]+)\}`)
)

// ParseSections splits OCR markdown into sections on markdown headers. The
// header depth becomes the section level; body text runs to the next header.
func ParseSections(text string) []models.Section {
	matches := sectionHeaderPattern.FindAllStringSubmatchIndex(text, -1)
	sections := make([]models.Section, 0, len(matches))
	for i, m := range matches {
		level := m[3] - m[2]
		title := strings.TrimSpace(text[m[4]:m[5]])
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections = append(sections, models.Section{
			Title:   title,
			Level:   level,
			Content: strings.TrimSpace(text[m[1]:end]),
		})
	}
	return sections
}

// ExtractTitle prefers the first level-1 section title, falling back to the
// first non-empty line stripped of header markup.
func ExtractTitle(text string, sections []models.Section) string {
	for _, s := range sections {
		if s.Level == 1 {
			return s.Title
		}
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "Untitled"
	}
	first := strings.SplitN(trimmed, "\n", 2)[0]
	first = strings.TrimSpace(strings.Trim(first, "# "))
	if first == "" {
		return "Untitled"
	}
	return first
}

// ExtractAuthors scans the lines right under the title for a comma-separated
// name list. OCR output rarely marks authors up, so this stays conservative.
func ExtractAuthors(text string) []string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	for i := 1; i < limit; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Contains(line, ",") {
			parts := strings.Split(line, ",")
			authors := make([]string, 0, len(parts))
			for _, p := range parts {
				if name := strings.TrimSpace(p); name != "" {
					authors = append(authors, name)
				}
			}
			if len(authors) > 0 {
				return authors
			}
		}
	}
	return nil
}

var abstractPattern = regexp.MustCompile(`(?is)\babstract\b[:\s]*(.+?)(?:\n\s*\n|\n#|\n1\.|\nI\.)`)

// ExtractAbstract looks for an "Abstract" section first, then falls back to
// a labelled abstract paragraph in the raw text.
func ExtractAbstract(text string, sections []models.Section) string {
	for _, s := range sections {
		if strings.Contains(strings.ToLower(s.Title), "abstract") {
			return strings.TrimSpace(s.Content)
		}
	}
	if m := abstractPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
