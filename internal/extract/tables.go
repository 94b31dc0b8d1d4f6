package extract

import (
	"fmt"
	"regexp"
	"strings"

	"paperscope/internal/models"
)

var (
	tableSeparatorPattern = regexp.MustCompile(`^\s*\|[\s\-\|:]+\|\s*$`)
	tableCaptionPattern   = regexp.MustCompile(`(?i)^\*?\*?(?:Table|Tab\.?)\s*\d+[.:]\*?\*?\s*(.+)`)
	figureCaptionPattern  = regexp.MustCompile(`(?i)(?:^|\n)\s*\*?\*?(?:Figure|Fig\.?)\s*(\d+)\*?\*?[.:\-]?\s*(.{5,200})`)
)

// ExtractTables prefers typed layout blocks from the OCR backend. The
// markdown pipe-table fallback runs only when blocks yield nothing at all,
// never to supplement a non-empty block result.
func ExtractTables(blocks []models.LayoutBlock, markdown string) []models.Table {
	tables := make([]models.Table, 0)
	for _, b := range blocks {
		switch b.Type {
		case "table", "table_body", "table_caption":
			tables = append(tables, models.Table{
				ID:      fmt.Sprintf("table_%03d", len(tables)+1),
				Content: b.Content,
				Caption: b.Caption,
				Section: b.Section,
			})
		}
	}
	if len(tables) == 0 && markdown != "" {
		tables = tablesFromMarkdown(markdown)
	}
	return tables
}

// tablesFromMarkdown recognizes pipe tables: at least three lines with a
// separator row second. Column count is pipes minus one on the header row;
// row count excludes header and separator.
func tablesFromMarkdown(text string) []models.Table {
	lines := strings.Split(text, "\n")
	tables := make([]models.Table, 0)
	i := 0
	for i < len(lines) {
		if !strings.HasPrefix(strings.TrimSpace(lines[i]), "|") {
			i++
			continue
		}
		start := i
		for i < len(lines) && strings.HasPrefix(strings.TrimSpace(lines[i]), "|") {
			i++
		}
		block := lines[start:i]
		if len(block) < 3 || !tableSeparatorPattern.MatchString(block[1]) {
			continue
		}
		t := models.Table{
			ID:      fmt.Sprintf("table_%03d", len(tables)+1),
			Content: strings.Join(block, "\n"),
			Cols:    strings.Count(block[0], "|") - 1,
			Rows:    len(block) - 2,
		}
		// A "Table N:" line immediately after the grid is its caption.
		if i < len(lines) {
			if m := tableCaptionPattern.FindStringSubmatch(strings.TrimSpace(lines[i])); m != nil {
				t.Caption = strings.TrimSpace(m[1])
			}
		}
		tables = append(tables, t)
	}
	return tables
}

// ExtractFigures mirrors the table strategy: layout blocks first, caption
// regex over the markdown only when no figure blocks exist.
func ExtractFigures(blocks []models.LayoutBlock, markdown string) []models.Figure {
	figures := make([]models.Figure, 0)
	for _, b := range blocks {
		switch b.Type {
		case "figure", "figure_caption", "image":
			figures = append(figures, models.Figure{
				ID:        fmt.Sprintf("figure_%03d", len(figures)+1),
				ImagePath: b.ImagePath,
				Caption:   firstNonEmpty(b.Caption, b.Content),
				Section:   b.Section,
				Page:      b.Page,
			})
		}
	}
	if len(figures) == 0 && markdown != "" {
		for _, m := range figureCaptionPattern.FindAllStringSubmatch(markdown, -1) {
			caption := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(m[2]), "*"))
			figures = append(figures, models.Figure{
				ID:      fmt.Sprintf("figure_%s", m[1]),
				Caption: caption,
			})
		}
	}
	return figures
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
