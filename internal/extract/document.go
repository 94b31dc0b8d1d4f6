package extract

import (
	"fmt"
	"strings"

	"paperscope/internal/models"
)

// BuildDocument reconstructs a structured document from OCR markdown plus
// whatever typed layout blocks the OCR backend produced.
func BuildDocument(markdown string, blocks []models.LayoutBlock) models.Document {
	sections := ParseSections(markdown)
	doc := models.Document{
		Title:      ExtractTitle(markdown, sections),
		Authors:    ExtractAuthors(markdown),
		Abstract:   ExtractAbstract(markdown, sections),
		FullText:   markdown,
		Sections:   sections,
		Equations:  ExtractEquations(markdown),
		Tables:     ExtractTables(blocks, markdown),
		Figures:    ExtractFigures(blocks, markdown),
		References: ExtractReferences(markdown),
		Metadata:   map[string]any{},
	}
	return doc
}

// SidecarMetadata carries publisher metadata fetched during ingestion. When
// present it overrides the text heuristics.
type SidecarMetadata struct {
	ArxivID  string   `json:"arxiv_id,omitempty"`
	DOI      string   `json:"doi,omitempty"`
	Title    string   `json:"title,omitempty"`
	Authors  []string `json:"authors,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
}

func ApplySidecarMetadata(doc *models.Document, meta SidecarMetadata) {
	if strings.TrimSpace(meta.Title) != "" {
		doc.Title = strings.TrimSpace(meta.Title)
	}
	if len(meta.Authors) > 0 {
		doc.Authors = meta.Authors
	}
	if strings.TrimSpace(meta.Abstract) != "" {
		doc.Abstract = strings.TrimSpace(meta.Abstract)
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}
	if meta.ArxivID != "" {
		doc.Metadata["arxiv_id"] = meta.ArxivID
	}
	if meta.DOI != "" {
		doc.Metadata["doi"] = meta.DOI
	}
}

// AppendTeXEquations extracts equations from a LaTeX source sidecar and
// appends the ones OCR missed, renumbered to continue the document counter.
func AppendTeXEquations(doc *models.Document, texSource string) int {
	if strings.TrimSpace(texSource) == "" {
		return 0
	}
	seen := make(map[string]bool, len(doc.Equations))
	for _, eq := range doc.Equations {
		seen[normalizeLatex(eq.LaTeX)] = true
	}
	added := 0
	for _, eq := range ExtractEquations(texSource) {
		key := normalizeLatex(eq.LaTeX)
		if seen[key] {
			continue
		}
		seen[key] = true
		eq.ID = fmt.Sprintf("eq_%03d", len(doc.Equations)+1)
		doc.Equations = append(doc.Equations, eq)
		added++
	}
	return added
}

func normalizeLatex(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
