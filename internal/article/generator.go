package article

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"paperscope/internal/models"
	"paperscope/internal/providers"
)

const (
	maxOutlineHeadings  = 6
	chunksPerSection    = 4
	chunkExcerptLimit   = 700
	outlineAbstractClip = 1500
)

// Chunk is one retrievable piece of the paper used to ground article
// sections. Retrieval is keyword scoring over the paper's own content.
type Chunk struct {
	Ref  string
	Text string
}

// BuildChunks flattens the document into scored retrieval units: abstract,
// section bodies, equation descriptions and references.
func BuildChunks(doc models.Document) []Chunk {
	chunks := make([]Chunk, 0, len(doc.Sections)+len(doc.Equations)+2)
	if strings.TrimSpace(doc.Abstract) != "" {
		chunks = append(chunks, Chunk{Ref: "abstract", Text: doc.Abstract})
	}
	for i, s := range doc.Sections {
		if strings.TrimSpace(s.Content) == "" {
			continue
		}
		chunks = append(chunks, Chunk{
			Ref:  fmt.Sprintf("section:%d:%s", i, s.Title),
			Text: s.Title + "\n" + clip(s.Content, chunkExcerptLimit),
		})
	}
	for _, eq := range doc.Equations {
		if eq.IsInline || eq.Description == "" {
			continue
		}
		chunks = append(chunks, Chunk{Ref: "equation:" + eq.ID, Text: eq.Description})
	}
	for _, ref := range doc.References {
		chunks = append(chunks, Chunk{Ref: "reference:" + ref.ID, Text: ref.Text})
	}
	return chunks
}

// scoreChunk counts distinct meaningful query words present in the chunk.
func scoreChunk(text, query string) int {
	content := strings.ToLower(text)
	score := 0
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len(word) <= 3 {
			continue
		}
		if strings.Contains(content, word) {
			score++
		}
	}
	return score
}

// topChunks returns up to n chunks best matching the query, best first.
// Zero-score chunks are excluded.
func topChunks(chunks []Chunk, query string, n int) []Chunk {
	type scored struct {
		chunk Chunk
		score int
		order int
	}
	ranked := make([]scored, 0, len(chunks))
	for i, c := range chunks {
		if s := scoreChunk(c.Text, query); s > 0 {
			ranked = append(ranked, scored{chunk: c, score: s, order: i})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].order < ranked[j].order
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]Chunk, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, r.chunk)
	}
	return out
}

// Generator drafts a long-form article about the paper, grounded in its own
// extracted content: outline first, then one LLM call per section with
// keyword-retrieved context.
type Generator struct {
	llm providers.LLMProvider
}

func NewGenerator(llm providers.LLMProvider) *Generator {
	return &Generator{llm: llm}
}

func (g *Generator) Generate(ctx context.Context, doc models.Document) (string, error) {
	sectionTitles := make([]string, 0, len(doc.Sections))
	for _, s := range doc.Sections {
		sectionTitles = append(sectionTitles, s.Title)
	}
	outlinePrompt := fmt.Sprintf(
		"Plan a popular-science article about this paper. Produce up to %d short section headings, one per line, no numbering.\n\nTitle: %s\n\nAbstract:\n%s\n\nPaper sections: %s",
		maxOutlineHeadings, doc.Title, clip(doc.Abstract, outlineAbstractClip), strings.Join(sectionTitles, "; "))
	outlineResp, _, err := g.llm.Generate(ctx, providers.GenerateRequest{
		Operation: "article_outline",
		Prompt:    outlinePrompt,
	})
	if err != nil {
		return "", fmt.Errorf("article outline: %w", err)
	}
	headings := splitLines(outlineResp.Text, maxOutlineHeadings)
	if len(headings) == 0 {
		return "", fmt.Errorf("article outline produced no headings")
	}

	chunks := BuildChunks(doc)
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s: An Article\n\n", doc.Title)

	for _, heading := range headings {
		selected := topChunks(chunks, heading+" "+doc.Title, chunksPerSection)
		contextTexts := make([]string, 0, len(selected))
		for _, c := range selected {
			contextTexts = append(contextTexts, fmt.Sprintf("[%s] %s", c.Ref, c.Text))
		}
		sectionPrompt := fmt.Sprintf(
			"Write the %q section of an accessible article about the paper %q. Two to four paragraphs, grounded strictly in the provided excerpts.",
			heading, doc.Title)
		resp, _, err := g.llm.Generate(ctx, providers.GenerateRequest{
			Operation: "article_section",
			Prompt:    sectionPrompt,
			Context:   contextTexts,
		})
		if err != nil {
			return "", fmt.Errorf("article section %q: %w", heading, err)
		}
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n", heading, strings.TrimSpace(resp.Text))
	}

	return sb.String(), nil
}

func splitLines(text string, limit int) []string {
	out := make([]string, 0, limit)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*• "))
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == limit {
			break
		}
	}
	return out
}

func clip(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
