package extract

import (
	"strings"

	"paperscope/internal/models"
)

const (
	// summaryLimit caps every summary field.
	summaryLimit = 500
	// dupGuardPrefix is how much of a candidate is compared against the
	// abstract to reject trivial duplicates.
	dupGuardPrefix = 200
	// Positional fallback windows. Methodology looks just past the opening
	// section; results scans backward skipping the final section, which is
	// usually references or acknowledgements.
	methodologyWindowStart = 1
	methodologyWindowEnd   = 5
)

// SummaryStrategy is one named tier in an ordered extraction cascade.
// Later tiers only run when every earlier tier produced nothing usable.
type SummaryStrategy struct {
	Name string
	Pick func(doc models.Document) string
}

var methodologyChain = []SummaryStrategy{
	{Name: "title-keyword", Pick: titleKeywordPick("method", "approach", "proposed", "framework")},
	{Name: "content-keyword", Pick: contentKeywordPick([]string{"method", "approach", "proposed"}, false)},
	{Name: "positional-window", Pick: methodologyWindowPick},
	{Name: "text-offset", Pick: textOffsetPick(0)},
}

var resultsChain = []SummaryStrategy{
	{Name: "title-keyword", Pick: titleKeywordPick("result", "experiment", "evaluation", "findings")},
	{Name: "content-keyword", Pick: contentKeywordPick([]string{"result", "experiment", "evaluation"}, true)},
	{Name: "positional-reverse", Pick: resultsReversePick},
	{Name: "text-offset", Pick: textOffsetPick(2)},
}

var conclusionsChain = []SummaryStrategy{
	{Name: "title-keyword", Pick: titleKeywordPick("conclusion", "discussion")},
	{Name: "content-keyword", Pick: contentKeywordPick([]string{"we conclude", "in conclusion"}, true)},
}

// Summarize builds the multi-level summary from the document alone.
func Summarize(doc models.Document) models.PaperSummary {
	abstract := truncateRunes(doc.Abstract, summaryLimit)
	conclusions := runChain(conclusionsChain, doc, true)
	if conclusions == "" {
		// Deliberate duplication: with no conclusion section the abstract
		// is the best closing statement available.
		conclusions = abstract
	}
	return models.PaperSummary{
		OneSentence: oneSentence(doc),
		Abstract:    abstract,
		Methodology: runChain(methodologyChain, doc, true),
		Results:     runChain(resultsChain, doc, true),
		Conclusions: conclusions,
	}
}

// runChain walks the cascade in order. With guard set, a candidate whose
// leading text matches the abstract's is rejected so a summary field never
// silently restates the abstract.
func runChain(chain []SummaryStrategy, doc models.Document, guard bool) string {
	for _, strategy := range chain {
		candidate := strings.TrimSpace(strategy.Pick(doc))
		if candidate == "" {
			continue
		}
		if guard && duplicatesAbstract(candidate, doc.Abstract) {
			continue
		}
		return truncateRunes(candidate, summaryLimit)
	}
	return ""
}

func duplicatesAbstract(candidate, abstract string) bool {
	a := strings.TrimSpace(abstract)
	if a == "" {
		return false
	}
	return prefixRunes(candidate, dupGuardPrefix) == prefixRunes(a, dupGuardPrefix)
}

func titleKeywordPick(keywords ...string) func(models.Document) string {
	return func(doc models.Document) string {
		for _, s := range doc.Sections {
			title := strings.ToLower(s.Title)
			for _, kw := range keywords {
				if strings.Contains(title, kw) {
					return s.Content
				}
			}
		}
		return ""
	}
}

// contentKeywordPick searches section bodies. With backHalf set only the
// later half of the paper is scanned, where results sections live.
func contentKeywordPick(keywords []string, backHalf bool) func(models.Document) string {
	return func(doc models.Document) string {
		sections := doc.Sections
		if backHalf && len(sections) > 1 {
			sections = sections[len(sections)/2:]
		}
		for _, s := range sections {
			content := strings.ToLower(s.Content)
			for _, kw := range keywords {
				if strings.Contains(content, kw) {
					return s.Content
				}
			}
		}
		return ""
	}
}

func methodologyWindowPick(doc models.Document) string {
	end := methodologyWindowEnd
	if end > len(doc.Sections) {
		end = len(doc.Sections)
	}
	for i := methodologyWindowStart; i < end; i++ {
		if strings.TrimSpace(doc.Sections[i].Content) != "" {
			return doc.Sections[i].Content
		}
	}
	return ""
}

func resultsReversePick(doc models.Document) string {
	for i := len(doc.Sections) - 2; i >= 0; i-- {
		if strings.TrimSpace(doc.Sections[i].Content) != "" {
			return doc.Sections[i].Content
		}
	}
	return ""
}

// textOffsetPick slices the raw text at 1/divisor of its length
// (divisor 0 means the start) when no section structure helped.
func textOffsetPick(divisor int) func(models.Document) string {
	return func(doc models.Document) string {
		runes := []rune(doc.FullText)
		start := 0
		if divisor > 0 {
			start = len(runes) / divisor
		}
		if start >= len(runes) {
			return ""
		}
		return string(runes[start:])
	}
}

func oneSentence(doc models.Document) string {
	source := strings.TrimSpace(doc.Abstract)
	if source == "" {
		return doc.Title
	}
	if idx := strings.Index(source, ". "); idx > 0 {
		return source[:idx+1]
	}
	return truncateRunes(source, dupGuardPrefix)
}

func prefixRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

func truncateRunes(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) > n {
		r = r[:n]
	}
	return strings.TrimSpace(string(r))
}
