package report

import (
	"fmt"
	"path/filepath"

	"paperscope/internal/models"
	"paperscope/internal/util"
)

// Artifact filenames under the per-run output directory.
const (
	FileReport     = "report.md"
	FileKeyPoints  = "key_points.md"
	FileSpecOutput = "spec_output.md"
	FileHTML       = "report.html"
	FileReview     = "review.md"
	FileMetadata   = "metadata.json"

	DirExtracted   = "extracted"
	FileFullText   = "full_text.md"
	FileEquations  = "equations.json"
	FileTables     = "tables.json"
	FileReferences = "references.jsonl"
)

// runMetadata is the metadata.json payload.
type runMetadata struct {
	RunID      string                        `json:"run_id"`
	Source     string                        `json:"source"`
	SourceType string                        `json:"source_type"`
	Title      string                        `json:"title"`
	Counts     map[string]int                `json:"counts"`
	Stages     map[string]models.StageResult `json:"stages"`
	Review     *models.PeerReview            `json:"review,omitempty"`
	Meta       models.ReportMetadata         `json:"meta"`
}

// SaveAll persists every report artifact atomically and returns the path of
// the main report. Each file is written once; reruns replace whole files
// rather than appending.
func SaveAll(r models.AnalysisReport, outputDir string) (string, error) {
	if err := util.EnsureDir(outputDir); err != nil {
		return "", err
	}

	md := BuildMarkdown(r)
	reportPath := filepath.Join(outputDir, FileReport)
	if err := util.WriteTextAtomic(reportPath, md); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := util.WriteTextAtomic(filepath.Join(outputDir, FileKeyPoints), BuildKeyPoints(r)); err != nil {
		return "", fmt.Errorf("write key points: %w", err)
	}
	if err := util.WriteTextAtomic(filepath.Join(outputDir, FileSpecOutput), BuildSpecOutput(r)); err != nil {
		return "", fmt.Errorf("write spec output: %w", err)
	}
	page, err := BuildHTML(r.Content.Title, md)
	if err != nil {
		return "", err
	}
	if err := util.WriteTextAtomic(filepath.Join(outputDir, FileHTML), page); err != nil {
		return "", fmt.Errorf("write html report: %w", err)
	}
	if review := BuildReviewMarkdown(r); review != "" {
		if err := util.WriteTextAtomic(filepath.Join(outputDir, FileReview), review); err != nil {
			return "", fmt.Errorf("write review: %w", err)
		}
	}

	extracted := filepath.Join(outputDir, DirExtracted)
	if err := util.WriteTextAtomic(filepath.Join(extracted, FileFullText), r.Content.FullText); err != nil {
		return "", fmt.Errorf("write full text: %w", err)
	}
	if err := util.WriteJSONAtomic(filepath.Join(extracted, FileEquations), r.Content.Equations); err != nil {
		return "", fmt.Errorf("write equations: %w", err)
	}
	if err := util.WriteJSONAtomic(filepath.Join(extracted, FileTables), r.Content.Tables); err != nil {
		return "", fmt.Errorf("write tables: %w", err)
	}
	refs := make([]any, 0, len(r.Content.References))
	for _, ref := range r.Content.References {
		refs = append(refs, ref)
	}
	if err := util.WriteJSONLinesAtomic(filepath.Join(extracted, FileReferences), refs); err != nil {
		return "", fmt.Errorf("write references: %w", err)
	}

	meta := runMetadata{
		RunID:      r.RunID,
		Source:     r.Source,
		SourceType: string(r.SourceType),
		Title:      r.Content.Title,
		Counts:     Counts(r.Content),
		Stages:     r.Stages,
		Review:     r.Review,
		Meta:       r.Metadata,
	}
	if err := util.WriteJSONAtomic(filepath.Join(outputDir, FileMetadata), meta); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}
	return reportPath, nil
}
