package models

import "time"

// SourceType classifies how an analysis source was specified.
type SourceType string

const (
	SourcePDFFile SourceType = "pdf_file"
	SourcePDFURL  SourceType = "pdf_url"
	SourceArxivID SourceType = "arxiv_id"
	SourceDOI     SourceType = "doi"
)

// Section is one structural unit of a reconstructed document.
type Section struct {
	Title   string `json:"title"`
	Level   int    `json:"level"`
	Content string `json:"content"`
}

// Equation is a display or inline math fragment recovered from OCR text.
type Equation struct {
	ID          string `json:"id"`
	LaTeX       string `json:"latex"`
	Context     string `json:"context,omitempty"`
	Section     string `json:"section,omitempty"`
	IsInline    bool   `json:"is_inline"`
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
}

type Table struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Caption string `json:"caption,omitempty"`
	Section string `json:"section,omitempty"`
	Rows    int    `json:"rows,omitempty"`
	Cols    int    `json:"cols,omitempty"`
}

type Figure struct {
	ID        string `json:"id"`
	ImagePath string `json:"image_path,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Section   string `json:"section,omitempty"`
	Page      int    `json:"page,omitempty"`
}

type Reference struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// LayoutBlock is one typed region reported by an OCR backend. Engines that
// cannot produce layout information return no blocks at all.
type LayoutBlock struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Section   string `json:"section,omitempty"`
	ImagePath string `json:"image_path,omitempty"`
	Page      int    `json:"page,omitempty"`
}

// Document is the structured reconstruction of a paper.
type Document struct {
	Title      string         `json:"title"`
	Authors    []string       `json:"authors,omitempty"`
	Abstract   string         `json:"abstract,omitempty"`
	FullText   string         `json:"full_text"`
	Sections   []Section      `json:"sections,omitempty"`
	Equations  []Equation     `json:"equations,omitempty"`
	Tables     []Table        `json:"tables,omitempty"`
	Figures    []Figure       `json:"figures,omitempty"`
	References []Reference    `json:"references,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// GeneratedDiagram records one diagram attempt, synthesized or fallback.
type GeneratedDiagram struct {
	DiagramType   string `json:"diagram_type"`
	ImagePath     string `json:"image_path"`
	Caption       string `json:"caption,omitempty"`
	SourceContext string `json:"source_context,omitempty"`
	Iterations    int    `json:"iterations,omitempty"`
	Format        string `json:"format"`
	IsFallback    bool   `json:"is_fallback"`
	Error         string `json:"error,omitempty"`
}

type DimensionScore struct {
	Name          string  `json:"name"`
	Score         float64 `json:"score"`
	Weight        float64 `json:"weight"`
	Justification string  `json:"justification,omitempty"`
}

type RelatedWork struct {
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// PeerReview is the calibrated assessment produced by the review pipeline.
type PeerReview struct {
	OverallScore float64                   `json:"overall_score"`
	Decision     string                    `json:"decision"`
	Confidence   float64                   `json:"confidence"`
	Dimensions   map[string]DimensionScore `json:"dimensions"`
	Strengths    []string                  `json:"strengths,omitempty"`
	Weaknesses   []string                  `json:"weaknesses,omitempty"`
	RelatedWorks []RelatedWork             `json:"related_works,omitempty"`
	RawReview    string                    `json:"raw_review,omitempty"`
}

type PaperSummary struct {
	OneSentence string `json:"one_sentence,omitempty"`
	Abstract    string `json:"abstract,omitempty"`
	Methodology string `json:"methodology,omitempty"`
	Results     string `json:"results,omitempty"`
	Conclusions string `json:"conclusions,omitempty"`
}

type KeyPoint struct {
	Point      string `json:"point"`
	Evidence   string `json:"evidence,omitempty"`
	Section    string `json:"section,omitempty"`
	Importance string `json:"importance,omitempty"`
}

// AnalysisOptions selects which pipeline stages run for an analysis.
type AnalysisOptions struct {
	GenerateDiagrams bool     `json:"generate_diagrams"`
	GenerateReview   bool     `json:"generate_review"`
	GenerateArticle  bool     `json:"generate_article"`
	GenerateAudio    bool     `json:"generate_audio"`
	DiagramTypes     []string `json:"diagram_types,omitempty"`
	TargetVenue      string   `json:"target_venue,omitempty"`
}

type StageStatus string

const (
	StageSkipped   StageStatus = "skipped"
	StageCompleted StageStatus = "completed"
	StageFailed    StageStatus = "failed"
)

// StageResult distinguishes "not requested" from "requested but failed".
type StageResult struct {
	Status StageStatus `json:"status"`
	Error  string      `json:"error,omitempty"`
}

type ReportMetadata struct {
	AnalysedAt        time.Time `json:"analysed_at"`
	SourceSHA256      string    `json:"source_sha256,omitempty"`
	OCREngine         string    `json:"ocr_engine,omitempty"`
	DiagramProvider   string    `json:"diagram_provider,omitempty"`
	ReviewModel       string    `json:"review_model,omitempty"`
	ProcessingSeconds float64   `json:"processing_seconds,omitempty"`
}

// AnalysisReport is the assembled result of one pipeline run.
type AnalysisReport struct {
	RunID       string                 `json:"run_id"`
	Source      string                 `json:"source"`
	SourceType  SourceType             `json:"source_type"`
	Options     AnalysisOptions        `json:"options"`
	Content     Document               `json:"content"`
	Summary     PaperSummary           `json:"summary"`
	KeyPoints   []KeyPoint             `json:"key_points,omitempty"`
	Diagrams    []GeneratedDiagram     `json:"diagrams,omitempty"`
	Review      *PeerReview            `json:"review,omitempty"`
	Stages      map[string]StageResult `json:"stages"`
	ArticlePath string                 `json:"article_path,omitempty"`
	AudioPath   string                 `json:"audio_path,omitempty"`
	Metadata    ReportMetadata         `json:"metadata"`
}

// Run is a row in the analysis run registry.
type Run struct {
	RunID       string    `json:"run_id"`
	Source      string    `json:"source"`
	SourceType  string    `json:"source_type"`
	Title       string    `json:"title,omitempty"`
	Status      string    `json:"status"`
	FailReason  string    `json:"fail_reason,omitempty"`
	ReviewScore *float64  `json:"review_score,omitempty"`
	OutputDir   string    `json:"output_dir,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
