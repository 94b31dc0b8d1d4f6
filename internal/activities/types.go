package activities

import "paperscope/internal/models"

type ResolveSourceInput struct {
	RunID      string `json:"run_id"`
	Source     string `json:"source"`
	SourceType string `json:"source_type"`
}

type ResolveSourceOutput struct {
	PDFPath      string   `json:"pdf_path"`
	MetaPath     string   `json:"meta_path,omitempty"`
	TeXPath      string   `json:"tex_path,omitempty"`
	SourceType   string   `json:"source_type"`
	ArxivID      string   `json:"arxiv_id,omitempty"`
	DOI          string   `json:"doi,omitempty"`
	SourceSHA256 string   `json:"source_sha256"`
	FetchErrors  []string `json:"fetch_errors,omitempty"`
}

type ExtractContentInput struct {
	RunID    string `json:"run_id"`
	PDFPath  string `json:"pdf_path"`
	MetaPath string `json:"meta_path,omitempty"`
	TeXPath  string `json:"tex_path,omitempty"`
}

type ExtractContentOutput struct {
	Document          models.Document     `json:"document"`
	Summary           models.PaperSummary `json:"summary"`
	OCREngine         string              `json:"ocr_engine"`
	TeXEquationsAdded int                 `json:"tex_equations_added"`
}

type GenerateDiagramInput struct {
	RunID       string          `json:"run_id"`
	DiagramType string          `json:"diagram_type"`
	Document    models.Document `json:"document"`
	OutputDir   string          `json:"output_dir"`
}

type GenerateDiagramOutput struct {
	Diagram models.GeneratedDiagram `json:"diagram"`
}

type SearchRelatedWorkInput struct {
	RunID   string   `json:"run_id"`
	Queries []string `json:"queries"`
}

type SearchRelatedWorkOutput struct {
	Related []models.RelatedWork `json:"related"`
}

type LLMGenerateInput struct {
	Operation     string   `json:"operation"`
	RunID         string   `json:"run_id"`
	Prompt        string   `json:"prompt"`
	Context       []string `json:"context"`
	ProviderIndex int      `json:"provider_index"`
}

type LLMGenerateOutput struct {
	Text         string `json:"text"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`
}

type GenerateArticleInput struct {
	RunID         string          `json:"run_id"`
	Document      models.Document `json:"document"`
	OutputDir     string          `json:"output_dir"`
	ProviderIndex int             `json:"provider_index"`
}

type GenerateArticleOutput struct {
	ArticlePath string `json:"article_path"`
}

type SynthesizeAudioInput struct {
	RunID     string                `json:"run_id"`
	Report    models.AnalysisReport `json:"report"`
	OutputDir string                `json:"output_dir"`
}

type SynthesizeAudioOutput struct {
	AudioPath  string `json:"audio_path"`
	ScriptPath string `json:"script_path"`
}

type WriteReportArtifactsInput struct {
	Report    models.AnalysisReport `json:"report"`
	OutputDir string                `json:"output_dir"`
}

type WriteReportArtifactsOutput struct {
	ReportPath string `json:"report_path"`
}

type UpsertRunInput struct {
	RunID      string `json:"run_id"`
	Source     string `json:"source"`
	SourceType string `json:"source_type"`
	Status     string `json:"status"`
	OutputDir  string `json:"output_dir"`
}

type UpdateRunStatusInput struct {
	RunID      string `json:"run_id"`
	Status     string `json:"status"`
	FailReason string `json:"fail_reason,omitempty"`
}

type SetRunResultInput struct {
	RunID       string   `json:"run_id"`
	Title       string   `json:"title,omitempty"`
	ReviewScore *float64 `json:"review_score,omitempty"`
}

type LogLLMCallInput struct {
	CallID       string `json:"call_id"`
	Operation    string `json:"operation"`
	RunID        string `json:"run_id"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`
	RequestID    string `json:"request_id"`
	Status       string `json:"status"`
	ErrorType    string `json:"error_type"`
}
