package workflows

import (
	"time"

	"paperscope/internal/models"
)

type AnalysisInput struct {
	RunID                string                 `json:"run_id"`
	Source               string                 `json:"source"`
	SourceType           string                 `json:"source_type,omitempty"`
	Options              models.AnalysisOptions `json:"options"`
	OutputDir            string                 `json:"output_dir"`
	LLMProviders         int                    `json:"llm_providers"`
	CooldownSeconds      int                    `json:"cooldown_seconds"`
	StageTimeoutSecs     int                    `json:"stage_timeout_seconds,omitempty"`
	SecondaryTimeoutSecs int                    `json:"secondary_timeout_seconds,omitempty"`
}

// ProgressEvent is one append-only entry in the run's progress log.
type ProgressEvent struct {
	Stage   string    `json:"stage"`
	Percent int       `json:"percent"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// AnalysisProgress is the query-handler payload. Percent never decreases.
type AnalysisProgress struct {
	RunID        string          `json:"run_id"`
	Percent      int             `json:"percent"`
	CurrentStage string          `json:"current_stage"`
	Events       []ProgressEvent `json:"events"`
}

type DiagramWorkflowInput struct {
	RunID        string          `json:"run_id"`
	DiagramTypes []string        `json:"diagram_types"`
	Document     models.Document `json:"document"`
	OutputDir    string          `json:"output_dir"`
	TimeoutSecs  int             `json:"timeout_seconds,omitempty"`
}

type DiagramWorkflowOutput struct {
	Diagrams []models.GeneratedDiagram `json:"diagrams"`
	Skipped  []string                  `json:"skipped,omitempty"`
	Failed   map[string]string         `json:"failed,omitempty"`
}

type ReviewWorkflowInput struct {
	RunID           string          `json:"run_id"`
	Document        models.Document `json:"document"`
	Venue           string          `json:"venue"`
	LLMProviders    int             `json:"llm_providers"`
	CooldownSeconds int             `json:"cooldown_seconds"`
	TimeoutSecs     int             `json:"timeout_seconds,omitempty"`
}

type ReviewWorkflowOutput struct {
	Review    models.PeerReview `json:"review"`
	ModelUsed string            `json:"model_used,omitempty"`
}
