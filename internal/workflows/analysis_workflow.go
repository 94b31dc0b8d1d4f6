package workflows

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"paperscope/internal/activities"
	"paperscope/internal/extract"
	"paperscope/internal/models"
)

const QueryGetAnalysisProgress = "GetAnalysisProgress"

// AnalysisWorkflow orchestrates one paper analysis: resolve and extract are
// sequential and fatal, diagrams and review fan out as child workflows whose
// failures degrade to per-stage errors, and the run always ends with a
// written report unless extraction itself failed.
func AnalysisWorkflow(ctx workflow.Context, input AnalysisInput) (string, error) {
	progress := AnalysisProgress{RunID: input.RunID}
	if err := workflow.SetQueryHandler(ctx, QueryGetAnalysisProgress, func() (AnalysisProgress, error) {
		return progress, nil
	}); err != nil {
		return "", err
	}
	advance := func(stage string, percent int, message string) {
		if percent < progress.Percent {
			percent = progress.Percent
		}
		progress.Percent = percent
		progress.CurrentStage = stage
		progress.Events = append(progress.Events, ProgressEvent{
			Stage: stage, Percent: percent, Message: message, At: workflow.Now(ctx),
		})
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: durationOrDefault(input.StageTimeoutSecs, 300),
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        2 * time.Second,
			BackoffCoefficient:     2,
			MaximumInterval:        20 * time.Second,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{activities.ErrTypeInput, activities.ErrTypeExtraction},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	startedAt := workflow.Now(ctx)
	logger := workflow.GetLogger(ctx)
	stages := map[string]models.StageResult{}
	markRunFailed := func(reason string) {
		_ = workflow.ExecuteActivity(ctx, "UpdateRunStatusActivity", activities.UpdateRunStatusInput{
			RunID: input.RunID, Status: "failed", FailReason: reason,
		}).Get(ctx, nil)
	}

	advance("resolve", 5, "starting analysis")
	_ = workflow.ExecuteActivity(ctx, "UpsertRunActivity", activities.UpsertRunInput{
		RunID: input.RunID, Source: input.Source, SourceType: input.SourceType,
		Status: "running", OutputDir: input.OutputDir,
	}).Get(ctx, nil)

	var resolved activities.ResolveSourceOutput
	if err := workflow.ExecuteActivity(ctx, "ResolveSourceActivity", activities.ResolveSourceInput{
		RunID: input.RunID, Source: input.Source, SourceType: input.SourceType,
	}).Get(ctx, &resolved); err != nil {
		markRunFailed("source resolution failed: " + err.Error())
		return "", err
	}
	advance("extract", 15, "source resolved to "+resolved.SourceType)

	var extracted activities.ExtractContentOutput
	if err := workflow.ExecuteActivity(ctx, "ExtractContentActivity", activities.ExtractContentInput{
		RunID: input.RunID, PDFPath: resolved.PDFPath,
		MetaPath: resolved.MetaPath, TeXPath: resolved.TeXPath,
	}).Get(ctx, &extracted); err != nil {
		markRunFailed("content extraction failed: " + err.Error())
		return "", err
	}
	stages["extract"] = models.StageResult{Status: models.StageCompleted}
	doc := extracted.Document
	advance("extract", 40, fmt.Sprintf("extracted %d sections, %d equations", len(doc.Sections), len(doc.Equations)))

	_ = workflow.ExecuteActivity(ctx, "SetRunResultActivity", activities.SetRunResultInput{
		RunID: input.RunID, Title: doc.Title,
	}).Get(ctx, nil)

	var diagramsFut, reviewFut workflow.ChildWorkflowFuture
	if input.Options.GenerateDiagrams {
		childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID: "diagrams-" + input.RunID,
		})
		diagramsFut = workflow.ExecuteChildWorkflow(childCtx, DiagramWorkflow, DiagramWorkflowInput{
			RunID:        input.RunID,
			DiagramTypes: input.Options.DiagramTypes,
			Document:     doc,
			OutputDir:    input.OutputDir,
			TimeoutSecs:  input.SecondaryTimeoutSecs,
		})
	} else {
		stages["diagrams"] = models.StageResult{Status: models.StageSkipped}
	}
	if input.Options.GenerateReview {
		childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID: "review-" + input.RunID,
		})
		reviewFut = workflow.ExecuteChildWorkflow(childCtx, ReviewWorkflow, ReviewWorkflowInput{
			RunID:           input.RunID,
			Document:        doc,
			Venue:           input.Options.TargetVenue,
			LLMProviders:    input.LLMProviders,
			CooldownSeconds: input.CooldownSeconds,
			TimeoutSecs:     input.StageTimeoutSecs,
		})
	} else {
		stages["review"] = models.StageResult{Status: models.StageSkipped}
	}
	advance("analysis", 60, "secondary stages dispatched")

	var diagrams []models.GeneratedDiagram
	if diagramsFut != nil {
		var out DiagramWorkflowOutput
		if err := diagramsFut.Get(ctx, &out); err != nil {
			logger.Warn("diagram workflow failed", "error", err)
			stages["diagrams"] = models.StageResult{Status: models.StageFailed, Error: err.Error()}
		} else if len(out.Diagrams) == 0 && len(out.Failed) > 0 {
			stages["diagrams"] = models.StageResult{Status: models.StageFailed, Error: joinFailures(out.Failed)}
		} else {
			diagrams = out.Diagrams
			stages["diagrams"] = models.StageResult{Status: models.StageCompleted}
		}
	}
	advance("diagrams", 75, fmt.Sprintf("%d diagrams ready", len(diagrams)))

	var peerReview *models.PeerReview
	reviewModel := ""
	if reviewFut != nil {
		var out ReviewWorkflowOutput
		if err := reviewFut.Get(ctx, &out); err != nil {
			logger.Warn("review workflow failed", "error", err)
			stages["review"] = models.StageResult{Status: models.StageFailed, Error: err.Error()}
		} else {
			peerReview = &out.Review
			reviewModel = out.ModelUsed
			stages["review"] = models.StageResult{Status: models.StageCompleted}
		}
	}
	advance("review", 85, "review stage settled")

	if !input.Options.GenerateArticle {
		stages["article"] = models.StageResult{Status: models.StageSkipped}
	}
	if !input.Options.GenerateAudio {
		stages["audio"] = models.StageResult{Status: models.StageSkipped}
	}

	report := models.AnalysisReport{
		RunID:      input.RunID,
		Source:     input.Source,
		SourceType: models.SourceType(resolved.SourceType),
		Options:    input.Options,
		Content:    doc,
		Summary:    extracted.Summary,
		KeyPoints:  extract.KeyPoints(doc, peerReview),
		Diagrams:   diagrams,
		Review:     peerReview,
		Stages:     stages,
		Metadata: models.ReportMetadata{
			AnalysedAt:   workflow.Now(ctx),
			SourceSHA256: resolved.SourceSHA256,
			OCREngine:    extracted.OCREngine,
			ReviewModel:  reviewModel,
		},
	}
	report.Metadata.ProcessingSeconds = workflow.Now(ctx).Sub(startedAt).Seconds()

	// The primary report is written before article and audio run, so a slow
	// or hung secondary call cannot hold up the finished analysis.
	var written activities.WriteReportArtifactsOutput
	if err := workflow.ExecuteActivity(ctx, "WriteReportArtifactsActivity", activities.WriteReportArtifactsInput{
		Report: report, OutputDir: input.OutputDir,
	}).Get(ctx, &written); err != nil {
		markRunFailed("report persistence failed: " + err.Error())
		return "", err
	}
	advance("report", 88, "primary artifacts written")

	if input.Options.GenerateArticle {
		var out activities.GenerateArticleOutput
		if err := workflow.ExecuteActivity(ctx, "GenerateArticleActivity", activities.GenerateArticleInput{
			RunID: input.RunID, Document: doc, OutputDir: input.OutputDir,
		}).Get(ctx, &out); err != nil {
			logger.Warn("article generation failed", "error", err)
			stages["article"] = models.StageResult{Status: models.StageFailed, Error: err.Error()}
		} else {
			report.ArticlePath = out.ArticlePath
			stages["article"] = models.StageResult{Status: models.StageCompleted}
		}
	}
	advance("article", 92, "article stage settled")

	if input.Options.GenerateAudio {
		var out activities.SynthesizeAudioOutput
		if err := workflow.ExecuteActivity(ctx, "SynthesizeAudioActivity", activities.SynthesizeAudioInput{
			RunID: input.RunID, Report: report, OutputDir: input.OutputDir,
		}).Get(ctx, &out); err != nil {
			logger.Warn("audio narration failed", "error", err)
			stages["audio"] = models.StageResult{Status: models.StageFailed, Error: err.Error()}
		} else {
			report.AudioPath = out.AudioPath
			stages["audio"] = models.StageResult{Status: models.StageCompleted}
		}
	}
	advance("audio", 96, "audio stage settled")

	// Secondary outcomes are folded back into the persisted artifacts. The
	// primary report is already on disk, so a refresh failure only warns.
	if input.Options.GenerateArticle || input.Options.GenerateAudio {
		report.Metadata.ProcessingSeconds = workflow.Now(ctx).Sub(startedAt).Seconds()
		if err := workflow.ExecuteActivity(ctx, "WriteReportArtifactsActivity", activities.WriteReportArtifactsInput{
			Report: report, OutputDir: input.OutputDir,
		}).Get(ctx, nil); err != nil {
			logger.Warn("artifact refresh after secondary stages failed", "error", err)
		}
	}
	advance("report", 98, "artifacts written")

	result := activities.SetRunResultInput{RunID: input.RunID, Title: doc.Title}
	if peerReview != nil {
		score := peerReview.OverallScore
		result.ReviewScore = &score
	}
	_ = workflow.ExecuteActivity(ctx, "SetRunResultActivity", result).Get(ctx, nil)
	_ = workflow.ExecuteActivity(ctx, "UpdateRunStatusActivity", activities.UpdateRunStatusInput{
		RunID: input.RunID, Status: "completed",
	}).Get(ctx, nil)
	advance("done", 100, "analysis completed")

	return written.ReportPath, nil
}

// Sorted so the message is stable across workflow replays.
func joinFailures(failed map[string]string) string {
	names := make([]string, 0, len(failed))
	for name := range failed {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+failed[name])
	}
	return strings.Join(parts, "; ")
}
