package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"paperscope/internal/activities"
	"paperscope/internal/models"
	"paperscope/internal/review"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func testDocument() models.Document {
	return models.Document{
		Title:    "A Coupled Solver",
		Abstract: "We couple two solvers.",
		FullText: "# A Coupled Solver\n\nBody.",
		Sections: []models.Section{
			{Title: "A Coupled Solver", Level: 1, Content: "Body."},
			{Title: "Method", Level: 2, Content: "Alternating projections."},
		},
		Equations: []models.Equation{{ID: "eq_001", LaTeX: "E = mc^2", Section: "Method"}},
	}
}

func registerPipelineStubs(env *testsuite.TestWorkflowEnvironment) {
	registerActivityName(env, "UpsertRunActivity", func(context.Context, activities.UpsertRunInput) error { return nil })
	registerActivityName(env, "UpdateRunStatusActivity", func(context.Context, activities.UpdateRunStatusInput) error { return nil })
	registerActivityName(env, "SetRunResultActivity", func(context.Context, activities.SetRunResultInput) error { return nil })
	registerActivityName(env, "LogLLMCallActivity", func(context.Context, activities.LogLLMCallInput) error { return nil })
	registerActivityName(env, "ResolveSourceActivity", func(context.Context, activities.ResolveSourceInput) (activities.ResolveSourceOutput, error) {
		return activities.ResolveSourceOutput{}, nil
	})
	registerActivityName(env, "ExtractContentActivity", func(context.Context, activities.ExtractContentInput) (activities.ExtractContentOutput, error) {
		return activities.ExtractContentOutput{}, nil
	})
	registerActivityName(env, "GenerateDiagramActivity", func(context.Context, activities.GenerateDiagramInput) (activities.GenerateDiagramOutput, error) {
		return activities.GenerateDiagramOutput{}, nil
	})
	registerActivityName(env, "SearchRelatedWorkActivity", func(context.Context, activities.SearchRelatedWorkInput) (activities.SearchRelatedWorkOutput, error) {
		return activities.SearchRelatedWorkOutput{}, nil
	})
	registerActivityName(env, "LLMGenerateActivity", func(context.Context, activities.LLMGenerateInput) (activities.LLMGenerateOutput, error) {
		return activities.LLMGenerateOutput{}, nil
	})
	registerActivityName(env, "GenerateArticleActivity", func(context.Context, activities.GenerateArticleInput) (activities.GenerateArticleOutput, error) {
		return activities.GenerateArticleOutput{}, nil
	})
	registerActivityName(env, "SynthesizeAudioActivity", func(context.Context, activities.SynthesizeAudioInput) (activities.SynthesizeAudioOutput, error) {
		return activities.SynthesizeAudioOutput{}, nil
	})
	registerActivityName(env, "WriteReportArtifactsActivity", func(context.Context, activities.WriteReportArtifactsInput) (activities.WriteReportArtifactsOutput, error) {
		return activities.WriteReportArtifactsOutput{}, nil
	})
}

func llmOp(op string) any {
	return mock.MatchedBy(func(in activities.LLMGenerateInput) bool { return in.Operation == op })
}

func TestAnalysisWorkflowFullRun(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(AnalysisWorkflow)
	env.RegisterWorkflow(DiagramWorkflow)
	env.RegisterWorkflow(ReviewWorkflow)
	registerPipelineStubs(env)

	env.OnActivity("UpsertRunActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("UpdateRunStatusActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("SetRunResultActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("LogLLMCallActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("ResolveSourceActivity", mock.Anything, mock.Anything).Return(activities.ResolveSourceOutput{
		PDFPath: "/tmp/paper.pdf", SourceType: string(models.SourceArxivID), SourceSHA256: "abc123",
	}, nil)
	env.OnActivity("ExtractContentActivity", mock.Anything, mock.Anything).Return(activities.ExtractContentOutput{
		Document:  testDocument(),
		Summary:   models.PaperSummary{OneSentence: "We couple two solvers."},
		OCREngine: "local-pdf",
	}, nil)
	env.OnActivity("GenerateDiagramActivity", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, in activities.GenerateDiagramInput) (activities.GenerateDiagramOutput, error) {
			return activities.GenerateDiagramOutput{Diagram: models.GeneratedDiagram{
				DiagramType: in.DiagramType, ImagePath: "/out/" + in.DiagramType + ".png", Format: "png",
			}}, nil
		})
	env.OnActivity("SearchRelatedWorkActivity", mock.Anything, mock.Anything).Return(activities.SearchRelatedWorkOutput{
		Related: []models.RelatedWork{{Title: "Prior Coupled Work", URL: "https://arxiv.org/abs/1"}},
	}, nil)
	env.OnActivity("LLMGenerateActivity", mock.Anything, llmOp("review_intake")).Return(activities.LLMGenerateOutput{Text: "A Coupled Solver"}, nil)
	env.OnActivity("LLMGenerateActivity", mock.Anything, llmOp("review_queries")).Return(activities.LLMGenerateOutput{Text: "coupled solvers\ncontact dynamics"}, nil)
	env.OnActivity("LLMGenerateActivity", mock.Anything, llmOp("review_strengths")).Return(activities.LLMGenerateOutput{Text: "- Clear\n- Reproducible"}, nil)
	env.OnActivity("LLMGenerateActivity", mock.Anything, llmOp("review_weaknesses")).Return(activities.LLMGenerateOutput{Text: "- Narrow evaluation"}, nil)
	env.OnActivity("LLMGenerateActivity", mock.Anything, llmOp("review_scoring")).Return(activities.LLMGenerateOutput{Text: "4, 3, 3.5"}, nil)
	env.OnActivity("LLMGenerateActivity", mock.Anything, llmOp("review_composition")).Return(activities.LLMGenerateOutput{Text: "A fine paper.", Model: "mock-llm-v1"}, nil)
	env.OnActivity("GenerateArticleActivity", mock.Anything, mock.Anything).Return(activities.GenerateArticleOutput{ArticlePath: "/out/article.md"}, nil)
	env.OnActivity("SynthesizeAudioActivity", mock.Anything, mock.Anything).Return(activities.SynthesizeAudioOutput{AudioPath: "/out/narration.wav"}, nil)

	var written models.AnalysisReport
	env.OnActivity("WriteReportArtifactsActivity", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, in activities.WriteReportArtifactsInput) (activities.WriteReportArtifactsOutput, error) {
			written = in.Report
			return activities.WriteReportArtifactsOutput{ReportPath: "/out/report.md"}, nil
		})

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{
		RunID: "run-1", Source: "2101.00001", SourceType: string(models.SourceArxivID),
		Options: models.AnalysisOptions{
			GenerateDiagrams: true, GenerateReview: true,
			GenerateArticle: true, GenerateAudio: true,
			DiagramTypes: []string{"methodology", "results"},
		},
		OutputDir: "/out", LLMProviders: 1, CooldownSeconds: 10,
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var path string
	require.NoError(t, env.GetWorkflowResult(&path))
	require.Equal(t, "/out/report.md", path)

	require.NotNil(t, written.Review)
	require.InDelta(t, review.ComputeFinalScore(4, 3, 3.5), written.Review.OverallScore, 1e-9)
	require.Len(t, written.Diagrams, 2)
	require.Equal(t, "/out/article.md", written.ArticlePath)
	for _, stage := range []string{"extract", "diagrams", "review", "article", "audio"} {
		require.Equal(t, models.StageCompleted, written.Stages[stage].Status, "stage %s", stage)
	}

	val, err := env.QueryWorkflow(QueryGetAnalysisProgress)
	require.NoError(t, err)
	var prog AnalysisProgress
	require.NoError(t, val.Get(&prog))
	require.Equal(t, 100, prog.Percent)
	last := 0
	for _, ev := range prog.Events {
		require.GreaterOrEqual(t, ev.Percent, last)
		last = ev.Percent
	}
}

func TestAnalysisWorkflowPersistsReportBeforeSecondaryStages(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(AnalysisWorkflow)
	registerPipelineStubs(env)

	env.OnActivity("UpsertRunActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("UpdateRunStatusActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("SetRunResultActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("ResolveSourceActivity", mock.Anything, mock.Anything).Return(activities.ResolveSourceOutput{
		PDFPath: "/tmp/paper.pdf", SourceType: string(models.SourcePDFFile),
	}, nil)
	env.OnActivity("ExtractContentActivity", mock.Anything, mock.Anything).Return(activities.ExtractContentOutput{
		Document: testDocument(),
	}, nil)

	var order []string
	var reports []models.AnalysisReport
	env.OnActivity("WriteReportArtifactsActivity", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, in activities.WriteReportArtifactsInput) (activities.WriteReportArtifactsOutput, error) {
			order = append(order, "persist")
			reports = append(reports, in.Report)
			return activities.WriteReportArtifactsOutput{ReportPath: "/out/report.md"}, nil
		})
	env.OnActivity("GenerateArticleActivity", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, in activities.GenerateArticleInput) (activities.GenerateArticleOutput, error) {
			order = append(order, "article")
			return activities.GenerateArticleOutput{ArticlePath: "/out/article.md"}, nil
		})
	env.OnActivity("SynthesizeAudioActivity", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, in activities.SynthesizeAudioInput) (activities.SynthesizeAudioOutput, error) {
			order = append(order, "audio")
			return activities.SynthesizeAudioOutput{AudioPath: "/out/narration.wav"}, nil
		})

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{
		RunID: "run-6", Source: "/tmp/paper.pdf", SourceType: string(models.SourcePDFFile),
		Options:   models.AnalysisOptions{GenerateArticle: true, GenerateAudio: true},
		OutputDir: "/out", LLMProviders: 1,
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	// The primary report lands on disk before either secondary stage runs;
	// their outputs arrive in a follow-up refresh of the same artifacts.
	require.Equal(t, []string{"persist", "article", "audio", "persist"}, order)
	require.Len(t, reports, 2)
	require.Empty(t, reports[0].ArticlePath)
	require.Empty(t, reports[0].AudioPath)
	require.Equal(t, "/out/article.md", reports[1].ArticlePath)
	require.Equal(t, "/out/narration.wav", reports[1].AudioPath)
	require.Equal(t, models.StageCompleted, reports[1].Stages["article"].Status)
	require.Equal(t, models.StageCompleted, reports[1].Stages["audio"].Status)

	var path string
	require.NoError(t, env.GetWorkflowResult(&path))
	require.Equal(t, "/out/report.md", path)
}

func TestAnalysisWorkflowReviewFailureIsIsolated(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(AnalysisWorkflow)
	env.RegisterWorkflow(ReviewWorkflow)
	registerPipelineStubs(env)

	env.OnActivity("UpsertRunActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("UpdateRunStatusActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("SetRunResultActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("LogLLMCallActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("ResolveSourceActivity", mock.Anything, mock.Anything).Return(activities.ResolveSourceOutput{
		PDFPath: "/tmp/paper.pdf", SourceType: string(models.SourcePDFFile),
	}, nil)
	env.OnActivity("ExtractContentActivity", mock.Anything, mock.Anything).Return(activities.ExtractContentOutput{
		Document: testDocument(),
	}, nil)
	// A permanently failing provider exhausts review failover.
	env.OnActivity("LLMGenerateActivity", mock.Anything, mock.Anything).Return(
		activities.LLMGenerateOutput{}, errors.New("invalid api key"))

	var written models.AnalysisReport
	env.OnActivity("WriteReportArtifactsActivity", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, in activities.WriteReportArtifactsInput) (activities.WriteReportArtifactsOutput, error) {
			written = in.Report
			return activities.WriteReportArtifactsOutput{ReportPath: "/out/report.md"}, nil
		})

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{
		RunID: "run-2", Source: "/tmp/paper.pdf", SourceType: string(models.SourcePDFFile),
		Options:   models.AnalysisOptions{GenerateReview: true},
		OutputDir: "/out", LLMProviders: 1, CooldownSeconds: 10,
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	require.Nil(t, written.Review)
	require.Equal(t, models.StageFailed, written.Stages["review"].Status)
	require.NotEmpty(t, written.Stages["review"].Error)
	require.Equal(t, models.StageCompleted, written.Stages["extract"].Status)
	require.Equal(t, models.StageSkipped, written.Stages["diagrams"].Status)
}

func TestAnalysisWorkflowExtractionFailureIsFatal(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(AnalysisWorkflow)
	registerPipelineStubs(env)

	env.OnActivity("UpsertRunActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("SetRunResultActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("ResolveSourceActivity", mock.Anything, mock.Anything).Return(activities.ResolveSourceOutput{
		PDFPath: "/tmp/paper.pdf", SourceType: string(models.SourcePDFFile),
	}, nil)
	env.OnActivity("ExtractContentActivity", mock.Anything, mock.Anything).Return(
		activities.ExtractContentOutput{},
		temporal.NewNonRetryableApplicationError("no extractable text", activities.ErrTypeExtraction, nil))

	var failReason string
	env.OnActivity("UpdateRunStatusActivity", mock.Anything, mock.Anything).Return(
		func(ctx context.Context, in activities.UpdateRunStatusInput) error {
			if in.Status == "failed" {
				failReason = in.FailReason
			}
			return nil
		})

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{
		RunID: "run-3", Source: "/tmp/paper.pdf", SourceType: string(models.SourcePDFFile),
		OutputDir: "/out", LLMProviders: 1,
	})
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	require.Contains(t, failReason, "content extraction failed")
}

func TestDiagramWorkflowSkipsUnknownTypes(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(DiagramWorkflow)
	registerActivityName(env, "GenerateDiagramActivity", func(context.Context, activities.GenerateDiagramInput) (activities.GenerateDiagramOutput, error) {
		return activities.GenerateDiagramOutput{}, nil
	})
	env.OnActivity("GenerateDiagramActivity", mock.Anything, mock.MatchedBy(func(in activities.GenerateDiagramInput) bool {
		return in.DiagramType == "methodology"
	})).Return(activities.GenerateDiagramOutput{Diagram: models.GeneratedDiagram{
		DiagramType: "methodology", ImagePath: "/out/methodology.png",
	}}, nil).Times(1)

	env.ExecuteWorkflow(DiagramWorkflow, DiagramWorkflowInput{
		RunID: "run-4", DiagramTypes: []string{"methodology", "flowchart"},
		Document: testDocument(), OutputDir: "/out",
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out DiagramWorkflowOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Len(t, out.Diagrams, 1)
	require.Equal(t, []string{"flowchart"}, out.Skipped)
	env.AssertExpectations(t)
}

func TestReviewWorkflowNeutralScoresOnUnparseableResponse(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ReviewWorkflow)
	registerActivityName(env, "LLMGenerateActivity", func(context.Context, activities.LLMGenerateInput) (activities.LLMGenerateOutput, error) {
		return activities.LLMGenerateOutput{}, nil
	})
	registerActivityName(env, "SearchRelatedWorkActivity", func(context.Context, activities.SearchRelatedWorkInput) (activities.SearchRelatedWorkOutput, error) {
		return activities.SearchRelatedWorkOutput{}, nil
	})
	registerActivityName(env, "LogLLMCallActivity", func(context.Context, activities.LogLLMCallInput) error { return nil })

	env.OnActivity("LogLLMCallActivity", mock.Anything, mock.Anything).Return(nil)
	env.OnActivity("SearchRelatedWorkActivity", mock.Anything, mock.Anything).Return(activities.SearchRelatedWorkOutput{}, nil)
	env.OnActivity("LLMGenerateActivity", mock.Anything, llmOp("review_intake")).Return(activities.LLMGenerateOutput{Text: "A Coupled Solver"}, nil)
	env.OnActivity("LLMGenerateActivity", mock.Anything, llmOp("review_queries")).Return(activities.LLMGenerateOutput{Text: "coupled solvers"}, nil)
	env.OnActivity("LLMGenerateActivity", mock.Anything, llmOp("review_strengths")).Return(activities.LLMGenerateOutput{Text: "- Clear"}, nil)
	env.OnActivity("LLMGenerateActivity", mock.Anything, llmOp("review_weaknesses")).Return(activities.LLMGenerateOutput{Text: "- Narrow"}, nil)
	env.OnActivity("LLMGenerateActivity", mock.Anything, llmOp("review_scoring")).Return(activities.LLMGenerateOutput{Text: "I would say 7 out of 10"}, nil)
	env.OnActivity("LLMGenerateActivity", mock.Anything, llmOp("review_composition")).Return(activities.LLMGenerateOutput{Text: "Review body."}, nil)

	env.ExecuteWorkflow(ReviewWorkflow, ReviewWorkflowInput{
		RunID: "run-5", Document: testDocument(), LLMProviders: 1, CooldownSeconds: 10,
	})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out ReviewWorkflowOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	want := review.ComputeFinalScore(review.NeutralDimensionScore, review.NeutralDimensionScore, review.NeutralDimensionScore)
	require.InDelta(t, want, out.Review.OverallScore, 1e-9)
	require.Equal(t, "Borderline", out.Review.Decision)
	require.Equal(t, review.FixedConfidence, out.Review.Confidence)
}
