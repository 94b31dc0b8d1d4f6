package workflows

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"paperscope/internal/activities"
	"paperscope/internal/models"
	"paperscope/internal/providers"
	"paperscope/internal/review"
)

type providerState struct {
	disabledUntil map[int]time.Time
	retries       map[string]int
}

func newProviderState() providerState {
	return providerState{disabledUntil: map[int]time.Time{}, retries: map[string]int{}}
}

// ReviewWorkflow runs the reviewer node chain: intake, query generation,
// related-work search, strengths, weaknesses, scoring, composition. Every
// LLM node goes through provider failover; an exhausted node fails the
// whole review, which the parent degrades to a failed stage.
func ReviewWorkflow(ctx workflow.Context, input ReviewWorkflowInput) (ReviewWorkflowOutput, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: durationOrDefault(input.TimeoutSecs, 300),
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	logger := workflow.GetLogger(ctx)

	providerCount := input.LLMProviders
	if providerCount <= 0 {
		providerCount = 1
	}
	cooldown := durationOrDefault(input.CooldownSeconds, 900)
	state := newProviderState()
	venue := input.Venue
	if strings.TrimSpace(venue) == "" {
		venue = "a top-tier venue"
	}
	doc := input.Document

	intake, _, err := callLLMWithFailover(ctx, &state, providerCount, cooldown, activities.LLMGenerateInput{
		Operation: "review_intake", RunID: input.RunID, Prompt: review.IntakePrompt(doc),
	})
	if err != nil {
		return ReviewWorkflowOutput{}, fmt.Errorf("review intake: %w", err)
	}
	if doc.Title == "" || doc.Title == "Untitled" {
		if lines := review.ParseLines(intake.Text); len(lines) > 0 {
			doc.Title = lines[0]
		}
	}

	queriesOut, _, err := callLLMWithFailover(ctx, &state, providerCount, cooldown, activities.LLMGenerateInput{
		Operation: "review_queries", RunID: input.RunID, Prompt: review.QueryGenerationPrompt(doc),
	})
	if err != nil {
		return ReviewWorkflowOutput{}, fmt.Errorf("review query generation: %w", err)
	}
	queries := review.ParseLines(queriesOut.Text)

	var related []models.RelatedWork
	if len(queries) > 0 {
		var searchOut activities.SearchRelatedWorkOutput
		if err := workflow.ExecuteActivity(ctx, "SearchRelatedWorkActivity", activities.SearchRelatedWorkInput{
			RunID: input.RunID, Queries: queries,
		}).Get(ctx, &searchOut); err != nil {
			// Related work enriches analysis prompts but is not required.
			logger.Warn("related-work search failed", "error", err)
		} else {
			related = searchOut.Related
		}
	}

	strengthsOut, _, err := callLLMWithFailover(ctx, &state, providerCount, cooldown, activities.LLMGenerateInput{
		Operation: "review_strengths", RunID: input.RunID, Prompt: review.StrengthPrompt(doc, related),
	})
	if err != nil {
		return ReviewWorkflowOutput{}, fmt.Errorf("review strengths: %w", err)
	}
	strengths := review.ParseLines(strengthsOut.Text)

	weaknessesOut, _, err := callLLMWithFailover(ctx, &state, providerCount, cooldown, activities.LLMGenerateInput{
		Operation: "review_weaknesses", RunID: input.RunID, Prompt: review.WeaknessPrompt(doc, related),
	})
	if err != nil {
		return ReviewWorkflowOutput{}, fmt.Errorf("review weaknesses: %w", err)
	}
	weaknesses := review.ParseLines(weaknessesOut.Text)

	scoringOut, _, err := callLLMWithFailover(ctx, &state, providerCount, cooldown, activities.LLMGenerateInput{
		Operation: "review_scoring", RunID: input.RunID,
		Prompt: review.ScoringPrompt(doc, strengths, weaknesses, venue),
	})
	if err != nil {
		return ReviewWorkflowOutput{}, fmt.Errorf("review scoring: %w", err)
	}
	soundness, presentation, contribution, parsed := review.ParseDimensionScores(scoringOut.Text)
	if !parsed {
		logger.Warn("scoring response unparseable, using neutral scores", "response", scoringOut.Text)
	}
	overall := review.ComputeFinalScore(soundness, presentation, contribution)
	decision := review.InterpretScore(overall)

	composed, _, err := callLLMWithFailover(ctx, &state, providerCount, cooldown, activities.LLMGenerateInput{
		Operation: "review_composition", RunID: input.RunID,
		Prompt: review.CompositionPrompt(doc, strengths, weaknesses, overall, decision, venue),
	})
	if err != nil {
		return ReviewWorkflowOutput{}, fmt.Errorf("review composition: %w", err)
	}

	return ReviewWorkflowOutput{
		Review: models.PeerReview{
			OverallScore: overall,
			Decision:     decision,
			Confidence:   review.FixedConfidence,
			Dimensions: map[string]models.DimensionScore{
				"soundness":    {Name: "soundness", Score: soundness, Weight: review.WeightSoundness},
				"presentation": {Name: "presentation", Score: presentation, Weight: review.WeightPresentation},
				"contribution": {Name: "contribution", Score: contribution, Weight: review.WeightContribution},
			},
			Strengths:    strengths,
			Weaknesses:   weaknesses,
			RelatedWorks: related,
			RawReview:    strings.TrimSpace(composed.Text),
		},
		ModelUsed: composed.Model,
	}, nil
}

func callLLMWithFailover(ctx workflow.Context, state *providerState, providerCount int, cooldown time.Duration, input activities.LLMGenerateInput) (activities.LLMGenerateOutput, string, error) {
	var lastErr error
	for attempt := 0; attempt < providerCount*4; attempt++ {
		idx := attempt % providerCount
		if isProviderDisabled(ctx, state, idx) {
			continue
		}
		input.ProviderIndex = idx
		var out activities.LLMGenerateOutput
		err := workflow.ExecuteActivity(ctx, "LLMGenerateActivity", input).Get(ctx, &out)
		if err == nil {
			_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{
				Operation: input.Operation, RunID: input.RunID,
				ProviderName: out.ProviderName, Model: out.Model,
				RequestID: fmt.Sprintf("%s-%d", input.Operation, attempt), Status: "ok",
			}).Get(ctx, nil)
			return out, "", nil
		}
		lastErr = err
		errType := providers.ClassifyError(err)
		_ = workflow.ExecuteActivity(ctx, "LogLLMCallActivity", activities.LogLLMCallInput{
			Operation: input.Operation, RunID: input.RunID,
			ProviderName: fmt.Sprintf("provider-%d", idx),
			RequestID:    fmt.Sprintf("%s-%d", input.Operation, attempt),
			Status:       "failed", ErrorType: string(errType),
		}).Get(ctx, nil)
		key := fmt.Sprintf("llm-%s-%d", input.Operation, idx)
		state.retries[key]++
		switch errType {
		case providers.ErrorQuota:
			disableProviderUntil(ctx, state, idx, cooldown)
		case providers.ErrorRate:
			if state.retries[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(state.retries[key]*2)*time.Second)
				attempt--
			} else {
				disableProviderUntil(ctx, state, idx, 2*time.Minute)
			}
		case providers.ErrorTransient:
			if state.retries[key] <= 2 {
				workflow.Sleep(ctx, time.Duration(state.retries[key])*time.Second)
				attempt--
			}
		case providers.ErrorContext:
			return activities.LLMGenerateOutput{}, string(providers.ErrorContext), err
		default:
			disableProviderUntil(ctx, state, idx, time.Minute)
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("all llm providers exhausted")
	}
	return activities.LLMGenerateOutput{}, string(providers.ClassifyError(lastErr)), lastErr
}

func isProviderDisabled(ctx workflow.Context, state *providerState, idx int) bool {
	until, ok := state.disabledUntil[idx]
	if !ok {
		return false
	}
	return workflow.Now(ctx).Before(until)
}

func disableProviderUntil(ctx workflow.Context, state *providerState, idx int, d time.Duration) {
	state.disabledUntil[idx] = workflow.Now(ctx).Add(d)
}

func durationOrDefault(seconds int, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
