package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"paperscope/internal/activities"
	"paperscope/internal/diagram"
)

// DiagramWorkflow fans out one activity per requested diagram type. Unknown
// types are skipped with a warning, and per-type activity failures are
// recorded rather than propagated. The synthesis-service fallback happens
// inside the activity, so a type only lands in Failed when even the local
// fallback rendering failed.
func DiagramWorkflow(ctx workflow.Context, input DiagramWorkflowInput) (DiagramWorkflowOutput, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: durationOrDefault(input.TimeoutSecs, 600),
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	logger := workflow.GetLogger(ctx)

	types := input.DiagramTypes
	if len(types) == 0 {
		types = diagram.DefaultTypes()
	}

	out := DiagramWorkflowOutput{Failed: map[string]string{}}
	futures := make([]workflow.Future, 0, len(types))
	requested := make([]string, 0, len(types))
	for _, diagramType := range types {
		if !diagram.IsKnownType(diagramType) {
			logger.Warn("skipping unknown diagram type", "type", diagramType)
			out.Skipped = append(out.Skipped, diagramType)
			continue
		}
		futures = append(futures, workflow.ExecuteActivity(ctx, "GenerateDiagramActivity", activities.GenerateDiagramInput{
			RunID:       input.RunID,
			DiagramType: diagramType,
			Document:    input.Document,
			OutputDir:   input.OutputDir,
		}))
		requested = append(requested, diagramType)
	}

	for i, f := range futures {
		var result activities.GenerateDiagramOutput
		if err := f.Get(ctx, &result); err != nil {
			logger.Warn("diagram generation failed", "type", requested[i], "error", err)
			out.Failed[requested[i]] = err.Error()
			continue
		}
		out.Diagrams = append(out.Diagrams, result.Diagram)
	}
	if len(out.Failed) == 0 {
		out.Failed = nil
	}
	return out, nil
}
