package workflows

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker) {
	w.RegisterWorkflow(AnalysisWorkflow)
	w.RegisterWorkflow(DiagramWorkflow)
	w.RegisterWorkflow(ReviewWorkflow)
}
