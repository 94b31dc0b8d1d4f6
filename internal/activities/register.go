package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ResolveSourceActivity)
	w.RegisterActivity(a.ExtractContentActivity)
	w.RegisterActivity(a.GenerateDiagramActivity)
	w.RegisterActivity(a.SearchRelatedWorkActivity)
	w.RegisterActivity(a.LLMGenerateActivity)
	w.RegisterActivity(a.GenerateArticleActivity)
	w.RegisterActivity(a.SynthesizeAudioActivity)
	w.RegisterActivity(a.WriteReportArtifactsActivity)
	w.RegisterActivity(a.UpsertRunActivity)
	w.RegisterActivity(a.UpdateRunStatusActivity)
	w.RegisterActivity(a.SetRunResultActivity)
	w.RegisterActivity(a.LogLLMCallActivity)
}
