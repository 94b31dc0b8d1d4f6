package activities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.temporal.io/sdk/temporal"

	"paperscope/internal/article"
	"paperscope/internal/audio"
	"paperscope/internal/config"
	"paperscope/internal/diagram"
	"paperscope/internal/extract"
	"paperscope/internal/ingest"
	"paperscope/internal/models"
	"paperscope/internal/ocr"
	"paperscope/internal/providers"
	"paperscope/internal/report"
	"paperscope/internal/review"
	"paperscope/internal/storage"
	"paperscope/internal/util"
)

// Temporal application-error types. Both are non-retryable: a bad source or
// an unreadable PDF does not get better on retry.
const (
	ErrTypeInput      = "InputError"
	ErrTypeExtraction = "ExtractionError"
)

type Activities struct {
	cfg          config.Config
	runRepo      *storage.RunRepo
	llmAuditRepo *storage.LLMAuditRepo
	providers    *providers.Manager
	resolver     *ingest.Resolver
	ocrEngine    ocr.Engine
	diagrams     diagram.Service
	search       *review.SearchClient
	tts          audio.Synthesizer
}

func New(cfg config.Config, db *storage.DB) (*Activities, error) {
	pm, err := providers.NewManager(cfg.LLMProviders)
	if err != nil {
		return nil, err
	}
	return &Activities{
		cfg:          cfg,
		runRepo:      storage.NewRunRepo(db),
		llmAuditRepo: storage.NewLLMAuditRepo(db),
		providers:    pm,
		resolver:     ingest.NewResolver(cfg.TempDir, time.Duration(cfg.FetchTimeoutSecs)*time.Second, cfg.FetchRetries),
		ocrEngine:    ocr.NewEngine(cfg.OCRServiceURL, cfg.OCRModel),
		diagrams:     diagram.NewHTTPService(cfg.DiagramServiceURL, cfg.DiagramAPIKey, cfg.DiagramProvider, cfg.DiagramVLMModel, cfg.DiagramImageModel),
		search:       review.NewSearchClient(cfg.TavilyAPIKey, 0),
		tts:          audio.NewHTTPSynthesizer(cfg.TTSServiceURL, cfg.TTSAPIKey, cfg.TTSModel, cfg.TTSVoice),
	}, nil
}

func (a *Activities) ResolveSourceActivity(ctx context.Context, in ResolveSourceInput) (ResolveSourceOutput, error) {
	sourceType := models.SourceType(in.SourceType)
	if sourceType == "" {
		detected, err := ingest.DetectSourceType(in.Source)
		if err != nil {
			return ResolveSourceOutput{}, temporal.NewNonRetryableApplicationError("unusable source", ErrTypeInput, err)
		}
		sourceType = detected
	}

	resolved, err := a.resolver.Resolve(ctx, in.Source, sourceType)
	if err != nil {
		if sourceType == models.SourcePDFFile {
			return ResolveSourceOutput{}, temporal.NewNonRetryableApplicationError("source pdf not accessible", ErrTypeInput, err)
		}
		return ResolveSourceOutput{}, fmt.Errorf("resolve %s source: %w", sourceType, err)
	}

	sum, err := fileSHA256(resolved.PDFPath)
	if err != nil {
		return ResolveSourceOutput{}, err
	}
	return ResolveSourceOutput{
		PDFPath:      resolved.PDFPath,
		MetaPath:     resolved.MetaPath,
		TeXPath:      resolved.TeXPath,
		SourceType:   string(resolved.SourceType),
		ArxivID:      resolved.ArxivID,
		DOI:          resolved.DOI,
		SourceSHA256: sum,
		FetchErrors:  resolved.FetchErrors,
	}, nil
}

func (a *Activities) ExtractContentActivity(ctx context.Context, in ExtractContentInput) (ExtractContentOutput, error) {
	markdown, blocks, err := a.ocrEngine.Extract(ctx, in.PDFPath)
	if err != nil {
		if errors.Is(err, util.ErrNoExtractableText) {
			return ExtractContentOutput{}, temporal.NewNonRetryableApplicationError("no extractable text", ErrTypeExtraction, err)
		}
		return ExtractContentOutput{}, fmt.Errorf("ocr extract: %w", err)
	}

	doc := extract.BuildDocument(markdown, blocks)
	if in.MetaPath != "" {
		if meta, err := readSidecarMetadata(in.MetaPath); err == nil {
			extract.ApplySidecarMetadata(&doc, meta)
		}
	}
	added := 0
	if in.TeXPath != "" {
		if tex, err := os.ReadFile(in.TeXPath); err == nil {
			added = extract.AppendTeXEquations(&doc, string(tex))
		}
	}

	return ExtractContentOutput{
		Document:          doc,
		Summary:           extract.Summarize(doc),
		OCREngine:         a.ocrEngine.Name(),
		TeXEquationsAdded: added,
	}, nil
}

// GenerateDiagramActivity never fails on synthesis errors: the service
// result is replaced by a locally rendered fallback diagram.
func (a *Activities) GenerateDiagramActivity(ctx context.Context, in GenerateDiagramInput) (GenerateDiagramOutput, error) {
	sourceContext, intent := diagram.ContextForType(in.Document, in.DiagramType)
	outDir := filepath.Join(in.OutputDir, "diagrams", in.DiagramType)

	result, err := a.diagrams.Generate(ctx, diagram.Request{
		DiagramType:   in.DiagramType,
		SourceContext: sourceContext,
		Intent:        intent,
		OutputDir:     outDir,
		MaxIterations: a.cfg.DiagramMaxIterations,
	})
	if err == nil {
		return GenerateDiagramOutput{Diagram: models.GeneratedDiagram{
			DiagramType:   in.DiagramType,
			ImagePath:     result.ImagePath,
			Caption:       diagram.Caption(in.DiagramType, in.Document.Title, false),
			SourceContext: sourceContext,
			Iterations:    result.Iterations,
			Format:        "png",
		}}, nil
	}

	fallbackPath := filepath.Join(outDir, in.DiagramType+".png")
	renderErr := diagram.RenderFallback(fallbackPath, diagram.FallbackInput{
		DiagramType:   in.DiagramType,
		Title:         in.Document.Title,
		SourceContext: sourceContext,
		ErrorText:     err.Error(),
		Sections:      len(in.Document.Sections),
		Equations:     len(in.Document.Equations),
		Tables:        len(in.Document.Tables),
		Figures:       len(in.Document.Figures),
	})
	if renderErr != nil {
		return GenerateDiagramOutput{}, fmt.Errorf("fallback diagram render: %w", renderErr)
	}
	return GenerateDiagramOutput{Diagram: models.GeneratedDiagram{
		DiagramType:   in.DiagramType,
		ImagePath:     fallbackPath,
		Caption:       diagram.Caption(in.DiagramType, in.Document.Title, true),
		SourceContext: sourceContext,
		Format:        "png",
		IsFallback:    true,
		Error:         err.Error(),
	}}, nil
}

func (a *Activities) SearchRelatedWorkActivity(ctx context.Context, in SearchRelatedWorkInput) (SearchRelatedWorkOutput, error) {
	seen := make(map[string]bool)
	var related []models.RelatedWork
	for _, q := range in.Queries {
		results, err := a.search.Search(ctx, q)
		if err != nil {
			// Related-work search is advisory. A failed query is dropped.
			continue
		}
		for _, r := range results {
			key := r.URL
			if key == "" {
				key = r.Title
			}
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			related = append(related, r)
		}
	}
	return SearchRelatedWorkOutput{Related: related}, nil
}

// llmBySlot maps a workflow failover slot through the manager's preference
// order, so real providers are tried before the mock.
func (a *Activities) llmBySlot(slot int) (providers.LLMProvider, providers.ProviderRef) {
	order := a.providers.PreferredLLMOrder()
	if len(order) > 0 {
		if slot < 0 || slot >= len(order) {
			slot = 0
		}
		slot = order[slot]
	}
	return a.providers.LLMProviderByIndex(slot)
}

func (a *Activities) LLMGenerateActivity(ctx context.Context, in LLMGenerateInput) (LLMGenerateOutput, error) {
	provider, ref := a.llmBySlot(in.ProviderIndex)
	resp, info, err := provider.Generate(ctx, providers.GenerateRequest{
		Operation: in.Operation,
		Prompt:    in.Prompt,
		Context:   in.Context,
	})
	if err != nil {
		return LLMGenerateOutput{}, fmt.Errorf("llm generate via %s failed: %w", ref.Raw, err)
	}
	return LLMGenerateOutput{
		Text:         resp.Text,
		ProviderName: info.Name,
		Model:        info.Model,
	}, nil
}

func (a *Activities) GenerateArticleActivity(ctx context.Context, in GenerateArticleInput) (GenerateArticleOutput, error) {
	provider, _ := a.llmBySlot(in.ProviderIndex)
	text, err := article.NewGenerator(provider).Generate(ctx, in.Document)
	if err != nil {
		return GenerateArticleOutput{}, err
	}
	path := filepath.Join(in.OutputDir, "article.md")
	if err := util.WriteTextAtomic(path, text); err != nil {
		return GenerateArticleOutput{}, err
	}
	return GenerateArticleOutput{ArticlePath: path}, nil
}

func (a *Activities) SynthesizeAudioActivity(ctx context.Context, in SynthesizeAudioInput) (SynthesizeAudioOutput, error) {
	audioPath := filepath.Join(in.OutputDir, "narration.wav")
	script, err := audio.Narrate(ctx, a.tts, in.Report, audioPath)
	if err != nil {
		return SynthesizeAudioOutput{}, err
	}
	scriptPath := filepath.Join(in.OutputDir, "narration.txt")
	if err := util.WriteTextAtomic(scriptPath, script); err != nil {
		return SynthesizeAudioOutput{}, err
	}
	return SynthesizeAudioOutput{AudioPath: audioPath, ScriptPath: scriptPath}, nil
}

func (a *Activities) WriteReportArtifactsActivity(ctx context.Context, in WriteReportArtifactsInput) (WriteReportArtifactsOutput, error) {
	_ = ctx
	path, err := report.SaveAll(in.Report, in.OutputDir)
	if err != nil {
		return WriteReportArtifactsOutput{}, err
	}
	return WriteReportArtifactsOutput{ReportPath: path}, nil
}

func (a *Activities) UpsertRunActivity(ctx context.Context, in UpsertRunInput) error {
	return a.runRepo.Upsert(ctx, models.Run{
		RunID:      in.RunID,
		Source:     in.Source,
		SourceType: in.SourceType,
		Status:     in.Status,
		OutputDir:  in.OutputDir,
	})
}

func (a *Activities) UpdateRunStatusActivity(ctx context.Context, in UpdateRunStatusInput) error {
	return a.runRepo.UpdateStatus(ctx, in.RunID, in.Status, in.FailReason)
}

func (a *Activities) SetRunResultActivity(ctx context.Context, in SetRunResultInput) error {
	return a.runRepo.SetResult(ctx, in.RunID, in.Title, in.ReviewScore)
}

func (a *Activities) LogLLMCallActivity(ctx context.Context, in LogLLMCallInput) error {
	return a.llmAuditRepo.Insert(ctx, storage.LLMCallRecord{
		CallID:       in.CallID,
		Operation:    in.Operation,
		RunID:        in.RunID,
		ProviderName: in.ProviderName,
		Model:        in.Model,
		RequestID:    in.RequestID,
		Status:       in.Status,
		ErrorType:    in.ErrorType,
	})
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()
	sum, err := util.SHA256HexFromReader(f)
	if err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return sum, nil
}

func readSidecarMetadata(path string) (extract.SidecarMetadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return extract.SidecarMetadata{}, err
	}
	var meta extract.SidecarMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return extract.SidecarMetadata{}, fmt.Errorf("parse metadata sidecar: %w", err)
	}
	return meta, nil
}
