package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"paperscope/internal/comparison"
	"paperscope/internal/config"
	"paperscope/internal/ingest"
	"paperscope/internal/models"
	"paperscope/internal/workflows"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

const progressPollInterval = 2 * time.Second

func main() {
	_ = godotenv.Load(".env")
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	switch os.Args[1] {
	case "analyse", "analyze":
		runAnalyse(cfg, os.Args[2:], models.AnalysisOptions{
			GenerateDiagrams: true, GenerateReview: true,
			GenerateArticle: true, GenerateAudio: true,
		})
	case "diagrams":
		runAnalyse(cfg, os.Args[2:], models.AnalysisOptions{GenerateDiagrams: true})
	case "review":
		runAnalyse(cfg, os.Args[2:], models.AnalysisOptions{GenerateReview: true})
	case "compare":
		runCompare(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: paperscope <command> [flags]

commands:
  analyse   full analysis of a paper (extraction, diagrams, review, article, audio)
  diagrams  extraction plus diagram generation only
  review    extraction plus automated peer review only
  compare   compare a finished run against an external review`)
}

func runAnalyse(cfg config.Config, args []string, defaults models.AnalysisOptions) {
	fs := flag.NewFlagSet("analyse", flag.ExitOnError)
	source := fs.String("source", "", "pdf path, pdf url, arXiv id, or DOI (required)")
	sourceType := fs.String("type", "", "source type override (pdf_file|pdf_url|arxiv_id|doi)")
	venue := fs.String("venue", cfg.ReviewVenue, "target venue for the peer review")
	diagramTypes := fs.String("diagram-types", "", "comma-separated diagram types")
	noDiagrams := fs.Bool("no-diagrams", false, "disable diagram generation")
	noReview := fs.Bool("no-review", false, "disable peer review")
	noArticle := fs.Bool("no-article", false, "disable article drafting")
	noAudio := fs.Bool("no-audio", false, "disable audio narration")
	outDir := fs.String("out", "", "output directory (default <output_root>/<run id>)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*source) == "" {
		fs.Usage()
		log.Fatal("a -source is required")
	}
	st := *sourceType
	if st == "" {
		detected, err := ingest.DetectSourceType(*source)
		if err != nil {
			log.Fatalf("unrecognized source: %v", err)
		}
		st = string(detected)
	}

	opts := defaults
	if *noDiagrams {
		opts.GenerateDiagrams = false
	}
	if *noReview {
		opts.GenerateReview = false
	}
	if *noArticle {
		opts.GenerateArticle = false
	}
	if *noAudio {
		opts.GenerateAudio = false
	}
	opts.TargetVenue = *venue
	if strings.TrimSpace(*diagramTypes) != "" {
		for _, t := range strings.Split(*diagramTypes, ",") {
			if t = strings.TrimSpace(t); t != "" {
				opts.DiagramTypes = append(opts.DiagramTypes, t)
			}
		}
	}

	runID := uuid.NewString()
	output := *outDir
	if output == "" {
		output = filepath.Join(cfg.OutputRoot, runID)
	}

	c, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatalf("connect temporal: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	we, err := c.ExecuteWorkflow(ctx, tclient.StartWorkflowOptions{
		ID:        "analysis-" + runID,
		TaskQueue: cfg.TemporalTaskQueue,
	}, workflows.AnalysisWorkflow, workflows.AnalysisInput{
		RunID:                runID,
		Source:               *source,
		SourceType:           st,
		Options:              opts,
		OutputDir:            output,
		LLMProviders:         len(strings.Split(cfg.LLMProviders, "|")),
		CooldownSeconds:      cfg.ProviderCooldownSecs,
		StageTimeoutSecs:     cfg.StageTimeoutSecs,
		SecondaryTimeoutSecs: cfg.SecondaryTimeoutSecs,
	})
	if err != nil {
		log.Fatalf("start analysis: %v", err)
	}
	log.Printf("analysis started run_id=%s source_type=%s workflow_id=%s", runID, st, we.GetID())

	lastPercent := -1
	for {
		desc, err := c.DescribeWorkflowExecution(ctx, we.GetID(), we.GetRunID())
		if err == nil && desc.GetWorkflowExecutionInfo().GetStatus() != enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING {
			break
		}
		if val, err := c.QueryWorkflow(ctx, we.GetID(), we.GetRunID(), workflows.QueryGetAnalysisProgress); err == nil {
			var prog workflows.AnalysisProgress
			if err := val.Get(&prog); err == nil && prog.Percent != lastPercent {
				log.Printf("progress %3d%% stage=%s", prog.Percent, prog.CurrentStage)
				lastPercent = prog.Percent
			}
		}
		time.Sleep(progressPollInterval)
	}

	var reportPath string
	if err := we.Get(ctx, &reportPath); err != nil {
		log.Printf("analysis failed: %v", err)
		os.Exit(1)
	}
	log.Printf("analysis completed report=%s", reportPath)
}

func runCompare(args []string) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	runDir := fs.String("run-dir", "", "output directory of a finished analysis run (required)")
	external := fs.String("external", "", "path to an external review, JSON or free text (required)")
	outPath := fs.String("out", "", "write the comparison to this file instead of stdout")
	_ = fs.Parse(args)

	if *runDir == "" || *external == "" {
		fs.Usage()
		log.Fatal("both -run-dir and -external are required")
	}

	local, err := comparison.ParseLocalRun(*runDir)
	if err != nil {
		log.Fatalf("read local run: %v", err)
	}
	ext, err := comparison.ParseExternalReview(*external)
	if err != nil {
		log.Fatalf("read external review: %v", err)
	}
	md := comparison.BuildComparison(local, ext)
	if *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(md), 0o644); err != nil {
			log.Fatalf("write comparison: %v", err)
		}
		log.Printf("comparison written to %s", *outPath)
		return
	}
	fmt.Print(md)
}
