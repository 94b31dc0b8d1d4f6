package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"paperscope/internal/config"
	"paperscope/internal/ingest"
	"paperscope/internal/models"
	"paperscope/internal/providers"
	"paperscope/internal/storage"
	"paperscope/internal/util"
	"paperscope/internal/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg       config.Config
	db        *storage.DB
	runRepo   *storage.RunRepo
	providers *providers.Manager
	temporal  tclient.Client
}

func NewServer(cfg config.Config) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		panic(err)
	}
	pm, err := providers.NewManager(cfg.LLMProviders)
	if err != nil {
		panic(err)
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}
	return &Server{
		cfg:       cfg,
		db:        db,
		runRepo:   storage.NewRunRepo(db),
		providers: pm,
		temporal:  tc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/analyses", s.handleAnalyses)
	mux.HandleFunc("/analyses/", s.handleAnalysesScoped)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		runs, err := s.runRepo.List(r.Context(), 100)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
	case http.MethodPost:
		s.handleStartAnalysis(w, r)
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleStartAnalysis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source     string                 `json:"source"`
		SourceType string                 `json:"source_type"`
		Options    models.AnalysisOptions `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Source = strings.TrimSpace(req.Source)
	if req.Source == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("source is required"))
		return
	}
	if req.SourceType == "" {
		detected, err := ingest.DetectSourceType(req.Source)
		if err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("unrecognized source: %w", err))
			return
		}
		req.SourceType = string(detected)
	}
	if strings.TrimSpace(req.Options.TargetVenue) == "" {
		req.Options.TargetVenue = s.cfg.ReviewVenue
	}

	runID := uuid.NewString()
	outputDir := filepath.Join(s.cfg.OutputRoot, runID)
	if err := s.runRepo.Upsert(r.Context(), models.Run{
		RunID:      runID,
		Source:     req.Source,
		SourceType: req.SourceType,
		Status:     "pending",
		OutputDir:  outputDir,
	}); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                    "analysis-" + runID,
		TaskQueue:             s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}, workflows.AnalysisWorkflow, workflows.AnalysisInput{
		RunID:                runID,
		Source:               req.Source,
		SourceType:           req.SourceType,
		Options:              req.Options,
		OutputDir:            outputDir,
		LLMProviders:         s.providers.LLMCount(),
		CooldownSeconds:      s.cfg.ProviderCooldownSecs,
		StageTimeoutSecs:     s.cfg.StageTimeoutSecs,
		SecondaryTimeoutSecs: s.cfg.SecondaryTimeoutSecs,
	})
	if err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"run_id":      runID,
		"workflow_id": we.GetID(),
		"source_type": req.SourceType,
	})
}

func (s *Server) handleAnalysesScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/analyses/"), "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	runID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		run, err := s.runRepo.Get(r.Context(), runID)
		if err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, run)
		return
	}

	switch parts[1] {
	case "progress":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		var prog workflows.AnalysisProgress
		resp, err := s.temporal.QueryWorkflow(r.Context(), "analysis-"+runID, "", workflows.QueryGetAnalysisProgress)
		if err != nil {
			// No live workflow to query. Derive a coarse answer from the registry.
			run, rErr := s.runRepo.Get(r.Context(), runID)
			if rErr != nil {
				writeErr(w, http.StatusNotFound, rErr)
				return
			}
			prog = workflows.AnalysisProgress{RunID: runID, CurrentStage: run.Status}
			if run.Status == "completed" {
				prog.Percent = 100
			}
			writeJSON(w, http.StatusOK, prog)
			return
		}
		if err := resp.Get(&prog); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, prog)
	case "report":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		run, err := s.runRepo.Get(r.Context(), runID)
		if err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		if run.OutputDir == "" {
			writeJSON(w, http.StatusOK, map[string]any{"status": run.Status, "report_markdown": ""})
			return
		}
		path := util.SafeJoin(run.OutputDir, "report.md")
		b, err := os.ReadFile(path)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": run.Status, "report_markdown": ""})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": run.Status, "report_markdown": string(b), "path": path})
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

type apiError struct {
	Code    string
	Message string
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "PS-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "PS-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "PS-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "PS-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "PS-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "PS-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "PS-API-4009"
		msg = "Operation conflicts with current state. Retry after checking status."
	case status == http.StatusMethodNotAllowed:
		code = "PS-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		low := strings.ToLower(err.Error())
		switch {
		case strings.Contains(low, "source is required"):
			msg = "An analysis source is required."
		case strings.Contains(low, "unrecognized source"):
			msg = "Source is not a PDF path, PDF URL, arXiv id, or DOI."
		case strings.Contains(low, "invalid json"):
			msg = "Malformed JSON request body."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
