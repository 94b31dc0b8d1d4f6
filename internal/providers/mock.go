package providers

import (
	"context"
	"fmt"
	"strings"
)

// MockProvider returns deterministic text per operation so the full pipeline
// runs without any external credentials.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: "mock-llm-v1", Key: "mock"}
	op := strings.ToLower(req.Operation)
	switch {
	case strings.Contains(op, "intake"):
		return GenerateResponse{Text: "Mock Paper Title"}, info, nil
	case strings.Contains(op, "quer"):
		return GenerateResponse{Text: "coupled simulation methods\ncontact dynamics solvers\ndifferentiable physics engines"}, info, nil
	case strings.Contains(op, "strength"):
		return GenerateResponse{Text: "- Clear problem formulation\n- Reproducible experimental setup\n- Strong baseline comparison"}, info, nil
	case strings.Contains(op, "weakness"):
		return GenerateResponse{Text: "- Limited ablation coverage\n- No runtime analysis\n- Narrow evaluation domain"}, info, nil
	case strings.Contains(op, "scoring"):
		return GenerateResponse{Text: "3,3,3"}, info, nil
	case strings.Contains(op, "compos"), strings.Contains(op, "review"):
		return GenerateResponse{Text: "This paper presents a competent study. The method is sound, the presentation adequate, and the contribution moderate. Recommendation follows the computed score."}, info, nil
	case strings.Contains(op, "outline"):
		return GenerateResponse{Text: "Background\nCore Idea\nHow It Works\nWhat The Results Show\nWhy It Matters"}, info, nil
	case strings.Contains(op, "article"):
		text := "Deterministic article section grounded in the provided excerpts."
		for i := range req.Context {
			text += fmt.Sprintf(" [S%d]", i+1)
		}
		return GenerateResponse{Text: text}, info, nil
	default:
		return GenerateResponse{Text: "Mock response."}, info, nil
	}
}
