package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewManagerBuildsConfiguredProviders(t *testing.T) {
	m, err := NewManager("mock|openai:primary|groq")
	require.NoError(t, err)
	require.Equal(t, 3, m.LLMCount())

	_, ref := m.LLMProviderByIndex(1)
	require.Equal(t, "openai", ref.Name)
	require.Equal(t, "primary", ref.KeyAlias)
}

func TestNewManagerRejectsUnknownProvider(t *testing.T) {
	_, err := NewManager("carrier-pigeon")
	require.Error(t, err)
}

func TestPreferredLLMOrderPutsMockLast(t *testing.T) {
	m, err := NewManager("mock|openai|groq")
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 0}, m.PreferredLLMOrder())
}

func TestLLMProviderByIndexClamps(t *testing.T) {
	m, err := NewManager("mock")
	require.NoError(t, err)
	p, ref := m.LLMProviderByIndex(99)
	require.NotNil(t, p)
	require.Equal(t, "mock", ref.Name)
}

func TestMockProviderOperationShapes(t *testing.T) {
	m := NewMockProvider()

	resp, info, err := m.Generate(context.Background(), GenerateRequest{Operation: "review_scoring"})
	require.NoError(t, err)
	require.Equal(t, "3,3,3", resp.Text)
	require.Equal(t, "mock", info.Name)

	resp, _, err = m.Generate(context.Background(), GenerateRequest{Operation: "review_strengths"})
	require.NoError(t, err)
	require.Contains(t, resp.Text, "\n")

	resp, _, err = m.Generate(context.Background(), GenerateRequest{Operation: "review_intake"})
	require.NoError(t, err)
	require.Equal(t, "Mock Paper Title", resp.Text)
}
