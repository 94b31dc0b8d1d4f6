package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsValidate(t *testing.T) {
	cfg := Load()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "paperscope", cfg.TemporalTaskQueue)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Load()
	cfg.FetchRetries = 0
	require.Error(t, cfg.Validate())

	cfg = Load()
	cfg.LLMProviders = " "
	require.Error(t, cfg.Validate())

	cfg = Load()
	cfg.StageTimeoutSecs = -1
	require.Error(t, cfg.Validate())
}

func TestApplyFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paperscope.yaml")
	body := "ocr_service_url: http://ocr.internal:9000\nfetch_retries: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg := Load()
	require.NoError(t, cfg.ApplyFile(path))
	require.Equal(t, "http://ocr.internal:9000", cfg.OCRServiceURL)
	require.Equal(t, 5, cfg.FetchRetries)
	// Untouched fields keep their env defaults.
	require.Equal(t, ":8080", cfg.APIAddr)
}
