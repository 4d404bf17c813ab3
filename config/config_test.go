package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the loader reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "PORT", "SERVER_ADDR", "UPLOAD_DIR", "MAX_UPLOAD_BYTES", "UPLOAD_RETENTION",
		"EXPOSE_TRACEBACK", "SHUTDOWN_TIMEOUT", "OPENROUTER_API_KEY", "OPENAI_API_KEY", "OPENROUTER_BASE_URL",
		"LLM_MODEL", "LLM_JSON_MODE", "LLM_TIMEOUT", "OCR_ENGINE", "OCR_LANGUAGE", "OCR_PAGE_SEG_MODE",
		"OCR_PREPROCESS", "OCR_PREPROCESSORS", "OCR_MIN_CONFIDENCE", "AWS_REGION", "AWS_ENDPOINT", "AWS_ACCESS_KEY", "AWS_SECRET_KEY",
		"TEXTRACT_ANALYZE_FORMS", "NORMALIZE_TEMP_DIR", "NORMALIZE_JPEG_QUALITY", "LOG_LEVEL", "LOG_ENCODING",
		"LOG_OUTPUT_PATHS",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	require.Equal(t, ":5001", cfg.Server.Addr)
	require.Equal(t, int64(16*1024*1024), cfg.Server.MaxUploadBytes)
	require.True(t, cfg.Server.ExposeTraceback)
	require.Equal(t, DefaultBaseURL, cfg.LLM.BaseURL)
	require.Equal(t, DefaultModel, cfg.LLM.DefaultModel)
	require.True(t, cfg.LLM.JSONMode)
	require.Equal(t, EngineTesseract, cfg.OCR.Engine)
	require.Equal(t, "fra", cfg.OCR.Language)
	require.Empty(t, cfg.LLM.APIKey)
	require.ErrorIs(t, cfg.Validate(), ErrMissingAPIKey)
}

func TestLoadLayers(t *testing.T) {
	clearEnv(t)

	yamlPath := writeFile(t, "config.yaml", `
server:
  addr: ":9000"
  upload_dir: /tmp/uploads
  expose_traceback: false
  shutdown_timeout: 10s
llm:
  default_model: openai/gpt-4o-mini
  timeout: 45s
ocr:
  language: eng
  preprocess: false
  preprocessors: [grayscale, sharpen]
log:
  level: debug
  output_paths: [stdout, logs/app.log]
`)
	envPath := writeFile(t, ".env", "OPENROUTER_API_KEY=from-dotenv\nOCR_LANGUAGE=deu\nLLM_MODEL=dotenv/model\n")
	t.Setenv("LLM_MODEL", "env/model")
	t.Setenv("PORT", "7000")
	t.Setenv("OCR_PREPROCESSORS", "grayscale, denoise,binarize")

	cfg, err := load(yamlPath, envPath)
	require.NoError(t, err)

	require.Equal(t, ":7000", cfg.Server.Addr)
	require.Equal(t, "/tmp/uploads", cfg.Server.UploadDir)
	require.False(t, cfg.Server.ExposeTraceback)
	require.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	require.Equal(t, "from-dotenv", cfg.LLM.APIKey)
	require.Equal(t, "env/model", cfg.LLM.DefaultModel)
	require.Equal(t, "deu", cfg.OCR.Language)
	require.False(t, cfg.OCR.Preprocess)
	require.Equal(t, []string{"grayscale", "denoise", "binarize"}, cfg.OCR.Preprocessors)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, []string{"stdout", "logs/app.log"}, cfg.Log.OutputPaths)
	require.NoError(t, cfg.Validate())
}

func TestLoadAPIKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "openai-key")

	cfg, err := load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "openai-key", cfg.LLM.APIKey)

	t.Setenv("OPENROUTER_API_KEY", "router-key")
	cfg, err = load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "router-key", cfg.LLM.APIKey)
}

func TestLoadConfigFileFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeFile(t, "custom.yaml", "ocr:\n  engine: textract\ntextract:\n  region: eu-west-3\n"))

	cfg, err := load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, EngineTextract, cfg.OCR.Engine)
	require.Equal(t, "eu-west-3", cfg.Textract.Region)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	noEnv := filepath.Join(t.TempDir(), "missing.env")

	_, err := load(filepath.Join(t.TempDir(), "absent.yaml"), noEnv)
	require.Error(t, err)

	_, err = load(writeFile(t, "bad.yaml", "server: [unclosed"), noEnv)
	require.Error(t, err)

	t.Setenv("MAX_UPLOAD_BYTES", "lots")
	t.Setenv("LLM_TIMEOUT", "soon")
	_, err = load("", noEnv)
	require.ErrorContains(t, err, "MAX_UPLOAD_BYTES")
	require.ErrorContains(t, err, "LLM_TIMEOUT")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.LLM.APIKey = "k"
		return cfg
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"blank key":        func(c *Config) { c.LLM.APIKey = "   " },
		"no base url":      func(c *Config) { c.LLM.BaseURL = "" },
		"zero upload cap":  func(c *Config) { c.Server.MaxUploadBytes = 0 },
		"no upload dir":    func(c *Config) { c.Server.UploadDir = "" },
		"unknown engine":   func(c *Config) { c.OCR.Engine = "easyocr" },
		"no language":      func(c *Config) { c.OCR.Language = "" },
		"bad psm":          func(c *Config) { c.OCR.PageSegMode = 42 },
		"textract region":  func(c *Config) { c.OCR.Engine = EngineTextract },
		"confidence range": func(c *Config) { c.OCR.MinConfidence = 101 },
		"jpeg quality":     func(c *Config) { c.Normalize.JPEGQuality = 0 },
	}
	for name, mutate := range cases {
		cfg := valid()
		mutate(cfg)
		require.Error(t, cfg.Validate(), name)
	}
}
