package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/feichai0017/ticket-extractor/pkg/logger"
)

const (
	DefaultConfigFile = "config.yaml"
	DefaultEnvFile    = ".env"
	DefaultBaseURL    = "https://models.github.ai/inference"
	DefaultModel      = "deepseek/DeepSeek-V3-0324"

	EngineTesseract = "tesseract"
	EngineTextract  = "textract"
)

var ErrMissingAPIKey = errors.New("OPENROUTER_API_KEY (or OPENAI_API_KEY) environment variable is not set")

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	OCR       OCRConfig       `yaml:"ocr"`
	Textract  TextractConfig  `yaml:"textract"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Log       logger.Config   `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	UploadDir       string        `yaml:"upload_dir"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	UploadRetention time.Duration `yaml:"upload_retention"`
	ExposeTraceback bool          `yaml:"expose_traceback"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LLMConfig struct {
	APIKey       string        `yaml:"-"`
	BaseURL      string        `yaml:"base_url"`
	DefaultModel string        `yaml:"default_model"`
	JSONMode     bool          `yaml:"json_mode"`
	Timeout      time.Duration `yaml:"timeout"`
}

type OCRConfig struct {
	Engine        string  `yaml:"engine"`
	Language      string  `yaml:"language"`
	PageSegMode   int     `yaml:"page_seg_mode"`
	Preprocess    bool     `yaml:"preprocess"`
	Preprocessors []string `yaml:"preprocessors"` // empty selects the default steps
	MinConfidence float64  `yaml:"min_confidence"`
}

type TextractConfig struct {
	Region        string  `yaml:"region"`
	Endpoint      string  `yaml:"endpoint"`
	AccessKey     string  `yaml:"-"`
	SecretKey     string  `yaml:"-"`
	MinConfidence float64 `yaml:"min_confidence"`
	AnalyzeForms  bool    `yaml:"analyze_forms"`
}

type NormalizeConfig struct {
	TempDir     string `yaml:"temp_dir"`
	JPEGQuality int    `yaml:"jpeg_quality"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":5001",
			UploadDir:       "uploads",
			MaxUploadBytes:  16 * 1024 * 1024,
			UploadRetention: 24 * time.Hour,
			ExposeTraceback: true,
			ShutdownTimeout: 5 * time.Second,
		},
		LLM: LLMConfig{
			BaseURL:      DefaultBaseURL,
			DefaultModel: DefaultModel,
			JSONMode:     true,
			Timeout:      120 * time.Second,
		},
		OCR: OCRConfig{
			Engine:      EngineTesseract,
			Language:    "fra",
			PageSegMode: 3,
			Preprocess:  true,
		},
		Normalize: NormalizeConfig{
			JPEGQuality: 95,
		},
		Log: logger.Config{
			Level:       "info",
			Encoding:    "json",
			OutputPaths: []string{"stdout"},
		},
	}
}

// Load layers defaults, the YAML file at path (or CONFIG_FILE, or
// ./config.yaml when present), .env and the process environment, in that
// order of increasing precedence. It does not validate.
func Load(path string) (*Config, error) {
	return load(path, DefaultEnvFile)
}

func load(path, envFile string) (*Config, error) {
	cfg := Default()

	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
	}
	env := lookup(dotenv)

	explicit := path != ""
	if !explicit {
		if p, ok := env("CONFIG_FILE"); ok && p != "" {
			path, explicit = p, true
		} else {
			path = DefaultConfigFile
		}
	}
	if err := cfg.readFile(path, explicit); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

type envFunc func(key string) (string, bool)

// lookup prefers non-empty process environment values over .env.
func lookup(dotenv map[string]string) envFunc {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

func (c *Config) applyEnv(env envFunc) error {
	var errs []error
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := env(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	boolean := func(dst *bool, key string) {
		if v, ok := env(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(dst *int, key string) {
		if v, ok := env(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	int64v := func(dst *int64, key string) {
		if v, ok := env(key); ok && v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(dst *float64, key string) {
		if v, ok := env(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	duration := func(dst *time.Duration, key string) {
		if v, ok := env(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	if port, ok := env("PORT"); ok && port != "" {
		c.Server.Addr = ":" + port
	}
	str(&c.Server.Addr, "SERVER_ADDR")
	str(&c.Server.UploadDir, "UPLOAD_DIR")
	int64v(&c.Server.MaxUploadBytes, "MAX_UPLOAD_BYTES")
	duration(&c.Server.UploadRetention, "UPLOAD_RETENTION")
	boolean(&c.Server.ExposeTraceback, "EXPOSE_TRACEBACK")
	duration(&c.Server.ShutdownTimeout, "SHUTDOWN_TIMEOUT")

	str(&c.LLM.APIKey, "OPENROUTER_API_KEY", "OPENAI_API_KEY")
	str(&c.LLM.BaseURL, "OPENROUTER_BASE_URL")
	str(&c.LLM.DefaultModel, "LLM_MODEL")
	boolean(&c.LLM.JSONMode, "LLM_JSON_MODE")
	duration(&c.LLM.Timeout, "LLM_TIMEOUT")

	str(&c.OCR.Engine, "OCR_ENGINE")
	str(&c.OCR.Language, "OCR_LANGUAGE")
	integer(&c.OCR.PageSegMode, "OCR_PAGE_SEG_MODE")
	boolean(&c.OCR.Preprocess, "OCR_PREPROCESS")
	if v, ok := env("OCR_PREPROCESSORS"); ok && v != "" {
		c.OCR.Preprocessors = splitList(v)
	}
	float(&c.OCR.MinConfidence, "OCR_MIN_CONFIDENCE")

	str(&c.Textract.Region, "AWS_REGION")
	str(&c.Textract.Endpoint, "AWS_ENDPOINT")
	str(&c.Textract.AccessKey, "AWS_ACCESS_KEY")
	str(&c.Textract.SecretKey, "AWS_SECRET_KEY")
	boolean(&c.Textract.AnalyzeForms, "TEXTRACT_ANALYZE_FORMS")

	str(&c.Normalize.TempDir, "NORMALIZE_TEMP_DIR")
	integer(&c.Normalize.JPEGQuality, "NORMALIZE_JPEG_QUALITY")

	str(&c.Log.Level, "LOG_LEVEL")
	str(&c.Log.Encoding, "LOG_ENCODING")
	if v, ok := env("LOG_OUTPUT_PATHS"); ok && v != "" {
		c.Log.OutputPaths = splitList(v)
	}

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports the first unusable setting. A missing API key is
// reported as ErrMissingAPIKey.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if c.Server.UploadDir == "" {
		return fmt.Errorf("server.upload_dir is required")
	}
	switch c.OCR.Engine {
	case EngineTesseract:
		if c.OCR.Language == "" {
			return fmt.Errorf("ocr.language is required")
		}
		if c.OCR.PageSegMode < 0 || c.OCR.PageSegMode > 13 {
			return fmt.Errorf("ocr.page_seg_mode must be within 0..13, got %d", c.OCR.PageSegMode)
		}
	case EngineTextract:
		if c.Textract.Region == "" {
			return fmt.Errorf("textract.region is required when ocr.engine is textract")
		}
	default:
		return fmt.Errorf("unknown ocr.engine %q", c.OCR.Engine)
	}
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 100 {
		return fmt.Errorf("ocr.min_confidence must be within 0..100")
	}
	if c.Normalize.JPEGQuality < 1 || c.Normalize.JPEGQuality > 100 {
		return fmt.Errorf("normalize.jpeg_quality must be within 1..100, got %d", c.Normalize.JPEGQuality)
	}
	return nil
}
