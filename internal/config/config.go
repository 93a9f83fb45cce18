// Package config loads the service configuration (config.yaml plus
// environment overrides) and the analysis rule files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

var ErrMissingHFToken = errors.New("HF_TOKEN environment variable is required")

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Backends BackendsConfig `yaml:"backends"`
	Cache    CacheConfig    `yaml:"cache"`
	Frontend FrontendConfig `yaml:"frontend"`
	Rules    RulesConfig    `yaml:"rules"`

	// HFToken only ever comes from the environment.
	HFToken string `yaml:"-"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port" validate:"min=1,max=65535"`
	Title          string `yaml:"title"`
	Description    string `yaml:"description"`
	MaxUploadMB    int    `yaml:"max_upload_mb" validate:"min=1"`
	ReadTimeoutSec int    `yaml:"read_timeout_sec" validate:"min=1"`
	// Diarization of long calls is slow, so the write timeout is generous.
	WriteTimeoutSec int `yaml:"write_timeout_sec" validate:"min=1"`
}

type LoggingConfig struct {
	LogFile     string `yaml:"log_file"`
	MinLogLevel string `yaml:"min_log_level" validate:"oneof=debug info warn error"`
	MaxSizeMB   int    `yaml:"max_size_mb" validate:"min=1"`
	MaxBackups  int    `yaml:"max_backups" validate:"min=0"`
	MaxAgeDays  int    `yaml:"max_age_days" validate:"min=0"`
	Compress    bool   `yaml:"compress"`
	LogAddress  string `yaml:"log_address" validate:"required"`
	Forward     bool   `yaml:"forward"`
}

type BackendsConfig struct {
	TranscribeURL     string `yaml:"transcribe_url" validate:"omitempty,url"`
	TranscribeModel   string `yaml:"transcribe_model"`
	TranscribeAPIKey  string `yaml:"transcribe_api_key"`
	SentimentURL      string `yaml:"sentiment_url" validate:"omitempty,url"`
	SentimentMaxChars int    `yaml:"sentiment_max_chars" validate:"min=1"`
	DiarizationURL    string `yaml:"diarization_url" validate:"omitempty,url"`
	TimeoutSec        int    `yaml:"timeout_sec" validate:"min=1"`
	DiarizeTimeoutSec int    `yaml:"diarize_timeout_sec" validate:"min=1"`
	MaxRetrySec       int    `yaml:"max_retry_sec" validate:"min=0"`
	MockTranscribe    bool   `yaml:"mock_transcribe"`
	MockSentiment     bool   `yaml:"mock_sentiment"`
	MockDiarization   bool   `yaml:"mock_diarization"`
}

type CacheConfig struct {
	Driver string `yaml:"driver" validate:"oneof=memory sqlite"`
	Path   string `yaml:"path"`
}

type FrontendConfig struct {
	Port       int    `yaml:"port" validate:"min=1,max=65535"`
	BackendURL string `yaml:"backend_url" validate:"required,url"`
	TimeoutSec int    `yaml:"timeout_sec" validate:"min=1"`
}

type RulesConfig struct {
	Dir        string `yaml:"dir" validate:"required"`
	Phrases    string `yaml:"phrases" validate:"required"`
	PII        string `yaml:"pii_profanity" validate:"required"`
	Categories string `yaml:"call_category" validate:"required"`
	Watch      bool   `yaml:"watch"`
}

// Default returns a Config with the stock ports and file names.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			Title:           "Customer Service API",
			Description:     "Call compliance, PII and quality analysis",
			MaxUploadMB:     50,
			ReadTimeoutSec:  60,
			WriteTimeoutSec: 1000,
		},
		Logging: LoggingConfig{
			LogFile:     "logs/service.log",
			MinLogLevel: "info",
			MaxSizeMB:   100,
			MaxBackups:  7,
			MaxAgeDays:  30,
			Compress:    true,
			LogAddress:  "tcp://127.0.0.1:5555",
			Forward:     true,
		},
		Backends: BackendsConfig{
			TranscribeURL:     "http://127.0.0.1:9000",
			TranscribeModel:   "whisper-1",
			SentimentURL:      "https://api-inference.huggingface.co/models/distilbert/distilbert-base-uncased-finetuned-sst-2-english",
			SentimentMaxChars: 1800,
			DiarizationURL:    "http://127.0.0.1:9001",
			TimeoutSec:        300,
			DiarizeTimeoutSec: 1000,
			MaxRetrySec:       30,
		},
		Cache: CacheConfig{
			Driver: "memory",
			Path:   "data/transcriptions.db",
		},
		Frontend: FrontendConfig{
			Port:       7860,
			BackendURL: "http://localhost:3000",
			TimeoutSec: 1000,
		},
		Rules: RulesConfig{
			Dir:        "config",
			Phrases:    "phrases.yaml",
			PII:        "pii_profanity.yaml",
			Categories: "call_category.yaml",
			Watch:      true,
		},
	}
}

// Load reads .env (if present) and a YAML config file, fills missing fields
// from Default and applies environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to defaults when the file
// does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		_ = godotenv.Load()
		cfg := Default()
		cfg.ApplyEnv()
		return cfg, nil
	}
	return Load(path)
}

// ApplyEnv overlays environment variables on the config.
func (c *Config) ApplyEnv() {
	c.HFToken = os.Getenv("HF_TOKEN")

	setInt(&c.Server.Port, "PORT")
	setString(&c.Logging.MinLogLevel, "LOG_LEVEL")
	setString(&c.Logging.LogAddress, "LOG_ADDRESS")
	setString(&c.Backends.TranscribeURL, "TRANSCRIBE_URL")
	setString(&c.Backends.TranscribeAPIKey, "TRANSCRIBE_API_KEY")
	setString(&c.Backends.SentimentURL, "SENTIMENT_URL")
	setString(&c.Backends.DiarizationURL, "DIARIZATION_URL")
	setBool(&c.Backends.MockTranscribe, "USE_MOCK_TRANSCRIBE")
	setBool(&c.Backends.MockSentiment, "USE_MOCK_SENTIMENT")
	setBool(&c.Backends.MockDiarization, "USE_MOCK_DIARIZATION")
	setString(&c.Cache.Driver, "CACHE_DRIVER")
	setString(&c.Cache.Path, "CACHE_PATH")
	setString(&c.Frontend.BackendURL, "BACKEND_URL")
	setInt(&c.Frontend.Port, "FRONTEND_PORT")
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidation(err)
	}
	b := c.Backends
	if !b.MockTranscribe && b.TranscribeURL == "" {
		return fmt.Errorf("backends.transcribe_url must be set unless mock_transcribe is enabled")
	}
	if !b.MockSentiment && b.SentimentURL == "" {
		return fmt.Errorf("backends.sentiment_url must be set unless mock_sentiment is enabled")
	}
	if !b.MockDiarization && b.DiarizationURL == "" {
		return fmt.Errorf("backends.diarization_url must be set unless mock_diarization is enabled")
	}
	if c.Cache.Driver == "sqlite" && c.Cache.Path == "" {
		return fmt.Errorf("cache.path must be set for the sqlite driver")
	}
	return nil
}

// RequireHFToken fails when a Hugging Face backed step is live and no token
// was provided.
func (c *Config) RequireHFToken() error {
	if c.HFToken != "" {
		return nil
	}
	if c.Backends.MockSentiment && c.Backends.MockDiarization {
		return nil
	}
	return ErrMissingHFToken
}

// Addr is the backend listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// formatValidation turns validator errors into one readable error.
func formatValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		m := fmt.Sprintf("field '%s' failed on the '%s' tag", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			m = fmt.Sprintf("%s (value: %s)", m, fe.Param())
		}
		msgs = append(msgs, m)
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
