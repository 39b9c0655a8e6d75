// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Retrieval backends.
const (
	BackendQdrant   = "qdrant"
	BackendPostgres = "postgres"
)

// Connection failure policies.
const (
	OnConnectFail    = "fail"
	OnConnectDegrade = "degrade"
)

// Config holds all application configuration.
type Config struct {
	// Backend selects the retrieval backend (qdrant or postgres).
	Backend string `envconfig:"RICE_EVAL_BACKEND" yaml:"backend"`

	// TopicsPath is the TREC topic XML file.
	TopicsPath string `envconfig:"RICE_EVAL_TOPICS" yaml:"topics_path"`

	// Qdrant configuration
	Qdrant QdrantConfig `yaml:"qdrant"`

	// Postgres configuration
	Postgres PostgresConfig `yaml:"postgres"`

	// Embedding service configuration
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Evaluation configuration
	Eval EvalConfig `yaml:"eval"`

	// Logging configuration
	Log LogConfig `yaml:"log"`
}

// QdrantConfig holds Qdrant connection settings.
type QdrantConfig struct {
	Host           string `envconfig:"RICE_EVAL_QDRANT_HOST" yaml:"host"`
	Port           int    `envconfig:"RICE_EVAL_QDRANT_PORT" yaml:"port"`
	APIKey         string `envconfig:"RICE_EVAL_QDRANT_API_KEY" yaml:"api_key"`
	UseTLS         bool   `envconfig:"RICE_EVAL_QDRANT_TLS" yaml:"use_tls"`
	TimeoutSeconds int    `envconfig:"RICE_EVAL_QDRANT_TIMEOUT" yaml:"timeout_seconds"`
}

// PostgresConfig holds Postgres connection settings.
type PostgresConfig struct {
	DSN    string `envconfig:"RICE_EVAL_POSTGRES_DSN" yaml:"dsn"`
	Schema string `envconfig:"RICE_EVAL_POSTGRES_SCHEMA" yaml:"schema"`
	// CustomRegconfig is the text search configuration backing the custom analyzer.
	CustomRegconfig string `envconfig:"RICE_EVAL_POSTGRES_CUSTOM_REGCONFIG" yaml:"custom_regconfig"`
	TimeoutSeconds  int    `envconfig:"RICE_EVAL_POSTGRES_TIMEOUT" yaml:"timeout_seconds"`
}

// EmbeddingConfig holds embedding service settings.
type EmbeddingConfig struct {
	// Provider is http (encoder service) or openai (OpenAI-compatible API).
	Provider string `envconfig:"RICE_EVAL_EMBED_PROVIDER" yaml:"provider"`

	// FastTextURL and SBERTURL are encoder service base URLs (http provider).
	FastTextURL string `envconfig:"RICE_EVAL_FASTTEXT_URL" yaml:"fasttext_url"`
	SBERTURL    string `envconfig:"RICE_EVAL_SBERT_URL" yaml:"sbert_url"`

	// OpenAI-compatible provider settings.
	BaseURL       string `envconfig:"RICE_EVAL_EMBED_BASE_URL" yaml:"base_url"`
	APIKey        string `envconfig:"RICE_EVAL_EMBED_API_KEY" yaml:"api_key"`
	FastTextModel string `envconfig:"RICE_EVAL_FASTTEXT_MODEL" yaml:"fasttext_model"`
	SBERTModel    string `envconfig:"RICE_EVAL_SBERT_MODEL" yaml:"sbert_model"`

	TimeoutSeconds int     `envconfig:"RICE_EVAL_EMBED_TIMEOUT" yaml:"timeout_seconds"`
	RateLimit      float64 `envconfig:"RICE_EVAL_EMBED_RATE_LIMIT" yaml:"rate_limit"` // requests/sec, 0 = unlimited
}

// EvalConfig holds evaluation settings.
type EvalConfig struct {
	TopK             int     `envconfig:"RICE_EVAL_TOP_K" yaml:"top_k"`
	Cutoff           int     `envconfig:"RICE_EVAL_CUTOFF" yaml:"cutoff"`
	ScoreOffset      float64 `envconfig:"RICE_EVAL_SCORE_OFFSET" yaml:"score_offset"`
	OnConnectFailure string  `envconfig:"RICE_EVAL_ON_CONNECT_FAILURE" yaml:"on_connect_failure"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"RICE_EVAL_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"RICE_EVAL_LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from environment variables and optional config file.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	// Set defaults first
	setDefaults(cfg)

	// Load from YAML file if provided (overrides defaults)
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// Override with environment variables (highest priority)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Backend = BackendQdrant
	cfg.TopicsPath = "./pa5_data/topics2018.xml"

	cfg.Qdrant = QdrantConfig{
		Host:           "localhost",
		Port:           6334,
		TimeoutSeconds: 30,
	}

	cfg.Postgres = PostgresConfig{
		DSN:             "postgres://localhost:5432/rice_eval",
		Schema:          "public",
		CustomRegconfig: "rice_eval_custom",
		TimeoutSeconds:  30,
	}

	cfg.Embedding = EmbeddingConfig{
		Provider:       "http",
		FastTextURL:    "http://localhost:5001",
		SBERTURL:       "http://localhost:5002",
		FastTextModel:  "fasttext",
		SBERTModel:     "sbert",
		TimeoutSeconds: 60,
	}

	cfg.Eval = EvalConfig{
		TopK:             20,
		Cutoff:           20,
		ScoreOffset:      2.0,
		OnConnectFailure: OnConnectFail,
	}

	cfg.Log = LogConfig{
		Level:  "warn",
		Format: "text",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	validBackends := map[string]bool{BackendQdrant: true, BackendPostgres: true}
	if !validBackends[c.Backend] {
		errs = append(errs, fmt.Sprintf("invalid backend: %s (must be qdrant or postgres)", c.Backend))
	}

	if c.Backend == BackendQdrant && (c.Qdrant.Port < 1 || c.Qdrant.Port > 65535) {
		errs = append(errs, "qdrant port must be between 1 and 65535")
	}

	if c.Backend == BackendPostgres {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			errs = append(errs, "postgres dsn is required")
		}
		if strings.TrimSpace(c.Postgres.CustomRegconfig) == "" {
			errs = append(errs, "postgres custom_regconfig is required")
		}
		if c.Postgres.TimeoutSeconds < 1 {
			errs = append(errs, "postgres timeout_seconds must be positive")
		}
	}

	// Embedding validation
	switch c.Embedding.Provider {
	case "http":
		if c.Embedding.FastTextURL == "" || c.Embedding.SBERTURL == "" {
			errs = append(errs, "fasttext_url and sbert_url are required for the http embedding provider")
		}
	case "openai":
		if c.Embedding.BaseURL == "" {
			errs = append(errs, "base_url is required for the openai embedding provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid embedding provider: %s (must be http or openai)", c.Embedding.Provider))
	}

	if c.Embedding.RateLimit < 0 {
		errs = append(errs, "embedding rate_limit must not be negative")
	}

	// Eval validation
	if c.Eval.TopK < 1 {
		errs = append(errs, "top_k must be positive")
	}

	if c.Eval.Cutoff < 1 {
		errs = append(errs, "cutoff must be positive")
	}

	if c.Eval.ScoreOffset < 1 {
		errs = append(errs, "score_offset must be at least 1 to keep cosine scores non-negative")
	}

	validPolicies := map[string]bool{OnConnectFail: true, OnConnectDegrade: true}
	if !validPolicies[c.Eval.OnConnectFailure] {
		errs = append(errs, fmt.Sprintf("invalid on_connect_failure: %s (must be fail or degrade)", c.Eval.OnConnectFailure))
	}

	// Log validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// QdrantTimeout returns the Qdrant operation timeout.
func (c *Config) QdrantTimeout() time.Duration {
	return time.Duration(c.Qdrant.TimeoutSeconds) * time.Second
}

// PostgresTimeout returns the Postgres query timeout.
func (c *Config) PostgresTimeout() time.Duration {
	return time.Duration(c.Postgres.TimeoutSeconds) * time.Second
}

// EmbeddingTimeout returns the embedding request timeout.
func (c *Config) EmbeddingTimeout() time.Duration {
	return time.Duration(c.Embedding.TimeoutSeconds) * time.Second
}

// FailFast reports whether a failed backend connection aborts the run.
func (c *Config) FailFast() bool {
	return c.Eval.OnConnectFailure != OnConnectDegrade
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Log.Level == "debug"
}
