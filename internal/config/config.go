package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dgallion1/docqa/internal/chunker"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8090"`
	Environment string `env:"APP_ENV" envDefault:"local"`
	LogLevel    string `env:"LOG_LEVEL"`

	// Auth; empty disables it
	APIKey string `env:"DOCQA_API_KEY"`

	// Upload limits
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"` // 50MB

	// Session and chunk state
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"1h"`
	ChunkCacheTTL time.Duration `env:"CHUNK_CACHE_TTL" envDefault:"10m"`

	ChunkSize ChunkSizeConfig `envPrefix:"CHUNK_SIZE_"`

	// PDF
	PDFFallbackPdftotext bool `env:"PDF_FALLBACK_PDFTOTEXT" envDefault:"true"`

	Oracle OracleConfig `envPrefix:"ORACLE_"`
}

type ChunkSizeConfig struct {
	Default int `env:"DEFAULT" envDefault:"200"`
	Min     int `env:"MIN" envDefault:"100"`
	Max     int `env:"MAX" envDefault:"500"`
	Step    int `env:"STEP" envDefault:"50"`
}

type OracleConfig struct {
	Provider string        `env:"PROVIDER" envDefault:"huggingface"`
	Model    string        `env:"MODEL" envDefault:"deepset/roberta-base-squad2"`
	BaseURL  string        `env:"BASE_URL"`
	APIKey   string        `env:"API_KEY"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"60s"`
	Retry    RetryConfig   `envPrefix:"RETRY_"`
}

type RetryConfig struct {
	Attempts uint          `env:"ATTEMPTS" envDefault:"1"`
	Delay    time.Duration `env:"DELAY" envDefault:"500ms"`
	MaxDelay time.Duration `env:"MAX_DELAY" envDefault:"5s"`
}

// ToRetryOptions converts the settings for retry-go.
func (rc RetryConfig) ToRetryOptions() []retry.Option {
	return []retry.Option{
		retry.Attempts(rc.Attempts),
		retry.Delay(rc.Delay),
		retry.MaxDelay(rc.MaxDelay),
	}
}

// Providers lists the accepted ORACLE_PROVIDER values.
var Providers = map[string]bool{
	"huggingface": true,
	"ollama":      true,
	"openai":      true,
	"mock":        true,
}

// Load reads envFiles (missing files are skipped) and then the process
// environment. With no files given it tries ".env".
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Oracle.Retry.Attempts == 0 {
		cfg.Oracle.Retry.Attempts = 1
	}
	return cfg, nil
}

// ChunkRange converts the chunk size settings for the chunker.
func (c Config) ChunkRange() chunker.SizeRange {
	return chunker.SizeRange{
		Default: c.ChunkSize.Default,
		Min:     c.ChunkSize.Min,
		Max:     c.ChunkSize.Max,
		Step:    c.ChunkSize.Step,
	}
}

func (c Config) Validate() error {
	if err := c.ChunkRange().Validate(); err != nil {
		return fmt.Errorf("CHUNK_SIZE_*: %w", err)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if !Providers[c.Oracle.Provider] {
		return fmt.Errorf("unknown ORACLE_PROVIDER %q", c.Oracle.Provider)
	}
	if c.Oracle.Model == "" && c.Oracle.Provider != "mock" {
		return fmt.Errorf("ORACLE_MODEL is required")
	}
	if c.Oracle.Provider == "openai" && c.Oracle.APIKey == "" {
		return fmt.Errorf("ORACLE_API_KEY is required for the openai provider")
	}
	if c.Oracle.Timeout < 0 {
		return fmt.Errorf("ORACLE_TIMEOUT must not be negative, got %s", c.Oracle.Timeout)
	}
	return nil
}
