package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

type Config struct {
	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	EbooksDir    string `envconfig:"LUMEN_EBOOKS_DIR" default:"./ebooks"`
	LedgerPath   string `envconfig:"LUMEN_LEDGER_PATH" default:"data/processed_books.json"`
	SettingsPath string `envconfig:"LUMEN_SETTINGS_PATH" default:"data/settings.json"`
	PIDPath      string `envconfig:"LUMEN_PID_PATH" default:"data/lumen.pid"`
	QueryLogPath string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`

	ChunkSize   int `envconfig:"LUMEN_CHUNK_SIZE" default:"1000"`
	SearchLimit int `envconfig:"LUMEN_SEARCH_LIMIT" default:"5"`

	// Server
	ServerPort int `envconfig:"SERVER_PORT" default:"8081"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars may be set in the shell instead; a missing .env is fine.
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.WeaviateHost == "" {
		return fmt.Errorf("%w: WEAVIATE_HOST", ErrMissingRequired)
	}
	if c.EbooksDir == "" {
		return fmt.Errorf("%w: LUMEN_EBOOKS_DIR", ErrMissingRequired)
	}
	if c.LedgerPath == "" {
		return fmt.Errorf("%w: LUMEN_LEDGER_PATH", ErrMissingRequired)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: LUMEN_CHUNK_SIZE must be positive", ErrMissingRequired)
	}
	if c.SearchLimit <= 0 {
		return fmt.Errorf("%w: LUMEN_SEARCH_LIMIT must be positive", ErrMissingRequired)
	}
	return nil
}
