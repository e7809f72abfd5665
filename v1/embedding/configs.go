package embedding

import (
	"fmt"
	"os"
	"strconv"
)

// EMBEDDING_ENDPOINT must point to the root of the OpenAI-compatible inference
// service (no /embeddings appended). The provider appends the path itself.

type Config struct {
	Endpoint     string `yaml:"endpoint" envconfig:"EMBEDDING_ENDPOINT"`           // Base URL of the inference API
	ServiceToken string `yaml:"service_token" envconfig:"EMBEDDING_SERVICE_TOKEN"` // Bearer token
	Model        string `yaml:"model" envconfig:"EMBEDDING_MODEL"`                 // Model name sent with every request
	Dimensions   int    `yaml:"dimensions" envconfig:"EMBEDDING_DIMENSIONS"`       // Vector width produced by Model, 0 if unknown
	BatchSize    int    `yaml:"batch_size" envconfig:"EMBEDDING_BATCH_SIZE"`       // Texts per request (default 64)
	Concurrency  int    `yaml:"concurrency" envconfig:"EMBEDDING_CONCURRENCY"`     // Parallel requests (default 4)
	HTTPTimeoutS int    `yaml:"http_timeout_s" envconfig:"EMBEDDING_HTTP_TIMEOUT_SECONDS"`
}

const (
	defaultBatchSize   = 64
	defaultConcurrency = 4
	defaultTimeoutS    = 30
)

// NewConfig reads from environment variables.
func NewConfig() *Config {
	return &Config{
		Endpoint:     os.Getenv("EMBEDDING_ENDPOINT"),
		ServiceToken: os.Getenv("EMBEDDING_SERVICE_TOKEN"),
		Model:        os.Getenv("EMBEDDING_MODEL"),
		Dimensions:   envInt("EMBEDDING_DIMENSIONS", 0),
		BatchSize:    envInt("EMBEDDING_BATCH_SIZE", defaultBatchSize),
		Concurrency:  envInt("EMBEDDING_CONCURRENCY", defaultConcurrency),
		HTTPTimeoutS: envInt("EMBEDDING_HTTP_TIMEOUT_SECONDS", defaultTimeoutS),
	}
}

// Validate ensures required fields are present and fills defaults.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("embedding: missing EMBEDDING_ENDPOINT")
	}
	if c.Model == "" {
		return fmt.Errorf("embedding: missing EMBEDDING_MODEL")
	}
	if c.Dimensions < 0 {
		return fmt.Errorf("embedding: dimensions must not be negative")
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.HTTPTimeoutS <= 0 {
		c.HTTPTimeoutS = defaultTimeoutS
	}
	return nil
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
