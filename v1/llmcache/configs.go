package llmcache

import (
	"os"
	"strconv"
)

// Config holds the SemanticCache settings used by FXModule.
type Config struct {
	ScoreThreshold   float64 `yaml:"score_threshold" envconfig:"LLMCACHE_SCORE_THRESHOLD"`
	CollectionPrefix string  `yaml:"collection_prefix" envconfig:"LLMCACHE_COLLECTION_PREFIX"`
}

func DefaultConfig() Config {
	return Config{
		ScoreThreshold:   DefaultScoreThreshold,
		CollectionPrefix: DefaultCollectionPrefix,
	}
}

// NewConfig reads the configuration from the environment, falling back to
// DefaultConfig.
func NewConfig() Config {
	cfg := DefaultConfig()
	if v, err := strconv.ParseFloat(os.Getenv("LLMCACHE_SCORE_THRESHOLD"), 64); err == nil && v >= 0 {
		cfg.ScoreThreshold = v
	}
	if v := os.Getenv("LLMCACHE_COLLECTION_PREFIX"); v != "" {
		cfg.CollectionPrefix = v
	}
	return cfg
}
