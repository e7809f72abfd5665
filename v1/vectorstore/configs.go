package vectorstore

import (
	"os"
	"strconv"
)

// Config selects the collection a Store opened through FXModule works on.
type Config struct {
	CollectionName      string `yaml:"collection_name" envconfig:"VECTORSTORE_COLLECTION"`
	EmbeddingLength     int    `yaml:"embedding_length" envconfig:"VECTORSTORE_EMBEDDING_LENGTH"`
	PreDeleteCollection bool   `yaml:"pre_delete_collection" envconfig:"VECTORSTORE_PRE_DELETE_COLLECTION"`
}

// NewConfig reads the configuration from the environment.
func NewConfig() Config {
	cfg := Config{
		CollectionName: os.Getenv("VECTORSTORE_COLLECTION"),
	}
	if n, err := strconv.Atoi(os.Getenv("VECTORSTORE_EMBEDDING_LENGTH")); err == nil && n > 0 {
		cfg.EmbeddingLength = n
	}
	cfg.PreDeleteCollection, _ = strconv.ParseBool(os.Getenv("VECTORSTORE_PRE_DELETE_COLLECTION"))
	return cfg
}

func (c Config) options() []Option {
	opts := []Option{WithCollectionName(c.CollectionName), WithEmbeddingLength(c.EmbeddingLength)}
	if c.PreDeleteCollection {
		opts = append(opts, WithPreDeleteCollection())
	}
	return opts
}
