package llmcache

import (
	"encoding/json"

	"github.com/Aleph-Alpha/cratedb-llm/v1/schema"
)

// Serializer encodes cached generations.
type Serializer interface {
	Marshal(gens []schema.Generation) ([]byte, error)
	Unmarshal(data []byte) ([]schema.Generation, error)
}

// JSONSerializer encodes generations as a JSON array.
type JSONSerializer struct{}

func (JSONSerializer) Marshal(gens []schema.Generation) ([]byte, error) {
	return json.Marshal(gens)
}

func (JSONSerializer) Unmarshal(data []byte) ([]schema.Generation, error) {
	var gens []schema.Generation
	if err := json.Unmarshal(data, &gens); err != nil {
		return nil, err
	}
	return gens, nil
}
