package embedding

import (
	"context"
	"sync"
)

// FakeEmbedder produces deterministic vectors for tests and examples.
// The i-th document of a call embeds to [1, ..., 1, i]; every query embeds to
// [1, ..., 1, 0]. Squared euclidean distances to the query are therefore 0, 1, 4, ...
type FakeEmbedder struct {
	Size int
}

// NewFakeEmbedder returns a FakeEmbedder with vectors of width size (default 10).
func NewFakeEmbedder(size int) *FakeEmbedder {
	if size <= 0 {
		size = 10
	}
	return &FakeEmbedder{Size: size}
}

func (f *FakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector(float32(i))
	}
	return out, nil
}

func (f *FakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return f.vector(0), nil
}

func (f *FakeEmbedder) Dimensions() int {
	return f.Size
}

func (f *FakeEmbedder) vector(last float32) []float32 {
	v := make([]float32, f.Size)
	for i := range v[:f.Size-1] {
		v[i] = 1
	}
	v[f.Size-1] = last
	return v
}

// ConsistentFakeEmbedder remembers every text it has seen and embeds a text to
// [1, ..., 1, position-of-first-sighting], so equal texts always get equal
// vectors, queries included.
type ConsistentFakeEmbedder struct {
	Size int

	mu    sync.Mutex
	known map[string]int
}

// NewConsistentFakeEmbedder returns a ConsistentFakeEmbedder of width size (default 10).
func NewConsistentFakeEmbedder(size int) *ConsistentFakeEmbedder {
	if size <= 0 {
		size = 10
	}
	return &ConsistentFakeEmbedder{Size: size, known: map[string]int{}}
}

func (f *ConsistentFakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		pos, ok := f.known[text]
		if !ok {
			pos = len(f.known)
			f.known[text] = pos
		}
		v := make([]float32, f.Size)
		for j := range v[:f.Size-1] {
			v[j] = 1
		}
		v[f.Size-1] = float32(pos)
		out[i] = v
	}
	return out, nil
}

func (f *ConsistentFakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *ConsistentFakeEmbedder) Dimensions() int {
	return f.Size
}
