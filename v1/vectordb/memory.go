package vectordb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Service with the same ranking and filter semantics
// as the SQL backend: exact similarity 1/(1+d) over squared euclidean
// distance d, ties broken by ascending id. It is meant for tests and small
// local workloads.
type Memory struct {
	mu          sync.RWMutex
	width       int
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	info    Collection
	records map[string]EmbeddingInput
}

var _ Service = (*Memory)(nil)

// NewMemory returns an empty in-memory Service.
func NewMemory() *Memory {
	return &Memory{collections: map[string]*memoryCollection{}}
}

func (m *Memory) Migrate(_ context.Context, width int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.width == 0 && width <= 0:
		return 0, ErrMissingDimensions
	case m.width == 0:
		m.width = width
	case width != 0 && width != m.width:
		return 0, fmt.Errorf("%w: storage holds vectors of width %d, requested %d", ErrDimensionMismatch, m.width, width)
	}
	return m.width, nil
}

func (m *Memory) EnsureCollection(_ context.Context, name string, metadata map[string]any) (*Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("collection name must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.collections[name]; ok {
		return m.snapshot(c), nil
	}
	c := &memoryCollection{
		info:    Collection{ID: uuid.NewString(), Name: name, Metadata: metadata},
		records: map[string]EmbeddingInput{},
	}
	m.collections[name] = c
	return m.snapshot(c), nil
}

func (m *Memory) GetCollection(_ context.Context, name string) (*Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return m.snapshot(c), nil
}

func (m *Memory) GetCollections(_ context.Context, names []string) ([]Collection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	found := m.resolve(names)
	out := make([]Collection, 0, len(found))
	for _, c := range found {
		out = append(out, *m.snapshot(c))
	}
	return out, nil
}

// resolve returns the known collections among names, once each, by name.
// The caller holds the lock.
func (m *Memory) resolve(names []string) []*memoryCollection {
	var out []*memoryCollection
	seen := map[string]bool{}
	for _, name := range names {
		if c, ok := m.collections[name]; ok && !seen[name] {
			seen[name] = true
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].info.Name < out[j].info.Name })
	return out
}

func (m *Memory) ListCollections(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) DeleteCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.collections, name)
	return nil
}

func (m *Memory) Insert(_ context.Context, collectionName string, inputs []EmbeddingInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collectionName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotFound, collectionName)
	}
	for i, in := range inputs {
		if m.width > 0 && len(in.Vector) != m.width {
			return fmt.Errorf("%w: record %d has %d dimensions, expected %d", ErrDimensionMismatch, i, len(in.Vector), m.width)
		}
	}
	for _, in := range inputs {
		if in.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			in.ID = id.String()
		}
		in.Vector = append([]float32(nil), in.Vector...)
		c.records[in.ID] = in
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, collection string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return nil
	}
	for _, id := range ids {
		delete(c.records, id)
	}
	return nil
}

func (m *Memory) Search(_ context.Context, requests ...SearchRequest) ([][]SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([][]SearchResult, len(requests))
	var errs []error
	for i, req := range requests {
		res, err := m.search(req)
		if err != nil {
			errs = append(errs, fmt.Errorf("request %d: %w", i, err))
			continue
		}
		results[i] = res
	}
	return results, errors.Join(errs...)
}

func (m *Memory) search(req SearchRequest) ([]SearchResult, error) {
	if req.TopK <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", req.TopK)
	}
	if len(req.Vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if len(req.CollectionNames) == 0 {
		return nil, fmt.Errorf("no collection given")
	}
	if m.width > 0 && len(req.Vector) != m.width {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d", ErrDimensionMismatch, len(req.Vector), m.width)
	}
	if err := Validate(req.Filter); err != nil {
		return nil, err
	}

	found := m.resolve(req.CollectionNames)
	if len(found) == 0 {
		if len(req.CollectionNames) == 1 {
			return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, req.CollectionNames[0])
		}
		return nil, ErrNoCollectionsFound
	}

	var out []SearchResult
	for _, c := range found {
		for _, rec := range c.records {
			if !Evaluate(req.Filter, rec.Metadata) {
				continue
			}
			d := squaredL2(req.Vector, rec.Vector)
			res := SearchResult{
				ID:             rec.ID,
				CollectionName: c.info.Name,
				Document:       rec.Document,
				Metadata:       rec.Metadata,
				Score:          1 / (1 + d),
				Distance:       d,
			}
			if req.WithVectors {
				res.Vector = append([]float32(nil), rec.Vector...)
			}
			out = append(out, res)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > req.TopK {
		out = out[:req.TopK]
	}
	return out, nil
}

func (m *Memory) snapshot(c *memoryCollection) *Collection {
	info := c.info
	info.VectorSize = m.width
	info.PointCount = uint64(len(c.records))
	return &info
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		if i >= len(b) {
			break
		}
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
