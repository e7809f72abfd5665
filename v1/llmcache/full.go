package llmcache

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Aleph-Alpha/cratedb-llm/v1/cratedb"
	"github.com/Aleph-Alpha/cratedb-llm/v1/schema"
)

const (
	component = "llmcache"

	// FullCacheTable holds the exact-match cache entries.
	FullCacheTable = "full_llm_cache"

	fullCacheDDL = `CREATE TABLE IF NOT EXISTS ` + FullCacheTable + ` (
  prompt TEXT,
  llm TEXT,
  idx INTEGER,
  response TEXT,
  PRIMARY KEY (prompt, llm, idx)
)`
)

// fullCacheEntry is one generation of a cached response.
type fullCacheEntry struct {
	Prompt   string `gorm:"column:prompt;primaryKey"`
	LLM      string `gorm:"column:llm;primaryKey"`
	Idx      int    `gorm:"column:idx;primaryKey"`
	Response string `gorm:"column:response"`
}

func (fullCacheEntry) TableName() string { return FullCacheTable }

// FullCache caches generations by exact prompt and model configuration.
type FullCache struct {
	client cratedb.Client
	opts   options
}

// NewFullCache creates the cache table if needed.
func NewFullCache(ctx context.Context, client cratedb.Client, opts ...Option) (*FullCache, error) {
	c := &FullCache{client: client, opts: newOptions(opts)}
	if err := cratedb.EnsureTable(ctx, client.DB(), fullCacheDDL); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *FullCache) begin(ctx context.Context, operation string) (context.Context, trace.Span, func(error)) {
	ctx, span := c.opts.tracer.StartSpan(ctx, "llmcache.full."+operation)
	start := time.Now()
	return ctx, span, func(err error) {
		c.opts.metrics.RecordOperation(component, "full_"+operation, start, err)
		c.opts.tracer.RecordErrorOnSpan(span, err)
		span.End()
	}
}

func (c *FullCache) db(ctx context.Context) *gorm.DB {
	return c.client.DB().WithContext(ctx)
}

// Lookup returns the cached generations in their original order. The bool
// reports a hit.
func (c *FullCache) Lookup(ctx context.Context, prompt, llm string) (_ []schema.Generation, _ bool, err error) {
	ctx, _, done := c.begin(ctx, "lookup")
	defer func() { done(err) }()

	var entries []fullCacheEntry
	err = c.db(ctx).
		Where("prompt = ? AND llm = ?", prompt, llm).
		Order("idx ASC").
		Find(&entries).Error
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup failed: %w", cratedb.TranslateError(err))
	}
	if len(entries) == 0 {
		return nil, false, nil
	}

	gens := make([]schema.Generation, 0, len(entries))
	for _, e := range entries {
		gens = append(gens, c.decode(e))
	}
	return gens, true, nil
}

// decode falls back to a text-only generation for rows it cannot read.
func (c *FullCache) decode(e fullCacheEntry) schema.Generation {
	gens, err := c.opts.serializer.Unmarshal([]byte(e.Response))
	if err != nil || len(gens) != 1 {
		c.opts.logger.Warn("[LLMCache] could not decode cached generation", err, map[string]interface{}{
			"idx": e.Idx,
		})
		return schema.Generation{Text: e.Response}
	}
	return gens[0]
}

// Update stores gens for prompt and llm, replacing a previous entry.
func (c *FullCache) Update(ctx context.Context, prompt, llm string, gens []schema.Generation) (err error) {
	ctx, _, done := c.begin(ctx, "update")
	defer func() { done(err) }()

	entries := make([]fullCacheEntry, 0, len(gens))
	for i, gen := range gens {
		data, err := c.opts.serializer.Marshal([]schema.Generation{gen})
		if err != nil {
			return fmt.Errorf("failed to encode generation %d: %w", i, err)
		}
		entries = append(entries, fullCacheEntry{Prompt: prompt, LLM: llm, Idx: i, Response: string(data)})
	}

	db := c.db(ctx)
	if len(entries) > 0 {
		if err := upsertEntries(db, entries).Error; err != nil {
			return fmt.Errorf("cache update failed: %w", cratedb.TranslateError(err))
		}
	}
	// Drop generations of a longer previous entry.
	err = db.Where("prompt = ? AND llm = ? AND idx >= ?", prompt, llm, len(entries)).
		Delete(&fullCacheEntry{}).Error
	if err != nil {
		return fmt.Errorf("cache update failed: %w", cratedb.TranslateError(err))
	}
	return nil
}

func upsertEntries(db *gorm.DB, entries []fullCacheEntry) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "prompt"}, {Name: "llm"}, {Name: "idx"}},
		DoUpdates: clause.AssignmentColumns([]string{"response"}),
	}).Create(&entries)
}

// Clear deletes every entry, or only those of WithLLMString.
func (c *FullCache) Clear(ctx context.Context, opts ...ClearOption) (err error) {
	ctx, _, done := c.begin(ctx, "clear")
	defer func() { done(err) }()

	co := newClearOptions(opts)
	db := c.db(ctx)
	if co.llmString != "" {
		db = db.Where("llm = ?", co.llmString)
	} else {
		db = db.Session(&gorm.Session{AllowGlobalUpdate: true})
	}
	if err := db.Delete(&fullCacheEntry{}).Error; err != nil {
		return fmt.Errorf("cache clear failed: %w", cratedb.TranslateError(err))
	}
	return nil
}
