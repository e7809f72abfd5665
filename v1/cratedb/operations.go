package cratedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Aleph-Alpha/cratedb-llm/v1/logger"
	"github.com/Aleph-Alpha/cratedb-llm/v1/metrics"
	"github.com/Aleph-Alpha/cratedb-llm/v1/tracer"
	"github.com/Aleph-Alpha/cratedb-llm/v1/vectordb"
)

const (
	component = "cratedb"

	// insertBatchSize bounds the rows per INSERT statement.
	insertBatchSize = 200
)

// Adapter implements vectordb.Service on top of the langchain_collection and
// langchain_embedding tables.
//
// Example:
//
//	client, _ := cratedb.NewClient(cratedb.NewConfig(), log)
//	var db vectordb.Service = cratedb.NewAdapter(client, cratedb.WithLogger(log))
type Adapter struct {
	client  Client
	logger  Logger
	metrics metrics.OperationRecorder
	tracer  *tracer.Tracer
	width   atomic.Int64
}

var _ vectordb.Service = (*Adapter)(nil)

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithLogger sets the logger. The default discards output.
func WithLogger(l Logger) AdapterOption {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics records operation counts and latencies.
func WithMetrics(m metrics.OperationRecorder) AdapterOption {
	return func(a *Adapter) {
		if m != nil {
			a.metrics = m
		}
	}
}

// WithTracer wraps every operation in a span.
func WithTracer(t *tracer.Tracer) AdapterOption {
	return func(a *Adapter) {
		if t != nil {
			a.tracer = t
		}
	}
}

// NewAdapter creates a vectordb.Service backed by client.
func NewAdapter(client Client, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		client:  client,
		logger:  logger.NewNop(),
		metrics: metrics.Nop{},
		tracer:  tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// begin starts the span and the timer of one operation. The returned
// function must be called with the operation's final error.
func (a *Adapter) begin(ctx context.Context, operation string) (context.Context, trace.Span, func(error)) {
	ctx, span := a.tracer.StartSpan(ctx, "cratedb."+operation)
	start := time.Now()
	return ctx, span, func(err error) {
		a.metrics.RecordOperation(component, operation, start, err)
		a.tracer.RecordErrorOnSpan(span, err)
		span.End()
	}
}

func (a *Adapter) db(ctx context.Context) *gorm.DB {
	return a.client.DB().WithContext(ctx)
}

// Width returns the vector width established by Migrate, or 0.
func (a *Adapter) Width() int {
	return int(a.width.Load())
}

// Migrate creates the collection and embedding tables. When the embedding
// table exists its FLOAT_VECTOR width must equal width; a width of 0 adopts it.
func (a *Adapter) Migrate(ctx context.Context, width int) (_ int, err error) {
	ctx, _, done := a.begin(ctx, "migrate")
	defer func() { done(err) }()

	db := a.db(ctx)
	if err := EnsureTable(ctx, db, collectionDDL); err != nil {
		return 0, err
	}

	exists, err := TableExists(ctx, db, EmbeddingTable)
	if err != nil {
		return 0, err
	}

	if exists {
		existing, err := vectorWidth(ctx, db)
		if err != nil {
			return 0, err
		}
		if width == 0 {
			width = existing
		} else if width != existing {
			return 0, fmt.Errorf("%w: table %s stores vectors of width %d, requested %d",
				vectordb.ErrDimensionMismatch, EmbeddingTable, existing, width)
		}
	} else {
		if width <= 0 {
			return 0, vectordb.ErrMissingDimensions
		}
		if err := EnsureTable(ctx, db, fmt.Sprintf(embeddingDDL, width)); err != nil {
			return 0, err
		}
		a.logger.Info("[CrateDB] created embedding table", nil, map[string]interface{}{
			"table": EmbeddingTable,
			"width": width,
		})
	}

	a.width.Store(int64(width))
	return width, nil
}

// EnsureCollection returns the named collection, creating it when absent.
func (a *Adapter) EnsureCollection(ctx context.Context, name string, metadata map[string]any) (_ *vectordb.Collection, err error) {
	ctx, _, done := a.begin(ctx, "ensure_collection")
	defer func() { done(err) }()

	if name == "" {
		return nil, fmt.Errorf("collection name must not be empty")
	}

	existing, err := a.findCollections(ctx, []string{name})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return a.toCollection(existing[0], 0), nil
	}

	rec := CollectionRecord{
		UUID:     uuid.NewString(),
		Name:     name,
		Metadata: Metadata(metadata),
	}
	if err := a.db(ctx).Create(&rec).Error; err != nil {
		if errors.Is(TranslateError(err), ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", vectordb.ErrDuplicateCollection, name)
		}
		return nil, fmt.Errorf("failed to create collection %s: %w", name, err)
	}

	a.logger.Info("[CrateDB] created collection", nil, map[string]interface{}{
		"collection": name,
		"uuid":       rec.UUID,
	})
	return a.toCollection(rec, 0), nil
}

// GetCollection returns the named collection with its record count.
func (a *Adapter) GetCollection(ctx context.Context, name string) (_ *vectordb.Collection, err error) {
	ctx, _, done := a.begin(ctx, "get_collection")
	defer func() { done(err) }()

	recs, err := a.findCollections(ctx, []string{name})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, name)
	}

	var count int64
	err = a.db(ctx).Model(&EmbeddingRecord{}).Where("collection_id = ?", recs[0].UUID).Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count records of %s: %w", name, err)
	}
	return a.toCollection(recs[0], uint64(count)), nil
}

// GetCollections resolves names in one query. Unknown names are skipped.
func (a *Adapter) GetCollections(ctx context.Context, names []string) (_ []vectordb.Collection, err error) {
	ctx, _, done := a.begin(ctx, "get_collections")
	defer func() { done(err) }()

	recs, err := a.findCollections(ctx, names)
	if err != nil {
		return nil, err
	}
	out := make([]vectordb.Collection, 0, len(recs))
	for _, rec := range recs {
		out = append(out, *a.toCollection(rec, 0))
	}
	return out, nil
}

// ListCollections returns all collection names in ascending order.
func (a *Adapter) ListCollections(ctx context.Context) (_ []string, err error) {
	ctx, _, done := a.begin(ctx, "list_collections")
	defer func() { done(err) }()

	var names []string
	if err := a.db(ctx).Model(&CollectionRecord{}).Order("name ASC").Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}

// DeleteCollection removes the collection's records and then the collection.
// CrateDB has no foreign keys, so the cascade happens here.
func (a *Adapter) DeleteCollection(ctx context.Context, name string) (err error) {
	ctx, _, done := a.begin(ctx, "delete_collection")
	defer func() { done(err) }()

	recs, err := a.findCollections(ctx, []string{name})
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		a.logger.Debug("[CrateDB] collection to delete does not exist", nil, map[string]interface{}{"collection": name})
		return nil
	}

	db := a.db(ctx)
	if err := db.Where("collection_id = ?", recs[0].UUID).Delete(&EmbeddingRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete records of %s: %w", name, err)
	}
	if err := db.Where("name = ?", name).Delete(&CollectionRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}

	a.logger.Info("[CrateDB] deleted collection", nil, map[string]interface{}{"collection": name})
	return nil
}

// Insert adds or replaces records by id, in batches.
func (a *Adapter) Insert(ctx context.Context, collectionName string, inputs []vectordb.EmbeddingInput) (err error) {
	ctx, span, done := a.begin(ctx, "insert")
	defer func() { done(err) }()

	if len(inputs) == 0 {
		return nil
	}
	a.tracer.SetAttributes(span, map[string]interface{}{
		"collection": collectionName,
		"records":    len(inputs),
	})

	recs, err := a.findCollections(ctx, []string{collectionName})
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, collectionName)
	}

	records, err := a.toRecords(recs[0].UUID, inputs)
	if err != nil {
		return err
	}

	err = a.db(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"collection_id", "embedding", "document", "cmetadata"}),
		}).
		CreateInBatches(&records, insertBatchSize).Error
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", collectionName, err)
	}
	return nil
}

func (a *Adapter) toRecords(collectionID string, inputs []vectordb.EmbeddingInput) ([]EmbeddingRecord, error) {
	width := a.Width()
	records := make([]EmbeddingRecord, 0, len(inputs))
	for i, in := range inputs {
		if width > 0 && len(in.Vector) != width {
			return nil, fmt.Errorf("%w: record %d has %d dimensions, expected %d",
				vectordb.ErrDimensionMismatch, i, len(in.Vector), width)
		}
		id := in.ID
		if id == "" {
			v7, err := uuid.NewV7()
			if err != nil {
				return nil, fmt.Errorf("failed to generate id: %w", err)
			}
			id = v7.String()
		}
		records = append(records, EmbeddingRecord{
			ID:           id,
			CollectionID: collectionID,
			Embedding:    pq.Float32Array(in.Vector),
			Document:     in.Document,
			Metadata:     Metadata(in.Metadata),
		})
	}
	return records, nil
}

// Delete removes records by id from a collection. Unknown ids and unknown
// collections are ignored.
func (a *Adapter) Delete(ctx context.Context, collection string, ids []string) (err error) {
	ctx, _, done := a.begin(ctx, "delete")
	defer func() { done(err) }()

	if len(ids) == 0 {
		return nil
	}
	recs, err := a.findCollections(ctx, []string{collection})
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}

	err = a.db(ctx).
		Where("collection_id = ?", recs[0].UUID).
		Where("id IN ?", ids).
		Delete(&EmbeddingRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete records from %s: %w", collection, err)
	}
	return nil
}

type searchRow struct {
	ID           string          `gorm:"column:id"`
	CollectionID string          `gorm:"column:collection_id"`
	Document     sql.NullString  `gorm:"column:document"`
	Metadata     Metadata        `gorm:"column:cmetadata"`
	Embedding    pq.Float32Array `gorm:"column:embedding"`
	Similarity   float64         `gorm:"column:similarity"`
}

// Search ranks records by VECTOR_SIMILARITY, highest first with ties broken
// by ascending id. Each request is independent; failed requests leave a nil
// entry and contribute to the joined error.
func (a *Adapter) Search(ctx context.Context, requests ...vectordb.SearchRequest) (_ [][]vectordb.SearchResult, err error) {
	ctx, _, done := a.begin(ctx, "search")
	defer func() { done(err) }()

	results := make([][]vectordb.SearchResult, len(requests))
	var errs []error
	for i, req := range requests {
		res, err := a.search(ctx, req)
		if err != nil {
			errs = append(errs, fmt.Errorf("request %d: %w", i, err))
			continue
		}
		results[i] = res
		a.metrics.ObserveResults(component, "search", len(res))
	}
	return results, errors.Join(errs...)
}

func (a *Adapter) search(ctx context.Context, req vectordb.SearchRequest) ([]vectordb.SearchResult, error) {
	if req.TopK <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", req.TopK)
	}
	if len(req.Vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if width := a.Width(); width > 0 && len(req.Vector) != width {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			vectordb.ErrDimensionMismatch, len(req.Vector), width)
	}
	if len(req.CollectionNames) == 0 {
		return nil, fmt.Errorf("no collection given")
	}

	where, err := CompileFilter(req.Filter, MetadataColumn)
	if err != nil {
		return nil, err
	}

	cols, err := a.GetCollections(ctx, req.CollectionNames)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		if len(req.CollectionNames) == 1 {
			return nil, fmt.Errorf("%w: %s", vectordb.ErrCollectionNotFound, req.CollectionNames[0])
		}
		return nil, vectordb.ErrNoCollectionsFound
	}
	names := make(map[string]string, len(cols))
	ids := make([]string, 0, len(cols))
	for _, col := range cols {
		names[col.ID] = col.Name
		ids = append(ids, col.ID)
	}

	var rows []searchRow
	if err := searchQuery(a.db(ctx), req, ids, where).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}

	out := make([]vectordb.SearchResult, 0, len(rows))
	for _, row := range rows {
		res := vectordb.SearchResult{
			ID:             row.ID,
			CollectionName: names[row.CollectionID],
			Document:       row.Document.String,
			Metadata:       map[string]any(row.Metadata),
			Score:          row.Similarity,
			Distance:       distanceFromSimilarity(row.Similarity),
		}
		if req.WithVectors {
			res.Vector = []float32(row.Embedding)
		}
		out = append(out, res)
	}
	return out, nil
}

// searchQuery ranks the rows of the given collections by similarity to the
// request vector, filter applied in the same WHERE.
func searchQuery(db *gorm.DB, req vectordb.SearchRequest, collectionIDs []string, where clause.Expression) *gorm.DB {
	columns := "id, collection_id, document, cmetadata, VECTOR_SIMILARITY(embedding, ?) AS similarity"
	if req.WithVectors {
		columns = "id, collection_id, document, cmetadata, embedding, VECTOR_SIMILARITY(embedding, ?) AS similarity"
	}

	q := db.Table(EmbeddingTable).
		Select(columns, pq.Float32Array(req.Vector)).
		Where("collection_id IN ?", collectionIDs)
	if where != nil {
		q = q.Where(where)
	}
	return q.Order("similarity DESC").Order("id ASC").Limit(req.TopK)
}

// distanceFromSimilarity inverts VECTOR_SIMILARITY = 1 / (1 + d), where d is
// the squared euclidean distance.
func distanceFromSimilarity(sim float64) float64 {
	if sim <= 0 {
		return math.Inf(1)
	}
	d := 1/sim - 1
	if d < 0 {
		return 0
	}
	return d
}

func (a *Adapter) findCollections(ctx context.Context, names []string) ([]CollectionRecord, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var recs []CollectionRecord
	if err := a.db(ctx).Where("name IN ?", names).Order("name ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to look up collections: %w", err)
	}
	return recs, nil
}

func (a *Adapter) toCollection(rec CollectionRecord, count uint64) *vectordb.Collection {
	return &vectordb.Collection{
		ID:         rec.UUID,
		Name:       rec.Name,
		Metadata:   map[string]any(rec.Metadata),
		VectorSize: a.Width(),
		PointCount: count,
	}
}
