package loader

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/cratedb-llm/v1/cratedb"
	"github.com/Aleph-Alpha/cratedb-llm/v1/logger"
	"github.com/Aleph-Alpha/cratedb-llm/v1/metrics"
	"github.com/Aleph-Alpha/cratedb-llm/v1/schema"
	"github.com/Aleph-Alpha/cratedb-llm/v1/tracer"
)

const (
	component = "loader"

	// RowKey and QueryKey are the metadata keys of WithRownumInMetadata and
	// WithQueryInMetadata.
	RowKey   = "row"
	QueryKey = "query"
)

// Logger is the logging surface used by the loader.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
}

// Loader turns the rows of a SQL query into documents.
type Loader struct {
	client cratedb.Client
	query  string

	parameters         map[string]any
	pageContentColumns []string
	metadataColumns    []string
	pageContentMapper  PageContentMapper
	metadataMapper     MetadataMapper
	rownumInMetadata   bool
	queryInMetadata    bool

	logger  Logger
	tracer  *tracer.Tracer
	metrics metrics.OperationRecorder
}

// Option configures a Loader.
type Option func(*Loader)

// WithParameters binds named parameters, written @name in the query.
func WithParameters(params map[string]any) Option {
	return func(l *Loader) { l.parameters = params }
}

// WithPageContentColumns limits the default page content to these columns.
func WithPageContentColumns(columns ...string) Option {
	return func(l *Loader) { l.pageContentColumns = columns }
}

// WithMetadataColumns copies these columns into the metadata.
func WithMetadataColumns(columns ...string) Option {
	return func(l *Loader) { l.metadataColumns = columns }
}

func WithPageContentMapper(fn PageContentMapper) Option {
	return func(l *Loader) { l.pageContentMapper = fn }
}

func WithMetadataMapper(fn MetadataMapper) Option {
	return func(l *Loader) { l.metadataMapper = fn }
}

// WithRownumInMetadata stores the zero-based row number under RowKey.
func WithRownumInMetadata() Option {
	return func(l *Loader) { l.rownumInMetadata = true }
}

// WithQueryInMetadata stores the query text under QueryKey.
func WithQueryInMetadata() Option {
	return func(l *Loader) { l.queryInMetadata = true }
}

func WithLogger(log Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.logger = log
		}
	}
}

func WithTracer(t *tracer.Tracer) Option {
	return func(l *Loader) {
		if t != nil {
			l.tracer = t
		}
	}
}

func WithMetrics(m metrics.OperationRecorder) Option {
	return func(l *Loader) {
		if m != nil {
			l.metrics = m
		}
	}
}

// New returns a loader for query.
func New(client cratedb.Client, query string, opts ...Option) (*Loader, error) {
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	l := &Loader{
		client:  client,
		query:   query,
		logger:  logger.NewNop(),
		tracer:  tracer.NewNoop(),
		metrics: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Loader) begin(ctx context.Context, operation string) (context.Context, trace.Span, func(error)) {
	ctx, span := l.tracer.StartSpan(ctx, "loader."+operation)
	start := time.Now()
	return ctx, span, func(err error) {
		l.metrics.RecordOperation(component, operation, start, err)
		l.tracer.RecordErrorOnSpan(span, err)
		span.End()
	}
}

// Load runs the query and returns all documents.
func (l *Loader) Load(ctx context.Context) ([]schema.Document, error) {
	var docs []schema.Document
	err := l.LazyLoad(ctx, func(doc schema.Document) error {
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// LazyLoad runs the query and passes documents to fn one row at a time.
// An error from fn stops the iteration and is returned.
func (l *Loader) LazyLoad(ctx context.Context, fn func(schema.Document) error) (err error) {
	ctx, _, done := l.begin(ctx, "load")
	defer func() { done(err) }()

	db := l.client.DB().WithContext(ctx)
	if l.parameters != nil {
		db = db.Raw(l.query, l.parameters)
	} else {
		db = db.Raw(l.query)
	}
	rows, err := db.Rows()
	if err != nil {
		return fmt.Errorf("query failed: %w", cratedb.TranslateError(err))
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	n := 0
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed to read row %d: %w", n, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}

		if err := fn(l.document(Row{Columns: columns, Values: values}, n)); err != nil {
			return err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("query failed: %w", cratedb.TranslateError(err))
	}

	l.logger.Debug("[Loader] loaded documents", nil, map[string]interface{}{"documents": n})
	return nil
}

func (l *Loader) document(row Row, n int) schema.Document {
	var content string
	if l.pageContentMapper != nil {
		content = l.pageContentMapper(row)
	} else {
		content = PageContentDefaultMapper(row, l.pageContentColumns...)
	}

	var metadata map[string]any
	if l.metadataMapper != nil {
		metadata = l.metadataMapper(row)
	} else {
		metadata = MetadataDefaultMapper(row, l.metadataColumns...)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	if l.rownumInMetadata {
		metadata[RowKey] = n
	}
	if l.queryInMetadata {
		metadata[QueryKey] = l.query
	}
	return schema.Document{PageContent: content, Metadata: metadata}
}
