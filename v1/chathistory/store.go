package chathistory

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/cratedb-llm/v1/cratedb"
	"github.com/Aleph-Alpha/cratedb-llm/v1/logger"
	"github.com/Aleph-Alpha/cratedb-llm/v1/metrics"
	"github.com/Aleph-Alpha/cratedb-llm/v1/schema"
	"github.com/Aleph-Alpha/cratedb-llm/v1/tracer"
)

const (
	component = "chathistory"

	// DefaultTableName is the table messages are stored in.
	DefaultTableName = "message_store"

	tableDDL = `CREATE TABLE IF NOT EXISTS %s (
  session_id TEXT,
  position BIGINT,
  role TEXT,
  content TEXT,
  additional OBJECT(DYNAMIC),
  PRIMARY KEY (session_id, position)
)`
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Logger is the logging surface used by the store.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
}

type messageRecord struct {
	SessionID  string           `gorm:"column:session_id;primaryKey"`
	Position   int64            `gorm:"column:position;primaryKey"`
	Role       string           `gorm:"column:role"`
	Content    string           `gorm:"column:content"`
	Additional cratedb.Metadata `gorm:"column:additional"`
}

// Store keeps chat sessions as ordered, append-only message logs.
type Store struct {
	client  cratedb.Client
	table   string
	logger  Logger
	tracer  *tracer.Tracer
	metrics metrics.OperationRecorder
}

// Option configures a Store.
type Option func(*Store)

// WithTableName overrides DefaultTableName.
func WithTableName(name string) Option {
	return func(s *Store) { s.table = name }
}

func WithLogger(l Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithTracer(t *tracer.Tracer) Option {
	return func(s *Store) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithMetrics(m metrics.OperationRecorder) Option {
	return func(s *Store) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewStore creates the message table if needed.
//
// Positions are derived from MAX(position), which only sees refreshed rows.
// When the client does not refresh after DML, AddMessages refreshes the table
// before reading the position.
func NewStore(ctx context.Context, client cratedb.Client, opts ...Option) (*Store, error) {
	s := &Store{
		client:  client,
		table:   DefaultTableName,
		logger:  logger.NewNop(),
		tracer:  tracer.NewNoop(),
		metrics: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if !tableNamePattern.MatchString(s.table) {
		return nil, fmt.Errorf("invalid table name %q", s.table)
	}
	if err := cratedb.EnsureTable(ctx, client.DB(), fmt.Sprintf(tableDDL, s.table)); err != nil {
		return nil, err
	}
	return s, nil
}

// TableName returns the table the store writes to.
func (s *Store) TableName() string {
	return s.table
}

func (s *Store) begin(ctx context.Context, operation string) (context.Context, trace.Span, func(error)) {
	ctx, span := s.tracer.StartSpan(ctx, "chathistory."+operation)
	start := time.Now()
	return ctx, span, func(err error) {
		s.metrics.RecordOperation(component, operation, start, err)
		s.tracer.RecordErrorOnSpan(span, err)
		span.End()
	}
}

func (s *Store) db(ctx context.Context) *gorm.DB {
	return s.client.DB().WithContext(ctx).Table(s.table)
}

// AddMessages appends msgs to the session in order. Two writers appending to
// the same session at once get cratedb.ErrDuplicateKey for the later insert.
func (s *Store) AddMessages(ctx context.Context, sessionID string, msgs ...schema.Message) (err error) {
	ctx, span, done := s.begin(ctx, "add_messages")
	defer func() { done(err) }()

	if len(msgs) == 0 {
		return nil
	}
	s.tracer.SetAttributes(span, map[string]interface{}{"session_id": sessionID, "messages": len(msgs)})

	if err := s.refresh(ctx); err != nil {
		return fmt.Errorf("failed to refresh %s: %w", s.table, cratedb.TranslateError(err))
	}

	var last int64
	err = s.db(ctx).
		Select("COALESCE(MAX(position), -1)").
		Where("session_id = ?", sessionID).
		Scan(&last).Error
	if err != nil {
		return fmt.Errorf("failed to read position of session %s: %w", sessionID, cratedb.TranslateError(err))
	}

	records := make([]messageRecord, len(msgs))
	for i, msg := range msgs {
		records[i] = messageRecord{
			SessionID:  sessionID,
			Position:   last + 1 + int64(i),
			Role:       string(msg.Role),
			Content:    msg.Content,
			Additional: cratedb.Metadata(msg.AdditionalKwargs),
		}
	}
	if err := s.db(ctx).Create(&records).Error; err != nil {
		return fmt.Errorf("failed to append to session %s: %w", sessionID, cratedb.TranslateError(err))
	}

	s.logger.Debug("[ChatHistory] appended messages", nil, map[string]interface{}{
		"session_id": sessionID,
		"messages":   len(msgs),
	})
	return nil
}

// refresh makes earlier appends visible to MAX(position) unless the client
// already refreshes after every write.
func (s *Store) refresh(ctx context.Context) error {
	if s.client.Config().RefreshAfterDML {
		return nil
	}
	return cratedb.Refresh(s.client.DB().WithContext(ctx), s.table)
}

// Messages returns the session's messages in the order they were added.
func (s *Store) Messages(ctx context.Context, sessionID string) (_ []schema.Message, err error) {
	ctx, _, done := s.begin(ctx, "messages")
	defer func() { done(err) }()

	var records []messageRecord
	err = s.db(ctx).Where("session_id = ?", sessionID).Order("position ASC").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", sessionID, cratedb.TranslateError(err))
	}

	msgs := make([]schema.Message, 0, len(records))
	for _, r := range records {
		msg := schema.Message{Role: schema.Role(r.Role), Content: r.Content}
		if len(r.Additional) > 0 {
			msg.AdditionalKwargs = map[string]any(r.Additional)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Clear deletes every message of the session.
func (s *Store) Clear(ctx context.Context, sessionID string) (err error) {
	ctx, _, done := s.begin(ctx, "clear")
	defer func() { done(err) }()

	if err := s.db(ctx).Where("session_id = ?", sessionID).Delete(&messageRecord{}).Error; err != nil {
		return fmt.Errorf("failed to clear session %s: %w", sessionID, cratedb.TranslateError(err))
	}
	s.logger.Info("[ChatHistory] cleared session", nil, map[string]interface{}{"session_id": sessionID})
	return nil
}

// Session returns a handle bound to one session.
func (s *Store) Session(id string) *History {
	return &History{store: s, sessionID: id}
}
