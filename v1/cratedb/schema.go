package cratedb

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	CollectionTable = "langchain_collection"
	EmbeddingTable  = "langchain_embedding"
)

// Metadata is a free-form OBJECT(DYNAMIC) value. It travels as JSON text in
// both directions.
type Metadata map[string]any

// Value implements driver.Valuer.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case map[string]any:
		*m = Metadata(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Metadata", src)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*m = Metadata{}
		return nil
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to decode metadata: %w", err)
	}
	*m = out
	return nil
}

// CollectionRecord is a row of langchain_collection.
type CollectionRecord struct {
	UUID     string   `gorm:"column:uuid"`
	Name     string   `gorm:"column:name;primaryKey"`
	Metadata Metadata `gorm:"column:cmetadata"`
}

func (CollectionRecord) TableName() string { return CollectionTable }

// EmbeddingRecord is a row of langchain_embedding.
type EmbeddingRecord struct {
	ID           string          `gorm:"column:id;primaryKey"`
	CollectionID string          `gorm:"column:collection_id"`
	Embedding    pq.Float32Array `gorm:"column:embedding"`
	Document     string          `gorm:"column:document"`
	Metadata     Metadata        `gorm:"column:cmetadata"`
}

func (EmbeddingRecord) TableName() string { return EmbeddingTable }

var (
	collectionDDL = `CREATE TABLE IF NOT EXISTS "` + CollectionTable + `" (
  "uuid" TEXT NOT NULL,
  "name" TEXT PRIMARY KEY,
  "cmetadata" OBJECT(DYNAMIC)
)`

	embeddingDDL = `CREATE TABLE IF NOT EXISTS "` + EmbeddingTable + `" (
  "id" TEXT PRIMARY KEY,
  "collection_id" TEXT,
  "embedding" FLOAT_VECTOR(%d),
  "document" TEXT,
  "cmetadata" OBJECT(DYNAMIC)
)`

	vectorWidthPattern = regexp.MustCompile(`(?i)"?embedding"?\s+FLOAT_VECTOR\((\d+)\)`)
)

// TableExists reports whether table exists in the connection's schema.
func TableExists(ctx context.Context, db *gorm.DB, table string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Raw(`SELECT count(*) FROM information_schema.tables WHERE table_schema = CURRENT_SCHEMA AND table_name = ?`, table).
		Scan(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", table, err)
	}
	return n > 0, nil
}

// EnsureTable runs a CREATE TABLE IF NOT EXISTS statement.
func EnsureTable(ctx context.Context, db *gorm.DB, ddl string) error {
	if err := db.WithContext(ctx).Exec(ddl).Error; err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// vectorWidth reads the FLOAT_VECTOR width of the embedding table.
func vectorWidth(ctx context.Context, db *gorm.DB) (int, error) {
	rows, err := db.WithContext(ctx).Raw(`SHOW CREATE TABLE "` + EmbeddingTable + `"`).Rows()
	if err != nil {
		return 0, fmt.Errorf("failed to inspect %s: %w", EmbeddingTable, err)
	}
	defer rows.Close()

	var ddl string
	if rows.Next() {
		if err := rows.Scan(&ddl); err != nil {
			return 0, fmt.Errorf("failed to read %s definition: %w", EmbeddingTable, err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to read %s definition: %w", EmbeddingTable, err)
	}
	return parseVectorWidth(ddl)
}

func parseVectorWidth(ddl string) (int, error) {
	m := vectorWidthPattern.FindStringSubmatch(ddl)
	if m == nil {
		return 0, fmt.Errorf("%s has no FLOAT_VECTOR embedding column", EmbeddingTable)
	}
	return strconv.Atoi(m[1])
}
