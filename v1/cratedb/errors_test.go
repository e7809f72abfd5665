package cratedb

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"gorm not found", gorm.ErrRecordNotFound, ErrRecordNotFound},
		{"gorm duplicate", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), ErrDuplicateKey},
		{"pg unique violation", &pgconn.PgError{Code: "23505", Message: "A document with the same primary key exists already"}, ErrDuplicateKey},
		{"pg undefined table", &pgconn.PgError{Code: "42P01", Message: "Relation 'langchain_embedding' unknown"}, ErrRelationUnknown},
		{"pg undefined column", &pgconn.PgError{Code: "42703"}, ErrColumnUnknown},
		{"pg invalid text", &pgconn.PgError{Code: "22P02"}, ErrInvalidData},
		{"crate message", errors.New("RelationUnknown[Relation 'doc.message_store' unknown]"), ErrRelationUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranslateError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err, "the cause stays in the chain")
		})
	}

	assert.NoError(t, TranslateError(nil))

	plain := errors.New("boom")
	assert.Same(t, plain, TranslateError(plain))
}

func TestTranslateErrorKeepsPgError(t *testing.T) {
	err := TranslateError(fmt.Errorf("create: %w", &pgconn.PgError{Code: "23505"}))

	var pgErr *pgconn.PgError
	assert.ErrorAs(t, err, &pgErr)
	assert.Equal(t, "23505", pgErr.Code)
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCategory
	}{
		{nil, CategoryUnknown},
		{gorm.ErrRecordNotFound, CategoryNotFound},
		{&pgconn.PgError{Code: "23505"}, CategoryConstraint},
		{&pgconn.PgError{Code: "42P01"}, CategorySchema},
		{&pgconn.PgError{Code: "22P02"}, CategoryData},
		{&pgconn.PgError{Code: "42601"}, CategorySyntax},
		{&pgconn.PgError{Code: "08006"}, CategoryConnection},
		{&pgconn.PgError{Code: "57P01"}, CategoryConnection},
		{&pgconn.PgError{Code: "40001"}, CategoryTransient},
		{driver.ErrBadConn, CategoryConnection},
		{context.DeadlineExceeded, CategoryTransient},
		{errors.New("boom"), CategoryUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetErrorCategory(tt.err), "error %v", tt.err)
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(driver.ErrBadConn))
	assert.True(t, IsRetryable(&pgconn.PgError{Code: "40001"}))
	assert.False(t, IsRetryable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsRetryable(nil))
}

func TestIsCritical(t *testing.T) {
	assert.True(t, IsCritical(&pgconn.PgError{Code: "42703"}))
	assert.True(t, IsCritical(&pgconn.PgError{Code: "XX000"}))
	assert.False(t, IsCritical(gorm.ErrRecordNotFound))
}

func TestErrorCategoryString(t *testing.T) {
	assert.Equal(t, "schema", CategorySchema.String())
	assert.Equal(t, "unknown", ErrorCategory(99).String())
}
