package cratedb

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Common database error types that can be used by consumers of this package.
// These provide a standardized set of errors that abstract away the
// underlying driver specific error details.
var (
	// ErrRecordNotFound is returned when a query doesn't find any matching records
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when an insert violates a primary key
	ErrDuplicateKey = errors.New("duplicate key violation")

	// ErrRelationUnknown is returned when a statement references a missing table
	ErrRelationUnknown = errors.New("relation unknown")

	// ErrColumnUnknown is returned when a statement references a missing column
	ErrColumnUnknown = errors.New("column unknown")

	// ErrInvalidData is returned when the data being saved doesn't meet validation rules
	ErrInvalidData = errors.New("invalid data")
)

// SQLSTATE codes CrateDB reports over the PostgreSQL wire protocol.
const (
	codeUniqueViolation     = "23505"
	codeUndefinedTable      = "42P01"
	codeUndefinedColumn     = "42703"
	codeInvalidText         = "22P02"
	codeDataException       = "22000"
	codeSyntaxError         = "42601"
	codeSerialization       = "40001"
	codeAdminShutdown       = "57P01"
	codeCannotConnectNow    = "57P03"
	codeInternalError       = "XX000"
	connectionExceptionBase = "08"
)

// ErrorCategory groups errors by how callers should react to them.
type ErrorCategory int

const (
	CategoryUnknown ErrorCategory = iota
	CategoryNotFound
	CategoryConstraint
	CategorySchema
	CategoryData
	CategorySyntax
	CategoryConnection
	CategoryTransient
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryNotFound:
		return "not_found"
	case CategoryConstraint:
		return "constraint"
	case CategorySchema:
		return "schema"
	case CategoryData:
		return "data"
	case CategorySyntax:
		return "syntax"
	case CategoryConnection:
		return "connection"
	case CategoryTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// TranslateError converts GORM and driver errors into the sentinels above.
// The original error stays in the chain, so errors.As on *pgconn.PgError
// keeps working. Errors that match nothing are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var sentinel error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		sentinel = ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		sentinel = ErrDuplicateKey
	case errors.Is(err, gorm.ErrInvalidData):
		sentinel = ErrInvalidData
	}

	if sentinel == nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case codeUniqueViolation:
				sentinel = ErrDuplicateKey
			case codeUndefinedTable:
				sentinel = ErrRelationUnknown
			case codeUndefinedColumn:
				sentinel = ErrColumnUnknown
			case codeInvalidText, codeDataException:
				sentinel = ErrInvalidData
			}
		}
	}

	if sentinel == nil {
		// CrateDB names the exception in the message even when the code is generic.
		msg := err.Error()
		switch {
		case strings.Contains(msg, "DuplicateKeyException"):
			sentinel = ErrDuplicateKey
		case strings.Contains(msg, "RelationUnknown"):
			sentinel = ErrRelationUnknown
		case strings.Contains(msg, "ColumnUnknownException"):
			sentinel = ErrColumnUnknown
		}
	}

	if sentinel == nil || errors.Is(err, sentinel) {
		return err
	}
	return &translatedError{sentinel: sentinel, cause: err}
}

type translatedError struct {
	sentinel error
	cause    error
}

func (e *translatedError) Error() string {
	return e.sentinel.Error() + ": " + e.cause.Error()
}

func (e *translatedError) Unwrap() []error {
	return []error{e.sentinel, e.cause}
}

// GetErrorCategory classifies err.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}

	translated := TranslateError(err)
	switch {
	case errors.Is(translated, ErrRecordNotFound):
		return CategoryNotFound
	case errors.Is(translated, ErrDuplicateKey):
		return CategoryConstraint
	case errors.Is(translated, ErrRelationUnknown), errors.Is(translated, ErrColumnUnknown):
		return CategorySchema
	case errors.Is(translated, ErrInvalidData):
		return CategoryData
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeSyntaxError:
			return CategorySyntax
		case strings.HasPrefix(pgErr.Code, connectionExceptionBase),
			pgErr.Code == codeAdminShutdown,
			pgErr.Code == codeCannotConnectNow:
			return CategoryConnection
		case pgErr.Code == codeSerialization:
			return CategoryTransient
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return CategoryTransient
	}
	if errors.Is(err, driver.ErrBadConn) || pgconn.SafeToRetry(err) {
		return CategoryConnection
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return CategoryConnection
	}
	return CategoryUnknown
}

// IsRetryable reports whether repeating the operation may succeed.
// The adapters never retry on their own.
func IsRetryable(err error) bool {
	switch GetErrorCategory(err) {
	case CategoryConnection, CategoryTransient:
		return true
	default:
		return false
	}
}

// IsCritical reports errors that indicate a broken deployment rather than bad input.
func IsCritical(err error) bool {
	if GetErrorCategory(err) == CategorySchema {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeInternalError
}
