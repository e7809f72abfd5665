package cratedb

import (
	"context"

	"gorm.io/gorm"
)

// Client is the handle the adapters in this module are built on.
// *CrateDB implements it; tests can supply any gorm handle through NewClientFromDB.
type Client interface {
	// Raw GORM access. The handle may change after a reconnect.
	DB() *gorm.DB

	// Config returns the connection configuration.
	Config() Config

	// Ping checks connectivity once.
	Ping(ctx context.Context) error

	// Error translation / classification.
	//
	// Operations return raw GORM/driver errors wrapped with context. Use
	// TranslateError to normalize them to this package's sentinels
	// (ErrRecordNotFound, ErrDuplicateKey, ...).
	TranslateError(err error) error
	GetErrorCategory(err error) ErrorCategory
	IsRetryable(err error) bool

	// Lifecycle management
	GracefulShutdown() error
}

var _ Client = (*CrateDB)(nil)

func (c *CrateDB) TranslateError(err error) error { return TranslateError(err) }

func (c *CrateDB) GetErrorCategory(err error) ErrorCategory { return GetErrorCategory(err) }

func (c *CrateDB) IsRetryable(err error) bool { return IsRetryable(err) }
