package cratedb

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Aleph-Alpha/cratedb-llm/v1/logger"
)

// Logger is the logging contract of this package; *logger.LoggerClient satisfies it.
//
//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=cratedb
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
}

// sessionSettings run on every new connection. Subscripts on OBJECT(DYNAMIC)
// columns must yield NULL for keys no row has written yet, which is what
// metadata filters rely on.
var sessionSettings = []string{
	"SET SESSION error_on_unknown_object_key = false",
}

// CrateDB is a wrapper around gorm.DB that provides connection monitoring,
// automatic reconnection, and the CrateDB specific session and refresh setup.
//
// Concurrency: the active *gorm.DB pointer is stored in an atomic pointer and can be
// swapped during reconnection without blocking readers.
type CrateDB struct {
	cfg             Config
	client          atomic.Pointer[gorm.DB]
	logger          Logger
	ownsConn        bool
	shutdownSignal  chan struct{}
	retryChanSignal chan error

	closeRetryChanOnce sync.Once
	closeShutdownOnce  sync.Once
}

// NewClient connects to CrateDB with cfg. The connection is verified with a
// ping before returning. A nil log discards log output.
func NewClient(cfg Config, log Logger) (*CrateDB, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	conn, err := connectToCrateDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("error in connecting to CrateDB: %w", err)
	}
	log.Info("[CrateDB] connected", nil, map[string]interface{}{
		"host":   cfg.Connection.Host,
		"schema": cfg.Connection.Schema,
	})

	c := newCrateDB(cfg, log)
	c.ownsConn = true
	c.client.Store(conn)
	return c, nil
}

// NewClientFromDB wraps an existing gorm handle, for applications that manage
// their own connection. The refresh plugin is installed according to cfg; the
// caller keeps ownership of the connection.
func NewClientFromDB(db *gorm.DB, cfg Config, log Logger) (*CrateDB, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm handle is nil")
	}
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.RefreshAfterDML {
		if err := db.Use(&RefreshPlugin{}); err != nil {
			return nil, fmt.Errorf("failed to install refresh plugin: %w", err)
		}
	}
	c := newCrateDB(cfg, log)
	c.client.Store(db)
	return c, nil
}

func newCrateDB(cfg Config, log Logger) *CrateDB {
	return &CrateDB{
		cfg:             cfg,
		logger:          log,
		shutdownSignal:  make(chan struct{}),
		retryChanSignal: make(chan error, 1),
	}
}

// connectToCrateDB opens a pgx pool behind database/sql, applies the session
// settings on every connection and hands the pool to gorm.
func connectToCrateDB(cfg Config) (*gorm.DB, error) {
	pgxConfig, err := pgx.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse CrateDB connection string: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pgxConfig, stdlib.OptionAfterConnect(func(ctx context.Context, conn *pgx.Conn) error {
		for _, stmt := range sessionSettings {
			if _, err := conn.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply %q: %w", stmt, err)
			}
		}
		return nil
	}))

	maxOpen := cfg.ConnectionDetails.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := cfg.ConnectionDetails.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = defaultMaxIdleConns
	}
	maxLifetime := cfg.ConnectionDetails.ConnMaxLifetime
	if maxLifetime == 0 {
		maxLifetime = defaultConnMaxLifetime
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(maxLifetime)

	database, err := gorm.Open(
		postgres.New(postgres.Config{Conn: sqlDB}),
		&gorm.Config{
			TranslateError:         true,
			SkipDefaultTransaction: true,
			Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to CrateDB: %w", err)
	}

	if cfg.RefreshAfterDML {
		if err := database.Use(&RefreshPlugin{}); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to install refresh plugin: %w", err)
		}
	}

	return database, nil
}

// DB returns the current gorm handle. It may change after a reconnect, so
// callers should not cache it across operations.
func (c *CrateDB) DB() *gorm.DB {
	return c.client.Load()
}

// Config returns the configuration the client was built with.
func (c *CrateDB) Config() Config {
	return c.cfg
}

// RetryConnection continuously attempts to reconnect to CrateDB when notified
// of a connection failure. It operates as a goroutine that waits for signals on retryChanSignal
// before attempting reconnection. The function respects context cancellation and shutdown signals.
func (c *CrateDB) RetryConnection(ctx context.Context) {
	if !c.ownsConn {
		return
	}
outerLoop:
	for {
		select {
		case <-c.shutdownSignal:
			c.logger.Info("[CrateDB] stopping RetryConnection loop due to shutdown signal", nil)
			return
		case <-ctx.Done():
			return
		case _, ok := <-c.retryChanSignal:
			if !ok {
				return
			}
		innerLoop:
			for {
				select {
				case <-c.shutdownSignal:
					return
				case <-ctx.Done():
					return
				default:
					newConn, err := connectToCrateDB(c.cfg)
					if err != nil {
						c.logger.Error("[CrateDB] reconnection failed", err)
						time.Sleep(time.Second)
						continue innerLoop
					}
					old := c.client.Swap(newConn)
					if old != nil {
						if sqlDB, err := old.DB(); err == nil {
							_ = sqlDB.Close()
						}
					}
					c.logger.Info("[CrateDB] successfully reconnected", nil)
					continue outerLoop
				}
			}
		}
	}
}

// MonitorConnection pings the database every 10 seconds and signals
// RetryConnection when the ping fails.
func (c *CrateDB) MonitorConnection(ctx context.Context) {
	defer c.closeRetryChanOnce.Do(func() {
		close(c.retryChanSignal)
	})

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.shutdownSignal:
			c.logger.Info("[CrateDB] stopping MonitorConnection loop due to shutdown signal", nil)
			return
		case <-ticker.C:
			if err := c.healthCheck(ctx); err != nil {
				c.logger.Warn("[CrateDB] health check failed", err)
				select {
				case c.retryChanSignal <- err:
				default:
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// healthCheck snapshots the current *gorm.DB and pings it with a 5 second timeout.
func (c *CrateDB) healthCheck(ctx context.Context) error {
	dbConn := c.DB()
	if dbConn == nil {
		return fmt.Errorf("database client is not initialized")
	}

	db, err := dbConn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance during health check: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed during health check: %w", err)
	}
	return nil
}

// Ping checks connectivity once.
func (c *CrateDB) Ping(ctx context.Context) error {
	return c.healthCheck(ctx)
}

// GracefulShutdown stops the monitor goroutines and closes the connection
// pool when the client opened it.
func (c *CrateDB) GracefulShutdown() error {
	c.closeShutdownOnce.Do(func() {
		close(c.shutdownSignal)
	})

	if !c.ownsConn {
		return nil
	}
	sqlDB, err := c.DB().DB()
	if err != nil {
		return nil
	}
	return sqlDB.Close()
}
