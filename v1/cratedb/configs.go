package cratedb

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	defaultHost            = "localhost"
	defaultPort            = "5432"
	defaultUser            = "crate"
	defaultSchema          = "doc"
	defaultSSLMode         = "disable"
	defaultMaxOpenConns    = 50
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = time.Minute
)

// Config holds everything needed to reach a CrateDB cluster over the
// PostgreSQL wire protocol.
type Config struct {
	Connection        Connection
	ConnectionDetails ConnectionDetails

	// RefreshAfterDML issues REFRESH TABLE after every insert, update and
	// delete so subsequent reads observe the write. DefaultConfig enables it.
	RefreshAfterDML bool `yaml:"refresh_after_dml" envconfig:"CRATEDB_REFRESH_AFTER_DML"`
}

// Connection identifies the cluster and the schema adapters work in.
type Connection struct {
	Host     string `yaml:"host" envconfig:"CRATEDB_HOST"`
	Port     string `yaml:"port" envconfig:"CRATEDB_PORT"`
	User     string `yaml:"user" envconfig:"CRATEDB_USER"`
	Password string `yaml:"password" envconfig:"CRATEDB_PASSWORD"`

	// Schema is sent as the database name; CrateDB uses it as the default schema.
	Schema  string `yaml:"schema" envconfig:"CRATEDB_SCHEMA"`
	SSLMode string `yaml:"ssl_mode" envconfig:"CRATEDB_SSLMODE"`

	// DSN overrides all fields above when set, e.g.
	// postgres://crate@localhost:5432/doc?sslmode=disable
	DSN string `yaml:"dsn" envconfig:"CRATEDB_DSN"`
}

// ConnectionDetails tunes the database/sql pool. Zero values fall back to
// 50 open, 25 idle and a one minute lifetime.
type ConnectionDetails struct {
	MaxOpenConns    int           `yaml:"max_open_conns" envconfig:"CRATEDB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" envconfig:"CRATEDB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" envconfig:"CRATEDB_CONN_MAX_LIFETIME"`
}

// DefaultConfig returns the configuration of a local single-node CrateDB.
func DefaultConfig() Config {
	return Config{
		Connection: Connection{
			Host:    defaultHost,
			Port:    defaultPort,
			User:    defaultUser,
			Schema:  defaultSchema,
			SSLMode: defaultSSLMode,
		},
		ConnectionDetails: ConnectionDetails{
			MaxOpenConns:    defaultMaxOpenConns,
			MaxIdleConns:    defaultMaxIdleConns,
			ConnMaxLifetime: defaultConnMaxLifetime,
		},
		RefreshAfterDML: true,
	}
}

// NewConfig starts from DefaultConfig and applies CRATEDB_* environment variables.
func NewConfig() Config {
	cfg := DefaultConfig()

	setString(&cfg.Connection.Host, "CRATEDB_HOST")
	setString(&cfg.Connection.Port, "CRATEDB_PORT")
	setString(&cfg.Connection.User, "CRATEDB_USER")
	setString(&cfg.Connection.Password, "CRATEDB_PASSWORD")
	setString(&cfg.Connection.Schema, "CRATEDB_SCHEMA")
	setString(&cfg.Connection.SSLMode, "CRATEDB_SSLMODE")
	setString(&cfg.Connection.DSN, "CRATEDB_DSN")

	if v, err := strconv.Atoi(os.Getenv("CRATEDB_MAX_OPEN_CONNS")); err == nil {
		cfg.ConnectionDetails.MaxOpenConns = v
	}
	if v, err := strconv.Atoi(os.Getenv("CRATEDB_MAX_IDLE_CONNS")); err == nil {
		cfg.ConnectionDetails.MaxIdleConns = v
	}
	if v, err := time.ParseDuration(os.Getenv("CRATEDB_CONN_MAX_LIFETIME")); err == nil {
		cfg.ConnectionDetails.ConnMaxLifetime = v
	}
	if v, err := strconv.ParseBool(os.Getenv("CRATEDB_REFRESH_AFTER_DML")); err == nil {
		cfg.RefreshAfterDML = v
	}
	return cfg
}

// Validate reports configuration that can't produce a connection string.
func (c Config) Validate() error {
	if c.Connection.DSN != "" {
		if _, err := url.Parse(c.Connection.DSN); err != nil {
			return fmt.Errorf("invalid CrateDB DSN: %w", err)
		}
		return nil
	}
	if c.Connection.Host == "" {
		return fmt.Errorf("CrateDB host is required")
	}
	if c.Connection.User == "" {
		return fmt.Errorf("CrateDB user is required")
	}
	return nil
}

// ConnectionString renders the pgx connection string for c.
func (c Config) ConnectionString() string {
	if c.Connection.DSN != "" {
		return c.Connection.DSN
	}

	conn := c.Connection
	port := conn.Port
	if port == "" {
		port = defaultPort
	}
	schema := conn.Schema
	if schema == "" {
		schema = defaultSchema
	}
	sslMode := conn.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     conn.Host + ":" + port,
		Path:     "/" + schema,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	if conn.Password != "" {
		u.User = url.UserPassword(conn.User, conn.Password)
	} else {
		u.User = url.User(conn.User)
	}
	return u.String()
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
