package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Client holds the relational store
type Client struct {
	Driver *entsql.Driver
	db     *sql.DB
}

// PoolConfig holds connection pool configuration
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// SSLConfig holds SSL/TLS configuration for Postgres connections
type SSLConfig struct {
	Mode         string // disable, require, verify-ca, verify-full
	CertPath     string
	KeyPath      string
	RootCertPath string
}

// DefaultPoolConfig returns sensible defaults for connection pooling
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

// BuildConnectionString adds SSL parameters to a Postgres URL
func BuildConnectionString(baseURL string, sslCfg *SSLConfig) (string, error) {
	if sslCfg == nil {
		return baseURL, nil
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}

	query := parsedURL.Query()

	// Overrides any sslmode already in the URL
	if sslCfg.Mode != "" {
		query.Set("sslmode", sslCfg.Mode)
	}
	if sslCfg.CertPath != "" {
		query.Set("sslcert", sslCfg.CertPath)
	}
	if sslCfg.KeyPath != "" {
		query.Set("sslkey", sslCfg.KeyPath)
	}
	if sslCfg.RootCertPath != "" {
		query.Set("sslrootcert", sslCfg.RootCertPath)
	}

	parsedURL.RawQuery = query.Encode()

	return parsedURL.String(), nil
}

// driverFor picks the dialect from the URL scheme. sqlite:// and file: URLs
// open an embedded database, everything else is treated as Postgres.
func driverFor(databaseURL string) (driverName, dsn string) {
	switch {
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return dialect.SQLite, strings.TrimPrefix(databaseURL, "sqlite://")
	case strings.HasPrefix(databaseURL, "file:"):
		return dialect.SQLite, databaseURL
	default:
		return dialect.Postgres, databaseURL
	}
}

// NewClient opens a client with the default pool
func NewClient(databaseURL string) (*Client, error) {
	return NewClientWithPoolAndSSL(databaseURL, DefaultPoolConfig(), nil)
}

// NewClientWithPoolAndSSL opens a client with custom pool and SSL configuration
func NewClientWithPoolAndSSL(databaseURL string, poolCfg PoolConfig, sslCfg *SSLConfig) (*Client, error) {
	driverName, dsn := driverFor(databaseURL)

	sqlDriver := "postgres"
	if driverName == dialect.SQLite {
		sqlDriver = "sqlite3"
		// sqlite allows a single writer; serialize through one connection
		poolCfg.MaxOpenConns = 1
		poolCfg.MaxIdleConns = 1
	} else {
		connStr, err := BuildConnectionString(dsn, sslCfg)
		if err != nil {
			return nil, fmt.Errorf("failed building connection string: %w", err)
		}
		dsn = connStr

		if sslCfg != nil && sslCfg.Mode != "" && sslCfg.Mode != "disable" {
			log.Printf("🔒 Database SSL enabled (mode: %s)", sslCfg.Mode)
		}
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed opening connection to %s: %w", driverName, err)
	}

	db.SetMaxOpenConns(poolCfg.MaxOpenConns)
	db.SetMaxIdleConns(poolCfg.MaxIdleConns)
	db.SetConnMaxLifetime(poolCfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(poolCfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed connecting to %s: %w", driverName, err)
	}

	log.Printf("✅ Database connected (%s, max_open: %d, max_idle: %d)",
		driverName, poolCfg.MaxOpenConns, poolCfg.MaxIdleConns)

	return &Client{
		Driver: entsql.OpenDB(driverName, db),
		db:     db,
	}, nil
}

// Migrate creates or upgrades every table
func (c *Client) Migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(c.Driver, schema.WithForeignKeys(true))
	if err != nil {
		return fmt.Errorf("failed preparing migration: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("failed creating schema resources: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.Driver.Close()
}

// Ping checks if the database is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Stats returns database connection pool statistics
func (c *Client) Stats() sql.DBStats {
	return c.db.Stats()
}

// Dialect returns the SQL dialect name of the open driver
func (c *Client) Dialect() string {
	return c.Driver.Dialect()
}

// SQL starts a statement builder bound to the driver's dialect
func (c *Client) SQL() *entsql.DialectBuilder {
	return entsql.Dialect(c.Driver.Dialect())
}

// WithTx runs fn inside a transaction, rolling back when fn fails
func (c *Client) WithTx(ctx context.Context, fn func(tx dialect.Tx) error) error {
	tx, err := c.Driver.Tx(ctx)
	if err != nil {
		return fmt.Errorf("failed starting transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed committing transaction: %w", err)
	}
	return nil
}
