package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Conn is implemented by both pgxpool.Pool and pgx.Tx.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Config holds connection settings.
type Config struct {
	// DSN, when set, is used as is and the discrete fields are ignored.
	DSN               string
	Host              string
	Port              int
	User              string
	Password          string
	DB                string
	SSLMode           string
	MaxConns          int32
	StatementTimeout  time.Duration
	MigrationsEnabled bool
}

// ConnString returns the keyword/value connection string for cfg.
func (c Config) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DB,
		sslMode,
	)
}

// ConfigFromViper reads the postgres section of the configuration.
func ConfigFromViper() Config {
	return Config{
		Host:              viper.GetString("postgres.host"),
		Port:              viper.GetInt("postgres.port"),
		User:              viper.GetString("postgres.user"),
		Password:          viper.GetString("postgres.password"),
		DB:                viper.GetString("postgres.db"),
		SSLMode:           viper.GetString("postgres.sslmode"),
		MaxConns:          viper.GetInt32("postgres.max_conns"),
		StatementTimeout:  time.Duration(viper.GetInt("postgres.statement_timeout_ms")) * time.Millisecond,
		MigrationsEnabled: viper.GetBool("postgres.migrations.enabled"),
	}
}

// Client represents a Postgres client.
type Client struct {
	pool             *pgxpool.Pool
	statementTimeout time.Duration
}

// Pool returns the underlying connection pool.
func (p *Client) Pool() *pgxpool.Pool {
	return p.pool
}

// StatementTimeout returns the per-transaction statement timeout, zero if unset.
func (p *Client) StatementTimeout() time.Duration {
	return p.statementTimeout
}

// Ping checks that the database is reachable.
func (p *Client) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the database connection for graceful shutdown.
func (p *Client) Close() {
	p.pool.Close()
}

// NewClient connects to Postgres and applies pending migrations when enabled.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	client := &Client{
		pool:             pool,
		statementTimeout: cfg.StatementTimeout,
	}

	if cfg.MigrationsEnabled {
		if err := client.Migrate(ctx, "up"); err != nil {
			pool.Close()

			return nil, err
		}
	}

	return client, nil
}

// MustNewClient creates a new Postgres client from the configuration.
func MustNewClient() *Client {
	client, err := NewClient(context.Background(), ConfigFromViper())
	if err != nil {
		panic(err)
	}

	return client
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return hasCode(err, codeForeignKeyViolation)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}

	return false
}
