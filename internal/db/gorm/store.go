// Package gorm provides GORM-based database operations for usageref.
package gorm

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/thebtf/usageref/internal/privacy"

	// Pure-Go SQLite driver registered as "sqlite".
	_ "modernc.org/sqlite"
)

// sqliteDriverName is the database/sql driver name registered by modernc.org/sqlite.
const sqliteDriverName = "sqlite"

// Store represents the GORM database connection.
type Store struct {
	DB      *gorm.DB
	sqlDB   *sql.DB
	dialect string
}

// Config holds database configuration.
type Config struct {
	DSN      string          // PostgreSQL DSN (postgres://...) or SQLite file path
	MaxConns int             // Maximum number of open connections (default: 10 postgres, 4 sqlite)
	LogLevel logger.LogLevel // GORM log level (logger.Silent for production)
}

// IsPostgres reports whether the DSN targets PostgreSQL.
func (c Config) IsPostgres() bool {
	return strings.HasPrefix(c.DSN, "postgres://") || strings.HasPrefix(c.DSN, "postgresql://")
}

func (c Config) dialector() gorm.Dialector {
	if c.IsPostgres() {
		return postgres.Open(c.DSN)
	}
	return sqlite.New(sqlite.Config{DriverName: sqliteDriverName, DSN: c.sqliteDSN()})
}

// sqlitePragmas are applied to every SQLite connection.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// sqliteDSN appends the connection pragmas to the DSN's query string.
func (c Config) sqliteDSN() string {
	sep := "?"
	if strings.Contains(c.DSN, "?") {
		sep = "&"
	}
	return c.DSN + sep + sqlitePragmas
}

// IsMemory reports whether the DSN names an in-memory SQLite database.
// Each connection to such a database sees its own copy.
func (c Config) IsMemory() bool {
	if c.IsPostgres() {
		return false
	}
	return c.DSN == ":memory:" ||
		strings.HasPrefix(c.DSN, "file::memory:") ||
		strings.Contains(c.DSN, "mode=memory")
}

// NewStore opens the database, configures the pool and runs migrations.
func NewStore(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("open gorm: empty DSN")
	}

	dialect := "sqlite"
	if cfg.IsPostgres() {
		dialect = "postgres"
	}

	// 1. Open GORM with the dialector matching the DSN
	db, err := gorm.Open(cfg.dialector(), &gorm.Config{
		Logger:      logger.Default.LogMode(cfg.LogLevel),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm %s: %w", dialect, err)
	}

	// 2. Get underlying *sql.DB for pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	// 3. Configure connection pool
	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 4
		if dialect == "postgres" {
			maxConns = 10
		}
	}
	if cfg.IsMemory() {
		// One connection that never expires, so the database outlives the pool.
		maxConns = 1
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	} else {
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(max(maxConns/2, 1))
		sqlDB.SetConnMaxLifetime(1 * time.Hour)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	// 4. Verify connection
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	// 5. Run migrations
	if err := runMigrations(db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	log.Debug().
		Str("dialect", dialect).
		Str("dsn", privacy.RedactDSN(cfg.DSN)).
		Int("max_conns", maxConns).
		Msg("Database store ready")

	return &Store{DB: db, sqlDB: sqlDB, dialect: dialect}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.sqlDB.Close()
}

// Ping verifies the database connection is alive.
func (s *Store) Ping() error {
	return s.sqlDB.Ping()
}

// Dialect returns "sqlite" or "postgres".
func (s *Store) Dialect() string {
	return s.dialect
}

// GetDB returns the GORM DB instance for standard queries.
func (s *Store) GetDB() *gorm.DB {
	return s.DB
}

// Stats returns database connection pool statistics.
func (s *Store) Stats() sql.DBStats {
	return s.sqlDB.Stats()
}

// HealthInfo contains database health check results.
type HealthInfo struct {
	Timestamp       time.Time     `json:"timestamp"`
	Status          string        `json:"status"`
	Dialect         string        `json:"dialect"`
	Error           string        `json:"error,omitempty"`
	Warning         string        `json:"warning,omitempty"`
	OpenConnections int           `json:"open_connections"`
	InUse           int           `json:"in_use"`
	Idle            int           `json:"idle"`
	QueryLatency    time.Duration `json:"query_latency_ns"`
}

// HealthCheck measures query latency and reports pool usage.
func (s *Store) HealthCheck(ctx context.Context) *HealthInfo {
	stats := s.sqlDB.Stats()
	info := &HealthInfo{
		Status:          "healthy",
		Dialect:         s.dialect,
		Timestamp:       time.Now(),
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
	}

	start := time.Now()
	var dummy int
	err := s.sqlDB.QueryRowContext(ctx, "SELECT 1").Scan(&dummy)
	info.QueryLatency = time.Since(start)

	if err != nil {
		info.Status = "unhealthy"
		info.Error = err.Error()
		return info
	}

	if info.QueryLatency > 10*time.Millisecond {
		info.Status = "degraded"
		info.Warning = fmt.Sprintf("Slow query latency: %v", info.QueryLatency)
	}

	return info
}

// Optimize refreshes the query planner statistics.
func (s *Store) Optimize(ctx context.Context) error {
	stmt := "PRAGMA optimize"
	if s.dialect == "postgres" {
		stmt = "ANALYZE"
	}
	if err := s.DB.WithContext(ctx).Exec(stmt).Error; err != nil {
		return fmt.Errorf("optimize %s: %w", s.dialect, err)
	}
	return nil
}

// QueryTimeout constants for different query types.
const (
	// DefaultQueryTimeout is the default timeout for regular queries.
	DefaultQueryTimeout = 5 * time.Second
	// SlowQueryTimeout is for queries that may take longer (seeding, reports).
	SlowQueryTimeout = 30 * time.Second
)

// WithTimeout wraps a context with the given timeout and logs slow queries.
// Returns the wrapped context and a cancel function that should be called when done.
func (s *Store) WithTimeout(ctx context.Context, timeout time.Duration, operation string) (context.Context, context.CancelFunc) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	start := time.Now()

	return timeoutCtx, func() {
		elapsed := time.Since(start)
		cancel()

		if elapsed > 100*time.Millisecond {
			log.Warn().
				Str("operation", operation).
				Dur("elapsed", elapsed).
				Dur("timeout", timeout).
				Msg("Slow database operation")
		}
	}
}

// TransactionWithTimeout wraps a transaction function with timeout handling.
// The transaction is rolled back if fn fails or the context times out.
func (s *Store) TransactionWithTimeout(ctx context.Context, timeout time.Duration, fn func(*gorm.DB) error) error {
	timeoutCtx, cancel := s.WithTimeout(ctx, timeout, "transaction")
	defer cancel()

	return s.DB.WithContext(timeoutCtx).Transaction(func(tx *gorm.DB) error {
		select {
		case <-timeoutCtx.Done():
			return timeoutCtx.Err()
		default:
		}
		return fn(tx)
	})
}
