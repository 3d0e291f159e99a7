package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/loykin/rnpdno/internal/constants"
	_ "modernc.org/sqlite"
)

// Dialect implements SQL dialect for SQLite
type Dialect struct{}

// NewDialect creates a new SQLite dialect
func NewDialect() *Dialect {
	return &Dialect{}
}

// GetPlaceholder returns SQLite-style placeholders (?)
func (s *Dialect) GetPlaceholder() string {
	return "?"
}

// Connect establishes a connection to SQLite with connection pooling
func (s *Dialect) Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(constants.DefaultSQLiteMaxConnections)
	db.SetMaxIdleConns(constants.DefaultSQLiteMaxIdleConns)
	db.SetConnMaxLifetime(constants.DefaultSQLiteLifetime)
	db.SetConnMaxIdleTime(constants.DefaultSQLiteIdleTime)

	return db, nil
}

// GetEnsureStatement returns the document table creation statement
func (s *Dialect) GetEnsureStatement(table string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY AUTOINCREMENT, document TEXT NOT NULL)", table)
}

// GetExistsStatement returns a query counting tables named by its one argument
func (s *Dialect) GetExistsStatement() string {
	return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?"
}

// GetDriverName returns the driver name for logging
func (s *Dialect) GetDriverName() string {
	return constants.DriverSQLite
}
