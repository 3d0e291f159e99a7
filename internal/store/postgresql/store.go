package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/loykin/rnpdno/internal/common"
	"github.com/loykin/rnpdno/internal/store/connector"
)

// Store keeps template store collections as JSONB documents, one table per collection.
type Store struct {
	db      *sql.DB
	dialect *Dialect
	cfg     Config
}

// NewStore creates a new PostgreSQL store
func NewStore(cfg Config) *Store {
	return &Store{
		dialect: NewDialect(),
		cfg:     cfg,
	}
}

// NewStoreWithDB wraps an already opened database handle.
func NewStoreWithDB(db *sql.DB, cfg Config) *Store {
	s := NewStore(cfg)
	s.db = db
	return s
}

func (s *Store) Driver() string { return s.dialect.GetDriverName() }

// Connect establishes a connection to PostgreSQL
func (s *Store) Connect(ctx context.Context) error {
	dsn := s.cfg.ToDSN()
	if dsn == "" {
		return fmt.Errorf("postgres: dsn or host is required")
	}
	db, err := s.dialect.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	s.db = db

	logger := common.GetLogger().WithStore(s.Driver())
	logger.Info("PostgreSQL database connection established successfully", "dsn", dsn)
	return nil
}

// Ping checks the connection is alive
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("postgres: not connected")
	}
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) ensure(ctx context.Context, table string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.GetEnsureStatement(table)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	return nil
}

func (s *Store) exists(ctx context.Context, table string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.dialect.GetExistsStatement(), table).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to look up table %s: %w", table, err)
	}
	return n > 0, nil
}

// Load returns every document of collection in insertion order.
// A collection that was never written yields an empty list.
func (s *Store) Load(ctx context.Context, collection string) ([]connector.Record, error) {
	table, err := connector.TableName(s.cfg.TablePrefix, collection)
	if err != nil {
		return nil, err
	}
	if s.db == nil {
		return nil, fmt.Errorf("postgres: not connected")
	}
	ok, err := s.exists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT document::text FROM %s ORDER BY id ASC", table))
	if err != nil {
		return nil, fmt.Errorf("failed to load collection %s: %w", collection, err)
	}
	defer func() { _ = rows.Close() }()

	var out []connector.Record
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		r, err := connector.DecodeRecord(doc)
		if err != nil {
			return nil, fmt.Errorf("collection %s: %w", collection, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	common.GetLogger().WithStore(s.Driver()).Debug("collection loaded", "collection", collection, "documents", len(out))
	return out, nil
}

// Replace swaps the content of collection for records in a single transaction.
func (s *Store) Replace(ctx context.Context, collection string, records []connector.Record) error {
	table, err := connector.TableName(s.cfg.TablePrefix, collection)
	if err != nil {
		return err
	}
	if s.db == nil {
		return fmt.Errorf("postgres: not connected")
	}
	if err := s.ensure(ctx, table); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
		return fmt.Errorf("failed to clear collection %s: %w", collection, err)
	}
	q := fmt.Sprintf("INSERT INTO %s(document) VALUES(%s::jsonb)", table, s.dialect.GetPlaceholder(1))
	for i, r := range records {
		doc, err := connector.EncodeRecord(r)
		if err != nil {
			return fmt.Errorf("collection %s document %d: %w", collection, i, err)
		}
		if _, err := tx.ExecContext(ctx, q, doc); err != nil {
			return fmt.Errorf("failed to insert document %d into %s: %w", i, collection, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	common.GetLogger().WithStore(s.Driver()).Info("collection replaced", "collection", collection, "documents", len(records))
	return nil
}
