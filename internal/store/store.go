package store

import (
	"context"
	"fmt"
	"time"

	"github.com/loykin/rnpdno/internal/common"
	"github.com/loykin/rnpdno/internal/constants"
	"github.com/loykin/rnpdno/internal/retry"
	"github.com/loykin/rnpdno/internal/store/connector"
	"github.com/loykin/rnpdno/internal/store/file"
	"github.com/loykin/rnpdno/internal/store/mongodb"
	"github.com/loykin/rnpdno/internal/store/postgresql"
	"github.com/loykin/rnpdno/internal/store/sqlite"
	"github.com/loykin/rnpdno/internal/util"
)

// Record is a single document of a store collection.
type Record = connector.Record

// Store is the template store handle used by the config reader.
// Every operation runs under the configured timeout; reads are retried on transient errors.
type Store struct {
	conn    connector.Connector
	timeout time.Duration
	retry   *retry.Config
}

// NewConnector builds the driver selected by cfg.Driver without connecting it.
func NewConnector(cfg Config) (connector.Connector, error) {
	switch util.TrimAndLower(cfg.Driver) {
	case constants.DriverMongo, "mongodb", "":
		return mongodb.NewStore(cfg.Mongo), nil
	case constants.DriverSQLite, "sqlite3":
		sc := cfg.SQLite
		if sc.TablePrefix == "" {
			sc.TablePrefix = cfg.TablePrefix
		}
		return sqlite.NewStore(sc), nil
	case constants.DriverPostgres, "postgresql", "pg":
		pc := cfg.Postgres
		if pc.TablePrefix == "" {
			pc.TablePrefix = cfg.TablePrefix
		}
		return postgresql.NewStore(pc), nil
	case constants.DriverFile, "yaml":
		return file.NewStore(cfg.File), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

// Open creates and connects the configured driver.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	conn, err := NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	s := New(conn, cfg.Timeout, cfg.Retry)
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := retry.WithRetry(cctx, s.retry, conn.Connect); err != nil {
		return nil, fmt.Errorf("open %s store: %w", conn.Driver(), err)
	}
	common.GetLogger().WithStore(conn.Driver()).Debug("template store opened")
	return s, nil
}

// New wraps an already connected connector.
func New(conn connector.Connector, timeout time.Duration, rc *retry.Config) *Store {
	if timeout <= 0 {
		timeout = constants.DefaultStoreTimeout
	}
	if rc == nil {
		rc = retry.DefaultRetryConfig()
	}
	return &Store{conn: conn, timeout: timeout, retry: rc}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) Driver() string { return s.conn.Driver() }

// Load reads every document of collection.
func (s *Store) Load(ctx context.Context, collection string) ([]Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return retry.Do(ctx, s.retry, func(ctx context.Context) ([]Record, error) {
		return s.conn.Load(ctx, collection)
	})
}

// Replace swaps the whole content of collection. Writes are not retried.
func (s *Store) Replace(ctx context.Context, collection string, records []Record) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.conn.Replace(ctx, collection, records)
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.conn.Ping(ctx)
}

func (s *Store) Close() error {
	if s == nil || s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
