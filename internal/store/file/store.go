package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/loykin/rnpdno/internal/common"
	"github.com/loykin/rnpdno/internal/constants"
	"github.com/loykin/rnpdno/internal/store/connector"
	"gopkg.in/yaml.v3"
)

// Config points at a YAML document holding one list per collection:
//
//	config_vars:
//	  - name: SCRAPPER_MONGO_TARGETDB_NAME
//	    value: rnpdno
//	request_templates:
//	  - api: catalogue
//	    endpoint: states
type Config struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// Store is a read/write template store backed by a single YAML file.
type Store struct {
	cfg Config
	mu  sync.Mutex
}

func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg}
}

func (s *Store) Driver() string { return constants.DriverFile }

// Connect verifies the file path is set. A missing file is treated as an empty store.
func (s *Store) Connect(_ context.Context) error {
	if s.cfg.Path == "" {
		return fmt.Errorf("file store: path is required")
	}
	common.GetLogger().WithStore(s.Driver()).Info("using file template store", "path", s.cfg.Path)
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	if s.cfg.Path == "" {
		return fmt.Errorf("file store: path is required")
	}
	if _, err := os.Stat(s.cfg.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) read() (map[string][]connector.Record, error) {
	b, err := os.ReadFile(s.cfg.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string][]connector.Record{}, nil
		}
		return nil, err
	}
	doc := map[string][]connector.Record{}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.cfg.Path, err)
	}
	return doc, nil
}

func (s *Store) Load(_ context.Context, collection string) ([]connector.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	recs := doc[collection]
	for i, r := range recs {
		if r == nil {
			return nil, fmt.Errorf("collection %s: document %d is empty", collection, i)
		}
	}
	return recs, nil
}

// Replace rewrites collection in the file, keeping other collections untouched.
func (s *Store) Replace(_ context.Context, collection string, records []connector.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read()
	if err != nil {
		return err
	}
	doc[collection] = records
	b, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.cfg.Path, b, 0o600); err != nil {
		return err
	}
	common.GetLogger().WithStore(s.Driver()).Info("collection replaced", "collection", collection, "documents", len(records))
	return nil
}
