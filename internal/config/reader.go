package config

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/loykin/rnpdno/internal/common"
	"github.com/loykin/rnpdno/internal/constants"
	"github.com/loykin/rnpdno/internal/env"
	"github.com/loykin/rnpdno/internal/failure"
	"github.com/loykin/rnpdno/internal/store"
	"github.com/loykin/rnpdno/internal/store/file"
	"github.com/loykin/rnpdno/internal/store/mongodb"
	"github.com/loykin/rnpdno/internal/store/postgresql"
	"github.com/loykin/rnpdno/internal/store/sqlite"
)

// Source is the template store as seen by the reader.
type Source interface {
	Load(ctx context.Context, collection string) ([]store.Record, error)
	Ping(ctx context.Context) error
	Close() error
}

// Opener connects to the template store described by cfg.
type Opener func(ctx context.Context, cfg store.Config) (Source, error)

func openStore(ctx context.Context, cfg store.Config) (Source, error) {
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Reader loads the scraper configuration: SCRAPPER_* process variables first,
// then the config_vars collection of the template store they point at.
type Reader struct {
	mu        sync.Mutex
	env       *env.Env
	envLoaded bool
	loaded    bool
	open      Opener
	override  *store.Config
	src       Source
}

type Option func(*Reader)

// WithOpener replaces the function used to connect to the template store.
func WithOpener(o Opener) Option {
	return func(r *Reader) { r.open = o }
}

// WithStoreConfig uses cfg instead of the store settings found in the environment.
func WithStoreConfig(cfg store.Config) Option {
	return func(r *Reader) { r.override = &cfg }
}

func NewReader(opts ...Option) *Reader {
	r := &Reader{env: env.New(), open: openStore}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Env returns the layered variables: config_vars over process variables.
func (r *Reader) Env() *env.Env {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.env
}

// Get returns a variable from config_vars, falling back to the process environment.
func (r *Reader) Get(key string) (string, bool) { return r.env.Lookup(key) }

// EnvLoaded reports whether LoadEnvVars ran.
func (r *Reader) EnvLoaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.envLoaded
}

// LoadEnvVars keeps every process variable prefixed with SCRAPPER_.
func (r *Reader) LoadEnvVars() error {
	logger := common.GetLogger().WithComponent("config")
	logger.Info("loading environment variables")
	n, err := r.env.LoadProcess(constants.EnvPrefix)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.envLoaded = true
	r.mu.Unlock()
	logger.Info("environment variables loaded", "count", n)
	return nil
}

// StoreConfig describes the template store from the loaded environment.
func (r *Reader) StoreConfig() store.Config {
	if r.override != nil {
		return *r.override
	}
	port, _ := strconv.Atoi(r.env.Get(constants.EnvMongoPort, ""))
	return store.Config{
		Driver: r.env.Get(constants.EnvStoreDriver, constants.DriverMongo),
		Mongo: mongodb.Config{
			URI:      r.env.Get(constants.EnvMongoURI, ""),
			Host:     r.env.Get(constants.EnvMongoHost, ""),
			Port:     port,
			Username: r.env.Get(constants.EnvMongoUsername, ""),
			Password: r.env.Get(constants.EnvMongoPassword, ""),
			Database: r.env.Get(constants.EnvMongoConfigDBName, ""),
		},
		SQLite:   sqlite.Config{Path: r.env.Get(constants.EnvSQLitePath, constants.DefaultSQLiteFileName)},
		Postgres: postgresql.Config{DSN: r.env.Get(constants.EnvPostgresDSN, "")},
		File:     file.Config{Path: r.env.Get(constants.EnvTemplatesFile, "")},
	}
}

func (r *Reader) source(ctx context.Context) (Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.envLoaded {
		return nil, failure.New(failure.EnvNotLoaded, "load environment variables before loading the configuration")
	}
	if r.src != nil {
		return r.src, nil
	}
	cfg := r.StoreConfig()
	logger := common.GetLogger().WithComponent("config").WithStore(cfg.Driver)
	logger.Info("opening connection to the config store")
	src, err := r.open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open config store: %w", err)
	}
	if err := src.Ping(ctx); err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("config store is not reachable: %w", err)
	}
	logger.Info("successful connection to the config store")
	r.src = src
	return src, nil
}

// LoadConfig reads config_vars into the reader. It may run once; the variables
// are immutable afterwards.
func (r *Reader) LoadConfig(ctx context.Context) error {
	logger := common.GetLogger().WithComponent("config")
	src, err := r.source(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	if r.loaded {
		r.mu.Unlock()
		return fmt.Errorf("configuration already loaded")
	}
	r.mu.Unlock()

	vars, err := r.collection(ctx, src, constants.ConfigVarsCollection)
	if err != nil {
		return err
	}
	for k, v := range vars {
		if err := r.env.SetConfig(k, v); err != nil {
			return err
		}
	}
	r.env.Seal()

	r.mu.Lock()
	r.loaded = true
	r.mu.Unlock()
	logger.Info("configuration variables loaded", "count", len(vars))
	logger.Debug("configuration variables", "names", r.env.ConfigKeys())
	return nil
}

// LoadCollection reads any {name, value} collection as a map without
// registering it in the reader.
func (r *Reader) LoadCollection(ctx context.Context, collection string) (map[string]string, error) {
	src, err := r.source(ctx)
	if err != nil {
		return nil, err
	}
	return r.collection(ctx, src, collection)
}

// LoadTemplates reads the request_templates collection.
func (r *Reader) LoadTemplates(ctx context.Context) ([]store.Record, error) {
	src, err := r.source(ctx)
	if err != nil {
		return nil, err
	}
	recs, err := src.Load(ctx, constants.RequestTemplatesCollection)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", constants.RequestTemplatesCollection, err)
	}
	common.GetLogger().WithComponent("config").Info("request templates loaded", "count", len(recs))
	return recs, nil
}

func (r *Reader) collection(ctx context.Context, src Source, name string) (map[string]string, error) {
	logger := common.GetLogger().WithComponent("config")
	recs, err := src.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	out := make(map[string]string, len(recs))
	for i, rec := range recs {
		key, ok := rec["name"].(string)
		if !ok || key == "" {
			logger.Warn("skipping document without name", "collection", name, "index", i)
			continue
		}
		out[key] = valueString(rec["value"])
	}
	return out, nil
}

func valueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// Reset closes the store connection and drops every loaded variable so the
// reader can load again from scratch.
func (r *Reader) Reset() error {
	err := r.Close()
	r.mu.Lock()
	r.env = env.New()
	r.envLoaded = false
	r.loaded = false
	r.mu.Unlock()
	return err
}

// Close releases the store connection.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.src == nil {
		return nil
	}
	err := r.src.Close()
	r.src = nil
	return err
}
