package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/loykin/rnpdno/internal/failure"
	"github.com/loykin/rnpdno/internal/store"
)

type memSource struct {
	collections map[string][]store.Record
	pingErr     error
	closed      bool
}

func (m *memSource) Load(_ context.Context, c string) ([]store.Record, error) {
	return m.collections[c], nil
}
func (m *memSource) Ping(context.Context) error { return m.pingErr }
func (m *memSource) Close() error {
	m.closed = true
	return nil
}

func memOpener(src *memSource, seen *store.Config) Opener {
	return func(_ context.Context, cfg store.Config) (Source, error) {
		if seen != nil {
			*seen = cfg
		}
		return src, nil
	}
}

func TestReader_LoadConfigRequiresEnv(t *testing.T) {
	r := NewReader(WithOpener(memOpener(&memSource{}, nil)))
	if err := r.LoadConfig(context.Background()); !errors.Is(err, failure.EnvNotLoaded) {
		t.Fatalf("expected EnvNotLoaded, got %v", err)
	}
	if _, err := r.LoadTemplates(context.Background()); !errors.Is(err, failure.EnvNotLoaded) {
		t.Fatalf("expected EnvNotLoaded, got %v", err)
	}
}

func TestReader_LoadConfig(t *testing.T) {
	t.Setenv("SCRAPPER_MONGO_HOST", "mongo.internal")
	t.Setenv("SCRAPPER_MONGO_PORT", "27018")
	t.Setenv("SCRAPPER_MONGO_CONFIGDB_USERNAME", "reader")
	t.Setenv("SCRAPPER_MONGO_CONFIGDB_PASSWORD", "secret")
	t.Setenv("SCRAPPER_MONGO_CONFIGDB_NAME", "config")

	src := &memSource{collections: map[string][]store.Record{
		"config_vars": {
			{"name": "SCRAPPER_MONGO_TARGETDB_NAME", "value": "rnpdno"},
			{"name": "SCRAPPER_PAGE_SIZE", "value": 50},
			{"value": "orphan"},
		},
		"request_templates": {
			{"api": "catalogue", "endpoint": "states"},
		},
		"other": {
			{"name": "A", "value": "1"},
		},
	}}
	var seen store.Config
	r := NewReader(WithOpener(memOpener(src, &seen)))
	if err := r.LoadEnvVars(); err != nil {
		t.Fatalf("LoadEnvVars: %v", err)
	}
	if !r.EnvLoaded() {
		t.Fatalf("expected env loaded")
	}
	ctx := context.Background()
	if err := r.LoadConfig(ctx); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if seen.Driver != "mongo" || seen.Mongo.Host != "mongo.internal" || seen.Mongo.Port != 27018 || seen.Mongo.Database != "config" {
		t.Fatalf("unexpected store config %+v", seen)
	}
	if v, _ := r.Get("SCRAPPER_MONGO_TARGETDB_NAME"); v != "rnpdno" {
		t.Fatalf("expected config var, got %q", v)
	}
	if v, _ := r.Get("SCRAPPER_PAGE_SIZE"); v != "50" {
		t.Fatalf("expected stringified value, got %q", v)
	}
	if r.Env().ConfigLen() != 2 {
		t.Fatalf("expected 2 config vars, got %d", r.Env().ConfigLen())
	}
	if err := r.LoadConfig(ctx); err == nil {
		t.Fatalf("configuration must load only once")
	}

	tpls, err := r.LoadTemplates(ctx)
	if err != nil || len(tpls) != 1 {
		t.Fatalf("LoadTemplates: %v %v", tpls, err)
	}
	other, err := r.LoadCollection(ctx, "other")
	if err != nil || other["A"] != "1" {
		t.Fatalf("LoadCollection: %v %v", other, err)
	}
	if _, ok := r.Get("A"); ok {
		t.Fatalf("LoadCollection must not register variables")
	}

	if err := r.Close(); err != nil || !src.closed {
		t.Fatalf("expected source to be closed")
	}
}

func TestReader_PingFailure(t *testing.T) {
	src := &memSource{pingErr: errors.New("server selection timeout")}
	r := NewReader(WithOpener(memOpener(src, nil)))
	_ = r.LoadEnvVars()
	if err := r.LoadConfig(context.Background()); err == nil {
		t.Fatalf("expected ping error")
	}
	if !src.closed {
		t.Fatalf("unreachable source must be closed")
	}
}

func TestReader_StoreConfigDrivers(t *testing.T) {
	t.Setenv("SCRAPPER_STORE_DRIVER", "sqlite")
	t.Setenv("SCRAPPER_SQLITE_PATH", "/tmp/x.db")
	r := NewReader()
	_ = r.LoadEnvVars()
	cfg := r.StoreConfig()
	if cfg.Driver != "sqlite" || cfg.SQLite.Path != "/tmp/x.db" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	override := store.Config{Driver: "file"}
	r = NewReader(WithStoreConfig(override))
	if r.StoreConfig().Driver != "file" {
		t.Fatalf("override must win")
	}
}

func TestReader_FileStoreEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	doc := "config_vars:\n  - name: SCRAPPER_MONGO_TARGETDB_NAME\n    value: rnpdno\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCRAPPER_STORE_DRIVER", "file")
	t.Setenv("SCRAPPER_TEMPLATES_FILE", path)

	r := NewReader()
	defer func() { _ = r.Close() }()
	_ = r.LoadEnvVars()
	if err := r.LoadConfig(context.Background()); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if v, _ := r.Get("SCRAPPER_MONGO_TARGETDB_NAME"); v != "rnpdno" {
		t.Fatalf("unexpected value %q", v)
	}
}

func TestReader_ResetAllowsReload(t *testing.T) {
	src := &memSource{collections: map[string][]store.Record{
		"config_vars": {{"name": "SCRAPPER_DASHBOARD_HOST", "value": "https://example.org"}},
	}}
	r := NewReader(WithOpener(memOpener(src, nil)))
	ctx := context.Background()
	if err := r.LoadEnvVars(); err != nil {
		t.Fatalf("LoadEnvVars: %v", err)
	}
	if err := r.LoadConfig(ctx); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if err := r.LoadConfig(ctx); err == nil {
		t.Fatalf("expected second LoadConfig to fail")
	}

	if err := r.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if !src.closed {
		t.Fatalf("Reset must close the store")
	}
	if r.EnvLoaded() {
		t.Fatalf("Reset must forget the environment")
	}
	if _, ok := r.Get("SCRAPPER_DASHBOARD_HOST"); ok {
		t.Fatalf("Reset must drop config vars")
	}
	if err := r.LoadEnvVars(); err != nil {
		t.Fatalf("LoadEnvVars after reset: %v", err)
	}
	if err := r.LoadConfig(ctx); err != nil {
		t.Fatalf("LoadConfig after reset: %v", err)
	}
	if v, _ := r.Get("SCRAPPER_DASHBOARD_HOST"); v != "https://example.org" {
		t.Fatalf("unexpected value %q", v)
	}
}
