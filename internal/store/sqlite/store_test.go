package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/loykin/rnpdno/internal/store/connector"
)

func openTempStore(t *testing.T, prefix string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.db")
	st := NewStore(Config{Path: path, TablePrefix: prefix})
	if err := st.Connect(context.Background()); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStore_LoadEmptyCollection(t *testing.T) {
	st := openTempStore(t, "")
	recs, err := st.Load(context.Background(), "request_templates")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no documents, got %v", recs)
	}
	var n int
	if err := st.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'").Scan(&n); err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if n != 0 {
		t.Fatalf("Load must not create tables, found %d", n)
	}
}

func TestStore_ReplaceAndLoadKeepsOrder(t *testing.T) {
	ctx := context.Background()
	st := openTempStore(t, "rnpdno")

	first := []connector.Record{
		{"name": "SCRAPPER_MONGO_TARGETDB_NAME", "value": "rnpdno"},
		{"name": "SCRAPPER_MONGO_TARGETDB_USERNAME", "value": "writer"},
	}
	if err := st.Replace(ctx, "config_vars", first); err != nil {
		t.Fatalf("Replace error: %v", err)
	}
	got, err := st.Load(ctx, "config_vars")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(got) != 2 || got[0]["name"] != "SCRAPPER_MONGO_TARGETDB_NAME" || got[1]["value"] != "writer" {
		t.Fatalf("unexpected documents: %v", got)
	}

	// Replace drops previous content
	if err := st.Replace(ctx, "config_vars", []connector.Record{{"name": "X", "value": "1"}}); err != nil {
		t.Fatalf("Replace error: %v", err)
	}
	got, err = st.Load(ctx, "config_vars")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(got) != 1 || got[0]["name"] != "X" {
		t.Fatalf("expected replaced content, got %v", got)
	}
}

func TestStore_NestedPayloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTempStore(t, "")
	tpl := connector.Record{
		"api": "catalogue", "endpoint": "municipalities", "url": "/Catalogo/Municipios",
		"host": "https://example.org", "method": "POST",
		"payloadTemplate": map[string]any{"idEstado": "0"},
	}
	if err := st.Replace(ctx, "request_templates", []connector.Record{tpl}); err != nil {
		t.Fatalf("Replace error: %v", err)
	}
	got, err := st.Load(ctx, "request_templates")
	if err != nil || len(got) != 1 {
		t.Fatalf("Load: %v %v", got, err)
	}
	payload, ok := got[0]["payloadTemplate"].(map[string]any)
	if !ok || payload["idEstado"] != "0" {
		t.Fatalf("unexpected payload: %#v", got[0]["payloadTemplate"])
	}
}

func TestStore_RejectsInvalidCollection(t *testing.T) {
	st := openTempStore(t, "")
	if _, err := st.Load(context.Background(), "x; DROP TABLE y"); err == nil {
		t.Fatalf("expected invalid collection error")
	}
}

func TestStore_NotConnected(t *testing.T) {
	st := NewStore(Config{})
	if err := st.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error before connect")
	}
	if _, err := st.Load(context.Background(), "config_vars"); err == nil {
		t.Fatalf("expected load error before connect")
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close without connection should be nil, got %v", err)
	}
}

func TestConfig_DSN(t *testing.T) {
	if (Config{}).dsn() != ":memory:" {
		t.Fatalf("expected in-memory default")
	}
	if (Config{DSN: "file:x.db"}).dsn() != "file:x.db" {
		t.Fatalf("expected explicit DSN")
	}
	if got := (Config{Path: "/tmp/a.db"}).dsn(); got != "file:/tmp/a.db?_busy_timeout=5000&_fk=1" {
		t.Fatalf("unexpected dsn %q", got)
	}
}
