package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/loykin/rnpdno/internal/store/connector"
)

const sample = `config_vars:
  - name: SCRAPPER_MONGO_TARGETDB_NAME
    value: rnpdno
request_templates:
  - api: catalogue
    endpoint: municipalities
    url: /Catalogo/Municipios
    host: https://example.org
    method: POST
    payloadTemplate:
      idEstado: "0"
`

func TestStore_LoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	st := NewStore(Config{Path: path})
	if err := st.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	tpls, err := st.Load(context.Background(), "request_templates")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tpls) != 1 || tpls[0]["endpoint"] != "municipalities" {
		t.Fatalf("unexpected templates: %v", tpls)
	}
	payload, ok := tpls[0]["payloadTemplate"].(map[string]any)
	if !ok || payload["idEstado"] != "0" {
		t.Fatalf("unexpected payload: %#v", tpls[0]["payloadTemplate"])
	}
	missing, err := st.Load(context.Background(), "unknown")
	if err != nil || len(missing) != 0 {
		t.Fatalf("expected empty unknown collection, got %v %v", missing, err)
	}
}

func TestStore_ReplaceKeepsOtherCollections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	st := NewStore(Config{Path: path})
	ctx := context.Background()
	if err := st.Replace(ctx, "config_vars", []connector.Record{{"name": "A", "value": "1"}, {"name": "B", "value": "2"}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	vars, _ := st.Load(ctx, "config_vars")
	if len(vars) != 2 || vars[1]["name"] != "B" {
		t.Fatalf("unexpected vars: %v", vars)
	}
	tpls, _ := st.Load(ctx, "request_templates")
	if len(tpls) != 1 {
		t.Fatalf("templates must be kept, got %v", tpls)
	}
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	st := NewStore(Config{Path: filepath.Join(t.TempDir(), "none.yaml")})
	if err := st.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	recs, err := st.Load(context.Background(), "config_vars")
	if err != nil || len(recs) != 0 {
		t.Fatalf("expected empty store, got %v %v", recs, err)
	}
	if err := NewStore(Config{}).Connect(context.Background()); err == nil {
		t.Fatalf("expected error without path")
	}
}

func TestStore_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("config_vars: [unclosed"), 0o600)
	if _, err := NewStore(Config{Path: path}).Load(context.Background(), "config_vars"); err == nil {
		t.Fatalf("expected parse error")
	}
}
