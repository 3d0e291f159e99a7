package rnpdno

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/loykin/rnpdno/internal/store/file"
)

// TestEmbeddedScraper runs the public API against an httptest dashboard with
// templates kept in a YAML file store.
func TestEmbeddedScraper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Dashboard/Index", "/Dashboard/Home":
			return
		case "/Catalogo/Estados":
			_, _ = w.Write([]byte(`[{"Value":"0","Text":"--TODOS--"},{"Value":"01","Text":"Aguascalientes"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	doc := `request_templates:
  - {api: dashboard, endPoint: index, method: GET, host: HOST, url: /Dashboard/Index, payloadTemplate: {}}
  - {api: dashboard, endPoint: home, method: GET, host: HOST, url: /Dashboard/Home, payloadTemplate: {}}
  - {api: catalogue, endPoint: states, method: GET, host: HOST, url: /Catalogo/Estados, payloadTemplate: {}}
  - {api: catalogue, endPoint: missing, method: GET, host: HOST, url: /Nope, payloadTemplate: {}}
`
	path := filepath.Join(t.TempDir(), "templates.yaml")
	if err := os.WriteFile(path, []byte(strings.ReplaceAll(doc, "HOST", srv.URL)), 0o600); err != nil {
		t.Fatalf("write templates: %v", err)
	}

	ctx := context.Background()
	s := New(
		WithStore(StoreConfig{Driver: "file", File: file.Config{Path: path}}),
		WithHTTP(HTTPConfig{RequestsPerSecond: -1}),
	)
	defer func() { _ = s.Close() }()

	if _, err := s.FetchStates(ctx); !errors.Is(err, ConfigNotLoaded) {
		t.Fatalf("expected ConfigNotLoaded, got %v", err)
	}
	if err := s.LoadConfig(ctx); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if err := s.CreateSession(); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.State() != SessionReady {
		t.Fatalf("unexpected state %v", s.State())
	}
	if err := s.WarmUp(ctx); err != nil {
		t.Fatalf("WarmUp: %v", err)
	}

	states, err := s.FetchStates(ctx)
	if err != nil {
		t.Fatalf("FetchStates: %v", err)
	}
	if len(states) != 2 || states[0] != (Entry{ID: "0", Name: "All"}) {
		t.Fatalf("unexpected states: %+v", states)
	}

	_, err = s.Request(ctx, "catalogue", "missing", nil, true)
	if !errors.Is(err, UnsuccessfulRequest) {
		t.Fatalf("expected UnsuccessfulRequest, got %v", err)
	}
	var fe *Error
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404 on error, got %v", err)
	}
}
