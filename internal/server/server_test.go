package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loykin/rnpdno/internal/catalog"
	"github.com/loykin/rnpdno/internal/failure"
	"github.com/loykin/rnpdno/internal/session"
)

type fakeCatalog struct {
	state session.State
	err   error
	calls []string
}

func (f *fakeCatalog) State() session.State { return f.state }

func (f *fakeCatalog) FetchStates(context.Context) ([]catalog.Entry, error) {
	f.calls = append(f.calls, "states")
	if f.err != nil {
		return nil, f.err
	}
	return []catalog.Entry{{ID: "0", Name: "All"}, {ID: "09", Name: "Ciudad de México"}}, nil
}

func (f *fakeCatalog) FetchMunicipalities(_ context.Context, state string) ([]catalog.Entry, error) {
	f.calls = append(f.calls, "municipalities:"+state)
	return []catalog.Entry{{ID: "015", Name: "Cuauhtémoc"}}, f.err
}

func (f *fakeCatalog) FetchNeighborhoods(_ context.Context, state, mun string) ([]catalog.Entry, error) {
	f.calls = append(f.calls, "neighborhoods:"+state+":"+mun)
	return nil, f.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	h.ServeHTTP(w, req)
	return w
}

func TestServer_Health(t *testing.T) {
	fc := &fakeCatalog{state: session.Configured}
	router := NewServer(fc).SetupRoutes()
	if w := get(t, router, "/health"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without session, got %d", w.Code)
	}
	fc.state = session.SessionReady
	w := get(t, router, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["status"] != "session-ready" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestServer_CatalogRoutes(t *testing.T) {
	fc := &fakeCatalog{state: session.SessionReady}
	router := NewServer(fc).SetupRoutes()

	w := get(t, router, "/catalog/states")
	if w.Code != http.StatusOK {
		t.Fatalf("states: %d %s", w.Code, w.Body.String())
	}
	var resp CatalogResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 || resp.Entries[0].Name != "All" {
		t.Fatalf("unexpected states %+v", resp)
	}

	if w := get(t, router, "/catalog/states/09/municipalities"); w.Code != http.StatusOK {
		t.Fatalf("municipalities: %d", w.Code)
	}
	w = get(t, router, "/catalog/states/09/municipalities/015/neighborhoods")
	if w.Code != http.StatusOK {
		t.Fatalf("neighborhoods: %d", w.Code)
	}
	resp = CatalogResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Entries == nil || resp.Count != 0 {
		t.Fatalf("empty listing must encode as empty array: %s", w.Body.String())
	}

	want := []string{"states", "municipalities:09", "neighborhoods:09:015"}
	if len(fc.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", fc.calls, want)
	}
	for i := range want {
		if fc.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", fc.calls, want)
		}
	}
}

func TestServer_ErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		code int
		kind string
	}{
		{failure.New(failure.SessionNotCreated, "x"), http.StatusServiceUnavailable, "session not created"},
		{failure.Unsuccessful(404, "GET", "http://x"), http.StatusBadGateway, "unsuccessful request"},
		{failure.New(failure.RequestTimeout, "slow"), http.StatusGatewayTimeout, "request timeout"},
		{failure.New(failure.TemplateNotFound, "x"), http.StatusInternalServerError, "template not found"},
	}
	for _, tt := range tests {
		fc := &fakeCatalog{state: session.SessionReady, err: tt.err}
		w := get(t, NewServer(fc).SetupRoutes(), "/catalog/states")
		if w.Code != tt.code {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.code, w.Code)
		}
		var body ErrorResponse
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		if body.Kind != tt.kind || body.Status != tt.code {
			t.Fatalf("unexpected error body %+v", body)
		}
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, "127.0.0.1:0", http.NotFoundHandler()) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not stop")
	}
}
