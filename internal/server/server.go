// Package server exposes the catalog traversal over a read-only HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	glog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"
	"github.com/loykin/rnpdno/internal/catalog"
	"github.com/loykin/rnpdno/internal/common"
	"github.com/loykin/rnpdno/internal/failure"
	"github.com/loykin/rnpdno/internal/session"
)

// Catalog is the part of the scraper served over HTTP.
type Catalog interface {
	State() session.State
	FetchStates(ctx context.Context) ([]catalog.Entry, error)
	FetchMunicipalities(ctx context.Context, stateID string) ([]catalog.Entry, error)
	FetchNeighborhoods(ctx context.Context, stateID, municipalityID string) ([]catalog.Entry, error)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Status int    `json:"status"`
}

// CatalogResponse wraps a catalog listing.
type CatalogResponse struct {
	Entries []catalog.Entry `json:"entries"`
	Count   int             `json:"count"`
}

// Server serializes catalog requests: the scraper session allows a single
// in-flight request.
type Server struct {
	catalog Catalog
	mu      sync.Mutex
}

func NewServer(c Catalog) *Server {
	return &Server{catalog: c}
}

// SetupRoutes configures and returns the HTTP router.
func (s *Server) SetupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(glog.SetLogger(
		glog.WithLogger(func(_ *gin.Context, _ *slog.Logger) *slog.Logger {
			return common.GetLogger().WithComponent("http").Logger
		}),
	))

	router.GET("/health", s.handleHealth)

	cat := router.Group("/catalog")
	{
		cat.GET("/states", s.listStates)
		cat.GET("/states/:state/municipalities", s.listMunicipalities)
		cat.GET("/states/:state/municipalities/:municipality/neighborhoods", s.listNeighborhoods)
	}
	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	state := s.catalog.State()
	status := http.StatusOK
	if state != session.SessionReady {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": state.String()})
}

func (s *Server) listStates(c *gin.Context) {
	s.respond(c, func(ctx context.Context) ([]catalog.Entry, error) {
		return s.catalog.FetchStates(ctx)
	})
}

func (s *Server) listMunicipalities(c *gin.Context) {
	state := c.Param("state")
	s.respond(c, func(ctx context.Context) ([]catalog.Entry, error) {
		return s.catalog.FetchMunicipalities(ctx, state)
	})
}

func (s *Server) listNeighborhoods(c *gin.Context) {
	state, mun := c.Param("state"), c.Param("municipality")
	s.respond(c, func(ctx context.Context) ([]catalog.Entry, error) {
		return s.catalog.FetchNeighborhoods(ctx, state, mun)
	})
}

func (s *Server) respond(c *gin.Context, fetch func(context.Context) ([]catalog.Entry, error)) {
	s.mu.Lock()
	entries, err := fetch(c.Request.Context())
	s.mu.Unlock()
	if err != nil {
		status := statusFor(err)
		resp := ErrorResponse{Error: err.Error(), Status: status}
		if k := failure.KindOf(err); k != 0 {
			resp.Kind = k.String()
		}
		c.JSON(status, resp)
		return
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	c.JSON(http.StatusOK, CatalogResponse{Entries: entries, Count: len(entries)})
}

func statusFor(err error) int {
	switch failure.KindOf(err) {
	case failure.ConfigNotLoaded, failure.SessionNotCreated, failure.RequestCanceled:
		return http.StatusServiceUnavailable
	case failure.UnsuccessfulRequest:
		return http.StatusBadGateway
	case failure.RequestTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Run serves router on addr until ctx is done.
func Run(ctx context.Context, addr string, router http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		common.GetLogger().WithComponent("http").Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
