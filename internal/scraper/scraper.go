package scraper

import (
	"context"
	"fmt"
	"sync"

	"github.com/loykin/rnpdno/internal/catalog"
	"github.com/loykin/rnpdno/internal/common"
	"github.com/loykin/rnpdno/internal/config"
	"github.com/loykin/rnpdno/internal/constants"
	"github.com/loykin/rnpdno/internal/dispatch"
	"github.com/loykin/rnpdno/internal/session"
	"github.com/loykin/rnpdno/internal/store"
	"github.com/loykin/rnpdno/internal/template"
)

// Scraper replays templated requests against the RNPDNO dashboard.
//
// Callers drive the lifecycle explicitly: LoadConfig, then CreateSession
// (and usually WarmUp), then requests. A Scraper serves one request at a time.
type Scraper struct {
	opts      options
	lifecycle *session.Lifecycle

	mu         sync.RWMutex
	reader     *config.Reader
	registry   *template.Registry
	dispatcher *dispatch.Dispatcher
}

// TargetDB holds the credentials of the database that receives scraped data.
type TargetDB struct {
	Name     string
	Username string
	Password string
}

func New(opts ...Option) *Scraper {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Scraper{opts: o, lifecycle: session.New()}
}

// State returns the lifecycle stage.
func (s *Scraper) State() session.State { return s.lifecycle.State() }

// LoadConfig reads SCRAPPER_* variables, the config_vars collection and the
// request templates. Configuration is loaded once per Scraper.
func (s *Scraper) LoadConfig(ctx context.Context) error {
	logger := common.GetLogger().WithComponent("scraper")
	if s.lifecycle.RequireConfigLoaded() == nil {
		return fmt.Errorf("configuration already loaded")
	}

	reader := s.opts.reader
	if reader == nil {
		reader = config.NewReader()
	}
	logger.Info("starting configuration loading routine")
	records, err := loadReader(ctx, reader)
	if err != nil {
		if rerr := reader.Reset(); rerr != nil {
			logger.Warn("failed to close config store", "error", rerr)
		}
		return err
	}

	s.mu.Lock()
	s.reader = reader
	s.registry = template.NewRegistry(records)
	s.mu.Unlock()

	s.lifecycle.MarkConfigured()
	logger.Info("configuration loaded", "templates", s.registry.Len())
	return nil
}

func loadReader(ctx context.Context, reader *config.Reader) ([]store.Record, error) {
	if err := reader.LoadEnvVars(); err != nil {
		return nil, err
	}
	if err := reader.LoadConfig(ctx); err != nil {
		return nil, err
	}
	return reader.LoadTemplates(ctx)
}

// CreateSession starts a fresh HTTP session with an empty cookie jar.
// Calling it again discards the cookies of the previous session.
func (s *Scraper) CreateSession() error {
	if err := s.lifecycle.RequireConfigLoaded(); err != nil {
		return err
	}
	client, err := s.opts.http.New()
	if err != nil {
		return fmt.Errorf("create http client: %w", err)
	}
	s.mu.Lock()
	s.dispatcher = dispatch.New(client, s.opts.requestTimeout)
	s.mu.Unlock()

	if err := s.lifecycle.MarkSessionReady(); err != nil {
		return err
	}
	common.GetLogger().WithComponent("scraper").Info("session created")
	return nil
}

// WarmUp requests the dashboard index and home pages so the server issues the
// session cookie. Run it once per session before other requests.
func (s *Scraper) WarmUp(ctx context.Context) error {
	for _, ref := range s.opts.warmUp {
		if _, err := s.Request(ctx, ref.API, ref.Endpoint, nil, true); err != nil {
			return fmt.Errorf("warm-up %s/%s: %w", ref.API, ref.Endpoint, err)
		}
	}
	return nil
}

// Templates returns the loaded request templates in store order.
func (s *Scraper) Templates() ([]*template.Template, error) {
	if err := s.lifecycle.RequireConfigLoaded(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Templates(), nil
}

// GetRequestTemplate resolves the template for (api, endpoint) under policy.
func (s *Scraper) GetRequestTemplate(api, endpoint string, policy template.Policy) (template.Resolution, error) {
	if err := s.lifecycle.RequireConfigLoaded(); err != nil {
		return template.Resolution{}, err
	}
	s.mu.RLock()
	reg := s.registry
	s.mu.RUnlock()
	common.GetLogger().WithComponent("scraper").WithTemplate(api, endpoint).Debug("looking for request template", "policy", policy.String())
	return reg.Resolve(api, endpoint, policy)
}

// Request resolves, instantiates and dispatches the (api, endpoint) template.
//
// With strict set, a missing or ambiguous template and a status >= 400 are
// errors. Otherwise an unresolved template yields a nil response and a nil
// error, and an unsuccessful status is only logged.
func (s *Scraper) Request(ctx context.Context, api, endpoint string, overrides map[string]any, strict bool) (*dispatch.Response, error) {
	if err := s.lifecycle.RequireConfigLoaded(); err != nil {
		return nil, err
	}
	if err := s.lifecycle.RequireSessionCreated(); err != nil {
		return nil, err
	}

	policy := template.Lenient
	if strict {
		policy = template.Strict
	}
	res, err := s.GetRequestTemplate(api, endpoint, policy)
	if err != nil {
		return nil, err
	}
	if !res.Found() {
		return nil, nil
	}

	s.mu.RLock()
	vars := s.reader.Env()
	d := s.dispatcher
	s.mu.RUnlock()

	desc, err := template.Instantiate(res.Template, overrides, vars)
	if err != nil {
		return nil, err
	}
	resp, err := d.Dispatch(ctx, desc)
	if err != nil {
		return nil, err
	}
	if _, err := dispatch.ValidateStatus(resp, strict); err != nil {
		return resp, err
	}
	return resp, nil
}

func (s *Scraper) fetchCatalog(ctx context.Context, endpoint string, overrides map[string]any) ([]catalog.Entry, error) {
	if err := s.lifecycle.RequireConfigLoaded(); err != nil {
		return nil, err
	}
	if err := s.lifecycle.RequireSessionCreated(); err != nil {
		return nil, err
	}
	resp, err := s.Request(ctx, constants.CatalogueAPI, endpoint, overrides, true)
	if err != nil {
		return nil, err
	}
	entries, err := catalog.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", constants.CatalogueAPI, endpoint, err)
	}
	common.GetLogger().WithComponent("scraper").WithTemplate(constants.CatalogueAPI, endpoint).
		Info("catalog fetched", "entries", len(entries))
	return entries, nil
}

// FetchStates returns the states catalog.
func (s *Scraper) FetchStates(ctx context.Context) ([]catalog.Entry, error) {
	return s.fetchCatalog(ctx, constants.StatesEndpoint, nil)
}

// FetchMunicipalities returns the municipalities of stateID.
func (s *Scraper) FetchMunicipalities(ctx context.Context, stateID string) ([]catalog.Entry, error) {
	return s.fetchCatalog(ctx, constants.MunicipalitiesEndpoint, map[string]any{
		constants.StateIDField: stateID,
	})
}

// FetchNeighborhoods returns the neighborhoods of municipalityID in stateID.
func (s *Scraper) FetchNeighborhoods(ctx context.Context, stateID, municipalityID string) ([]catalog.Entry, error) {
	return s.fetchCatalog(ctx, constants.NeighborhoodsEndpoint, map[string]any{
		constants.StateIDField:        stateID,
		constants.MunicipalityIDField: municipalityID,
	})
}

// TargetDB returns the target database settings found in config_vars.
func (s *Scraper) TargetDB() (TargetDB, error) {
	if err := s.lifecycle.RequireConfigLoaded(); err != nil {
		return TargetDB{}, err
	}
	s.mu.RLock()
	r := s.reader
	s.mu.RUnlock()

	var out TargetDB
	for key, dst := range map[string]*string{
		constants.TargetDBName:     &out.Name,
		constants.TargetDBUsername: &out.Username,
		constants.TargetDBPassword: &out.Password,
	} {
		v, ok := r.Get(key)
		if !ok {
			return TargetDB{}, fmt.Errorf("configuration variable %s is not set", key)
		}
		*dst = v
	}
	return out, nil
}

// Close releases the configuration store connection.
func (s *Scraper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader == nil {
		return nil
	}
	return s.reader.Close()
}
