package rnpdno

import (
	"time"

	"github.com/loykin/rnpdno/internal/catalog"
	"github.com/loykin/rnpdno/internal/common"
	"github.com/loykin/rnpdno/internal/config"
	"github.com/loykin/rnpdno/internal/dispatch"
	"github.com/loykin/rnpdno/internal/failure"
	"github.com/loykin/rnpdno/internal/httpc"
	"github.com/loykin/rnpdno/internal/scraper"
	"github.com/loykin/rnpdno/internal/session"
	"github.com/loykin/rnpdno/internal/store"
	"github.com/loykin/rnpdno/internal/template"
)

// Re-export commonly used types for public API

// Scraper replays stored request templates against the dashboard.
type Scraper = scraper.Scraper

type Option = scraper.Option

// TemplateRef names a request template by api and endpoint.
type TemplateRef = scraper.TemplateRef

type TargetDB = scraper.TargetDB

// New returns an unconfigured Scraper. Call LoadConfig, then CreateSession.
func New(opts ...Option) *Scraper { return scraper.New(opts...) }

// WithHTTP sets the HTTP session settings.
func WithHTTP(h HTTPConfig) Option { return scraper.WithHTTP(h) }

func WithRequestTimeout(d time.Duration) Option { return scraper.WithRequestTimeout(d) }

// WithStore reads configuration from the given store instead of SCRAPPER_* store settings.
func WithStore(cfg StoreConfig) Option {
	return scraper.WithReader(config.NewReader(config.WithStoreConfig(cfg)))
}

func WithWarmUp(refs ...TemplateRef) Option { return scraper.WithWarmUp(refs...) }

// HTTPConfig describes the dashboard HTTP client.
type HTTPConfig = httpc.Httpc

// StoreConfig selects the template store driver.
type StoreConfig = store.Config

// Entry is one catalog item.
type Entry = catalog.Entry

// Response is a dispatched request's outcome.
type Response = dispatch.Response

type Template = template.Template

// Lookup policies for template resolution.
const (
	Strict  = template.Strict
	Lenient = template.Lenient
)

// State is the scraper lifecycle stage.
type State = session.State

const (
	Uninitialized = session.Uninitialized
	Configured    = session.Configured
	SessionReady  = session.SessionReady
)

// ErrorKind classifies scraper failures; use errors.Is(err, rnpdno.TemplateNotFound).
type ErrorKind = failure.Kind

type Error = failure.Error

const (
	ConfigNotLoaded        = failure.ConfigNotLoaded
	SessionNotCreated      = failure.SessionNotCreated
	TemplateNotFound       = failure.TemplateNotFound
	MultipleTemplatesFound = failure.MultipleTemplatesFound
	InvalidTemplate        = failure.InvalidTemplate
	UnsuccessfulRequest    = failure.UnsuccessfulRequest
	RequestTimeout         = failure.RequestTimeout
	RequestCanceled        = failure.RequestCanceled
	EnvNotLoaded           = failure.EnvNotLoaded
)

// Logging

type Logger = common.Logger

type LogLevel = common.LogLevel

const (
	LogLevelError = common.LogLevelError
	LogLevelWarn  = common.LogLevelWarn
	LogLevelInfo  = common.LogLevelInfo
	LogLevelDebug = common.LogLevelDebug
)

// NewLogger creates a text logger on stdout.
func NewLogger(level LogLevel) *Logger { return common.NewLogger(level) }

// NewJSONLogger creates a JSON logger on stdout.
func NewJSONLogger(level LogLevel) *Logger { return common.NewJSONLogger(level) }

// SetDefaultLogger replaces the logger used by every package.
func SetDefaultLogger(l *Logger) { common.SetDefaultLogger(l) }

func GetLogger() *Logger { return common.GetLogger() }

// EnableMasking toggles masking of credentials in log output.
func EnableMasking(enabled bool) { common.EnableMasking(enabled) }
