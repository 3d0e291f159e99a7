package scraper

import (
	"time"

	"github.com/loykin/rnpdno/internal/config"
	"github.com/loykin/rnpdno/internal/constants"
	"github.com/loykin/rnpdno/internal/httpc"
)

// TemplateRef names a request template.
type TemplateRef struct {
	API      string `mapstructure:"api" yaml:"api"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

type options struct {
	http           httpc.Httpc
	requestTimeout time.Duration
	reader         *config.Reader
	warmUp         []TemplateRef
}

func defaultOptions() options {
	return options{
		requestTimeout: constants.DefaultRequestTimeout,
		warmUp: []TemplateRef{
			{API: constants.DashboardAPI, Endpoint: constants.IndexEndpoint},
			{API: constants.DashboardAPI, Endpoint: constants.HomeEndpoint},
		},
	}
}

type Option func(*options)

// WithHTTP sets the client settings used by CreateSession.
func WithHTTP(h httpc.Httpc) Option {
	return func(o *options) { o.http = h }
}

// WithRequestTimeout bounds every dispatched request.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.requestTimeout = d
		}
	}
}

// WithReader supplies the configuration reader used by LoadConfig.
func WithReader(r *config.Reader) Option {
	return func(o *options) { o.reader = r }
}

// WithWarmUp replaces the templates requested by WarmUp, in order.
func WithWarmUp(refs ...TemplateRef) Option {
	return func(o *options) { o.warmUp = refs }
}
