package httpc

import (
	"crypto/tls"
	"net/http/cookiejar"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/loykin/rnpdno/internal/constants"
	"golang.org/x/time/rate"
)

// Httpc describes the HTTP session used against the dashboard.
type Httpc struct {
	TlsConfig *tls.Config
	// Timeout bounds a whole request; zero means DefaultRequestTimeout.
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// RequestsPerSecond paces outgoing requests; zero means DefaultRequestsPerSecond
	// and a negative value disables pacing.
	RequestsPerSecond float64
	Burst             int
}

// New returns a resty.Client with its own cookie jar so that cookies issued by
// the dashboard persist across requests made with it. GET requests may
// carry a body.
// Defaults: MinVersion TLS1.2 when a TLS config is given with MinVersion zero.
func (h *Httpc) New() (*resty.Client, error) {
	c := resty.New()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c.SetCookieJar(jar)
	c.SetAllowGetMethodPayload(true)

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}
	c.SetTimeout(timeout)

	ua := h.UserAgent
	if ua == "" {
		ua = constants.DefaultUserAgent
	}
	c.SetHeader("User-Agent", ua)
	for k, v := range h.Headers {
		c.SetHeader(k, v)
	}

	if cfg := h.TlsConfig; cfg != nil {
		if cfg.MinVersion == 0 {
			cfg.MinVersion = tls.VersionTLS12
		}
		c.SetTLSClientConfig(cfg)
	}

	if limiter := h.limiter(); limiter != nil {
		c.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}
	return c, nil
}

func (h *Httpc) limiter() *rate.Limiter {
	rps := h.RequestsPerSecond
	if rps < 0 {
		return nil
	}
	if rps == 0 {
		rps = constants.DefaultRequestsPerSecond
	}
	burst := h.Burst
	if burst <= 0 {
		burst = constants.DefaultBurst
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
