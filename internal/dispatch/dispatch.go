package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/loykin/rnpdno/internal/common"
	"github.com/loykin/rnpdno/internal/constants"
	"github.com/loykin/rnpdno/internal/failure"
	"github.com/loykin/rnpdno/internal/template"
)

// Response is the outcome of a dispatched request.
type Response struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Duration   time.Duration
}

// Dispatcher executes request descriptors on one session client.
// It is not safe for concurrent use: at most one request is in flight per session.
type Dispatcher struct {
	client  *resty.Client
	timeout time.Duration
}

// New binds a dispatcher to client. A non-positive timeout means DefaultRequestTimeout.
func New(client *resty.Client, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}
	return &Dispatcher{client: client, timeout: timeout}
}

// Client returns the session client.
func (d *Dispatcher) Client() *resty.Client { return d.client }

// Dispatch sends d once. A non-empty payload is form-encoded in the body
// whatever the method; HEAD and OPTIONS drop it. It is never retried.
func (d *Dispatcher) Dispatch(ctx context.Context, desc template.Descriptor) (*Response, error) {
	logger := common.GetLogger().WithComponent("dispatch").WithRequest(desc.Method, desc.URL)

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req := d.client.R().SetContext(ctx)
	values := FormValues(desc.Payload)
	switch desc.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodHead, http.MethodOptions:
	default:
		return nil, fmt.Errorf("unsupported method: %s", desc.Method)
	}
	if len(values) > 0 {
		req.SetFormDataFromValues(values)
	}

	logger.Debug("dispatching request", "api", desc.API, "endpoint", desc.Endpoint, "fields", len(values))
	start := time.Now()
	resp, err := req.Execute(desc.Method, desc.URL)
	if err != nil {
		err = classify(ctx, err, desc)
		logger.Error("HTTP request failed", "error", err)
		return nil, err
	}

	out := &Response{
		Method:     desc.Method,
		URL:        desc.URL,
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Header:     resp.Header(),
		Body:       resp.Body(),
		Duration:   time.Since(start),
	}
	logger.Debug("received HTTP response", "status_code", out.StatusCode, "response_size", len(out.Body), "duration", out.Duration)
	return out, nil
}

// classify maps transport errors onto RequestTimeout and RequestCanceled.
func classify(ctx context.Context, err error, desc template.Descriptor) error {
	switch {
	case errors.Is(err, context.Canceled):
		return failure.Wrap(failure.RequestCanceled, err, "%s %s", desc.Method, desc.URL)
	case errors.Is(err, context.DeadlineExceeded):
		return failure.Wrap(failure.RequestTimeout, err, "%s %s", desc.Method, desc.URL)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failure.Wrap(failure.RequestTimeout, err, "%s %s", desc.Method, desc.URL)
	}
	// the rate limiter reports deadline problems without wrapping the context error
	switch ctx.Err() {
	case context.Canceled:
		return failure.Wrap(failure.RequestCanceled, err, "%s %s", desc.Method, desc.URL)
	case context.DeadlineExceeded:
		return failure.Wrap(failure.RequestTimeout, err, "%s %s", desc.Method, desc.URL)
	}
	return fmt.Errorf("%s %s: %w", desc.Method, desc.URL, err)
}

// ValidateStatus classifies status codes >= 400 as failures. In strict mode a
// failure is returned as UnsuccessfulRequest carrying the status code;
// otherwise it yields false and a warning.
func ValidateStatus(resp *Response, strict bool) (bool, error) {
	if resp == nil {
		return false, fmt.Errorf("nil response")
	}
	if resp.StatusCode < http.StatusBadRequest {
		return true, nil
	}
	if strict {
		return false, failure.Unsuccessful(resp.StatusCode, resp.Method, resp.URL)
	}
	common.GetLogger().WithComponent("dispatch").WithRequest(resp.Method, resp.URL).
		Warn("unsuccessful response", "status_code", resp.StatusCode)
	return false, nil
}

// FormValues encodes a payload the way an HTML form would: scalars as text,
// lists as repeated keys, nested mappings as JSON text.
func FormValues(payload map[string]any) url.Values {
	values := url.Values{}
	for k, v := range payload {
		switch t := v.(type) {
		case nil:
			values.Set(k, "")
		case string:
			values.Set(k, t)
		case []any:
			for _, e := range t {
				values.Add(k, scalar(e))
			}
		case []string:
			for _, e := range t {
				values.Add(k, e)
			}
		default:
			values.Set(k, scalar(t))
		}
	}
	return values
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
