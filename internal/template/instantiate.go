package template

import (
	"strings"

	"github.com/loykin/rnpdno/internal/failure"
)

// Renderer renders Go-template text against configuration variables.
// *env.Env satisfies it.
type Renderer interface {
	RenderGoTemplateErr(s string) (string, error)
}

// Descriptor is a concrete HTTP request ready to be dispatched.
type Descriptor struct {
	API      string
	Endpoint string
	Method   string
	URL      string
	Payload  map[string]any
}

// Instantiate turns a template into a request descriptor.
//
// The URL is host followed by url. Either part may contain Go-template actions
// ({{.SCRAPPER_DASHBOARD_HOST}}) rendered through vars. The payload is the
// template's default payload shallow-merged with overrides, overrides winning;
// when the template has no default payload, overrides are ignored.
func Instantiate(t *Template, overrides map[string]any, vars Renderer) (Descriptor, error) {
	if t == nil {
		return Descriptor{}, failure.New(failure.InvalidTemplate, "nil template")
	}
	if !t.Valid() {
		return Descriptor{}, failure.New(failure.InvalidTemplate, "template %s is missing fields %v", t.Key(), t.missing)
	}

	host, err := render(t.Host, vars)
	if err != nil {
		return Descriptor{}, failure.Wrap(failure.InvalidTemplate, err, "render host of %s", t.Key())
	}
	path, err := render(t.URL, vars)
	if err != nil {
		return Descriptor{}, failure.Wrap(failure.InvalidTemplate, err, "render url of %s", t.Key())
	}

	return Descriptor{
		API:      t.API,
		Endpoint: t.Endpoint,
		Method:   strings.ToUpper(strings.TrimSpace(t.Method)),
		URL:      host + path,
		Payload:  MergePayload(t.Payload, overrides),
	}, nil
}

// MergePayload returns a new map holding base overlaid with overrides.
// Nested values are replaced wholesale. An empty base yields an empty payload.
func MergePayload(base, overrides map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overrides))
	if len(base) == 0 {
		return out
	}
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

func render(s string, vars Renderer) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}
	if err := defaultGuard.Check(s); err != nil {
		return "", err
	}
	if vars == nil {
		return s, nil
	}
	return vars.RenderGoTemplateErr(s)
}
