package template

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/loykin/rnpdno/internal/failure"
)

// Record field names of a request template document.
const (
	FieldAPI           = "api"
	FieldEndpoint      = "endpoint"
	FieldEndpointAlias = "endPoint"
	FieldURL           = "url"
	FieldHost          = "host"
	FieldMethod        = "method"
	FieldPayload       = "payloadTemplate"
)

// RequiredFields lists the keys a template document must carry to be valid.
// FieldEndpoint is also satisfied by FieldEndpointAlias.
var RequiredFields = []string{FieldAPI, FieldEndpoint, FieldURL, FieldHost, FieldMethod, FieldPayload}

// Validate reports whether record carries every required field.
// Only key presence is checked; value types are irrelevant.
func Validate(record map[string]any) bool {
	return len(missingFields(record)) == 0
}

func missingFields(record map[string]any) []string {
	var missing []string
	for _, f := range RequiredFields {
		if _, ok := record[f]; ok {
			continue
		}
		if f == FieldEndpoint {
			if _, ok := record[FieldEndpointAlias]; ok {
				continue
			}
		}
		missing = append(missing, f)
	}
	return missing
}

// Template is a request template decoded from a store document.
type Template struct {
	API      string         `mapstructure:"api"`
	Endpoint string         `mapstructure:"endpoint"`
	URL      string         `mapstructure:"url"`
	Host     string         `mapstructure:"host"`
	Method   string         `mapstructure:"method"`
	Payload  map[string]any `mapstructure:"-"`

	// missing holds the required fields absent from the source document.
	missing []string
}

// FromRecord decodes a store document into a Template. Scalar values are
// converted to strings; a payloadTemplate that is not a mapping is treated as empty.
// Structurally invalid documents still decode so that they can be reported on use.
func FromRecord(record map[string]any) (*Template, error) {
	src := make(map[string]any, len(record))
	for k, v := range record {
		if k == FieldPayload {
			continue
		}
		src[k] = v
	}
	if _, ok := src[FieldEndpoint]; !ok {
		if alias, ok := src[FieldEndpointAlias]; ok {
			src[FieldEndpoint] = alias
		}
	}
	delete(src, FieldEndpointAlias)

	t := &Template{missing: missingFields(record)}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           t,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(src); err != nil {
		return nil, failure.Wrap(failure.InvalidTemplate, err, "decode template")
	}
	if p, ok := record[FieldPayload].(map[string]any); ok {
		t.Payload = make(map[string]any, len(p))
		for k, v := range p {
			t.Payload[k] = v
		}
	}
	return t, nil
}

// Valid reports whether the source document carried every required field.
func (t *Template) Valid() bool {
	return t != nil && len(t.missing) == 0
}

// Missing returns the required fields absent from the source document.
func (t *Template) Missing() []string {
	return append([]string(nil), t.missing...)
}

// Key identifies the template as "api/endpoint".
func (t *Template) Key() string {
	return t.API + "/" + t.Endpoint
}

func (t *Template) String() string {
	return fmt.Sprintf("%s %s%s (%s)", strings.ToUpper(t.Method), t.Host, t.URL, t.Key())
}
