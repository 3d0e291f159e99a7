package template

import (
	"github.com/loykin/rnpdno/internal/common"
	"github.com/loykin/rnpdno/internal/failure"
)

// Policy selects how Resolve reacts to missing or ambiguous matches.
type Policy int

const (
	// Strict fails with TemplateNotFound or MultipleTemplatesFound.
	Strict Policy = iota
	// Lenient logs a warning and returns an empty Resolution.
	Lenient
)

func (p Policy) String() string {
	if p == Lenient {
		return "lenient"
	}
	return "strict"
}

// Resolution is the outcome of a template lookup. Template is set only on a
// unique match; Candidates lists every match of an ambiguous lenient lookup.
type Resolution struct {
	Template   *Template
	Candidates []*Template
}

// Found reports whether exactly one template matched.
func (r Resolution) Found() bool { return r.Template != nil }

// Ambiguous reports whether several templates matched.
func (r Resolution) Ambiguous() bool { return len(r.Candidates) > 1 }

// Registry is the read-only template list supplied at configuration time.
// Duplicated (api, endpoint) pairs are kept and detected on lookup.
type Registry struct {
	templates []*Template
	skipped   int
}

// NewRegistry decodes records into templates. Records that cannot be decoded
// are skipped with a warning.
func NewRegistry(records []map[string]any) *Registry {
	logger := common.GetLogger().WithComponent("template-registry")
	r := &Registry{}
	invalid := 0
	for i, rec := range records {
		t, err := FromRecord(rec)
		if err != nil {
			logger.Warn("skipping undecodable request template", "index", i, "error", err)
			r.skipped++
			continue
		}
		if !t.Valid() {
			invalid++
			logger.Warn("request template is missing required fields", "index", i, "template", t.Key(), "missing", t.Missing())
		}
		r.templates = append(r.templates, t)
	}
	logger.Debug("request templates loaded", "count", len(r.templates), "invalid", invalid, "skipped", r.skipped)
	return r
}

// Len returns the number of templates held.
func (r *Registry) Len() int { return len(r.templates) }

// Skipped returns how many records could not be decoded.
func (r *Registry) Skipped() int { return r.skipped }

// Templates returns the templates in store order.
func (r *Registry) Templates() []*Template {
	return append([]*Template(nil), r.templates...)
}

// Resolve finds the template whose api and endpoint exactly match.
func (r *Registry) Resolve(api, endpoint string, policy Policy) (Resolution, error) {
	var matches []*Template
	for _, t := range r.templates {
		if t.API == api && t.Endpoint == endpoint {
			matches = append(matches, t)
		}
	}

	logger := common.GetLogger().WithTemplate(api, endpoint)
	switch len(matches) {
	case 1:
		return Resolution{Template: matches[0]}, nil
	case 0:
		if policy == Strict {
			return Resolution{}, failure.New(failure.TemplateNotFound, "no template for api %q endpoint %q", api, endpoint)
		}
		logger.Warn("request template not found")
		return Resolution{}, nil
	default:
		if policy == Strict {
			return Resolution{}, failure.New(failure.MultipleTemplatesFound, "%d templates for api %q endpoint %q", len(matches), api, endpoint)
		}
		logger.Warn("multiple request templates found", "count", len(matches))
		return Resolution{Candidates: matches}, nil
	}
}
