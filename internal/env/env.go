package env

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/template"
)

// Map is a flat variable map.
type Map map[string]string

// Env supports layered variables:
// - Process: variables taken from the process environment (SCRAPPER_* prefix)
// - Config: variables loaded from the config_vars collection
// Lookup and rendering give precedence to Config over Process.
// Once sealed, Set operations fail; configuration is immutable after load.
type Env struct {
	mu      sync.RWMutex
	Process Map
	Config  Map
	sealed  bool
}

// New returns a pointer to Env with all internal maps initialized.
func New() *Env {
	return &Env{Process: Map{}, Config: Map{}}
}

// FromEnviron keeps every entry of environ ("KEY=value") whose key starts with prefix.
func FromEnviron(environ []string, prefix string) Map {
	out := Map{}
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, prefix) {
			continue
		}
		out[k] = v
	}
	return out
}

// LoadProcess reads the process environment into the Process layer.
// It returns the number of variables kept.
func (e *Env) LoadProcess(prefix string) (int, error) {
	vars := FromEnviron(os.Environ(), prefix)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sealed {
		return 0, fmt.Errorf("env: sealed (immutable)")
	}
	e.Process = vars
	return len(vars), nil
}

// SetConfig stores a configuration variable. Returns error if sealed.
func (e *Env) SetConfig(key, val string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sealed {
		return fmt.Errorf("env: sealed (immutable)")
	}
	if e.Config == nil {
		e.Config = Map{}
	}
	e.Config[key] = val
	return nil
}

// Seal marks the Env as immutable for Set operations.
func (e *Env) Seal() {
	e.mu.Lock()
	e.sealed = true
	e.mu.Unlock()
}

// Sealed reports whether Seal was called.
func (e *Env) Sealed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sealed
}

// Lookup searches Config first, then Process.
func (e *Env) Lookup(key string) (string, bool) {
	if e == nil {
		return "", false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if v, ok := e.Config[key]; ok {
		return v, true
	}
	if v, ok := e.Process[key]; ok {
		return v, true
	}
	return "", false
}

// Get returns the value of key or def when it is not set.
func (e *Env) Get(key, def string) string {
	if v, ok := e.Lookup(key); ok {
		return v
	}
	return def
}

// ConfigLen returns the number of configuration variables.
func (e *Env) ConfigLen() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.Config)
}

// ConfigKeys returns configuration variable names sorted ascending.
func (e *Env) ConfigKeys() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]string, 0, len(e.Config))
	for k := range e.Config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// merged returns a combined map (Process then overridden by Config).
func (e *Env) merged() map[string]string {
	m := map[string]string{}
	if e == nil {
		return m
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	for k, v := range e.Process {
		m[k] = v
	}
	for k, v := range e.Config {
		m[k] = v
	}
	return m
}

// dataForTemplate exposes variables both flat ({{.SCRAPPER_HOST}}) and grouped ({{.env.SCRAPPER_HOST}}).
func (e *Env) dataForTemplate() map[string]interface{} {
	merged := e.merged()
	data := make(map[string]interface{}, len(merged)+1)
	for k, v := range merged {
		data[k] = v
	}
	data["env"] = merged
	return data
}

// IsTemplate reports whether s contains Go template actions.
func IsTemplate(s string) bool {
	return strings.Contains(s, "{{")
}

// RenderGoTemplate renders strings like {{.SCRAPPER_HOST}} with text/template.
// Missing keys or parse errors keep the original string unchanged.
func (e *Env) RenderGoTemplate(s string) string {
	out, err := e.RenderGoTemplateErr(s)
	if err != nil {
		return s
	}
	return out
}

// RenderGoTemplateErr behaves like RenderGoTemplate but returns an error when
// the template cannot be parsed or executed (including missing keys).
func (e *Env) RenderGoTemplateErr(s string) (string, error) {
	if !IsTemplate(s) {
		return s, nil
	}
	t, err := template.New("gotmpl").Option("missingkey=error").Parse(s)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, e.dataForTemplate()); err != nil {
		return "", err
	}
	return buf.String(), nil
}
