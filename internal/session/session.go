package session

import (
	"sync"

	"github.com/loykin/rnpdno/internal/failure"
)

// State is the lifecycle stage of a scraper instance.
type State int

const (
	Uninitialized State = iota
	Configured
	SessionReady
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Configured:
		return "configured"
	case SessionReady:
		return "session-ready"
	default:
		return "unknown"
	}
}

// Lifecycle enforces "configuration loaded, then session created, then requests".
// Transitions only move forward; there is no way back to Uninitialized.
type Lifecycle struct {
	mu    sync.RWMutex
	state State
}

func New() *Lifecycle {
	return &Lifecycle{}
}

// State returns the current stage.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// MarkConfigured records that configuration was loaded. Later calls are no-ops.
func (l *Lifecycle) MarkConfigured() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Uninitialized {
		l.state = Configured
	}
}

// MarkSessionReady records that a session exists. It requires configuration
// to be loaded; marking again after a session re-creation is allowed.
func (l *Lifecycle) MarkSessionReady() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Uninitialized {
		return failure.New(failure.ConfigNotLoaded, "load configuration before creating a session")
	}
	l.state = SessionReady
	return nil
}

// RequireConfigLoaded fails with ConfigNotLoaded until MarkConfigured ran.
func (l *Lifecycle) RequireConfigLoaded() error {
	if l.State() < Configured {
		return failure.New(failure.ConfigNotLoaded, "configuration has not been loaded")
	}
	return nil
}

// RequireSessionCreated fails with SessionNotCreated until MarkSessionReady ran.
func (l *Lifecycle) RequireSessionCreated() error {
	if l.State() < SessionReady {
		return failure.New(failure.SessionNotCreated, "session has not been created")
	}
	return nil
}
