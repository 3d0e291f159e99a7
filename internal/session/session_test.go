package session

import (
	"errors"
	"testing"

	"github.com/loykin/rnpdno/internal/failure"
)

func TestLifecycle_FreshInstanceFailsBothChecks(t *testing.T) {
	l := New()
	if l.State() != Uninitialized {
		t.Fatalf("expected uninitialized, got %v", l.State())
	}
	if err := l.RequireConfigLoaded(); !errors.Is(err, failure.ConfigNotLoaded) {
		t.Fatalf("expected ConfigNotLoaded, got %v", err)
	}
	if err := l.RequireSessionCreated(); !errors.Is(err, failure.SessionNotCreated) {
		t.Fatalf("expected SessionNotCreated, got %v", err)
	}
}

func TestLifecycle_SessionRequiresConfig(t *testing.T) {
	l := New()
	if err := l.MarkSessionReady(); !errors.Is(err, failure.ConfigNotLoaded) {
		t.Fatalf("expected ConfigNotLoaded, got %v", err)
	}
	if l.State() != Uninitialized {
		t.Fatalf("failed transition must not change state")
	}
}

func TestLifecycle_ForwardTransitions(t *testing.T) {
	l := New()
	l.MarkConfigured()
	if err := l.RequireConfigLoaded(); err != nil {
		t.Fatalf("unexpected error after configure: %v", err)
	}
	if err := l.RequireSessionCreated(); !errors.Is(err, failure.SessionNotCreated) {
		t.Fatalf("expected SessionNotCreated, got %v", err)
	}

	if err := l.MarkSessionReady(); err != nil {
		t.Fatalf("MarkSessionReady: %v", err)
	}
	if l.State() != SessionReady {
		t.Fatalf("expected session-ready, got %v", l.State())
	}

	// configuring again never moves backwards
	l.MarkConfigured()
	if l.State() != SessionReady {
		t.Fatalf("state moved backwards to %v", l.State())
	}
	if err := l.MarkSessionReady(); err != nil {
		t.Fatalf("session re-creation must be allowed: %v", err)
	}
	if err := l.RequireConfigLoaded(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.RequireSessionCreated(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestState_String(t *testing.T) {
	if Configured.String() != "configured" || State(9).String() != "unknown" {
		t.Fatalf("unexpected state names")
	}
}
