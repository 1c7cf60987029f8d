package registry

import (
	"errors"
	"testing"

	"github.com/Lacoz/virta/verr"
)

// TestRegistry_RegisterAndResolve verifies the basic name-to-token
// round trip.
func TestRegistry_RegisterAndResolve(t *testing.T) {
	r := New()
	if err := r.Register("fetch", "token-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token, err := r.Resolve("fetch")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "token-1" {
		t.Errorf("expected token-1, got %v", token)
	}
}

// TestRegistry_ResolveUnknown verifies resolving an unregistered name
// fails with KindUnknownStep.
func TestRegistry_ResolveUnknown(t *testing.T) {
	r := New()
	_, err := r.Resolve("ghost")
	var ve *verr.Error
	if !errors.As(err, &ve) || ve.Kind != verr.KindUnknownStep {
		t.Errorf("expected KindUnknownStep, got %v", err)
	}
}

// TestRegistry_DuplicateNameDifferentToken verifies re-registering a
// name under a different token is rejected.
func TestRegistry_DuplicateNameDifferentToken(t *testing.T) {
	r := New()
	if err := r.Register("fetch", "token-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := r.Register("fetch", "token-2")
	var ve *verr.Error
	if !errors.As(err, &ve) || ve.Kind != verr.KindDuplicateRegistration {
		t.Errorf("expected KindDuplicateRegistration, got %v", err)
	}
}

// TestRegistry_DuplicateNameSameTokenIsNoop verifies re-registering the
// identical token is tolerated.
func TestRegistry_DuplicateNameSameTokenIsNoop(t *testing.T) {
	r := New()
	if err := r.Register("fetch", "token-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register("fetch", "token-1"); err != nil {
		t.Errorf("expected no error re-registering identical token, got %v", err)
	}
}

// TestRegistry_NameReverseLookup verifies Name recovers the
// registered name from a token.
func TestRegistry_NameReverseLookup(t *testing.T) {
	r := New()
	r.Register("fetch", "token-1")

	name, err := r.Name("token-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "fetch" {
		t.Errorf("expected fetch, got %q", name)
	}
}

// TestRegistry_NameUnregisteredToken verifies Name fails for a token
// that was never registered.
func TestRegistry_NameUnregisteredToken(t *testing.T) {
	r := New()
	_, err := r.Name("ghost-token")
	var ve *verr.Error
	if !errors.As(err, &ve) || ve.Kind != verr.KindUnregisteredToken {
		t.Errorf("expected KindUnregisteredToken, got %v", err)
	}
}

// TestRegistry_Has verifies Has reflects registration state.
func TestRegistry_Has(t *testing.T) {
	r := New()
	if r.Has("fetch") {
		t.Error("expected Has to be false before Register")
	}
	r.Register("fetch", "token-1")
	if !r.Has("fetch") {
		t.Error("expected Has to be true after Register")
	}
}
