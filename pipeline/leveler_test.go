package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/Lacoz/virta/verr"
)

func noopStep() Step {
	return StepFunc(func(ctx context.Context, c *Context) error { return nil })
}

// TestBuildLevels_LinearChain verifies a straight dependency chain
// produces one token per level, in dependency order.
func TestBuildLevels_LinearChain(t *testing.T) {
	def := NewDefinition()
	def.Add("a", noopStep())
	def.Add("b", noopStep(), DependsOn("a"))
	def.Add("c", noopStep(), DependsOn("b"))

	levels, err := buildLevels(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(levels))
	}
	for i, want := range []Token{"a", "b", "c"} {
		if len(levels[i]) != 1 || levels[i][0] != want {
			t.Errorf("level %d: expected [%v], got %v", i, want, levels[i])
		}
	}
}

// TestBuildLevels_FanOut verifies independent steps land in the same
// level.
func TestBuildLevels_FanOut(t *testing.T) {
	def := NewDefinition()
	def.Add("root", noopStep())
	def.Add("x", noopStep(), DependsOn("root"))
	def.Add("y", noopStep(), DependsOn("root"))

	levels, err := buildLevels(def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 2 {
		t.Fatalf("expected 2 levels, got %d", len(levels))
	}
	if len(levels[1]) != 2 {
		t.Fatalf("expected 2 tokens in level 1, got %d", len(levels[1]))
	}
}

// TestBuildLevels_Cycle verifies a cyclic dependency is rejected.
func TestBuildLevels_Cycle(t *testing.T) {
	def := NewDefinition()
	def.Add("a", noopStep(), DependsOn("b"))
	def.Add("b", noopStep(), DependsOn("a"))

	_, err := buildLevels(def)
	if err == nil {
		t.Fatal("expected cycle error, got nil")
	}
	var ve *verr.Error
	if !errors.As(err, &ve) || ve.Kind != verr.KindCycle {
		t.Errorf("expected KindCycle, got %v", err)
	}
}

// TestBuildLevels_DuplicateToken verifies registering the same token
// twice is rejected.
func TestBuildLevels_DuplicateToken(t *testing.T) {
	def := NewDefinition()
	def.Add("a", noopStep())
	def.Add("a", noopStep())

	_, err := buildLevels(def)
	if err == nil {
		t.Fatal("expected duplicate-registration error, got nil")
	}
	var ve *verr.Error
	if !errors.As(err, &ve) || ve.Kind != verr.KindDuplicateRegistration {
		t.Errorf("expected KindDuplicateRegistration, got %v", err)
	}
}

// TestBuildLevels_UnknownDependency verifies a dependency on a token
// never added is rejected.
func TestBuildLevels_UnknownDependency(t *testing.T) {
	def := NewDefinition()
	def.Add("a", noopStep(), DependsOn("ghost"))

	_, err := buildLevels(def)
	if err == nil {
		t.Fatal("expected unknown-dependency error, got nil")
	}
	var ve *verr.Error
	if !errors.As(err, &ve) || ve.Kind != verr.KindUnknownDependency {
		t.Errorf("expected KindUnknownDependency, got %v", err)
	}
}
