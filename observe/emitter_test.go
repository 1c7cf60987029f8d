package observe

import (
	"context"
	"testing"
)

// mockEmitter is a minimal Emitter implementation for testing the
// interface contract and basic collection behavior.
type mockEmitter struct {
	events []Event
}

func (m *mockEmitter) Emit(event Event) { m.events = append(m.events, event) }

func (m *mockEmitter) EmitBatch(_ context.Context, events []Event) error {
	m.events = append(m.events, events...)
	return nil
}

func (m *mockEmitter) Flush(context.Context) error { return nil }

// TestEmitter_InterfaceContract verifies Emitter can be implemented by
// all three shipped emitters plus a test double.
func TestEmitter_InterfaceContract(t *testing.T) {
	var _ Emitter = (*mockEmitter)(nil)
	var _ Emitter = NewNullEmitter()
	var _ Emitter = NewLogEmitter(nil, false)
	var _ Emitter = NewOTelEmitter(nil)
}

// TestEmitter_Emit verifies the collector pattern a custom Emitter
// typically implements.
func TestEmitter_Emit(t *testing.T) {
	t.Run("emit single event", func(t *testing.T) {
		emitter := &mockEmitter{}
		emitter.Emit(Event{RunID: "run-1", Level: 1, Token: "a", Msg: "step_start"})
		if len(emitter.events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(emitter.events))
		}
		if emitter.events[0].Msg != "step_start" {
			t.Errorf("expected Msg = step_start, got %q", emitter.events[0].Msg)
		}
	})

	t.Run("emit with metadata", func(t *testing.T) {
		emitter := &mockEmitter{}
		emitter.Emit(Event{
			RunID: "run-1",
			Token: "a",
			Msg:   "step_end",
			Meta:  map[string]any{"duration_ms": 250},
		})
		if got := emitter.events[0].Meta["duration_ms"]; got != 250 {
			t.Errorf("expected duration_ms = 250, got %v", got)
		}
	})

	t.Run("emit zero value event", func(t *testing.T) {
		emitter := &mockEmitter{}
		emitter.Emit(Event{})
		if len(emitter.events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(emitter.events))
		}
	})
}

// TestEmitter_EmitBatch verifies EmitBatch preserves event order.
func TestEmitter_EmitBatch(t *testing.T) {
	emitter := &mockEmitter{}
	events := []Event{
		{RunID: "run-1", Msg: "run_start"},
		{RunID: "run-1", Level: 1, Msg: "level_start"},
		{RunID: "run-1", Msg: "run_end"},
	}
	if err := emitter.EmitBatch(context.Background(), events); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(emitter.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(emitter.events))
	}
	for i, e := range events {
		if emitter.events[i].Msg != e.Msg {
			t.Errorf("event %d: expected Msg = %q, got %q", i, e.Msg, emitter.events[i].Msg)
		}
	}
}
