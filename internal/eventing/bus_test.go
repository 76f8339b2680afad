package eventing

import (
	"context"
	"errors"
	"testing"
)

type testEvent struct {
	Value int
}

func TestPublishDispatchesToTypedSubscriber(t *testing.T) {
	bus := NewInMemoryBus()

	var got []int
	SubscribeTo(bus, func(_ context.Context, evt testEvent) error {
		got = append(got, evt.Value)
		return nil
	})

	if err := bus.Publish(context.Background(), testEvent{Value: 7}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 1 || got[0] != 7 {
		t.Fatalf("expected [7], got %v", got)
	}
}

func TestPublishNilEvent(t *testing.T) {
	bus := NewInMemoryBus()
	if err := bus.Publish(context.Background(), nil); !errors.Is(err, ErrNilEvent) {
		t.Fatalf("expected ErrNilEvent, got %v", err)
	}
}

func TestPublishReturnsFirstHandlerError(t *testing.T) {
	bus := NewInMemoryBus()
	wantErr := errors.New("boom")

	bus.Subscribe(EventTypeOf[testEvent](), func(context.Context, any) error { return wantErr })
	called := false
	bus.Subscribe(EventTypeOf[testEvent](), func(context.Context, any) error {
		called = true
		return nil
	})

	if err := bus.Publish(context.Background(), testEvent{}); !errors.Is(err, wantErr) {
		t.Fatalf("expected handler error, got %v", err)
	}
	if !called {
		t.Fatal("expected all handlers to run despite earlier error")
	}
}

func TestEventTypeDereferencesPointers(t *testing.T) {
	if EventType(&testEvent{}) != EventType(testEvent{}) {
		t.Fatal("pointer and value events should share a type name")
	}
}
