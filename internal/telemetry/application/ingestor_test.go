package application

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"genset-cloud/internal/telemetry/application/events"
	telemetry "genset-cloud/internal/telemetry/domain"
)

type stubHistory struct {
	mu      sync.Mutex
	records []telemetry.Snapshot
}

func (s *stubHistory) Append(_ context.Context, record telemetry.Snapshot) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return int64(len(s.records)), nil
}

func (s *stubHistory) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

type stubBus struct {
	events []any
}

func (b *stubBus) Publish(_ context.Context, event any) error {
	b.events = append(b.events, event)
	return nil
}

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

func newTestIngestor(t *testing.T, history telemetry.HistoryRepository, bus Publisher, clock Clock) (*Ingestor, *SnapshotStore) {
	t.Helper()
	logger := log.New(os.Stdout, "", 0)
	store := NewSnapshotStore("GEN-01")
	writer, err := NewPersistenceWriter(history, logger)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	ingestor, err := NewIngestor("GEN-01", store, writer, bus, logger, WithClock(clock))
	if err != nil {
		t.Fatalf("new ingestor: %v", err)
	}
	return ingestor, store
}

func TestFieldOnlyUpdatesDoNotPersistOrPublish(t *testing.T) {
	history := &stubHistory{}
	bus := &stubBus{}
	ingestor, store := newTestIngestor(t, history, bus, fixedClock{at: time.Unix(1000, 0)})

	ctx := context.Background()
	ingestor.Handle(ctx, Message{Topic: "gen/rpm", Payload: []byte("1500")})
	ingestor.Handle(ctx, Message{Topic: "gen/volt", Payload: []byte("228.4")})
	ingestor.Handle(ctx, Message{Topic: "gen/rpm", Payload: []byte("1800")})

	snap := store.Get("GEN-01")
	if snap.RPM != 1800 {
		t.Fatalf("expected latest rpm 1800, got %v", snap.RPM)
	}
	if snap.Volt != 228.4 {
		t.Fatalf("expected volt 228.4, got %v", snap.Volt)
	}
	if history.count() != 0 {
		t.Fatalf("expected no history records, got %d", history.count())
	}
	if len(bus.events) != 0 {
		t.Fatalf("expected no events, got %d", len(bus.events))
	}
}

func TestStatusTriggerStampsPersistsAndPublishes(t *testing.T) {
	history := &stubHistory{}
	bus := &stubBus{}
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	ingestor, store := newTestIngestor(t, history, bus, fixedClock{at: at})

	ctx := context.Background()
	ingestor.Handle(ctx, Message{Topic: "gen/rpm", Payload: []byte("2400")})
	ingestor.Handle(ctx, Message{Topic: "gen/status", Payload: []byte("RUNNING")})

	snap := store.Get("GEN-01")
	if snap.Status != telemetry.StatusRunning {
		t.Fatalf("expected status RUNNING, got %q", snap.Status)
	}
	if !snap.Timestamp.Equal(at) {
		t.Fatalf("expected trigger to stamp %v, got %v", at, snap.Timestamp)
	}

	if len(bus.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.events))
	}
	evt, ok := bus.events[0].(events.StatusReceived)
	if !ok {
		t.Fatalf("unexpected event type %T", bus.events[0])
	}
	if evt.Snapshot.RPM != 2400 {
		t.Fatalf("event snapshot should carry rpm 2400, got %v", evt.Snapshot.RPM)
	}

	// Persist runs async; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for history.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if history.count() != 1 {
		t.Fatalf("expected one history record, got %d", history.count())
	}
}

func TestMalformedPayloadCoercesToZero(t *testing.T) {
	history := &stubHistory{}
	bus := &stubBus{}
	ingestor, store := newTestIngestor(t, history, bus, fixedClock{at: time.Unix(0, 0)})

	ctx := context.Background()
	ingestor.Handle(ctx, Message{Topic: "gen/oil", Payload: []byte("42.5")})
	ingestor.Handle(ctx, Message{Topic: "gen/oil", Payload: []byte("n/a")})

	if got := store.Get("GEN-01").Oil; got != 0 {
		t.Fatalf("expected oil coerced to 0, got %v", got)
	}
}

func TestTempUpdatesCoolant(t *testing.T) {
	history := &stubHistory{}
	bus := &stubBus{}
	ingestor, store := newTestIngestor(t, history, bus, fixedClock{at: time.Unix(0, 0)})

	ingestor.Handle(context.Background(), Message{Topic: "gen/temp", Payload: []byte("88.5")})

	snap := store.Get("GEN-01")
	if snap.Temp != 88.5 || snap.Coolant != 88.5 {
		t.Fatalf("expected temp and coolant 88.5, got %v / %v", snap.Temp, snap.Coolant)
	}
}

func TestUnknownTopicIgnored(t *testing.T) {
	history := &stubHistory{}
	bus := &stubBus{}
	ingestor, store := newTestIngestor(t, history, bus, fixedClock{at: time.Unix(0, 0)})

	before := store.Get("GEN-01")
	ingestor.Handle(context.Background(), Message{Topic: "gen/bogus", Payload: []byte("1")})
	after := store.Get("GEN-01")
	if before != after {
		t.Fatal("unknown topic must not mutate the snapshot")
	}
}

func TestDefaultsUntilFirstUpdate(t *testing.T) {
	store := NewSnapshotStore("GEN-01")
	snap := store.Get("GEN-01")
	if snap.Sync != telemetry.SyncUnknown {
		t.Fatalf("expected sync %q, got %q", telemetry.SyncUnknown, snap.Sync)
	}
	if snap.Status != telemetry.StatusStopped {
		t.Fatalf("expected status %q, got %q", telemetry.StatusStopped, snap.Status)
	}
	if snap.RPM != 0 || snap.Fuel != 0 {
		t.Fatal("numeric fields must default to zero")
	}
}
