package application

import (
	"context"
	"errors"
	"log"
	"time"

	"genset-cloud/internal/observability/metrics"
	"genset-cloud/internal/telemetry/application/events"
)

const defaultQueueSize = 256

// Publisher publishes events onto the in-process bus.
type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Message is one raw transport message.
type Message struct {
	Topic   string
	Payload []byte
}

// Ingestor drains the transport through a bounded queue into a single
// consumer goroutine. One message is handled at a time, in arrival order,
// which keeps the apply-update/trigger region free of overlapping mutation.
type Ingestor struct {
	deviceID string
	store    *SnapshotStore
	writer   *PersistenceWriter
	bus      Publisher
	queue    chan Message
	logger   *log.Logger
	clock    Clock
}

// IngestorOption customizes the ingestor.
type IngestorOption func(*Ingestor)

// WithQueueSize overrides the bounded queue capacity.
func WithQueueSize(size int) IngestorOption {
	return func(i *Ingestor) {
		if size > 0 {
			i.queue = make(chan Message, size)
		}
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) IngestorOption {
	return func(i *Ingestor) {
		if clock != nil {
			i.clock = clock
		}
	}
}

// NewIngestor constructs an ingestor for one device.
func NewIngestor(deviceID string, store *SnapshotStore, writer *PersistenceWriter, bus Publisher, logger *log.Logger, opts ...IngestorOption) (*Ingestor, error) {
	if deviceID == "" {
		return nil, errors.New("telemetry ingest: empty device id")
	}
	if store == nil {
		return nil, errors.New("telemetry ingest: nil snapshot store")
	}
	if writer == nil {
		return nil, errors.New("telemetry ingest: nil persistence writer")
	}
	if bus == nil {
		return nil, errors.New("telemetry ingest: nil publisher")
	}
	if logger == nil {
		logger = log.Default()
	}
	ingestor := &Ingestor{
		deviceID: deviceID,
		store:    store,
		writer:   writer,
		bus:      bus,
		queue:    make(chan Message, defaultQueueSize),
		logger:   logger,
		clock:    systemClock{},
	}
	for _, opt := range opts {
		opt(ingestor)
	}
	return ingestor, nil
}

// Enqueue hands a raw message to the consumer loop without blocking the
// transport callback. Overflow drops the message and counts it.
func (i *Ingestor) Enqueue(topic string, payload []byte) {
	if i == nil {
		return
	}
	msg := Message{Topic: topic, Payload: append([]byte(nil), payload...)}
	select {
	case i.queue <- msg:
	default:
		metrics.IncIngestDropped()
		i.logger.Printf("ingest queue full, dropped message on %s", topic)
	}
}

// Run drains the queue until the context is cancelled. No single message may
// take the loop down.
func (i *Ingestor) Run(ctx context.Context) {
	for {
		select {
		case msg := <-i.queue:
			i.Handle(ctx, msg)
		case <-ctx.Done():
			return
		}
	}
}

// Handle processes one message: normalize, apply, and on the trigger topic
// stamp + persist + publish StatusReceived, in that order, against the
// snapshot as of the trigger.
func (i *Ingestor) Handle(ctx context.Context, msg Message) {
	update, err := Normalize(msg.Topic, msg.Payload)
	if err != nil {
		metrics.IncIngestMessage("unknown_topic")
		return
	}
	if update.Malformed {
		metrics.IncParseError(string(update.Field))
		i.logger.Printf("unparsable payload on %s, coerced to 0: %q", msg.Topic, msg.Payload)
	}

	i.store.Apply(i.deviceID, update)
	metrics.IncIngestMessage("")

	if !IsTrigger(msg.Topic) {
		return
	}

	now := i.clock.Now().UTC()
	snapshot := i.store.Stamp(i.deviceID, now)

	i.writer.Persist(snapshot)
	if err := i.bus.Publish(ctx, events.StatusReceived{DeviceID: i.deviceID, At: now, Snapshot: snapshot}); err != nil {
		i.logger.Printf("status event publish failed: %v", err)
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
