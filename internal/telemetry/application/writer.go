package application

import (
	"context"
	"errors"
	"log"
	"time"

	"genset-cloud/internal/observability/metrics"
	telemetry "genset-cloud/internal/telemetry/domain"
)

const defaultWriteTimeout = 5 * time.Second

// PersistenceWriter appends history records. Writes are fire-and-forget: a
// failed append is logged and counted, never propagated back into the ingest
// loop, and the live snapshot stays authoritative.
type PersistenceWriter struct {
	history telemetry.HistoryRepository
	cache   telemetry.LatestCache
	logger  *log.Logger
	timeout time.Duration
}

// WriterOption customizes the persistence writer.
type WriterOption func(*PersistenceWriter)

// WithLatestCache adds a hot-path cache that mirrors each persisted record.
func WithLatestCache(cache telemetry.LatestCache) WriterOption {
	return func(w *PersistenceWriter) {
		w.cache = cache
	}
}

// WithWriteTimeout overrides the per-write deadline.
func WithWriteTimeout(timeout time.Duration) WriterOption {
	return func(w *PersistenceWriter) {
		if timeout > 0 {
			w.timeout = timeout
		}
	}
}

// NewPersistenceWriter constructs a writer.
func NewPersistenceWriter(history telemetry.HistoryRepository, logger *log.Logger, opts ...WriterOption) (*PersistenceWriter, error) {
	if history == nil {
		return nil, errors.New("telemetry writer: nil history repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	writer := &PersistenceWriter{history: history, logger: logger, timeout: defaultWriteTimeout}
	for _, opt := range opts {
		opt(writer)
	}
	return writer, nil
}

// Persist appends the record asynchronously and returns immediately. A slow
// store must not stall ingestion of the next message.
func (w *PersistenceWriter) Persist(record telemetry.Snapshot) {
	if w == nil {
		return
	}
	go w.write(record)
}

// PersistSync appends the record and waits for the result. Used by tests and
// shutdown flushing.
func (w *PersistenceWriter) PersistSync(record telemetry.Snapshot) error {
	if w == nil {
		return errors.New("telemetry writer: nil writer")
	}
	return w.write(record)
}

func (w *PersistenceWriter) write(record telemetry.Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	start := time.Now()
	_, err := w.history.Append(ctx, record)
	metrics.ObserveHistoryWrite(err, time.Since(start))
	if err != nil {
		w.logger.Printf("history write failed: device=%s %v", record.DeviceID, err)
		return err
	}

	if w.cache != nil {
		if err := w.cache.Set(ctx, record); err != nil {
			// Cache miss is recoverable; the cold path already has the record.
			w.logger.Printf("latest cache update failed: device=%s %v", record.DeviceID, err)
		}
	}
	return nil
}
