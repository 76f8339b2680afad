package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "genset_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	ingestMessages    *prometheus.CounterVec
	ingestParseErrors *prometheus.CounterVec
	ingestDropped     prometheus.Counter

	historyWrites       *prometheus.CounterVec
	historyWriteLatency *prometheus.HistogramVec

	alarmEvents      *prometheus.CounterVec
	thresholdUpdates *prometheus.CounterVec

	streamClients *prometheus.GaugeVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		ingestMessages = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_messages_total",
				Help: "Total ingested transport messages by result",
			},
			[]string{"result"},
		)
		ingestParseErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_parse_errors_total",
				Help: "Total numeric payloads coerced to zero by field",
			},
			[]string{"field"},
		)
		ingestDropped = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_dropped_total",
				Help: "Total messages dropped because the ingest queue was full",
			},
		)

		historyWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "history_writes_total",
				Help: "Total history record writes by result",
			},
			[]string{"result"},
		)
		historyWriteLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "history_write_latency_seconds",
				Help:    "History record write latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		alarmEvents = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alert_events_total",
				Help: "Total alert lifecycle events by type",
			},
			[]string{"event"},
		)
		thresholdUpdates = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "threshold_updates_total",
				Help: "Total threshold rule set updates by result",
			},
			[]string{"result"},
		)

		streamClients = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "stream_clients",
				Help: "Connected live stream clients by transport",
			},
			[]string{"transport"},
		)

		prometheus.MustRegister(
			ingestMessages,
			ingestParseErrors,
			ingestDropped,
			historyWrites,
			historyWriteLatency,
			alarmEvents,
			thresholdUpdates,
			streamClients,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// IncIngestMessage increments the ingest message counter.
func IncIngestMessage(result string) {
	if result == "" {
		result = resultSuccess
	}
	if ingestMessages != nil {
		ingestMessages.WithLabelValues(result).Inc()
	}
}

// IncParseError counts a payload coerced to zero for a field.
func IncParseError(field string) {
	if field == "" {
		field = "unknown"
	}
	if ingestParseErrors != nil {
		ingestParseErrors.WithLabelValues(field).Inc()
	}
}

// IncIngestDropped counts a message dropped on a full ingest queue.
func IncIngestDropped() {
	if ingestDropped != nil {
		ingestDropped.Inc()
	}
}

// ObserveHistoryWrite records a history write result and duration.
func ObserveHistoryWrite(err error, duration time.Duration) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if historyWrites != nil {
		historyWrites.WithLabelValues(result).Inc()
	}
	if historyWriteLatency != nil {
		historyWriteLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncAlertEvent increments alert lifecycle counter.
func IncAlertEvent(event string) {
	if event == "" {
		event = "unknown"
	}
	if alarmEvents != nil {
		alarmEvents.WithLabelValues(event).Inc()
	}
}

// IncThresholdUpdate increments threshold update counter.
func IncThresholdUpdate(err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if thresholdUpdates != nil {
		thresholdUpdates.WithLabelValues(result).Inc()
	}
}

// AddStreamClient adjusts the connected client gauge for a transport.
func AddStreamClient(transport string, delta float64) {
	if transport == "" {
		transport = "unknown"
	}
	if streamClients != nil {
		streamClients.WithLabelValues(transport).Add(delta)
	}
}
