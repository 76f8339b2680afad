// Package application wires threshold evaluation into the ingest pipeline:
// every status trigger is checked against the active rule set, with a global
// debounce so a misbehaving sensor cannot flood the alert log.
package application

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	alerts "genset-cloud/internal/alerts/domain"
	"genset-cloud/internal/observability/metrics"
	"genset-cloud/internal/telemetry/application/events"
)

const defaultDebounceWindow = 10 * time.Second

// AlertRepository persists alert records.
type AlertRepository interface {
	Insert(ctx context.Context, alert *alerts.Alert) (int64, error)
	List(ctx context.Context, limit int) ([]alerts.Alert, error)
	GetByID(ctx context.Context, id int64) (*alerts.Alert, error)
	MarkResolved(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	LastAlertAt(ctx context.Context) (time.Time, error)
}

// Notifier pushes freshly created alerts to connected clients.
type Notifier interface {
	NotifyAlerts(batch []alerts.Alert)
}

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Service evaluates snapshots against the rule set and manages the alert
// lifecycle.
type Service struct {
	repo     AlertRepository
	rules    *RuleStore
	notifier Notifier
	logger   *log.Logger
	clock    Clock
	window   time.Duration

	mu         sync.Mutex
	lastCommit time.Time

	insertTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithDebounceWindow overrides the suppression window.
func WithDebounceWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithNotifier attaches a live-stream notifier.
func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// NewService constructs the alert service.
func NewService(repo AlertRepository, rules *RuleStore, logger *log.Logger, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("alerts: nil repository")
	}
	if rules == nil {
		return nil, errors.New("alerts: nil rule store")
	}
	if logger == nil {
		return nil, errors.New("alerts: nil logger")
	}
	s := &Service{
		repo:          repo,
		rules:         rules,
		logger:        logger,
		clock:         systemClock{},
		window:        defaultDebounceWindow,
		insertTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SeedDebounce primes the debounce clock from the most recent persisted
// alert, so a restart does not reopen the suppression window.
func (s *Service) SeedDebounce(ctx context.Context) error {
	last, err := s.repo.LastAlertAt(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lastCommit = last
	s.mu.Unlock()
	return nil
}

// HandleStatusReceived evaluates the stamped snapshot. All violations from
// one snapshot commit or suppress together.
func (s *Service) HandleStatusReceived(ctx context.Context, evt events.StatusReceived) error {
	violations := alerts.Evaluate(evt.Snapshot.Parameters(), s.rules.Current())
	if len(violations) == 0 {
		return nil
	}

	now := s.clock.Now()
	s.mu.Lock()
	if !s.lastCommit.IsZero() && now.Sub(s.lastCommit) <= s.window {
		s.mu.Unlock()
		metrics.IncAlertEvent("suppressed")
		return nil
	}
	s.lastCommit = now
	s.mu.Unlock()

	batch := make([]alerts.Alert, 0, len(violations))
	for _, v := range violations {
		batch = append(batch, alerts.Alert{
			Timestamp: evt.At,
			DeviceID:  evt.DeviceID,
			Parameter: v.Parameter,
			Value:     v.Value,
			Message:   v.Message,
			Severity:  v.Severity,
		})
	}

	// The write happens off the ingest path. A failed insert is logged and
	// counted but does not reopen the debounce window.
	go s.persist(batch)

	if s.notifier != nil {
		s.notifier.NotifyAlerts(batch)
	}
	return nil
}

func (s *Service) persist(batch []alerts.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), s.insertTimeout)
	defer cancel()
	for i := range batch {
		if _, err := s.repo.Insert(ctx, &batch[i]); err != nil {
			metrics.IncAlertEvent("insert_failed")
			s.logger.Printf("alerts: insert %s failed: %v", batch[i].Parameter, err)
			continue
		}
		metrics.IncAlertEvent("created")
	}
}

// List returns the most recent alerts.
func (s *Service) List(ctx context.Context, limit int) ([]alerts.Alert, error) {
	return s.repo.List(ctx, limit)
}

// Acknowledge marks an alert resolved. Acknowledging an already resolved
// alert is a no-op.
func (s *Service) Acknowledge(ctx context.Context, id int64) (*alerts.Alert, error) {
	if err := s.repo.MarkResolved(ctx, id); err != nil {
		return nil, err
	}
	metrics.IncAlertEvent("acknowledged")
	return s.repo.GetByID(ctx, id)
}

// Remove deletes an alert.
func (s *Service) Remove(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.IncAlertEvent("removed")
	return nil
}
