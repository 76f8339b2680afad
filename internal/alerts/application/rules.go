package application

import (
	"context"
	"errors"
	"log"
	"sync"

	alerts "genset-cloud/internal/alerts/domain"
	"genset-cloud/internal/observability/metrics"
)

// RuleRepository persists the active rule set.
type RuleRepository interface {
	Load(ctx context.Context) (alerts.RuleSet, error)
	Save(ctx context.Context, rules alerts.RuleSet) error
}

// RuleStore holds the rule set consulted on every evaluation. Reads are
// lock-cheap copies; updates persist before they swap the in-memory set, so
// a failed write never leaves memory ahead of the database.
type RuleStore struct {
	mu       sync.RWMutex
	rules    alerts.RuleSet
	repo     RuleRepository
	defaults alerts.RuleSet
	logger   *log.Logger
}

// NewRuleStore constructs a store around the given repository. The defaults
// are used until Load finds a persisted override.
func NewRuleStore(repo RuleRepository, defaults alerts.RuleSet, logger *log.Logger) (*RuleStore, error) {
	if repo == nil {
		return nil, errors.New("rules: nil repository")
	}
	if logger == nil {
		return nil, errors.New("rules: nil logger")
	}
	if defaults == nil {
		defaults = alerts.DefaultRules()
	}
	return &RuleStore{
		rules:    defaults.Clone(),
		repo:     repo,
		defaults: defaults,
		logger:   logger,
	}, nil
}

// Load replaces the in-memory set with the persisted one, when present.
func (s *RuleStore) Load(ctx context.Context) error {
	persisted, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	if persisted == nil {
		s.logger.Printf("rules: no persisted thresholds, using defaults")
		return nil
	}
	s.mu.Lock()
	s.rules = s.defaults.Merge(persisted)
	s.mu.Unlock()
	return nil
}

// Current returns a copy of the active rule set.
func (s *RuleStore) Current() alerts.RuleSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules.Clone()
}

// Update merges the given limits onto the active set, persists the result,
// and only then makes it visible to evaluations.
func (s *RuleStore) Update(ctx context.Context, overlay alerts.RuleSet) (alerts.RuleSet, error) {
	if len(overlay) == 0 {
		return nil, errors.New("rules: empty update")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := s.rules.Merge(overlay)
	if err := s.repo.Save(ctx, merged); err != nil {
		metrics.IncThresholdUpdate(err)
		return nil, err
	}
	s.rules = merged
	metrics.IncThresholdUpdate(nil)
	return merged.Clone(), nil
}
