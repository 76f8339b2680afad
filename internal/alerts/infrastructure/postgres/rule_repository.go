package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	alerts "genset-cloud/internal/alerts/domain"
)

const thresholdsConfigKey = "engine_thresholds"

// RuleRepository persists the threshold rule set as a JSON document in the
// engine_config table.
type RuleRepository struct {
	db *sql.DB
}

// NewRuleRepository constructs a repository.
func NewRuleRepository(db *sql.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// Load reads the persisted rule set. Returns (nil, nil) when no row has been
// written yet.
func (r *RuleRepository) Load(ctx context.Context) (alerts.RuleSet, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("rule repo: nil db")
	}
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
SELECT value
FROM engine_config
WHERE key = $1`, thresholdsConfigKey).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var rules alerts.RuleSet
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// Save upserts the complete rule set.
func (r *RuleRepository) Save(ctx context.Context, rules alerts.RuleSet) error {
	if r == nil || r.db == nil {
		return errors.New("rule repo: nil db")
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO engine_config (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, updated_at = NOW()`, thresholdsConfigKey, raw)
	return err
}
