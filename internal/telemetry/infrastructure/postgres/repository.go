package postgres

import (
	"context"
	"database/sql"
	"errors"

	telemetry "genset-cloud/internal/telemetry/domain"
)

// HistoryRepository is a Postgres implementation of the durable snapshot log.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository constructs a repository.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append inserts one stamped snapshot and returns its assigned id.
func (r *HistoryRepository) Append(ctx context.Context, record telemetry.Snapshot) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("history repo: nil db")
	}
	if record.DeviceID == "" || record.Timestamp.IsZero() {
		return 0, errors.New("history repo: invalid record")
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO engine_history (
	ts, device_id, rpm, volt, amp, power, freq, temp, coolant,
	fuel, oil, iat, map, afr, tps, sync, status
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9,
	$10, $11, $12, $13, $14, $15, $16, $17
)
RETURNING id`,
		record.Timestamp,
		record.DeviceID,
		record.RPM,
		record.Volt,
		record.Amp,
		record.Power,
		record.Freq,
		record.Temp,
		record.Coolant,
		record.Fuel,
		record.Oil,
		record.IAT,
		record.MAP,
		record.AFR,
		record.TPS,
		record.Sync,
		record.Status,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}
