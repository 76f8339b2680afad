package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	telemetry "genset-cloud/internal/telemetry/domain"
)

const snapshotColumns = `ts, device_id, rpm, volt, amp, power, freq, temp, coolant,
	fuel, oil, iat, map, afr, tps, sync, status`

// HistoryQuery reads persisted snapshots from Postgres.
type HistoryQuery struct {
	db *sql.DB
}

// NewHistoryQuery constructs a query adapter.
func NewHistoryQuery(db *sql.DB) *HistoryQuery {
	return &HistoryQuery{db: db}
}

// Range returns snapshots inside [from, to] for one device, capped at limit.
func (q *HistoryQuery) Range(ctx context.Context, deviceID string, from, to time.Time, limit int, ascending bool) ([]telemetry.Snapshot, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("history query: nil db")
	}
	if deviceID == "" {
		return nil, errors.New("history query: empty device id")
	}
	if limit <= 0 {
		limit = 1000
	}
	order := "DESC"
	if ascending {
		order = "ASC"
	}
	rows, err := q.db.QueryContext(ctx, `
SELECT `+snapshotColumns+`
FROM engine_history
WHERE device_id = $1 AND ts >= $2 AND ts <= $3
ORDER BY ts `+order+`
LIMIT $4`, deviceID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []telemetry.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Latest returns the most recent persisted snapshot, or nil when the device
// has no history yet.
func (q *HistoryQuery) Latest(ctx context.Context, deviceID string) (*telemetry.Snapshot, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("history query: nil db")
	}
	row := q.db.QueryRowContext(ctx, `
SELECT `+snapshotColumns+`
FROM engine_history
WHERE device_id = $1
ORDER BY ts DESC
LIMIT 1`, deviceID)
	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return snap, nil
}

type snapshotScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row snapshotScanner) (*telemetry.Snapshot, error) {
	var snap telemetry.Snapshot
	if err := row.Scan(
		&snap.Timestamp,
		&snap.DeviceID,
		&snap.RPM,
		&snap.Volt,
		&snap.Amp,
		&snap.Power,
		&snap.Freq,
		&snap.Temp,
		&snap.Coolant,
		&snap.Fuel,
		&snap.Oil,
		&snap.IAT,
		&snap.MAP,
		&snap.AFR,
		&snap.TPS,
		&snap.Sync,
		&snap.Status,
	); err != nil {
		return nil, err
	}
	snap.Timestamp = snap.Timestamp.UTC()
	return &snap, nil
}
