package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	alerts "genset-cloud/internal/alerts/domain"
)

// AlertRepository is a Postgres repository for alert records.
type AlertRepository struct {
	db *sql.DB
}

// NewAlertRepository constructs a repository.
func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Insert stores a new alert and returns its assigned id.
func (r *AlertRepository) Insert(ctx context.Context, alert *alerts.Alert) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("alert repo: nil db")
	}
	if alert == nil {
		return 0, errors.New("alert repo: nil alert")
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now().UTC()
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO engine_alerts (ts, device_id, parameter, value, message, severity, resolved)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
		alert.Timestamp,
		alert.DeviceID,
		alert.Parameter,
		alert.Value,
		alert.Message,
		alert.Severity,
		alert.Resolved,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	alert.ID = id
	return id, nil
}

// List returns the most recent alerts, newest first.
func (r *AlertRepository) List(ctx context.Context, limit int) ([]alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, ts, device_id, parameter, value, message, severity, resolved
FROM engine_alerts
ORDER BY ts DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []alerts.Alert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *alert)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID fetches an alert by id. Returns alerts.ErrNotFound when absent.
func (r *AlertRepository) GetByID(ctx context.Context, id int64) (*alerts.Alert, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, ts, device_id, parameter, value, message, severity, resolved
FROM engine_alerts
WHERE id = $1`, id)
	alert, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, alerts.ErrNotFound
		}
		return nil, err
	}
	return alert, nil
}

// MarkResolved sets the resolved flag. Returns alerts.ErrNotFound when the id
// does not exist.
func (r *AlertRepository) MarkResolved(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("alert repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE engine_alerts
SET resolved = TRUE
WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes an alert. Returns alerts.ErrNotFound when the id does not
// exist.
func (r *AlertRepository) Delete(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("alert repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
DELETE FROM engine_alerts
WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// LastAlertAt returns the timestamp of the most recent alert, or the zero
// time when none exist yet.
func (r *AlertRepository) LastAlertAt(ctx context.Context) (time.Time, error) {
	if r == nil || r.db == nil {
		return time.Time{}, errors.New("alert repo: nil db")
	}
	var ts sql.NullTime
	err := r.db.QueryRowContext(ctx, `
SELECT MAX(ts)
FROM engine_alerts`).Scan(&ts)
	if err != nil {
		return time.Time{}, err
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return ts.Time.UTC(), nil
}

type alertScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row alertScanner) (*alerts.Alert, error) {
	var alert alerts.Alert
	if err := row.Scan(
		&alert.ID,
		&alert.Timestamp,
		&alert.DeviceID,
		&alert.Parameter,
		&alert.Value,
		&alert.Message,
		&alert.Severity,
		&alert.Resolved,
	); err != nil {
		return nil, err
	}
	alert.Timestamp = alert.Timestamp.UTC()
	return &alert, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return alerts.ErrNotFound
	}
	return nil
}
