package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	maintenance "genset-cloud/internal/maintenance/domain"
)

// TaskRepository is a Postgres repository for maintenance tasks.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository constructs a repository.
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create inserts a new task and returns its assigned id.
func (r *TaskRepository) Create(ctx context.Context, task *maintenance.Task) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("task repo: nil db")
	}
	if task == nil {
		return 0, errors.New("task repo: nil task")
	}
	if task.Status == "" {
		task.Status = maintenance.StatusScheduled
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO maintenance_tasks (task, type, priority, status, due_date, assigned_to, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
		task.Task,
		task.Type,
		task.Priority,
		task.Status,
		task.DueDate,
		task.AssignedTo,
		task.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	task.ID = id
	return id, nil
}

// List returns all tasks in due-date order.
func (r *TaskRepository) List(ctx context.Context) ([]maintenance.Task, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("task repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, task, type, priority, status, due_date, assigned_to, created_at, completed_at
FROM maintenance_tasks
ORDER BY due_date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []maintenance.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID fetches a task. Returns maintenance.ErrNotFound when absent.
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*maintenance.Task, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("task repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, task, type, priority, status, due_date, assigned_to, created_at, completed_at
FROM maintenance_tasks
WHERE id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, maintenance.ErrNotFound
		}
		return nil, err
	}
	return task, nil
}

// Update overwrites the mutable fields of a task.
func (r *TaskRepository) Update(ctx context.Context, task *maintenance.Task) error {
	if r == nil || r.db == nil {
		return errors.New("task repo: nil db")
	}
	if task == nil {
		return errors.New("task repo: nil task")
	}
	var completedAt sql.NullTime
	if task.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *task.CompletedAt, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
UPDATE maintenance_tasks
SET task = $1, type = $2, priority = $3, status = $4, due_date = $5,
	assigned_to = $6, completed_at = $7
WHERE id = $8`,
		task.Task,
		task.Type,
		task.Priority,
		task.Status,
		task.DueDate,
		task.AssignedTo,
		completedAt,
		task.ID,
	)
	if err != nil {
		return err
	}
	return requireTaskRow(res)
}

// Delete removes a task. Returns maintenance.ErrNotFound when absent.
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	if r == nil || r.db == nil {
		return errors.New("task repo: nil db")
	}
	res, err := r.db.ExecContext(ctx, `
DELETE FROM maintenance_tasks
WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireTaskRow(res)
}

type taskScanner interface {
	Scan(dest ...any) error
}

func scanTask(row taskScanner) (*maintenance.Task, error) {
	var task maintenance.Task
	var completedAt sql.NullTime
	if err := row.Scan(
		&task.ID,
		&task.Task,
		&task.Type,
		&task.Priority,
		&task.Status,
		&task.DueDate,
		&task.AssignedTo,
		&task.CreatedAt,
		&completedAt,
	); err != nil {
		return nil, err
	}
	task.DueDate = task.DueDate.UTC()
	task.CreatedAt = task.CreatedAt.UTC()
	if completedAt.Valid {
		t := completedAt.Time.UTC()
		task.CompletedAt = &t
	}
	return &task, nil
}

func requireTaskRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return maintenance.ErrNotFound
	}
	return nil
}
