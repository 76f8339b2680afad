// Package maintenance tracks scheduled service work for the generator.
package maintenance

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a task id does not exist.
var ErrNotFound = errors.New("maintenance: task not found")

// Task statuses.
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Task is one unit of scheduled service work.
type Task struct {
	ID          int64      `json:"id"`
	Task        string     `json:"task"`
	Type        string     `json:"type"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     time.Time  `json:"dueDate"`
	AssignedTo  string     `json:"assignedTo"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Validate checks the fields a new task must carry.
func (t *Task) Validate() error {
	if t.Task == "" {
		return errors.New("maintenance: empty task description")
	}
	if t.DueDate.IsZero() {
		return errors.New("maintenance: missing due date")
	}
	return nil
}
