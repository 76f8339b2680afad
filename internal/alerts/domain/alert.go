// Package alerts holds the threshold evaluation model: rule sets keyed by
// parameter name, the violations they produce, and the persisted alert record.
package alerts

import (
	"errors"
	"time"
)

// ErrNotFound is returned when an alert id does not exist in the store.
var ErrNotFound = errors.New("alerts: alert not found")

// Severity classifies how far outside its limits a parameter moved.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Alert is a persisted threshold violation.
type Alert struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"deviceId"`
	Parameter string    `json:"parameter"`
	Value     float64   `json:"value"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	Resolved  bool      `json:"resolved"`
}

// Violation is an evaluation result that has not been persisted yet.
type Violation struct {
	Parameter string
	Value     float64
	Message   string
	Severity  Severity
}
