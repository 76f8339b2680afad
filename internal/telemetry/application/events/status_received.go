package events

import (
	"time"

	telemetry "genset-cloud/internal/telemetry/domain"
)

// StatusReceived fires when the trigger topic delivers a run-state update. It
// carries the snapshot as of the trigger; subscribers must not see later
// field updates.
type StatusReceived struct {
	DeviceID string
	At       time.Time
	Snapshot telemetry.Snapshot
}
