package telemetry

import (
	"context"
	"time"
)

// Sync states reported by the controller.
const (
	SyncOnGrid       = "ON-GRID"
	SyncOffGrid      = "OFF-GRID"
	SyncSynchronized = "SYNCHRONIZED"
	SyncUnknown      = "UNKNOWN"
)

// Run states reported on the status topic.
const (
	StatusRunning = "RUNNING"
	StatusStopped = "STOPPED"
)

// Snapshot is the live telemetry state of one generator set. Exactly one
// snapshot exists per device; fields are overwritten as messages arrive.
type Snapshot struct {
	DeviceID  string    `json:"deviceId"`
	Timestamp time.Time `json:"timestamp"`

	RPM     float64 `json:"rpm"`
	Volt    float64 `json:"volt"`
	Amp     float64 `json:"amp"`
	Power   float64 `json:"power"`
	Freq    float64 `json:"freq"`
	Temp    float64 `json:"temp"`
	Coolant float64 `json:"coolant"`
	Fuel    float64 `json:"fuel"`
	Oil     float64 `json:"oil"`
	IAT     float64 `json:"iat"`
	MAP     float64 `json:"map"`
	AFR     float64 `json:"afr"`
	TPS     float64 `json:"tps"`

	Sync   string `json:"sync"`
	Status string `json:"status"`
}

// NewSnapshot returns the default snapshot for a device: numeric fields zero,
// sync unknown, engine stopped.
func NewSnapshot(deviceID string) Snapshot {
	return Snapshot{
		DeviceID: deviceID,
		Sync:     SyncUnknown,
		Status:   StatusStopped,
	}
}

// Field identifies one snapshot field addressed by the transport.
type Field string

const (
	FieldRPM     Field = "rpm"
	FieldVolt    Field = "volt"
	FieldAmp     Field = "amp"
	FieldPower   Field = "power"
	FieldFreq    Field = "freq"
	FieldTemp    Field = "temp"
	FieldFuel    Field = "fuel"
	FieldOil     Field = "oil"
	FieldIAT     Field = "iat"
	FieldMAP     Field = "map"
	FieldAFR     Field = "afr"
	FieldTPS     Field = "tps"
	FieldSync    Field = "sync"
	FieldStatus  Field = "status"
	FieldCoolant Field = "coolant"
)

// FieldUpdate is one normalized transport message applied to the snapshot.
// Malformed marks a numeric payload that failed to parse and was coerced to
// zero instead of leaving the previous reading stale.
type FieldUpdate struct {
	Field     Field
	Value     float64
	Text      string
	Malformed bool
}

// Apply mutates a single field. A temp reading also updates coolant, matching
// the controller wiring where one probe feeds both gauges.
func (s *Snapshot) Apply(u FieldUpdate) {
	switch u.Field {
	case FieldRPM:
		s.RPM = u.Value
	case FieldVolt:
		s.Volt = u.Value
	case FieldAmp:
		s.Amp = u.Value
	case FieldPower:
		s.Power = u.Value
	case FieldFreq:
		s.Freq = u.Value
	case FieldTemp:
		s.Temp = u.Value
		s.Coolant = u.Value
	case FieldCoolant:
		s.Coolant = u.Value
	case FieldFuel:
		s.Fuel = u.Value
	case FieldOil:
		s.Oil = u.Value
	case FieldIAT:
		s.IAT = u.Value
	case FieldMAP:
		s.MAP = u.Value
	case FieldAFR:
		s.AFR = u.Value
	case FieldTPS:
		s.TPS = u.Value
	case FieldSync:
		s.Sync = u.Text
	case FieldStatus:
		s.Status = u.Text
	}
}

// Parameter is a named numeric reading extracted from a snapshot.
type Parameter struct {
	Name  string
	Value float64
}

// Parameters returns the numeric readings in fixed evaluation order.
func (s Snapshot) Parameters() []Parameter {
	return []Parameter{
		{"rpm", s.RPM},
		{"volt", s.Volt},
		{"amp", s.Amp},
		{"freq", s.Freq},
		{"power", s.Power},
		{"coolant", s.Coolant},
		{"temp", s.Temp},
		{"fuel", s.Fuel},
		{"oil", s.Oil},
		{"iat", s.IAT},
		{"map", s.MAP},
		{"afr", s.AFR},
		{"tps", s.TPS},
	}
}

// ParameterNames lists the tracked numeric parameters in evaluation order.
func ParameterNames() []string {
	names := make([]string, 0, 13)
	for _, p := range (Snapshot{}).Parameters() {
		names = append(names, p.Name)
	}
	return names
}

// HistoryRepository appends persisted snapshots.
type HistoryRepository interface {
	Append(ctx context.Context, record Snapshot) (int64, error)
}

// HistoryQuery reads persisted snapshots back.
type HistoryQuery interface {
	Range(ctx context.Context, deviceID string, from, to time.Time, limit int, ascending bool) ([]Snapshot, error)
	Latest(ctx context.Context, deviceID string) (*Snapshot, error)
}

// LatestCache is a hot-path cache of the most recent persisted record.
type LatestCache interface {
	Set(ctx context.Context, record Snapshot) error
	Get(ctx context.Context, deviceID string) (*Snapshot, error)
}
