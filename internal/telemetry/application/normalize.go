package application

import (
	"errors"
	"strconv"
	"strings"

	telemetry "genset-cloud/internal/telemetry/domain"
)

// ErrUnknownTopic is returned for topics outside the fixed gen/* table.
var ErrUnknownTopic = errors.New("telemetry: unknown topic")

type payloadKind int

const (
	kindFloat payloadKind = iota
	kindInt
	kindText
)

var topicTable = map[string]struct {
	field telemetry.Field
	kind  payloadKind
}{
	"gen/rpm":    {telemetry.FieldRPM, kindInt},
	"gen/volt":   {telemetry.FieldVolt, kindFloat},
	"gen/amp":    {telemetry.FieldAmp, kindFloat},
	"gen/power":  {telemetry.FieldPower, kindFloat},
	"gen/freq":   {telemetry.FieldFreq, kindFloat},
	"gen/temp":   {telemetry.FieldTemp, kindFloat},
	"gen/fuel":   {telemetry.FieldFuel, kindFloat},
	"gen/oil":    {telemetry.FieldOil, kindFloat},
	"gen/iat":    {telemetry.FieldIAT, kindFloat},
	"gen/map":    {telemetry.FieldMAP, kindFloat},
	"gen/afr":    {telemetry.FieldAFR, kindFloat},
	"gen/tps":    {telemetry.FieldTPS, kindFloat},
	"gen/sync":   {telemetry.FieldSync, kindText},
	"gen/status": {telemetry.FieldStatus, kindText},
}

// TriggerTopic is the topic whose updates persist the snapshot and run
// threshold evaluation.
const TriggerTopic = "gen/status"

// Normalize maps a transport topic and raw payload to a typed field update.
// Unparsable numeric payloads coerce to zero so a garbage reading cannot go
// stale; the update is flagged Malformed for observability.
func Normalize(topic string, payload []byte) (telemetry.FieldUpdate, error) {
	entry, ok := topicTable[topic]
	if !ok {
		return telemetry.FieldUpdate{}, ErrUnknownTopic
	}

	raw := strings.TrimSpace(string(payload))
	update := telemetry.FieldUpdate{Field: entry.field}

	switch entry.kind {
	case kindText:
		update.Text = raw
	case kindInt:
		value, err := strconv.Atoi(raw)
		if err != nil {
			update.Malformed = true
			break
		}
		update.Value = float64(value)
	default:
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			update.Malformed = true
			break
		}
		update.Value = value
	}
	return update, nil
}

// IsTrigger reports whether the topic is the persistence/evaluation trigger.
func IsTrigger(topic string) bool {
	return topic == TriggerTopic
}
