package analytics

import (
	telemetry "genset-cloud/internal/telemetry/domain"
)

// ParameterSummary aggregates one parameter over a record window.
type ParameterSummary struct {
	Parameter string  `json:"parameter"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Avg       float64 `json:"avg"`
	Latest    float64 `json:"latest"`
	Count     int     `json:"count"`
}

// Summarize computes per-parameter aggregates from ascending records. A
// parameter with no records yields a zero summary with Count 0.
func Summarize(records []telemetry.Snapshot) []ParameterSummary {
	names := telemetry.ParameterNames()
	result := make([]ParameterSummary, 0, len(names))

	for _, name := range names {
		summary := ParameterSummary{Parameter: name}
		var sum float64
		for _, record := range records {
			value := parameterValue(record, name)
			if summary.Count == 0 {
				summary.Min = value
				summary.Max = value
			} else {
				if value < summary.Min {
					summary.Min = value
				}
				if value > summary.Max {
					summary.Max = value
				}
			}
			sum += value
			summary.Latest = value
			summary.Count++
		}
		if summary.Count > 0 {
			summary.Avg = sum / float64(summary.Count)
		}
		result = append(result, summary)
	}
	return result
}

func parameterValue(record telemetry.Snapshot, name string) float64 {
	for _, p := range record.Parameters() {
		if p.Name == name {
			return p.Value
		}
	}
	return 0
}
