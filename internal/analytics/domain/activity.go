// Package analytics derives reporting aggregates from the persisted engine
// history: daily runtime, session statistics, chart downsampling, and
// per-parameter summaries.
package analytics

import (
	"time"

	telemetry "genset-cloud/internal/telemetry/domain"
)

// maxGap is the longest spacing between two records that still counts as
// continuous running. Anything longer is treated as a stop and restart.
const maxGap = 300 * time.Second

// ActivityDay is the accumulated runtime for one calendar day.
type ActivityDay struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// ActiveHoursByDay buckets engine runtime per UTC day over the last days
// days, ending at now. Every day appears in the result, idle days with zero
// hours. Records must be in ascending timestamp order.
func ActiveHoursByDay(records []telemetry.Snapshot, days int, now time.Time) []ActivityDay {
	if days <= 0 {
		days = 7
	}
	now = now.UTC()

	buckets := make(map[string]float64, days)
	order := make([]string, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		buckets[date] = 0
		order = append(order, date)
	}

	for i := 1; i < len(records); i++ {
		if records[i].RPM <= 0 {
			continue
		}
		gap := records[i].Timestamp.Sub(records[i-1].Timestamp)
		if gap <= 0 || gap >= maxGap {
			continue
		}
		date := records[i].Timestamp.UTC().Format("2006-01-02")
		if _, ok := buckets[date]; !ok {
			continue
		}
		buckets[date] += gap.Hours()
	}

	result := make([]ActivityDay, 0, len(order))
	for _, date := range order {
		result = append(result, ActivityDay{Date: date, Hours: buckets[date]})
	}
	return result
}

// SessionStats summarizes engine runtime over a record window.
type SessionStats struct {
	TotalHours          float64 `json:"totalHours"`
	DailyAverage        float64 `json:"dailyAverage"`
	LongestSessionHours float64 `json:"longestSessionHours"`
	DaysActive          int     `json:"daysActive"`
}

// Sessions splits the records into continuous running stretches. A session
// ends when the engine reports zero rpm or when records stop arriving for
// maxGap. Records must be in ascending timestamp order.
func Sessions(records []telemetry.Snapshot) []time.Duration {
	var sessions []time.Duration
	var current time.Duration
	open := false

	for i := 1; i < len(records); i++ {
		gap := records[i].Timestamp.Sub(records[i-1].Timestamp)
		running := records[i].RPM > 0 && gap > 0 && gap < maxGap
		if running {
			current += gap
			open = true
			continue
		}
		if open {
			sessions = append(sessions, current)
			current = 0
			open = false
		}
	}
	if open {
		sessions = append(sessions, current)
	}
	return sessions
}

// ComputeSessionStats derives runtime statistics from ascending records.
func ComputeSessionStats(records []telemetry.Snapshot) SessionStats {
	var stats SessionStats

	daysSeen := make(map[string]struct{})
	for _, r := range records {
		if r.RPM > 0 {
			daysSeen[r.Timestamp.UTC().Format("2006-01-02")] = struct{}{}
		}
	}
	stats.DaysActive = len(daysSeen)

	var total time.Duration
	for _, session := range Sessions(records) {
		total += session
		if session.Hours() > stats.LongestSessionHours {
			stats.LongestSessionHours = session.Hours()
		}
	}
	stats.TotalHours = total.Hours()
	if stats.DaysActive > 0 {
		stats.DailyAverage = stats.TotalHours / float64(stats.DaysActive)
	}
	return stats
}
