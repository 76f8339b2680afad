// Package application assembles reporting views over the persisted engine
// history.
package application

import (
	"context"
	"errors"
	"time"

	analytics "genset-cloud/internal/analytics/domain"
	telemetry "genset-cloud/internal/telemetry/domain"
)

const (
	defaultActivityDays  = 7
	defaultChartTarget   = 200
	activityRecordsLimit = 50000
)

// Clock abstracts time for tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// ReportService computes activity, chart, and summary reports.
type ReportService struct {
	deviceID string
	query    telemetry.HistoryQuery
	clock    Clock
}

// Option configures the service.
type Option func(*ReportService)

// WithClock overrides the wall clock.
func WithClock(clock Clock) Option {
	return func(s *ReportService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewReportService constructs a report service.
func NewReportService(deviceID string, query telemetry.HistoryQuery, opts ...Option) (*ReportService, error) {
	if deviceID == "" {
		return nil, errors.New("reports: empty device id")
	}
	if query == nil {
		return nil, errors.New("reports: nil query")
	}
	s := &ReportService{deviceID: deviceID, query: query, clock: systemClock{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Activity returns per-day runtime for the trailing window.
func (s *ReportService) Activity(ctx context.Context, days int) ([]analytics.ActivityDay, error) {
	if days <= 0 {
		days = defaultActivityDays
	}
	now := s.clock.Now()
	records, err := s.ascendingRange(ctx, now.AddDate(0, 0, -days), now)
	if err != nil {
		return nil, err
	}
	return analytics.ActiveHoursByDay(records, days, now), nil
}

// Chart returns downsampled points for the given window.
func (s *ReportService) Chart(ctx context.Context, from, to time.Time, target int, params []string) ([]analytics.Point, error) {
	if target <= 0 {
		target = defaultChartTarget
	}
	if len(params) == 0 {
		params = telemetry.ParameterNames()
	}
	records, err := s.ascendingRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	points := snapshotsToPoints(records, params)
	return analytics.Downsample(points, target, params), nil
}

// Summary returns session statistics and per-parameter aggregates.
func (s *ReportService) Summary(ctx context.Context, from, to time.Time) (analytics.SessionStats, []analytics.ParameterSummary, error) {
	records, err := s.ascendingRange(ctx, from, to)
	if err != nil {
		return analytics.SessionStats{}, nil, err
	}
	return analytics.ComputeSessionStats(records), analytics.Summarize(records), nil
}

func (s *ReportService) ascendingRange(ctx context.Context, from, to time.Time) ([]telemetry.Snapshot, error) {
	return s.query.Range(ctx, s.deviceID, from, to, activityRecordsLimit, true)
}

func snapshotsToPoints(records []telemetry.Snapshot, params []string) []analytics.Point {
	points := make([]analytics.Point, 0, len(records))
	for _, record := range records {
		values := make(map[string]*float64, len(params))
		for _, p := range record.Parameters() {
			v := p.Value
			values[p.Name] = &v
		}
		points = append(points, analytics.Point{Timestamp: record.Timestamp, Values: values})
	}
	return points
}
