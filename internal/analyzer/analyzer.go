package analyzer

import (
	"calinsight/internal/insights"
	"calinsight/internal/models"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// EventSource lists the events of one calendar.
type EventSource interface {
	Name() string
	ListEvents(ctx context.Context, from, to time.Time) ([]*models.Event, error)
}

// Analyzer orchestrates one insight run: fetch events, then compute the report.
type Analyzer struct {
	logger *slog.Logger
	source EventSource
	hours  insights.WorkingHours
	rng    insights.Interval
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(logger *slog.Logger, source EventSource, hours insights.WorkingHours, rng insights.Interval) (*Analyzer, error) {
	if source == nil {
		return nil, fmt.Errorf("an event source is required")
	}
	if rng.Empty() {
		return nil, fmt.Errorf("empty query range %s", rng)
	}
	return &Analyzer{
		logger: logger,
		source: source,
		hours:  hours,
		rng:    rng,
	}, nil
}

// Run fetches every event in the range and computes the insights. Fetch errors are
// returned as-is; no partial report is produced.
func (a *Analyzer) Run(ctx context.Context) (*insights.Report, error) {
	a.logger.Info("Starting insight run.", "source", a.source.Name(), "from", a.rng.Start, "to", a.rng.End,
		"workingHours", fmt.Sprintf("%s-%s %s", a.hours.Start, a.hours.End, a.hours.Location))

	events, err := a.source.ListEvents(ctx, a.rng.Start, a.rng.End)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events from %s: %w", a.source.Name(), err)
	}
	a.logger.Info("Fetched events.", "count", len(events))

	// Events are expected to be processed in chronological order.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})

	calc := insights.NewCalculator(a.hours, a.rng)
	for _, event := range events {
		// Untimed events are only counted as fetched.
		a.logger.Debug("Processing event.", "title", event.Title, "id", event.ID,
			"timed", event.IsTimed(), "recurring", event.IsRecurring())
		calc.Process(event)
	}

	report := calc.Report()
	a.logger.Info("Insight run finished.", "busy", report.Summary.Busy, "free", report.Summary.Free, "events", report.Summary.EventCount)
	return report, nil
}
