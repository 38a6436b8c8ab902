package analyzer

import (
	"bytes"
	"calinsight/internal/insights"
	"calinsight/internal/models"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	events   []*models.Event
	err      error
	from, to time.Time
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) ListEvents(_ context.Context, from, to time.Time) ([]*models.Event, error) {
	f.from, f.to = from, to
	return f.events, f.err
}

var monday = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

func setup(t *testing.T, source EventSource) *Analyzer {
	t.Helper()
	wh, err := insights.NewWorkingHours(insights.Clock{Hour: 9}, insights.Clock{Hour: 18}, time.UTC, nil)
	require.NoError(t, err)

	a, err := NewAnalyzer(slog.New(slog.NewTextHandler(io.Discard, nil)), source, wh, insights.Week(monday, time.UTC))
	require.NoError(t, err)
	return a
}

func confirmed(start time.Time, d time.Duration) *models.Event {
	return &models.Event{
		StartTime:               start,
		EndTime:                 start.Add(d),
		Status:                  models.StatusConfirmed,
		GuestsCanSeeOtherGuests: true,
	}
}

func TestAnalyzer_Run(t *testing.T) {
	source := &fakeSource{events: []*models.Event{
		// Out of order on purpose.
		confirmed(monday.Add(14*time.Hour), time.Hour),
		confirmed(monday.Add(10*time.Hour), 2*time.Hour),
		confirmed(monday.Add(11*time.Hour), time.Hour),
	}}
	a := setup(t, source)

	report, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, monday, source.from)
	assert.Equal(t, monday.AddDate(0, 0, 7), source.to)
	assert.Equal(t, 3*time.Hour, report.Summary.Busy)
	assert.Equal(t, 45*time.Hour-3*time.Hour, report.Summary.Free)
	assert.Equal(t, 3, report.Summary.EventCount)
	require.Len(t, report.BusyBlocks, 2)
	assert.Equal(t, monday.Add(10*time.Hour), report.BusyBlocks[0].Start)
}

func TestAnalyzer_RunLogsEachEvent(t *testing.T) {
	standup := confirmed(monday.Add(9*time.Hour), 15*time.Minute)
	standup.ID = "standup_20240506"
	standup.RecurringEventID = "standup"
	holiday := &models.Event{ID: "holiday", StartTime: monday, EndTime: monday.AddDate(0, 0, 1), AllDay: true}

	var logs bytes.Buffer
	wh, err := insights.NewWorkingHours(insights.Clock{Hour: 9}, insights.Clock{Hour: 18}, time.UTC, nil)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a, err := NewAnalyzer(logger, &fakeSource{events: []*models.Event{holiday, standup}}, wh, insights.Week(monday, time.UTC))
	require.NoError(t, err)

	report, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.Fetched)
	assert.Equal(t, 1, report.Summary.EventCount)
	assert.Equal(t, 15*time.Minute, report.Summary.Busy)
	assert.Contains(t, logs.String(), "id=holiday timed=false recurring=false")
	assert.Contains(t, logs.String(), "id=standup_20240506 timed=true recurring=true")
}

func TestAnalyzer_AuthErrorProducesNoReport(t *testing.T) {
	cause := &models.AuthError{Source: "fake", StatusCode: 401, Err: errors.New("invalid credentials")}
	a := setup(t, &fakeSource{err: cause})

	report, err := a.Run(context.Background())
	assert.Nil(t, report)

	var authErr *models.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, 401, authErr.StatusCode)
}

func TestNewAnalyzer_Validation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	wh := insights.WorkingHours{}

	_, err := NewAnalyzer(logger, nil, wh, insights.Week(monday, time.UTC))
	assert.Error(t, err)

	_, err = NewAnalyzer(logger, &fakeSource{}, wh, insights.Interval{Start: monday, End: monday})
	assert.Error(t, err)
}
