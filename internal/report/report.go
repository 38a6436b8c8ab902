// Package report renders insight reports for people and for other programs.
package report

import (
	"calinsight/internal/insights"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatICS  Format = "ics"
)

const (
	dailyLabelWidth  = 15
	personLabelWidth = 30
	dayLayout        = "Mon, Jan 2"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatICS:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q, expected text, json or ics", s)
	}
}

// Write renders r in the given format.
func Write(w io.Writer, format Format, r *insights.Report) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatICS:
		return WriteICS(w, r)
	default:
		return WriteText(w, r)
	}
}

// WriteText pretty-prints the summary followed by every known insight.
func WriteText(w io.Writer, r *insights.Report) error {
	p := &printer{w: w}
	wh := r.WorkingHours
	p.printf("Working hours %s-%s %s, %s to %s\n\n", wh.Start, wh.End, wh.Location,
		r.Range.Start.Format("Mon Jan 2 2006"), r.Range.End.Add(-time.Nanosecond).Format("Mon Jan 2 2006"))

	p.println("Summary:")
	p.labeled("Busy time:", FormatDuration(r.Summary.Busy), dailyLabelWidth)
	p.labeled("Free time:", FormatDuration(r.Summary.Free), dailyLabelWidth)
	p.labeled("Events:", fmt.Sprintf("%d", r.Summary.EventCount), dailyLabelWidth)
	p.println("\n")

	p.println("Time per day in all meetings:")
	p.dailyTotals(r.Meetings)
	p.println("\n")

	p.println("Time per day in 1-on-1 meetings:")
	p.dailyTotals(r.OneOnOne)
	p.println("\n")

	p.println("Time per day in group meetings:")
	p.dailyTotals(r.Group)
	p.println("\n")

	p.println("Time per day in unconfirmed meetings:")
	p.dailyTotals(r.Unconfirmed)
	p.println("\n")

	p.println("Time per day lost to < 1 hour gaps between meetings:")
	p.dailyTotals(r.Wasted)
	p.println("\n")

	p.println("Total time spent per people:")
	for _, person := range r.People {
		p.labeled(person.Email+":", FormatDuration(person.Duration), personLabelWidth)
	}
	return p.err
}

// printer keeps the first write error so rendering code stays linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) println(s string) {
	p.printf("%s\n", s)
}

func (p *printer) labeled(label, value string, width int) {
	p.printf("%-*s %s\n", width, label, value)
}

func (p *printer) dailyTotals(days []insights.DailyTotal) {
	var cumulative time.Duration
	for _, d := range days {
		cumulative += d.Duration
		p.labeled(d.Day.Format(dayLayout)+":", FormatDuration(d.Duration), dailyLabelWidth)
	}
	p.labeled("Total:", FormatDuration(cumulative), dailyLabelWidth)
}

// FormatDuration renders d as "2 hours and 5 minutes", with minutes as the smallest unit.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)

	var parts []string
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if minutes > 0 || hours == 0 {
		parts = append(parts, plural(minutes, "minute"))
	}
	return strings.Join(parts, " and ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

type jsonDaily struct {
	Day     string `json:"day"`
	Minutes int64  `json:"minutes"`
}

type jsonPerson struct {
	Email   string `json:"email"`
	Minutes int64  `json:"minutes"`
}

type jsonBlock struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type jsonReport struct {
	From         time.Time `json:"from"`
	To           time.Time `json:"to"`
	WorkingHours struct {
		Start    string   `json:"start"`
		End      string   `json:"end"`
		TimeZone string   `json:"timeZone"`
		Days     []string `json:"days"`
	} `json:"workingHours"`
	Summary struct {
		BusyMinutes   int64 `json:"busyMinutes"`
		FreeMinutes   int64 `json:"freeMinutes"`
		WindowMinutes int64 `json:"windowMinutes"`
		EventCount    int   `json:"eventCount"`
		Fetched       int   `json:"fetched"`
	} `json:"summary"`
	Insights   map[string]any `json:"insights"`
	BusyBlocks []jsonBlock    `json:"busyBlocks"`
}

// WriteJSON renders r as indented JSON with durations in whole minutes.
func WriteJSON(w io.Writer, r *insights.Report) error {
	out := jsonReport{From: r.Range.Start, To: r.Range.End}
	out.WorkingHours.Start = r.WorkingHours.Start.String()
	out.WorkingHours.End = r.WorkingHours.End.String()
	if r.WorkingHours.Location != nil {
		out.WorkingHours.TimeZone = r.WorkingHours.Location.String()
	}
	for _, d := range r.WorkingHours.Days {
		out.WorkingHours.Days = append(out.WorkingHours.Days, d.String())
	}
	out.Summary.BusyMinutes = minutes(r.Summary.Busy)
	out.Summary.FreeMinutes = minutes(r.Summary.Free)
	out.Summary.WindowMinutes = minutes(r.Summary.Window)
	out.Summary.EventCount = r.Summary.EventCount
	out.Summary.Fetched = r.Summary.Fetched

	people := make([]jsonPerson, 0, len(r.People))
	for _, p := range r.People {
		people = append(people, jsonPerson{Email: p.Email, Minutes: minutes(p.Duration)})
	}
	out.Insights = map[string]any{
		insights.NameTimeInMeetings:  daily(r.Meetings),
		insights.NameTimeInOneOnOne:  daily(r.OneOnOne),
		insights.NameTimeInGroup:     daily(r.Group),
		insights.NameTimeUnconfirmed: daily(r.Unconfirmed),
		insights.NameTimeWasted:      daily(r.Wasted),
		insights.NameTimePerPerson:   people,
	}
	out.BusyBlocks = make([]jsonBlock, 0, len(r.BusyBlocks))
	for _, b := range r.BusyBlocks {
		out.BusyBlocks = append(out.BusyBlocks, jsonBlock{Start: b.Start, End: b.End})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func daily(days []insights.DailyTotal) []jsonDaily {
	out := make([]jsonDaily, 0, len(days))
	for _, d := range days {
		out = append(out, jsonDaily{Day: d.Day.Format("2006-01-02"), Minutes: minutes(d.Duration)})
	}
	return out
}

func minutes(d time.Duration) int64 {
	return int64(d.Round(time.Minute) / time.Minute)
}

// WriteICS exports the merged busy blocks as an iCalendar file. Nothing is written
// when there is no busy time, since an empty VCALENDAR cannot be encoded.
func WriteICS(w io.Writer, r *insights.Report) error {
	if len(r.BusyBlocks) == 0 {
		return nil
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//calinsight//EN")

	stamp := time.Now().UTC()
	for _, block := range r.BusyBlocks {
		ve := ical.NewEvent()
		ve.Props.SetText(ical.PropUID, GenerateUID())
		ve.Props.SetText(ical.PropSummary, "Busy")
		ve.Props.SetText(ical.PropTransparency, "OPAQUE")
		ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		ve.Props.SetDateTime(ical.PropDateTimeStart, block.Start.UTC())
		ve.Props.SetDateTime(ical.PropDateTimeEnd, block.End.UTC())
		cal.Children = append(cal.Children, ve.Component)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode busy blocks to iCal format: %w", err)
	}
	return nil
}

// GenerateUID creates a new unique identifier for an exported event.
func GenerateUID() string {
	return uuid.New().String() + "@calinsight"
}
