package models

import (
	"strings"
	"time"
)

// Event types reported by Google Calendar that never represent a meeting.
const (
	EventTypeDefault         = "default"
	EventTypeOutOfOffice     = "outOfOffice"
	EventTypeFocusTime       = "focusTime"
	EventTypeWorkingLocation = "workingLocation"
)

// Event and response status values.
const (
	StatusConfirmed = "confirmed"
	StatusTentative = "tentative"
	StatusCancelled = "cancelled"

	ResponseAccepted    = "accepted"
	ResponseDeclined    = "declined"
	ResponseTentative   = "tentative"
	ResponseNeedsAction = "needsAction"

	TransparencyOpaque      = "opaque"
	TransparencyTransparent = "transparent"
)

// Event represents a standard calendar event.
// This is an internal representation, independent of any specific calendar provider.
type Event struct {
	ID               string     // Unique identifier for the event (e.g., from the source calendar)
	UID              string     // The iCalendar UID
	Title            string     // Summary or title of the event
	StartTime        time.Time  // Start time of the event
	EndTime          time.Time  // End time of the event
	AllDay           bool       // Date-only events carry no usable time of day
	EventType        string     // "default", "outOfOffice", "focusTime", "workingLocation"
	Status           string     // "confirmed", "tentative", "cancelled"
	Transparency     string     // "opaque" or "transparent"
	Organizer        Attendee   // Organizer of the event
	Attendees        []Attendee // Invited attendees, resources included
	AttendeesOmitted bool       // The source says the attendee list is incomplete
	// GuestsCanSeeOtherGuests defaults to true at the source; converters must set it.
	GuestsCanSeeOtherGuests bool
	RecurringEventID        string // Set on instances of a recurring event
	Source                  string // The source of the event (e.g., "google-primary")
}

// Attendee is a participant of an event.
type Attendee struct {
	Email            string
	Self             bool
	Resource         bool
	ResponseStatus   string
	AdditionalGuests int
}

// Accepted reports whether the attendee accepted the invitation.
func (a Attendee) Accepted() bool {
	return a.ResponseStatus == ResponseAccepted
}

// Duration returns the length of the event.
func (e *Event) Duration() time.Duration {
	return e.EndTime.Sub(e.StartTime)
}

// IsTimed reports whether the event has a usable start and end.
func (e *Event) IsTimed() bool {
	return !e.AllDay && !e.StartTime.IsZero() && !e.EndTime.IsZero() && e.EndTime.After(e.StartTime)
}

// IsMeeting excludes all-day events as well as non-meeting events like focus time
// or working location indicators.
func (e *Event) IsMeeting() bool {
	switch e.EventType {
	case EventTypeOutOfOffice, EventTypeFocusTime, EventTypeWorkingLocation:
		return false
	}
	return e.IsTimed()
}

// SelfAttendee returns the attendee entry for the calendar owner, if any.
func (e *Event) SelfAttendee() (Attendee, bool) {
	for _, a := range e.Attendees {
		if a.Self {
			return a, true
		}
	}
	return Attendee{}, false
}

// IsAccepted reports whether the calendar owner accepted the event. Events without
// a self attendee (time blocked by the owner) count as accepted.
func (e *Event) IsAccepted() bool {
	self, ok := e.SelfAttendee()
	if !ok {
		return true
	}
	return self.Accepted()
}

// IsDeclined reports whether the calendar owner declined the event.
func (e *Event) IsDeclined() bool {
	self, ok := e.SelfAttendee()
	return ok && self.ResponseStatus == ResponseDeclined
}

// IsConfirmed reports whether the organizer confirmed the event.
func (e *Event) IsConfirmed() bool {
	return e.Status == StatusConfirmed
}

// IsBusy reports whether the event blocks time on the calendar.
func (e *Event) IsBusy() bool {
	if e.Transparency == TransparencyTransparent {
		return false
	}
	return e.IsAccepted()
}

// IsPending reports whether the event still waits for confirmation or a response.
func (e *Event) IsPending() bool {
	if e.Status == "" || e.Status == StatusTentative {
		return true
	}
	if self, ok := e.SelfAttendee(); ok {
		switch self.ResponseStatus {
		case "", ResponseNeedsAction, ResponseTentative:
			return true
		}
	}
	return false
}

// HumanAttendees returns the attendees that are not rooms or other resources.
func (e *Event) HumanAttendees() []Attendee {
	var out []Attendee
	for _, a := range e.Attendees {
		if !a.Resource {
			out = append(out, a)
		}
	}
	return out
}

// findAttendee looks up an attendee by email.
func (e *Event) findAttendee(email string) bool {
	for _, a := range e.Attendees {
		if strings.EqualFold(a.Email, email) {
			return true
		}
	}
	return false
}

// organizerIsAttendee reports whether the organizer should be counted on top of the
// attendee list.
func (e *Event) organizerIsAttendee() bool {
	if e.Organizer.Self {
		return false
	}
	if strings.HasSuffix(e.Organizer.Email, "calendar.google.com") {
		return false
	}
	return !e.findAttendee(e.Organizer.Email)
}

// AttendeeCount counts the people in the meeting, additional guests included.
func (e *Event) AttendeeCount() int {
	count := 0
	if e.organizerIsAttendee() {
		count++
	}
	for _, a := range e.HumanAttendees() {
		count += 1 + a.AdditionalGuests
	}
	return count
}

// AttendeesMissing reports whether the attendee list may be incomplete.
func (e *Event) AttendeesMissing() bool {
	if e.AttendeesOmitted {
		return true
	}
	return !e.Organizer.Self && !e.GuestsCanSeeOtherGuests
}

// IsOneOnOne reports whether the event is (probably) a 1-on-1 meeting.
// A meeting where one of the two participants is a group is miscounted.
func (e *Event) IsOneOnOne() bool {
	if !e.IsMeeting() || e.AttendeesMissing() {
		return false
	}
	return e.AttendeeCount() == 2
}

// IsGroupMeeting reports whether the event is a meeting with 3+ attendees.
func (e *Event) IsGroupMeeting() bool {
	if !e.IsMeeting() {
		return false
	}
	if e.AttendeesMissing() {
		return true
	}
	return e.AttendeeCount() >= 3
}

// IsRecurring reports whether the event is an instance of a recurring event.
func (e *Event) IsRecurring() bool {
	return e.RecurringEventID != ""
}
