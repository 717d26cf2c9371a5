package uploads

import (
	"time"

	"github.com/eventlens/eventlensbackend/models"
)

// WindowPolicy derives and evaluates an event's guest upload window. Bounds
// are computed once at event creation and stored on the event; IsOpen only
// reads them back.
type WindowPolicy struct {
	// GraceDays is how many days past the event date uploads stay open.
	GraceDays int
}

// ComputeBounds derives the upload window for an event being created.
// The window opens at the event's start time (or midnight when no start time
// is set) and closes at the end of the day GraceDays after the event date.
func (p WindowPolicy) ComputeBounds(eventDate time.Time, startTime *string) (time.Time, time.Time) {
	from := time.Date(eventDate.Year(), eventDate.Month(), eventDate.Day(), 0, 0, 0, 0, eventDate.Location())

	if startTime != nil {
		if parsed, err := time.Parse("15:04", *startTime); err == nil {
			from = from.Add(time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute)
		}
	}

	lastDay := from.AddDate(0, 0, p.GraceDays)
	until := time.Date(lastDay.Year(), lastDay.Month(), lastDay.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), eventDate.Location())

	return from, until
}

// IsOpen reports whether the event accepts uploads at now, along with the
// stored window bounds. An event without a stored ValidUntil never accepts
// uploads.
func (p WindowPolicy) IsOpen(event *models.Event, now time.Time) (bool, time.Time, time.Time) {
	if event.ValidUntil == nil {
		return false, time.Time{}, time.Time{}
	}

	from := time.Date(event.EventDate.Year(), event.EventDate.Month(), event.EventDate.Day(), 0, 0, 0, 0, event.EventDate.Location())
	if event.ValidFrom != nil {
		from = *event.ValidFrom
	}
	until := *event.ValidUntil

	open := !now.Before(from) && now.Before(until)
	return open, from, until
}
