package icalendar

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	ical "github.com/arran4/golang-ical"
	"github.com/klokku/kalendar/pkg/event"
	log "github.com/sirupsen/logrus"
)

const ProductId = "-//klokku//kalendar//EN"

const untitled = "Untitled"

// Export writes all events into a single VCALENDAR. Full day events use DATE
// values with the exclusive end day iCalendar expects.
func Export(events []event.Event, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductId)

	for _, e := range events {
		vEvent := cal.AddEvent(e.Id.String())
		vEvent.SetDtStampTime(stamp)
		vEvent.SetSummary(e.Title)
		if e.Description != "" {
			vEvent.SetDescription(e.Description)
		}
		vEvent.SetProperty(ical.ComponentPropertyColor, e.Color.String())

		switch {
		case event.IsFullDayEvent(e):
			vEvent.SetAllDayStartAt(e.FullDay.From)
			vEvent.SetAllDayEndAt(e.FullDay.To.AddDate(0, 0, 1))
		case event.IsDayEvent(e):
			vEvent.SetStartAt(e.Day.StartTime)
			vEvent.SetEndAt(e.Day.EndTime)
		}
	}
	return cal.Serialize()
}

type ImportResult struct {
	Events  []event.Event
	Skipped int
}

// Import reads the VEVENTs of an iCalendar payload as events without ids.
// Timed events are read in loc and skipped when they don't start and end on
// the same day. Recurrence rules are not expanded, only the first occurrence
// is kept.
func Import(r io.Reader, loc *time.Location, defaultColor event.Color) (ImportResult, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to parse calendar: %w", err)
	}

	result := ImportResult{Events: make([]event.Event, 0)}
	for _, vEvent := range cal.Events() {
		uid := propertyValue(vEvent, ical.ComponentPropertyUniqueId)
		e, err := toEvent(vEvent, loc, defaultColor)
		if err != nil {
			log.Debugf("skipping calendar entry %s: %v", uid, err)
			result.Skipped++
			continue
		}
		if propertyValue(vEvent, ical.ComponentPropertyRrule) != "" {
			log.Debugf("calendar entry %s recurs, importing its first occurrence only", uid)
		}
		result.Events = append(result.Events, e)
	}
	return result, nil
}

func toEvent(vEvent *ical.VEvent, loc *time.Location, defaultColor event.Color) (event.Event, error) {
	title := truncate(strings.TrimSpace(propertyValue(vEvent, ical.ComponentPropertySummary)), event.MaxTitleLength)
	if title == "" {
		title = untitled
	}
	description := truncate(propertyValue(vEvent, ical.ComponentPropertyDescription), event.MaxDescriptionLength)
	color, err := event.ParseColor(strings.ToLower(propertyValue(vEvent, ical.ComponentPropertyColor)))
	if err != nil {
		color = defaultColor
	}

	var e event.Event
	if isAllDay(vEvent) {
		start, err := vEvent.GetAllDayStartAt()
		if err != nil {
			return event.Event{}, err
		}
		from := dateIn(start, loc)
		to := from
		if end, err := vEvent.GetAllDayEndAt(); err == nil && dateIn(end, loc).After(from) {
			to = dateIn(end, loc).AddDate(0, 0, -1)
		}
		e = event.NewFullDayEvent(title, description, color, from, to)
	} else {
		start, err := vEvent.GetStartAt()
		if err != nil {
			return event.Event{}, err
		}
		end, err := vEvent.GetEndAt()
		if err != nil {
			return event.Event{}, err
		}
		e = event.NewDayEvent(title, description, color, start.In(loc), end.In(loc))
	}

	if err := event.ValidatePayload(e); err != nil {
		return event.Event{}, err
	}
	return e, nil
}

// isAllDay detects DATE valued starts, either by the VALUE parameter or by a
// value without a time part.
func isAllDay(vEvent *ical.VEvent) bool {
	dtStart := vEvent.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return false
	}
	if values, ok := dtStart.ICalParameters["VALUE"]; ok && len(values) > 0 && strings.EqualFold(values[0], "DATE") {
		return true
	}
	return !strings.Contains(dtStart.Value, "T")
}

func propertyValue(vEvent *ical.VEvent, property ical.ComponentProperty) string {
	if p := vEvent.GetProperty(property); p != nil {
		return p.Value
	}
	return ""
}

func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func truncate(value string, maxRunes int) string {
	if utf8.RuneCountInString(value) <= maxRunes {
		return value
	}
	return string([]rune(value)[:maxRunes])
}
