package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var ErrInvalidShape = errors.New("event must be either a full day event or a day event")
var ErrInvalidRange = errors.New("invalid event date range")
var ErrInvalidPayload = errors.New("invalid event payload")

const (
	MaxTitleLength       = 27
	MaxDescriptionLength = 100
)

type Kind string

const (
	FullDayKind Kind = "FULL_DAY_EVENT"
	DayKind     Kind = "DAY_EVENT"
)

// Event is either a full day event spanning a range of dates or a timed event on
// a single date. Exactly one of FullDay and Day is set.
type Event struct {
	Id          uuid.UUID
	Title       string
	Description string
	Color       Color
	FullDay     *FullDaySpan
	Day         *DaySpan
}

type FullDaySpan struct {
	From time.Time
	To   time.Time
}

type DaySpan struct {
	Date      time.Time
	StartTime time.Time
	EndTime   time.Time
}

func NewFullDayEvent(title, description string, color Color, from, to time.Time) Event {
	return Event{
		Title:       title,
		Description: description,
		Color:       color,
		FullDay:     &FullDaySpan{From: StartOfDay(from), To: StartOfDay(to)},
	}
}

func NewDayEvent(title, description string, color Color, startTime, endTime time.Time) Event {
	return Event{
		Title:       title,
		Description: description,
		Color:       color,
		Day:         &DaySpan{Date: StartOfDay(startTime), StartTime: startTime, EndTime: endTime},
	}
}

func IsFullDayEvent(e Event) bool {
	return e.FullDay != nil && e.Day == nil
}

func IsDayEvent(e Event) bool {
	return e.Day != nil && e.FullDay == nil
}

func (e Event) Kind() Kind {
	if IsFullDayEvent(e) {
		return FullDayKind
	}
	if IsDayEvent(e) {
		return DayKind
	}
	return ""
}

// FirstDay returns the first calendar date the event touches.
func (e Event) FirstDay() time.Time {
	if e.FullDay != nil {
		return StartOfDay(e.FullDay.From)
	}
	if e.Day != nil {
		return StartOfDay(e.Day.Date)
	}
	return time.Time{}
}

// LastDay returns the last calendar date the event touches.
func (e Event) LastDay() time.Time {
	if e.FullDay != nil {
		return StartOfDay(e.FullDay.To)
	}
	if e.Day != nil {
		return StartOfDay(e.Day.Date)
	}
	return time.Time{}
}

// Clone returns a deep copy so stored events can't be mutated through shared spans.
func (e Event) Clone() Event {
	if e.FullDay != nil {
		span := *e.FullDay
		e.FullDay = &span
	}
	if e.Day != nil {
		span := *e.Day
		e.Day = &span
	}
	return e
}

// Validate checks the structural invariants of the event shape.
// Field contents (title, description) are checked by ValidatePayload.
func (e Event) Validate() error {
	if !e.Color.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidColor, int(e.Color))
	}
	switch {
	case IsFullDayEvent(e):
		if e.FullDay.From.IsZero() || e.FullDay.To.IsZero() {
			return fmt.Errorf("%w: from and to are required", ErrInvalidRange)
		}
		if StartOfDay(e.FullDay.From).After(StartOfDay(e.FullDay.To)) {
			return fmt.Errorf("%w: from is after to", ErrInvalidRange)
		}
	case IsDayEvent(e):
		if !e.Day.StartTime.Before(e.Day.EndTime) {
			return fmt.Errorf("%w: start time must be before end time", ErrInvalidRange)
		}
		loc := e.Day.Date.Location()
		if !SameDay(e.Day.Date, e.Day.StartTime.In(loc)) || !SameDay(e.Day.Date, e.Day.EndTime.In(loc)) {
			return fmt.Errorf("%w: start and end time must be on the event date", ErrInvalidRange)
		}
	default:
		return ErrInvalidShape
	}
	return nil
}

// ValidatePayload applies the form rules a client payload must satisfy on top
// of the structural ones.
func ValidatePayload(e Event) error {
	titleLength := utf8.RuneCountInString(strings.TrimSpace(e.Title))
	if titleLength < 1 || utf8.RuneCountInString(e.Title) > MaxTitleLength {
		return fmt.Errorf("%w: title must have 1 to %d characters", ErrInvalidPayload, MaxTitleLength)
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description must have at most %d characters", ErrInvalidPayload, MaxDescriptionLength)
	}
	return e.Validate()
}

// Compare orders events by their start instant, then by palette color and
// finally by id, so that the order is total and deterministic.
func Compare(a, b Event) int {
	if c := startInstant(a).Compare(startInstant(b)); c != 0 {
		return c
	}
	if c := CompareColors(a.Color, b.Color); c != 0 {
		return c
	}
	return strings.Compare(a.Id.String(), b.Id.String())
}

func startInstant(e Event) time.Time {
	if e.Day != nil {
		return e.Day.StartTime
	}
	return e.FirstDay()
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the number of calendar days from a to b, ignoring the
// time of day and daylight saving shifts.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
