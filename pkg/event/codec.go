package event

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// EventDTO is the flat wire and storage shape of an Event. Date and time fields
// are RFC 3339 strings and only the ones belonging to the event kind are set.
type EventDTO struct {
	Id          uuid.UUID  `json:"id"`
	Kind        Kind       `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Color       Color      `json:"color"`
	From        *time.Time `json:"from,omitempty"`
	To          *time.Time `json:"to,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     *time.Time `json:"endTime,omitempty"`
}

var location atomic.Pointer[time.Location]

// Location returns the zone decoded timestamps are read in. Calendar dates of
// full day events and the date of day events are taken in this zone, so a
// client's local midnight sent as UTC ("2024-11-03T23:00:00.000Z" from Prague)
// stays on its own day. Defaults to time.Local.
func Location() *time.Location {
	if loc := location.Load(); loc != nil {
		return loc
	}
	return time.Local
}

// SetLocation changes the zone used by Location. nil restores time.Local.
func SetLocation(loc *time.Location) {
	location.Store(loc)
}

func EventToDTO(e Event) EventDTO {
	dto := EventDTO{
		Id:          e.Id,
		Kind:        e.Kind(),
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	if e.FullDay != nil {
		from, to := e.FullDay.From, e.FullDay.To
		dto.From = &from
		dto.To = &to
	}
	if e.Day != nil {
		date, start, end := e.Day.Date, e.Day.StartTime, e.Day.EndTime
		dto.Date = &date
		dto.StartTime = &start
		dto.EndTime = &end
	}
	return dto
}

// DTOToEvent revives every date and time field in Location().
func DTOToEvent(dto EventDTO) (Event, error) {
	loc := Location()
	e := Event{
		Id:          dto.Id,
		Title:       dto.Title,
		Description: dto.Description,
		Color:       dto.Color,
	}
	switch dto.Kind {
	case FullDayKind:
		if dto.From == nil || dto.To == nil {
			return Event{}, fmt.Errorf("%w: full day event requires from and to", ErrInvalidShape)
		}
		e.FullDay = &FullDaySpan{From: StartOfDay(dto.From.In(loc)), To: StartOfDay(dto.To.In(loc))}
	case DayKind:
		if dto.StartTime == nil || dto.EndTime == nil {
			return Event{}, fmt.Errorf("%w: day event requires startTime and endTime", ErrInvalidShape)
		}
		start, end := dto.StartTime.In(loc), dto.EndTime.In(loc)
		date := StartOfDay(start)
		if dto.Date != nil {
			date = StartOfDay(dto.Date.In(loc))
		}
		e.Day = &DaySpan{Date: date, StartTime: start, EndTime: end}
	default:
		return Event{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidShape, dto.Kind)
	}
	return e, nil
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(EventToDTO(e))
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var dto EventDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return err
	}
	decoded, err := DTOToEvent(dto)
	if err != nil {
		return err
	}
	*e = decoded
	return nil
}

// EncodeEvents serializes the list as a single JSON array.
func EncodeEvents(events []Event) (string, error) {
	if events == nil {
		events = []Event{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return "", fmt.Errorf("failed to encode events: %w", err)
	}
	return string(data), nil
}

func DecodeEvents(data string) ([]Event, error) {
	var events []Event
	if err := json.Unmarshal([]byte(data), &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	if events == nil {
		events = []Event{}
	}
	return events, nil
}
