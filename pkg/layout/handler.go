package layout

import (
	"net/http"
	"strconv"
	"time"

	"github.com/klokku/kalendar/internal/rest"
	"github.com/klokku/kalendar/internal/utils"
	"github.com/klokku/kalendar/pkg/event"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	log "github.com/sirupsen/logrus"
)

const DateFormat = "2006-01-02"

// dateParser reads relative dates such as "tomorrow" or "next friday".
var dateParser = newDateParser()

func newDateParser() *when.Parser {
	parser := when.New(nil)
	parser.Add(en.All...)
	parser.Add(common.All...)
	return parser
}

// EventSource is the read side of the event store the layout is computed from.
type EventSource interface {
	Events() []event.Event
	DraftEvent() (event.Event, bool)
}

type MonthLayoutDTO struct {
	Month string       `json:"month"`
	Weeks []WeekLayout `json:"weeks"`
}

type Handler struct {
	events       EventSource
	capacity     int
	weekFirstDay time.Weekday
	location     *time.Location
	clock        utils.Clock
}

// NewHandler lays out weeks whose days start at midnight in location.
func NewHandler(events EventSource, capacity int, weekFirstDay time.Weekday, location *time.Location, clock utils.Clock) *Handler {
	return &Handler{events: events, capacity: capacity, weekFirstDay: weekFirstDay, location: location, clock: clock}
}

// GetWeek godoc
// @Summary Week layout
// @Tags Layout
// @Produce json
// @Param date query string false "Any date of the week (2006-01-02 or relative like next monday), defaults to today"
// @Param week query string false "ISO week (2024-W45), overrides date"
// @Param capacity query int false "Visible cells per day"
// @Success 200 {object} WeekLayout
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/layout/week [get]
func (h *Handler) GetWeek(w http.ResponseWriter, r *http.Request) {
	capacity, ok := h.capacityParam(w, r)
	if !ok {
		return
	}

	var start time.Time
	if isoWeek := r.URL.Query().Get("week"); isoWeek != "" {
		week, err := WeekNumberFromString(isoWeek)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid week format", "Week must be in ISO format, e.g. 2024-W45")
			return
		}
		start = week.FirstDay(h.weekFirstDay, h.location)
	} else {
		date, ok := h.dateParam(w, r)
		if !ok {
			return
		}
		start = WeekStart(date, h.weekFirstDay)
	}

	log.Tracef("Computing week layout starting %s", start.Format(DateFormat))
	draft := h.draft(r)
	rest.WriteJSON(w, http.StatusOK, Week(DaysOfWeek(start), h.events.Events(), draft, capacity))
}

func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	capacity, ok := h.capacityParam(w, r)
	if !ok {
		return
	}
	date, ok := h.dateParam(w, r)
	if !ok {
		return
	}

	draft := h.draft(r)
	rest.WriteJSON(w, http.StatusOK, MonthLayoutDTO{
		Month: date.Format("2006-01"),
		Weeks: Month(date, h.weekFirstDay, h.events.Events(), draft, capacity),
	})
}

func (h *Handler) draft(r *http.Request) *event.Event {
	if r.URL.Query().Get("draft") == "false" {
		return nil
	}
	draft, found := h.events.DraftEvent()
	if !found {
		return nil
	}
	return &draft
}

func (h *Handler) dateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	value := r.URL.Query().Get("date")
	if value == "" {
		return event.StartOfDay(h.clock.Now().In(h.location)), true
	}
	if date, err := time.ParseInLocation(DateFormat, value, h.location); err == nil {
		return date, true
	}
	result, err := dateParser.Parse(value, h.clock.Now().In(h.location))
	if err != nil || result == nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date format", "Date must be in 2006-01-02 format or a relative date like tomorrow")
		return time.Time{}, false
	}
	return event.StartOfDay(result.Time), true
}

func (h *Handler) capacityParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	value := r.URL.Query().Get("capacity")
	if value == "" {
		return h.capacity, true
	}
	capacity, err := strconv.Atoi(value)
	if err != nil || capacity < 0 {
		rest.WriteError(w, http.StatusBadRequest, "Invalid capacity", "Capacity must be a non-negative integer")
		return 0, false
	}
	return capacity, true
}
