package icalendar

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/kalendar/internal/rest"
	"github.com/klokku/kalendar/internal/utils"
	"github.com/klokku/kalendar/pkg/event"
	log "github.com/sirupsen/logrus"
)

const maxImportSize = 1 << 20

type EventStore interface {
	Events() []event.Event
	AddEvent(ctx context.Context, payload event.Event) (uuid.UUID, error)
}

type ImportResultDTO struct {
	Imported []uuid.UUID `json:"imported"`
	Skipped  int         `json:"skipped"`
}

type Handler struct {
	store    EventStore
	location *time.Location
	clock    utils.Clock
}

// NewHandler imports timed entries in location.
func NewHandler(store EventStore, location *time.Location, clock utils.Clock) *Handler {
	return &Handler{store: store, location: location, clock: clock}
}

// ExportCalendar godoc
// @Summary Export all events as iCalendar
// @Tags Calendar
// @Produce text/calendar
// @Success 200 {string} string "VCALENDAR"
// @Router /api/calendar.ics [get]
func (h *Handler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	events := h.store.Events()
	log.Debugf("Exporting %d events", len(events))

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="kalendar.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(Export(events, h.clock.Now()))); err != nil {
		log.Errorf("failed to write calendar export: %v", err)
	}
}

// ImportCalendar adds every importable VEVENT of the request body as a new event.
// The color query parameter is used for entries without a palette color.
func (h *Handler) ImportCalendar(w http.ResponseWriter, r *http.Request) {
	defaultColor := event.Zinc
	if value := r.URL.Query().Get("color"); value != "" {
		color, err := event.ParseColor(value)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid color", err.Error())
			return
		}
		defaultColor = color
	}

	result, err := Import(http.MaxBytesReader(w, r.Body, maxImportSize), h.location, defaultColor)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid calendar", err.Error())
		return
	}

	imported := make([]uuid.UUID, 0, len(result.Events))
	for _, e := range result.Events {
		id, err := h.store.AddEvent(r.Context(), e)
		if err != nil {
			rest.WriteError(w, http.StatusInternalServerError, "Imported events could not be saved", err.Error())
			return
		}
		imported = append(imported, id)
	}
	log.Infof("Imported %d events, skipped %d", len(imported), result.Skipped)
	rest.WriteJSON(w, http.StatusCreated, ImportResultDTO{Imported: imported, Skipped: result.Skipped})
}
