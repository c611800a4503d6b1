package event

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/klokku/kalendar/internal/rest"
	log "github.com/sirupsen/logrus"
)

type EventHandler struct {
	store Store
}

func NewEventHandler(store Store) *EventHandler {
	return &EventHandler{store}
}

// GetEvents godoc
// @Summary List all events
// @Tags Event
// @Produce json
// @Success 200 {array} EventDTO
// @Router /api/event [get]
func (h *EventHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting all events")
	rest.WriteJSON(w, http.StatusOK, h.store.Events())
}

// GetColors godoc
// @Summary List the palette colors in display order
// @Tags Event
// @Produce json
// @Success 200 {array} string
// @Router /api/color [get]
func (h *EventHandler) GetColors(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, Colors)
}

// CreateEvent godoc
// @Summary Create a new event
// @Tags Event
// @Accept json
// @Produce json
// @Param event body EventDTO true "Event without id"
// @Success 201 {object} EventDTO
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/event [post]
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r, ValidatePayload)
	if !ok {
		return
	}

	id, err := h.store.AddEvent(r.Context(), payload)
	if err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Event could not be saved", err.Error())
		return
	}
	created, _ := h.store.GetEvent(id)
	log.Debugf("Event %s created", id)
	rest.WriteJSON(w, http.StatusCreated, created)
}

func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIdFromPath(w, r)
	if !ok {
		return
	}
	payload, ok := decodePayload(w, r, ValidatePayload)
	if !ok {
		return
	}
	if _, found := h.store.GetEvent(id); !found {
		rest.WriteError(w, http.StatusNotFound, "Event not found", "")
		return
	}

	payload.Id = id
	if err := h.store.UpdateEvent(r.Context(), payload); err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Event could not be saved", err.Error())
		return
	}
	updated, _ := h.store.GetEvent(id)
	rest.WriteJSON(w, http.StatusOK, updated)
}

// DeleteEvent removes the event and responds with the undo token that restores it.
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := eventIdFromPath(w, r)
	if !ok {
		return
	}

	undo, err := h.store.RemoveEvent(r.Context(), id)
	if err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Event removal could not be saved", err.Error())
		return
	}
	if undo.Empty() {
		rest.WriteError(w, http.StatusNotFound, "Event not found", "")
		return
	}
	rest.WriteJSON(w, http.StatusOK, undo)
}

func (h *EventHandler) UndoRemoval(w http.ResponseWriter, r *http.Request) {
	var undo Undo
	if err := json.NewDecoder(r.Body).Decode(&undo); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return
	}
	if undo.Empty() {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	err := h.store.ApplyUndo(r.Context(), undo)
	if err != nil {
		if errors.Is(err, ErrUndoConflict) {
			rest.WriteError(w, http.StatusConflict, "Event already exists", err.Error())
			return
		}
		rest.WriteError(w, http.StatusInternalServerError, "Event could not be saved", err.Error())
		return
	}
	restored, _ := h.store.GetEvent(undo.Event.Id)
	rest.WriteJSON(w, http.StatusOK, restored)
}

func (h *EventHandler) GetDraftEvent(w http.ResponseWriter, r *http.Request) {
	draft, found := h.store.DraftEvent()
	if !found {
		rest.WriteError(w, http.StatusNotFound, "No draft event", "")
		return
	}
	rest.WriteJSON(w, http.StatusOK, draft)
}

// SetDraftEvent replaces the draft. The draft mirrors an unfinished form, so
// only the event shape is validated.
func (h *EventHandler) SetDraftEvent(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r, Event.Validate)
	if !ok {
		return
	}
	rest.WriteJSON(w, http.StatusOK, h.store.AddDraftEvent(r.Context(), payload))
}

func (h *EventHandler) DeleteDraftEvent(w http.ResponseWriter, r *http.Request) {
	h.store.RemoveDraftEvent(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *EventHandler) ConfirmDraftEvent(w http.ResponseWriter, r *http.Request) {
	draft, found := h.store.DraftEvent()
	if !found {
		rest.WriteError(w, http.StatusNotFound, "No draft event", "")
		return
	}
	if err := ValidatePayload(draft); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid draft event", err.Error())
		return
	}

	id, err := h.store.ConfirmDraft(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoDraft) {
			rest.WriteError(w, http.StatusNotFound, "No draft event", "")
			return
		}
		rest.WriteError(w, http.StatusInternalServerError, "Event could not be saved", err.Error())
		return
	}
	created, _ := h.store.GetEvent(id)
	rest.WriteJSON(w, http.StatusCreated, created)
}

func eventIdFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["eventId"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event id", "Event id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func decodePayload(w http.ResponseWriter, r *http.Request, validate func(Event) error) (Event, bool) {
	var payload Event
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Debugf("invalid event payload: %v", err)
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", err.Error())
		return Event{}, false
	}
	if err := validate(payload); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event", err.Error())
		return Event{}, false
	}
	return payload, true
}
