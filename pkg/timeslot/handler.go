package timeslot

import (
	"net/http"
	"slices"

	"github.com/klokku/kalendar/internal/rest"
	log "github.com/sirupsen/logrus"
)

type DefaultEndTimeDTO struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type Handler struct {
	generator Generator
}

func NewHandler(generator Generator) *Handler {
	return &Handler{generator}
}

// GetTimeSlots returns the start time choices, or the end time choices with
// durations when the from parameter is given.
func (h *Handler) GetTimeSlots(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	if from == "" {
		rest.WriteJSON(w, http.StatusOK, slices.Collect(h.generator.GenerateTimeSlots()))
		return
	}

	options, err := h.generator.GenerateTimeSlotsFrom(from)
	if err != nil {
		log.Debugf("invalid time slot start: %v", err)
		rest.WriteError(w, http.StatusBadRequest, "Invalid from format", "Time must be in HH:MM format")
		return
	}
	result := slices.Collect(options)
	if result == nil {
		result = []Option{}
	}
	rest.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) GetDefaultEndTime(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	endTime, err := h.generator.DefaultEndTime(start)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid start format", "Time must be in HH:MM format")
		return
	}
	rest.WriteJSON(w, http.StatusOK, DefaultEndTimeDTO{StartTime: start, EndTime: endTime})
}
