package app

import (
	"github.com/gorilla/mux"
	"github.com/klokku/kalendar/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Events
	r.HandleFunc("/api/event", deps.EventHandler.GetEvents).Methods("GET")
	r.HandleFunc("/api/event", deps.EventHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/event/undo", deps.EventHandler.UndoRemoval).Methods("POST")
	r.HandleFunc("/api/color", deps.EventHandler.GetColors).Methods("GET")

	// Draft event
	r.HandleFunc("/api/event/draft", deps.EventHandler.GetDraftEvent).Methods("GET")
	r.HandleFunc("/api/event/draft", deps.EventHandler.SetDraftEvent).Methods("PUT")
	r.HandleFunc("/api/event/draft", deps.EventHandler.DeleteDraftEvent).Methods("DELETE")
	r.HandleFunc("/api/event/draft/confirm", deps.EventHandler.ConfirmDraftEvent).Methods("POST")

	r.HandleFunc("/api/event/{eventId}", deps.EventHandler.UpdateEvent).Methods("PUT")
	r.HandleFunc("/api/event/{eventId}", deps.EventHandler.DeleteEvent).Methods("DELETE")

	// Layout
	r.HandleFunc("/api/layout/week", deps.LayoutHandler.GetWeek).Methods("GET")
	r.HandleFunc("/api/layout/month", deps.LayoutHandler.GetMonth).Methods("GET")

	// Time slots
	r.HandleFunc("/api/timeslot", deps.TimeSlotHandler.GetTimeSlots).Methods("GET")
	r.HandleFunc("/api/timeslot/default-end", deps.TimeSlotHandler.GetDefaultEndTime).Queries("start", "{start}").Methods("GET")

	// iCalendar
	r.HandleFunc("/api/calendar.ics", deps.CalendarHandler.ExportCalendar).Methods("GET")
	r.HandleFunc("/api/calendar.ics", deps.CalendarHandler.ImportCalendar).Methods("POST")

	if cfg.Metrics.Enabled && deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}
}
