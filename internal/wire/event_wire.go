package wire

import (
	"ticket-reservation/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireEvent(r chi.Router, eventHandler *adaptor.EventHandler) {
	// POST /api/events - provision an event and its seat layout
	r.Post("/api/events", eventHandler.CreateEvent)

	// GET /api/events - event catalog listing
	r.Get("/api/events", eventHandler.ListEvents)

	// GET /api/events/{id} - event details
	r.Get("/api/events/{id}", eventHandler.GetEvent)

	// GET /api/events/{id}/seats - seat availability view
	r.Get("/api/events/{id}/seats", eventHandler.GetEventSeats)
}
