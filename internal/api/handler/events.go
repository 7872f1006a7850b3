package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mcoot/roster/internal/api/sse"
)

// EventsHandler streams change events to subscribers
type EventsHandler struct {
	hub *sse.Hub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *sse.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream handles GET /api/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sse.ServeSSE(w, r, h.hub, uuid.NewString())
}
