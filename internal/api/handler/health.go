package handler

import (
	"net/http"

	"github.com/mcoot/roster/internal/api/response"
	"github.com/mcoot/roster/internal/api/sse"
)

// HealthHandler reports service liveness
type HealthHandler struct {
	storageDriver string
	hub           *sse.Hub
}

// NewHealthHandler creates a new health handler. hub may be nil.
func NewHealthHandler(storageDriver string, hub *sse.Hub) *HealthHandler {
	return &HealthHandler{storageDriver: storageDriver, hub: hub}
}

// Health handles GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := response.Health{Status: "ok", Storage: h.storageDriver}
	if h.hub != nil {
		resp.Subscribers = h.hub.ClientCount()
	}
	response.JSON(w, http.StatusOK, resp)
}
