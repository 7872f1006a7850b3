package handler

import (
	"net/http"

	"github.com/mcoot/roster/internal/api/request"
	"github.com/mcoot/roster/internal/api/response"
	"github.com/mcoot/roster/internal/services/roster"
)

// ConfigHandler handles the site configuration endpoints
type ConfigHandler struct {
	roster *roster.Service
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(rosterService *roster.Service) *ConfigHandler {
	return &ConfigHandler{roster: rosterService}
}

// Get handles GET /api/config
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.roster.GetSiteConfig(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, cfg)
}

// Update handles PUT /api/config
func (h *ConfigHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateConfigRequest
	if !decode(w, r, &req) {
		return
	}

	cfg, err := h.roster.UpdateSiteConfig(r.Context(), req)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, cfg)
}
