package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/roster/internal/api/request"
	"github.com/mcoot/roster/internal/api/response"
	"github.com/mcoot/roster/internal/model"
	"github.com/mcoot/roster/internal/services/roster"
)

// TeamHandler handles team endpoints
type TeamHandler struct {
	roster *roster.Service
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(rosterService *roster.Service) *TeamHandler {
	return &TeamHandler{roster: rosterService}
}

func teamID(r *http.Request) model.TeamID {
	return model.TeamID(mux.Vars(r)["id"])
}

// List handles GET /api/teams
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	teams, err := h.roster.ListTeams(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, teams)
}

// Get handles GET /api/teams/{id}
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	team, err := h.roster.GetTeam(r.Context(), teamID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, team)
}

// Players handles GET /api/teams/{id}/players
func (h *TeamHandler) Players(w http.ResponseWriter, r *http.Request) {
	players, err := h.roster.ListPlayersByTeam(r.Context(), teamID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, players)
}

// Create handles POST /api/teams
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTeamRequest
	if !decode(w, r, &req) {
		return
	}

	team, err := h.roster.CreateTeam(r.Context(), req.Team())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, team)
}

// Update handles PUT /api/teams/{id}
func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateTeamRequest
	if !decode(w, r, &req) {
		return
	}

	team, err := h.roster.UpdateTeam(r.Context(), teamID(r), req)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, team)
}

// Delete handles DELETE /api/teams/{id}
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	team, err := h.roster.DeleteTeam(r.Context(), teamID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, team)
}
