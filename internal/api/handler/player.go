package handler

import (
	"bufio"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/roster/internal/api/request"
	"github.com/mcoot/roster/internal/api/response"
	"github.com/mcoot/roster/internal/model"
	"github.com/mcoot/roster/internal/services/roster"
)

// MaxImageBytes bounds uploaded player images
const MaxImageBytes = 5 << 20

// PlayerHandler handles player endpoints
type PlayerHandler struct {
	roster *roster.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(rosterService *roster.Service) *PlayerHandler {
	return &PlayerHandler{roster: rosterService}
}

func playerID(r *http.Request) model.PlayerID {
	return model.PlayerID(mux.Vars(r)["id"])
}

// List handles GET /api/players
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	players, err := h.roster.ListPlayers(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, players)
}

// Get handles GET /api/players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	player, err := h.roster.GetPlayer(r.Context(), playerID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, player)
}

// Create handles POST /api/players
func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePlayerRequest
	if !decode(w, r, &req) {
		return
	}

	player, err := h.roster.CreatePlayer(r.Context(), req.Player())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, player)
}

// Update handles PUT /api/players/{id}
func (h *PlayerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdatePlayerRequest
	if !decode(w, r, &req) {
		return
	}

	if req.IsEmpty() {
		WriteError(w, NewInvalidRequestError("no fields to update"))
		return
	}

	player, err := h.roster.UpdatePlayer(r.Context(), playerID(r), req)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, player)
}

// Delete handles DELETE /api/players/{id}
func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	player, err := h.roster.DeletePlayer(r.Context(), playerID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, player)
}

// UploadImage handles POST /api/players/{id}/image with a multipart "image" field
func (h *PlayerHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageBytes+(1<<16))
	file, header, err := r.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, NewInvalidRequestError("image is too large"))
			return
		}
		WriteError(w, NewInvalidRequestError("multipart field \"image\" is required"))
		return
	}
	defer file.Close()

	if header.Size > MaxImageBytes {
		WriteError(w, NewInvalidRequestError("image is too large"))
		return
	}

	// Trust the bytes over the declared part type
	body := bufio.NewReaderSize(file, 512)
	sniff, _ := body.Peek(512)
	contentType := http.DetectContentType(sniff)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	player, err := h.roster.UploadPlayerImage(r.Context(), playerID(r), header.Filename, contentType, body)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, player)
}
