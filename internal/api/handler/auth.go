package handler

import (
	"net/http"

	"github.com/mcoot/roster/internal/api/middleware"
	"github.com/mcoot/roster/internal/api/request"
	"github.com/mcoot/roster/internal/api/response"
	"github.com/mcoot/roster/internal/dependencies/clock"
	"github.com/mcoot/roster/internal/services/auth"
)

// AuthHandler handles login and session endpoints
type AuthHandler struct {
	authService *auth.Service
	clock       clock.Clock
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, clk clock.Clock) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		clock:       clk,
	}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	session, err := h.authService.Authenticate(r.Context(), req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LoginFromSession(session, h.clock.Now()))
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())

	if err := h.authService.Logout(r.Context(), session.Token); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]bool{"loggedOut": true})
}

// Session handles GET /api/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	response.JSON(w, http.StatusOK, response.SessionFromModel(session, h.clock.Now()))
}
