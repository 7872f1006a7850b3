package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/roster/internal/services/roster"
	"github.com/mcoot/roster/internal/validation"
)

// ImageHandler serves stored player images
type ImageHandler struct {
	roster *roster.Service
	logger *slog.Logger
}

// NewImageHandler creates a new image handler
func NewImageHandler(rosterService *roster.Service, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{
		roster: rosterService,
		logger: logger.With(slog.String("component", "images")),
	}
}

// Serve handles GET /images/{key}
func (h *ImageHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := validation.ImagePathPrefix + mux.Vars(r)["key"]

	info, body, err := h.roster.OpenImage(r.Context(), key)
	if err != nil {
		WriteError(w, err)
		return
	}
	defer body.Close()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if !info.LastModified.IsZero() {
		w.Header().Set("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	}
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Debug("image copy interrupted", slog.String("key", key), slog.Any("error", err))
	}
}
