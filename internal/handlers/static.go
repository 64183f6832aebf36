package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fernleaf/nursery/internal/previews"
)

// previewPolicy keeps staged files inert when opened directly: SVG previews
// can carry script, and they are served from the console's own origin.
const previewPolicy = "default-src 'none'; img-src 'self' data:; style-src 'unsafe-inline'; sandbox"

// HandlePreview serves the bytes behind a preview URL for as long as the
// preview is live.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	preview, data, err := h.previews.Open(r.PathValue("token"))
	if errors.Is(err, previews.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", preview.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", previewPolicy)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		slog.Error("Unable to write preview", "token", preview.Token, "err", err)
	}
}

func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Unable to write healthcheck", "err", err)
	}
}
