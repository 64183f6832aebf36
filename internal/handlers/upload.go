package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/fernleaf/nursery/internal/backend"
	"github.com/fernleaf/nursery/internal/images"
	"github.com/fernleaf/nursery/internal/notify"
)

type addImagesResponse struct {
	Added    []images.Item `json:"added"`
	Rejected []string      `json:"rejected,omitempty"`
	Images   []images.Item `json:"images"`
}

// HandleAddImages stages images from a multipart upload (field "files") or
// from a JSON body {"urls": [...]}.
func (h *Handler) HandleAddImages(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}

	var (
		added []images.Item
		err   error
	)

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var request struct {
			URLs []string `json:"urls"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if len(request.URLs) == 0 {
			h.writeError(w, "urls is required", http.StatusBadRequest)
			return
		}
		added, err = ws.Images.AddFromURLs(r.Context(), request.URLs)
	} else {
		h.limitBody(w, r, int64(h.cfg.Images.MaxCount)*(h.cfg.Images.MaxBytes+1))
		files, readErr := h.readImageParts(r, "files")
		if readErr != nil {
			h.writeError(w, readErr.Error(), http.StatusBadRequest)
			return
		}
		added, err = ws.Images.Add(files)
	}

	if err != nil && len(added) == 0 {
		h.writeFailure(w, err)
		return
	}

	slog.Info("Images staged", "session_id", ws.ID, "added", len(added))
	h.writeJSON(w, addImagesResponse{
		Added:    added,
		Rejected: errorMessages(err),
		Images:   ws.Images.Items(),
	})
}

func (h *Handler) HandleReplaceImage(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	index, ok := h.indexParam(w, r)
	if !ok {
		return
	}

	h.limitBody(w, r, h.cfg.Images.MaxBytes+1)
	files, err := h.readImageParts(r, "file")
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(files) != 1 {
		h.writeError(w, "Exactly one file is required", http.StatusBadRequest)
		return
	}

	if _, err := ws.Images.Replace(index, files[0]); err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, ws.Images.Items())
}

func (h *Handler) HandleRemoveImage(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	index, ok := h.indexParam(w, r)
	if !ok {
		return
	}

	if err := ws.Images.Remove(index); err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, ws.Images.Items())
}

func (h *Handler) HandleClearImages(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	ws.Images.Clear()
	h.writeJSON(w, ws.Images.Items())
}

func (h *Handler) HandleReorderImages(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}

	var request struct {
		From *int `json:"from"`
		To   *int `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.From == nil || request.To == nil {
		h.writeError(w, "from and to are required", http.StatusBadRequest)
		return
	}

	if err := ws.Images.Reorder(*request.From, *request.To); err != nil {
		h.writeFailure(w, err)
		return
	}
	h.writeJSON(w, ws.Images.Items())
}

func (h *Handler) HandleSubmitImages(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}

	var request struct {
		Type     string `json:"type"`
		EntityID string `json:"entity_id"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	kind, err := backend.ParseImageKind(request.Type)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	stored, err := ws.Images.Submit(r.Context(), kind, request.EntityID)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, map[string]any{
		"stored": stored,
		"images": ws.Images.Items(),
	})
}

// HandleDeleteStoredImage removes an image the backend already stores.
func (h *Handler) HandleDeleteStoredImage(w http.ResponseWriter, r *http.Request) {
	var request struct {
		URL  string `json:"url"`
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.URL == "" {
		h.writeError(w, "url is required", http.StatusBadRequest)
		return
	}
	kind, err := backend.ParseImageKind(request.Type)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.backend.DeleteImage(r.Context(), request.URL, kind); err != nil {
		slog.Error("Unable to delete image", "url", request.URL, "kind", kind, "err", err)
		h.notifications.Error(backend.MessageOf(err), notify.WithTitle("Image not deleted"))
		h.writeFailure(w, err)
		return
	}

	slog.Info("Image deleted", "url", request.URL, "kind", kind)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.writeError(w, "Invalid image index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}
