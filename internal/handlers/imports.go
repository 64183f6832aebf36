package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fernleaf/nursery/internal/bulkimport"
)

// HandleImport selects the uploaded CSV (form field "file") and runs the
// import. Backend failures still answer 200: the Result carries them.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}

	h.limitBody(w, r, int64(h.cfg.Import.MaxBytes)+1)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if isBodyTooLarge(err) {
			h.writeFailure(w, bulkimport.TooLarge(h.cfg.Import.MaxBytes))
			return
		}
		h.writeError(w, "Failed to parse upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		h.writeFailure(w, bulkimport.ErrNoFile)
		return
	}

	part, err := readPart(headers[0], int64(h.cfg.Import.MaxBytes)+1)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file := bulkimport.File{Name: part.Name, ContentType: part.ContentType, Data: part.Data}
	if err := ws.Import.Select(file); err != nil {
		h.writeFailure(w, err)
		return
	}

	result, err := ws.Import.Submit(r.Context())
	if err != nil {
		if !errors.Is(err, bulkimport.ErrUploadInProgress) {
			slog.Error("Import could not start", "session_id", ws.ID, "err", err)
		}
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, result)
}

func (h *Handler) HandleImportStatus(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, ws.Import.Status())
}
