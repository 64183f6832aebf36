package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fernleaf/nursery/internal/backend"
	"github.com/fernleaf/nursery/internal/bulkimport"
	"github.com/fernleaf/nursery/internal/config"
	"github.com/fernleaf/nursery/internal/images"
	"github.com/fernleaf/nursery/internal/models"
	"github.com/fernleaf/nursery/internal/notify"
	"github.com/fernleaf/nursery/internal/previews"
	"github.com/fernleaf/nursery/internal/storage"
	"github.com/google/uuid"
)

// Backend is everything the console asks of the storefront API.
type Backend interface {
	images.Uploader
	bulkimport.Importer
	ListProducts(ctx context.Context, page, perPage int) (*backend.ProductPage, error)
	DeleteImage(ctx context.Context, imageURL string, kind backend.ImageKind) error
}

type Handler struct {
	workspaces    *storage.WorkspaceStore
	previews      *previews.Arena
	notifications *notify.Store
	backend       Backend
	cfg           *config.Config

	streamsDone chan struct{}
	stopOnce    sync.Once
}

func New(cfg *config.Config, api Backend, notifications *notify.Store) *Handler {
	return &Handler{
		workspaces:    storage.New(),
		previews:      previews.NewArena(),
		notifications: notifications,
		backend:       api,
		cfg:           cfg,
		streamsDone:   make(chan struct{}),
	}
}

// StopStreams ends every open notification stream so the server can drain.
func (h *Handler) StopStreams() {
	h.stopOnce.Do(func() { close(h.streamsDone) })
}

// Close ends open streams, tears down every workspace and releases their
// previews.
func (h *Handler) Close() {
	h.StopStreams()
	h.workspaces.CloseAll()
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int, details ...string) {
	if code >= http.StatusInternalServerError {
		slog.Error(message, "status", code)
	} else {
		slog.Debug(message, "status", code, "details", details)
	}
	h.writeJSONStatus(w, code, models.ErrorResponse{Error: message, Details: details})
}

// writeFailure maps a domain error onto a status code and writes it. Joined
// errors are spelled out one message per entry.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	var verr *images.ValidationError
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, images.ErrTooManyFiles),
		errors.Is(err, images.ErrNothingToSubmit),
		errors.Is(err, bulkimport.ErrNoFile),
		errors.Is(err, bulkimport.ErrNotCSV),
		errors.Is(err, bulkimport.ErrFileTooLarge),
		errors.As(err, &verr):
		code = http.StatusBadRequest
	case errors.Is(err, images.ErrIndexOutOfRange):
		code = http.StatusNotFound
	case errors.Is(err, images.ErrSubmitInProgress),
		errors.Is(err, bulkimport.ErrUploadInProgress):
		code = http.StatusConflict
	case errors.Is(err, images.ErrClosed):
		code = http.StatusGone
	case errors.As(err, &apiErr):
		code = http.StatusBadGateway
	}

	details := errorMessages(err)
	if len(details) == 1 {
		h.writeError(w, details[0], code)
		return
	}
	h.writeError(w, fmt.Sprintf("%d problems found", len(details)), code, details...)
}

// errorMessages flattens a joined error into one message per entry.
func errorMessages(err error) []string {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range j.Unwrap() {
			out = append(out, errorMessages(e)...)
		}
		return out
	}
	return []string{backend.MessageOf(err)}
}

// Workspace helpers
func (h *Handler) getWorkspaceOrError(w http.ResponseWriter, r *http.Request) (*models.Workspace, bool) {
	ws, exists := h.workspaces.Get(r.PathValue("id"))
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return ws, true
}

func (h *Handler) imageLimits() images.Limits {
	limits := images.DefaultLimits()
	limits.MaxCount = h.cfg.Images.MaxCount
	limits.MaxBytes = h.cfg.Images.MaxBytes
	return limits
}

func (h *Handler) newWorkspace() *models.Workspace {
	fetcher := images.NewFetcher()
	fetcher.MaxBytes = h.cfg.Images.MaxBytes
	fetcher.AllowPrivate = h.cfg.Images.AllowPrivateURLs

	return &models.Workspace{
		ID: uuid.NewString(),
		Images: images.NewManager(h.previews,
			images.WithLimits(h.imageLimits()),
			images.WithFetcher(fetcher),
			images.WithUploader(h.backend),
			images.WithNotifier(h.notifications),
		),
		Import: bulkimport.NewFlow(h.backend,
			bulkimport.WithNotifier(h.notifications),
			bulkimport.WithMaxBytes(h.cfg.Import.MaxBytes),
		),
		CreatedAt: time.Now(),
	}
}
