package handlers

import (
	"net/http"

	"github.com/fernleaf/nursery/internal/previews"
)

// Routes registers every console endpoint on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/sessions", h.HandleCreateSession)
	mux.HandleFunc("GET /api/sessions", h.HandleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", h.HandleSessionDetail)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.HandleDeleteSession)

	mux.HandleFunc("POST /api/sessions/{id}/images", h.HandleAddImages)
	mux.HandleFunc("DELETE /api/sessions/{id}/images", h.HandleClearImages)
	mux.HandleFunc("PUT /api/sessions/{id}/images/{index}", h.HandleReplaceImage)
	mux.HandleFunc("DELETE /api/sessions/{id}/images/{index}", h.HandleRemoveImage)
	mux.HandleFunc("POST /api/sessions/{id}/images/reorder", h.HandleReorderImages)
	mux.HandleFunc("POST /api/sessions/{id}/images/submit", h.HandleSubmitImages)

	mux.HandleFunc("DELETE /api/images", h.HandleDeleteStoredImage)

	mux.HandleFunc("POST /api/sessions/{id}/import", h.HandleImport)
	mux.HandleFunc("GET /api/sessions/{id}/import", h.HandleImportStatus)

	mux.HandleFunc("GET /api/products", h.HandleProducts)

	mux.HandleFunc("GET /api/notifications", h.HandleListNotifications)
	mux.HandleFunc("POST /api/notifications", h.HandleCreateNotification)
	mux.HandleFunc("DELETE /api/notifications/{id}", h.HandleDismissNotification)
	mux.HandleFunc("GET /api/notifications/stream", h.HandleNotificationStream)

	mux.HandleFunc("GET "+previews.PathPrefix+"{token}", h.HandlePreview)
	mux.HandleFunc("GET /healthcheck", h.HandleHealthcheck)

	return mux
}
