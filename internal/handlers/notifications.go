package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fernleaf/nursery/internal/notify"
)

func (h *Handler) HandleListNotifications(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.notifications.List())
}

func (h *Handler) HandleCreateNotification(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Kind    string `json:"kind"`
		Title   string `json:"title"`
		Message string `json:"message"`
		Sticky  bool   `json:"sticky"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(request.Message) == "" {
		h.writeError(w, "message is required", http.StatusBadRequest)
		return
	}

	var opts []notify.Option
	if request.Title != "" {
		opts = append(opts, notify.WithTitle(request.Title))
	}
	if request.Sticky {
		opts = append(opts, notify.Sticky())
	}

	id := h.notifications.Show(notify.ParseKind(request.Kind), request.Message, opts...)
	h.writeJSONStatus(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) HandleDismissNotification(w http.ResponseWriter, r *http.Request) {
	if !h.notifications.Remove(r.PathValue("id")) {
		h.writeError(w, "Notification not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleNotificationStream pushes the full notification list as a
// server-sent event every time it changes. Slow clients only ever see the
// latest list.
func (h *Handler) HandleNotificationStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	updates := make(chan []notify.Notification, 1)
	unsubscribe := h.notifications.Subscribe(func(list []notify.Notification) {
		select {
		case <-updates:
		default:
		}
		updates <- list
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, rc, h.notifications.List()); err != nil {
		slog.Debug("Notification stream closed", "err", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.streamsDone:
			return
		case list := <-updates:
			if err := writeEvent(w, rc, list); err != nil {
				slog.Debug("Notification stream closed", "err", err)
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, list []notify.Notification) error {
	if list == nil {
		list = []notify.Notification{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: notifications\ndata: %s\n\n", data); err != nil {
		return err
	}
	return rc.Flush()
}
