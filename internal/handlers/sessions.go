package handlers

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/fernleaf/nursery/internal/models"
)

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	ws := h.newWorkspace()
	h.workspaces.Set(ws.ID, ws)
	slog.Info("Session created", "session_id", ws.ID)
	h.writeJSONStatus(w, http.StatusCreated, ws.View())
}

func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	all := h.workspaces.GetAll()
	list := make([]models.WorkspaceView, 0, len(all))
	for _, ws := range all {
		list = append(list, ws.View())
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	h.writeJSON(w, list)
}

func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.getWorkspaceOrError(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, ws.View())
}

func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.workspaces.Delete(id) {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	slog.Info("Session closed", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}
