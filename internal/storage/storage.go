package storage

import (
	"sync"

	"github.com/fernleaf/nursery/internal/models"
)

type WorkspaceStore struct {
	workspaces map[string]*models.Workspace
	mu         sync.RWMutex
}

func New() *WorkspaceStore {
	return &WorkspaceStore{
		workspaces: make(map[string]*models.Workspace),
	}
}

func (s *WorkspaceStore) Get(id string) (*models.Workspace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ws, exists := s.workspaces[id]
	return ws, exists
}

func (s *WorkspaceStore) Set(id string, ws *models.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.workspaces[id]; ok && old != ws {
		old.Close()
	}
	s.workspaces[id] = ws
}

func (s *WorkspaceStore) GetAll() map[string]*models.Workspace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*models.Workspace, len(s.workspaces))
	for k, v := range s.workspaces {
		result[k] = v
	}
	return result
}

// Delete removes the workspace and releases its resources. It reports
// whether the workspace existed.
func (s *WorkspaceStore) Delete(id string) bool {
	s.mu.Lock()
	ws, ok := s.workspaces[id]
	delete(s.workspaces, id)
	s.mu.Unlock()

	if ok {
		ws.Close()
	}
	return ok
}

// CloseAll tears down every workspace, typically on shutdown.
func (s *WorkspaceStore) CloseAll() {
	s.mu.Lock()
	all := s.workspaces
	s.workspaces = make(map[string]*models.Workspace)
	s.mu.Unlock()

	for _, ws := range all {
		ws.Close()
	}
}
