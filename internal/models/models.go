package models

import (
	"time"

	"github.com/fernleaf/nursery/internal/backend"
	"github.com/fernleaf/nursery/internal/bulkimport"
	"github.com/fernleaf/nursery/internal/images"
	"github.com/fernleaf/nursery/internal/pagination"
)

// Workspace is the server-side state of one admin console session: the
// images staged for upload and the product import flow.
type Workspace struct {
	ID        string
	Images    *images.Manager
	Import    *bulkimport.Flow
	CreatedAt time.Time
}

// Close releases everything the workspace holds.
func (w *Workspace) Close() {
	w.Images.Close()
}

// View is the JSON shape of a workspace.
func (w *Workspace) View() WorkspaceView {
	return WorkspaceView{
		ID:         w.ID,
		CreatedAt:  w.CreatedAt,
		Images:     w.Images.Items(),
		MaxImages:  w.Images.Limits().MaxCount,
		Submitting: w.Images.Submitting(),
		Import:     w.Import.Status(),
	}
}

// WorkspaceView represents a console session as returned by the API
type WorkspaceView struct {
	ID         string            `json:"id"`
	CreatedAt  time.Time         `json:"created_at"`
	Images     []images.Item     `json:"images"`
	MaxImages  int               `json:"max_images"`
	Submitting bool              `json:"submitting"`
	Import     bulkimport.Status `json:"import"`
}

// ProductListing is one page of products plus the page links to render.
type ProductListing struct {
	Items      []backend.Product  `json:"items"`
	Page       int                `json:"page"`
	PerPage    int                `json:"per_page"`
	TotalItems int64              `json:"total_items"`
	TotalPages int                `json:"total_pages"`
	Window     []pagination.Entry `json:"window"`
}

// ErrorResponse carries every message of a failed request.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}
