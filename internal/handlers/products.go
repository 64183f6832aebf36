package handlers

import (
	"log/slog"
	"net/http"

	"github.com/fernleaf/nursery/internal/backend"
	"github.com/fernleaf/nursery/internal/models"
	"github.com/fernleaf/nursery/internal/pagination"
)

// HandleProducts proxies one page of the catalogue and attaches the page
// links the listing should render.
func (h *Handler) HandleProducts(w http.ResponseWriter, r *http.Request) {
	params := pagination.ParseParams(r.URL.Query(), h.cfg.Products.PerPage, h.cfg.Products.MaxPerPage)

	page, err := h.backend.ListProducts(r.Context(), params.Page, params.PerPage)
	if err != nil {
		slog.Error("Unable to list products", "page", params.Page, "err", err)
		h.writeError(w, backend.MessageOf(err), http.StatusBadGateway)
		return
	}

	items := page.Items
	if items == nil {
		items = []backend.Product{}
	}

	window := pagination.ComputeWindow(page.Page, page.TotalPages, h.cfg.Products.WindowSize)
	if window == nil {
		window = []pagination.Entry{}
	}

	h.writeJSON(w, models.ProductListing{
		Items:      items,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
		Window:     window,
	})
}
