// Package pagination computes which page links a listing should render.
package pagination

import (
	"strconv"
	"strings"
)

// DefaultMaxVisible is the width of the page window when the caller does not
// choose one.
const DefaultMaxVisible = 5

// Ellipsis marks an entry that stands for a run of omitted pages.
type Ellipsis string

const (
	EllipsisNone  Ellipsis = ""
	EllipsisStart Ellipsis = "start"
	EllipsisEnd   Ellipsis = "end"
)

// Entry is either a page number or an ellipsis marker.
type Entry struct {
	Page     int      `json:"page,omitempty"`
	Ellipsis Ellipsis `json:"ellipsis,omitempty"`
}

// Page returns a page entry.
func Page(n int) Entry { return Entry{Page: n} }

// IsEllipsis reports whether the entry is a marker rather than a page.
func (e Entry) IsEllipsis() bool { return e.Ellipsis != EllipsisNone }

func (e Entry) String() string {
	if e.IsEllipsis() {
		return "…"
	}
	return strconv.Itoa(e.Page)
}

// ComputeWindow returns the page numbers and ellipsis markers to render for
// currentPage out of totalPages, showing at most maxVisible consecutive pages
// around the current one. Page 1 and the last page are always present.
// Nothing is returned when there is at most one page.
func ComputeWindow(currentPage, totalPages, maxVisible int) []Entry {
	if totalPages <= 1 {
		return nil
	}
	if maxVisible < 1 {
		maxVisible = DefaultMaxVisible
	}

	current := min(max(currentPage, 1), totalPages)

	half := maxVisible / 2
	start := max(1, current-half)
	end := start + maxVisible - 1
	if end > totalPages {
		end = totalPages
		start = max(1, end-maxVisible+1)
	}

	window := make([]Entry, 0, end-start+5)

	switch {
	case start > 2:
		window = append(window, Page(1), Entry{Ellipsis: EllipsisStart})
	case start == 2:
		window = append(window, Page(1))
	}

	for p := start; p <= end; p++ {
		window = append(window, Page(p))
	}

	switch {
	case end < totalPages-1:
		window = append(window, Entry{Ellipsis: EllipsisEnd}, Page(totalPages))
	case end == totalPages-1:
		window = append(window, Page(totalPages))
	}

	return window
}

// Format renders a window the way the console footer prints it, with the
// current page bracketed.
func Format(window []Entry, currentPage int) string {
	parts := make([]string, 0, len(window))
	for _, e := range window {
		if !e.IsEllipsis() && e.Page == currentPage {
			parts = append(parts, "["+e.String()+"]")
			continue
		}
		parts = append(parts, e.String())
	}
	return strings.Join(parts, " ")
}
