package pagination

import (
	"net/url"
	"strconv"
)

// Params are the paging inputs of a listing request.
type Params struct {
	Page    int
	PerPage int
}

// ParseParams reads page and per_page from a query string. Missing or invalid
// values fall back to page 1 and defaultPerPage; per_page is capped at
// maxPerPage.
func ParseParams(query url.Values, defaultPerPage, maxPerPage int) Params {
	params := Params{Page: 1, PerPage: defaultPerPage}

	if v, err := strconv.Atoi(query.Get("page")); err == nil && v > 0 {
		params.Page = v
	}
	if v, err := strconv.Atoi(query.Get("per_page")); err == nil && v > 0 {
		params.PerPage = v
	}
	if maxPerPage > 0 && params.PerPage > maxPerPage {
		params.PerPage = maxPerPage
	}

	return params
}

// TotalPages returns how many pages of perPage items totalItems spans.
func TotalPages(totalItems int64, perPage int) int {
	if perPage <= 0 || totalItems <= 0 {
		return 0
	}
	return int((totalItems + int64(perPage) - 1) / int64(perPage))
}
