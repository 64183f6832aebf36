package backend

import (
	"fmt"

	"github.com/fernleaf/nursery/internal/pagination"
)

// ImportError is one problem the backend found in an uploaded CSV.
type ImportError struct {
	Line    *int   `json:"line,omitempty"`
	Message string `json:"message"`
}

// ImportSummary is the backend's answer to a bulk product import.
type ImportSummary struct {
	Imported int           `json:"imported"`
	Errors   []ImportError `json:"errors"`
}

// ImageKind says which kind of entity an uploaded image belongs to.
type ImageKind string

const (
	ImageKindProduct  ImageKind = "product"
	ImageKindBlog     ImageKind = "blog"
	ImageKindCategory ImageKind = "category"
)

// ParseImageKind validates s as an ImageKind.
func ParseImageKind(s string) (ImageKind, error) {
	switch k := ImageKind(s); k {
	case ImageKindProduct, ImageKindBlog, ImageKindCategory:
		return k, nil
	case "":
		return ImageKindProduct, nil
	default:
		return "", fmt.Errorf("invalid image type %q: must be 'product', 'blog', or 'category'", s)
	}
}

// UploadFile is one file part of an image upload.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// StoredImage is the backend's metadata for a persisted image.
type StoredImage struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// Product is a catalog entry as listed by the backend.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Slug     string  `json:"slug"`
	Category string  `json:"category,omitempty"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Items      []Product `json:"items"`
	Page       int       `json:"page"`
	PerPage    int       `json:"per_page"`
	TotalItems int64     `json:"total_items"`
	TotalPages int       `json:"total_pages"`
}

// normalize fills in paging fields the backend left out.
func (p *ProductPage) normalize(page, perPage int) {
	if p.Page == 0 {
		p.Page = page
	}
	if p.PerPage == 0 {
		p.PerPage = perPage
	}
	if p.TotalPages == 0 {
		p.TotalPages = pagination.TotalPages(p.TotalItems, p.PerPage)
	}
	if p.Items == nil {
		p.Items = []Product{}
	}
}
