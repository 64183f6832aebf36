package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
)

// ImportProducts sends a product CSV to the backend's bulk import endpoint.
func (c *Client) ImportProducts(ctx context.Context, filename string, r io.Reader) (*ImportSummary, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	h.Set("Content-Type", "text/csv")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("failed to copy CSV into request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/admin/products/import", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var summary ImportSummary
	if err := c.do(req, &summary); err != nil {
		return nil, err
	}
	if summary.Errors == nil {
		summary.Errors = []ImportError{}
	}
	return &summary, nil
}
