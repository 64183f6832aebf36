package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// UploadImages stores files on the backend and returns their metadata.
// entityID is optional.
func (c *Client) UploadImages(ctx context.Context, kind ImageKind, entityID string, files []UploadFile) ([]StoredImage, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no images to upload")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, f.Name))
		h.Set("Content-Type", f.ContentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("failed to write %s into request: %w", f.Name, err)
		}
	}
	if err := mw.WriteField("type", string(kind)); err != nil {
		return nil, fmt.Errorf("failed to write type field: %w", err)
	}
	if entityID != "" {
		if err := mw.WriteField("entityId", entityID); err != nil {
			return nil, fmt.Errorf("failed to write entityId field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/admin/images", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var raw json.RawMessage
	if err := c.do(req, &raw); err != nil {
		return nil, err
	}
	return decodeStoredImages(raw)
}

// decodeStoredImages accepts either a bare array or an {"images": [...]}
// envelope.
func decodeStoredImages(raw json.RawMessage) ([]StoredImage, error) {
	raw = bytes.TrimSpace(raw)
	var images []StoredImage
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &images); err != nil {
			return nil, fmt.Errorf("failed to decode stored images: %w", err)
		}
		return images, nil
	}

	var envelope struct {
		Images []StoredImage `json:"images"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode stored images: %w", err)
	}
	return envelope.Images, nil
}

// DeleteImage removes a stored image by its URL.
func (c *Client) DeleteImage(ctx context.Context, imageURL string, kind ImageKind) error {
	payload, err := json.Marshal(map[string]string{
		"url":  imageURL,
		"type": string(kind),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodDelete, "/admin/images", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, nil)
}
