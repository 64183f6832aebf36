package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/fernleaf/nursery/internal/images"
)

// multipartOverhead covers form boundaries and small fields on top of file
// payloads when capping request bodies.
const multipartOverhead = 1 << 20

// readImageParts reads every file under field. Each part is read up to one
// byte past the per-image ceiling so oversized files still reach validation
// and get a precise message.
func (h *Handler) readImageParts(r *http.Request, field string) ([]images.File, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if isBodyTooLarge(err) {
			return nil, h.imageLimits().TooLarge("")
		}
		return nil, fmt.Errorf("failed to parse upload: %w", err)
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 && field == "files" {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("no files found in form field %q", field)
	}

	modTimes := r.MultipartForm.Value["last_modified"]

	files := make([]images.File, 0, len(headers))
	for i, fh := range headers {
		f, err := readPart(fh, h.cfg.Images.MaxBytes+1)
		if err != nil {
			return nil, err
		}
		f.ModTime = modTimeAt(modTimes, i)
		files = append(files, f)
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader, limit int64) (images.File, error) {
	file, err := fh.Open()
	if err != nil {
		return images.File{}, fmt.Errorf("failed to read file %s: %w", fh.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		return images.File{}, fmt.Errorf("failed to read file contents of %s: %w", fh.Filename, err)
	}

	return images.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// modTimeAt parses the browser-reported lastModified (ms since epoch) for the
// i-th file, defaulting to now.
func modTimeAt(values []string, i int) time.Time {
	if i < len(values) {
		if ms, err := strconv.ParseInt(values[i], 10, 64); err == nil && ms > 0 {
			return time.UnixMilli(ms)
		}
	}
	return time.Now()
}

// isBodyTooLarge reports whether err came from the limitBody cap.
func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

func (h *Handler) limitBody(w http.ResponseWriter, r *http.Request, payload int64) {
	r.Body = http.MaxBytesReader(w, r.Body, payload+multipartOverhead)
}
