package images

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"
)

// MaxImageBytes is the default per-image size ceiling (10MB).
const MaxImageBytes = 10 * 1024 * 1024

// DefaultMaxCount is the default number of pending images per manager.
const DefaultMaxCount = 10

// AcceptedTypes lists the image MIME types the storefront can store.
var AcceptedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/avif",
	"image/gif",
	"image/svg+xml",
	"image/heic",
	"image/heif",
}

var (
	ErrTooManyFiles     = errors.New("too many images")
	ErrIndexOutOfRange  = errors.New("image index out of range")
	ErrClosed           = errors.New("image manager closed")
	ErrNothingToSubmit  = errors.New("no pending images to upload")
	ErrSubmitInProgress = errors.New("an upload is already in progress")
)

// Limits bounds what a Manager accepts.
type Limits struct {
	MaxCount     int
	MaxBytes     int64
	AllowedTypes []string
}

// DefaultLimits returns the storefront's standard limits.
func DefaultLimits() Limits {
	return Limits{
		MaxCount:     DefaultMaxCount,
		MaxBytes:     MaxImageBytes,
		AllowedTypes: AcceptedTypes,
	}
}

func (l Limits) withDefaults() Limits {
	if l.MaxCount <= 0 {
		l.MaxCount = DefaultMaxCount
	}
	if l.MaxBytes <= 0 {
		l.MaxBytes = MaxImageBytes
	}
	if len(l.AllowedTypes) == 0 {
		l.AllowedTypes = AcceptedTypes
	}
	return l
}

// File is a local image selected by the operator.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	ModTime     time.Time
}

// Size returns the file's length in bytes.
func (f File) Size() int64 { return int64(len(f.Data)) }

// ValidationError describes why a single file was rejected.
type ValidationError struct {
	Filename string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Filename == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Filename, e.Reason)
}

// TooLarge is the rejection for a file over the size limit. name may be
// empty when the request was cut off before the file could be identified.
func (l Limits) TooLarge(name string) *ValidationError {
	return &ValidationError{
		Filename: name,
		Reason:   fmt.Sprintf("file too large (max %s)", formatBytes(l.MaxBytes)),
	}
}

// MediaType returns the file's declared type, falling back to its extension
// when the declaration is missing or generic.
func MediaType(f File) string {
	declared := f.ContentType
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mt
	}
	declared = strings.ToLower(strings.TrimSpace(declared))

	if declared == "" || declared == "application/octet-stream" {
		declared = extensionType(f.Name)
	}
	if declared == "image/jpg" || declared == "image/pjpeg" {
		declared = "image/jpeg"
	}
	return declared
}

func extensionType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	case ".avif":
		return "image/avif"
	case ".webp":
		return "image/webp"
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
	}
	return ""
}

// Validate checks one file against the limits.
func (l Limits) Validate(f File) error {
	mt := MediaType(f)
	allowed := false
	for _, t := range l.AllowedTypes {
		if t == mt {
			allowed = true
			break
		}
	}
	if !allowed {
		shown := mt
		if shown == "" {
			shown = "unknown type"
		}
		return &ValidationError{Filename: f.Name, Reason: fmt.Sprintf("unsupported file type (%s)", shown)}
	}
	if f.Size() > l.MaxBytes {
		return l.TooLarge(f.Name)
	}
	return nil
}

func formatBytes(n int64) string {
	const mb = 1024 * 1024
	if n >= mb && n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
