// Package bulkimport drives a bulk product import: pick a CSV, hand it to
// the backend, and keep the normalized result for display.
//
// A Flow moves Idle -> Uploading -> Complete, and back to Idle when a new
// file is selected. Only one upload runs per Flow.
package bulkimport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fernleaf/nursery/internal/backend"
	"github.com/fernleaf/nursery/internal/notify"
)

// MaxCSVBytes is the largest CSV the console will forward (10MB).
const MaxCSVBytes = 10 * 1024 * 1024

// State is the stage a Flow is in.
type State string

const (
	StateIdle      State = "idle"
	StateUploading State = "uploading"
	StateComplete  State = "complete"
)

var (
	ErrNoFile           = errors.New("no CSV file selected")
	ErrUploadInProgress = errors.New("an import is already in progress")
	ErrNotCSV           = errors.New("file is not a CSV")
	ErrFileTooLarge     = errors.New("CSV file too large")
)

// csvTypes are the declared types browsers and spreadsheet tools use for CSV.
var csvTypes = map[string]bool{
	"text/csv":                    true,
	"application/csv":             true,
	"text/comma-separated-values": true,
	"application/vnd.ms-excel":    true,
}

// File is a CSV chosen for import.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Importer forwards a CSV to the backend.
type Importer interface {
	ImportProducts(ctx context.Context, filename string, r io.Reader) (*backend.ImportSummary, error)
}

// Notifier receives the outcome of each import.
type Notifier interface {
	Show(kind notify.Kind, message string, opts ...notify.Option) string
}

// Status is a point-in-time view of a Flow.
type Status struct {
	State    State   `json:"state"`
	FileName string  `json:"file_name,omitempty"`
	Result   *Result `json:"result,omitempty"`
}

// Flow runs one import at a time. It is safe for concurrent use.
type Flow struct {
	mu     sync.Mutex
	state  State
	file   *File
	result *Result

	importer Importer
	notifier Notifier
	maxBytes int
}

// Option configures a Flow.
type Option func(*Flow)

// WithNotifier reports import outcomes to n.
func WithNotifier(n Notifier) Option {
	return func(f *Flow) { f.notifier = n }
}

// WithMaxBytes overrides the CSV size ceiling.
func WithMaxBytes(n int) Option {
	return func(f *Flow) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// NewFlow creates an idle flow that imports through importer.
func NewFlow(importer Importer, opts ...Option) *Flow {
	f := &Flow{
		state:    StateIdle,
		importer: importer,
		maxBytes: MaxCSVBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ValidateFile checks the declared type and size of a CSV. The contents are
// not parsed; the backend decides whether the rows are acceptable.
func ValidateFile(file File, maxBytes int) error {
	if !isCSV(file) {
		return fmt.Errorf("%w: %s", ErrNotCSV, file.Name)
	}
	if len(file.Data) > maxBytes {
		return TooLarge(maxBytes)
	}
	return nil
}

// TooLarge wraps ErrFileTooLarge with the limit that was exceeded.
func TooLarge(maxBytes int) error {
	limit := fmt.Sprintf("%d bytes", maxBytes)
	if maxBytes%(1<<20) == 0 {
		limit = fmt.Sprintf("%dMB", maxBytes>>20)
	}
	return fmt.Errorf("%w (max %s)", ErrFileTooLarge, limit)
}

func isCSV(file File) bool {
	declared := file.ContentType
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mt
	}
	declared = strings.ToLower(declared)
	if csvTypes[declared] {
		return true
	}
	generic := declared == "" || declared == "application/octet-stream" || declared == "text/plain"
	return generic && strings.EqualFold(filepath.Ext(file.Name), ".csv")
}

// Select chooses the file for the next import and discards any previous
// result. An invalid file leaves the flow idle with nothing selected.
func (f *Flow) Select(file File) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateUploading {
		return ErrUploadInProgress
	}

	f.state = StateIdle
	f.file = nil
	f.result = nil

	if err := ValidateFile(file, f.maxBytes); err != nil {
		return err
	}
	f.file = &file
	return nil
}

// Submit sends the selected file to the backend. Transport and server
// failures do not produce an error: they are folded into the returned
// Result, which is also kept for Status. Errors are returned only when the
// flow cannot start (nothing selected, or an import already running).
func (f *Flow) Submit(ctx context.Context) (Result, error) {
	f.mu.Lock()
	if f.state == StateUploading {
		f.mu.Unlock()
		return Result{}, ErrUploadInProgress
	}
	if f.file == nil {
		f.mu.Unlock()
		return Result{}, ErrNoFile
	}
	file := *f.file
	f.state = StateUploading
	f.mu.Unlock()

	start := time.Now()
	slog.Info("Starting product import", "file", file.Name, "bytes", len(file.Data))

	result := f.upload(ctx, file)

	f.mu.Lock()
	f.state = StateComplete
	f.file = nil
	f.result = &result
	f.mu.Unlock()

	slog.Info("Product import finished", "file", file.Name, "imported", result.Imported, "errors", len(result.Errors), "elapsed", time.Since(start))
	f.report(file.Name, result)
	return result, nil
}

func (f *Flow) upload(ctx context.Context, file File) Result {
	summary, err := f.importer.ImportProducts(ctx, file.Name, bytes.NewReader(file.Data))
	if err != nil {
		slog.Error("Product import failed", "file", file.Name, "err", err)
	}
	return Normalize(summary, err)
}

func (f *Flow) report(filename string, r Result) {
	if f.notifier == nil {
		return
	}
	title := notify.WithTitle("Import " + filename)
	switch {
	case r.Imported == 0 && len(r.Errors) > 0:
		f.notifier.Show(notify.KindError, r.Errors[0].Message, title)
	case len(r.Errors) > 0:
		f.notifier.Show(notify.KindWarning, fmt.Sprintf("Imported %d product(s) with %d error(s)", r.Imported, len(r.Errors)), title)
	default:
		f.notifier.Show(notify.KindSuccess, fmt.Sprintf("Imported %d product(s)", r.Imported), title)
	}
}

// Status returns the flow's current state, selected file, and last result.
func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := Status{State: f.state}
	if f.file != nil {
		s.FileName = f.file.Name
	}
	if f.result != nil {
		r := f.result.clone()
		s.Result = &r
	}
	return s
}
