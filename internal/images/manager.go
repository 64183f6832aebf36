// Package images stages images picked in the admin console until they are
// uploaded to the storefront backend.
//
// Every pending image is paired with a preview resource from a PreviewStore.
// The Manager creates a preview when an image enters the list and releases it
// exactly once when the image leaves, whether by removal, replacement, clear,
// successful upload, or Close.
package images

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fernleaf/nursery/internal/backend"
	"github.com/fernleaf/nursery/internal/notify"
	"github.com/fernleaf/nursery/internal/previews"
)

// PreviewStore mints and releases preview resources.
type PreviewStore interface {
	Create(name, contentType string, data []byte) (*previews.Preview, error)
	Release(token string) error
}

// Uploader persists images on the backend.
type Uploader interface {
	UploadImages(ctx context.Context, kind backend.ImageKind, entityID string, files []backend.UploadFile) ([]backend.StoredImage, error)
}

// Notifier receives the outcome of Submit.
type Notifier interface {
	Show(kind notify.Kind, message string, opts ...notify.Option) string
}

// Item is a pending image as seen by callers.
type Item struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	MimeType    string `json:"mime_type"`
	ByteSize    int64  `json:"byte_size"`
	PreviewURL  string `json:"preview_url"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

type entry struct {
	item    Item
	file    File
	preview *previews.Preview
}

// Manager holds an ordered, bounded list of pending images.
type Manager struct {
	mu         sync.Mutex
	entries    []*entry
	closed     bool
	submitting bool

	limits   Limits
	previews PreviewStore
	uploader Uploader
	notifier Notifier
	fetcher  *Fetcher
}

// Option configures a Manager.
type Option func(*Manager)

// WithLimits overrides the default limits.
func WithLimits(l Limits) Option {
	return func(m *Manager) { m.limits = l.withDefaults() }
}

// WithUploader sets the backend used by Submit.
func WithUploader(u Uploader) Option {
	return func(m *Manager) { m.uploader = u }
}

// WithNotifier sets where Submit reports its outcome.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithFetcher sets the fetcher used by AddFromURLs.
func WithFetcher(f *Fetcher) Option {
	return func(m *Manager) { m.fetcher = f }
}

// NewManager creates an empty manager backed by store.
func NewManager(store PreviewStore, opts ...Option) *Manager {
	m := &Manager{
		limits:   DefaultLimits(),
		previews: store,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fetcher == nil {
		m.fetcher = NewFetcher()
	}
	return m
}

// Limits returns the limits the manager enforces.
func (m *Manager) Limits() Limits {
	return m.limits
}

// Add validates files and appends the valid ones. If the batch would push
// the list past the maximum count, nothing is added and ErrTooManyFiles is
// returned. Otherwise every rejected file contributes its own
// *ValidationError to the joined error, and the valid files are still added.
func (m *Manager) Add(files []File) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if len(m.entries)+len(files) > m.limits.MaxCount {
		return nil, fmt.Errorf("%w: %d pending plus %d selected exceeds the limit of %d",
			ErrTooManyFiles, len(m.entries), len(files), m.limits.MaxCount)
	}

	var errs []error
	added := make([]Item, 0, len(files))
	for _, f := range files {
		if err := m.limits.Validate(f); err != nil {
			errs = append(errs, err)
			continue
		}
		e, err := m.newEntry(f)
		if err != nil {
			errs = append(errs, &ValidationError{Filename: f.Name, Reason: err.Error()})
			continue
		}
		m.entries = append(m.entries, e)
		added = append(added, e.item)
	}

	slog.Debug("Images added", "added", len(added), "rejected", len(errs), "pending", len(m.entries))
	return added, errors.Join(errs...)
}

// Remove releases the preview at index and drops the image from the list.
func (m *Manager) Remove(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if index < 0 || index >= len(m.entries) {
		return ErrIndexOutOfRange
	}

	m.release(m.entries[index])
	m.entries = append(m.entries[:index], m.entries[index+1:]...)
	return nil
}

// Replace swaps the image at index for f after validating f on its own.
// The old preview is released only after the swap; on any failure the list
// and its previews are left untouched.
func (m *Manager) Replace(index int, f File) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Item{}, ErrClosed
	}
	if index < 0 || index >= len(m.entries) {
		return Item{}, ErrIndexOutOfRange
	}
	if err := m.limits.Validate(f); err != nil {
		return Item{}, err
	}

	e, err := m.newEntry(f)
	if err != nil {
		return Item{}, &ValidationError{Filename: f.Name, Reason: err.Error()}
	}

	old := m.entries[index]
	m.entries[index] = e
	m.release(old)

	return e.item, nil
}

// Reorder moves the image at from to position to.
func (m *Manager) Reorder(from, to int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	n := len(m.entries)
	if from < 0 || from >= n || to < 0 || to >= n {
		return ErrIndexOutOfRange
	}
	if from == to {
		return nil
	}

	moved := m.entries[from]
	m.entries = append(m.entries[:from], m.entries[from+1:]...)
	m.entries = append(m.entries[:to], append([]*entry{moved}, m.entries[to:]...)...)
	return nil
}

// Clear releases every preview and empties the list.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
}

// Close releases everything the manager holds. It is safe to call more than
// once; the manager rejects further edits afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.clearLocked()
	m.closed = true
}

// Items returns the pending images in order.
func (m *Manager) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.item
	}
	return out
}

// Len returns the number of pending images.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Submitting reports whether an upload is in flight.
func (m *Manager) Submitting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submitting
}

// Submit uploads the pending images. On success the uploaded images leave
// the list; on failure they stay so the operator can try again. Either way
// the outcome is reported through the notifier.
func (m *Manager) Submit(ctx context.Context, kind backend.ImageKind, entityID string) ([]backend.StoredImage, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if m.uploader == nil {
		m.mu.Unlock()
		return nil, errors.New("no uploader configured")
	}
	if m.submitting {
		m.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	if len(m.entries) == 0 {
		m.mu.Unlock()
		return nil, ErrNothingToSubmit
	}
	batch := make([]*entry, len(m.entries))
	copy(batch, m.entries)
	m.submitting = true
	m.mu.Unlock()

	files := make([]backend.UploadFile, 0, len(batch))
	for _, e := range batch {
		files = append(files, backend.UploadFile{
			Name:        e.file.Name,
			ContentType: e.item.MimeType,
			Data:        e.file.Data,
		})
	}

	stored, err := m.uploader.UploadImages(ctx, kind, entityID, files)

	m.mu.Lock()
	m.submitting = false
	if err == nil {
		m.dropLocked(batch)
	}
	m.mu.Unlock()

	if err != nil {
		slog.Error("Image upload failed", "kind", kind, "entity_id", entityID, "count", len(files), "err", err)
		m.notify(notify.KindError, backend.MessageOf(err), notify.WithTitle("Image upload failed"))
		return nil, err
	}

	slog.Info("Images uploaded", "kind", kind, "entity_id", entityID, "count", len(stored))
	m.notify(notify.KindSuccess, fmt.Sprintf("Uploaded %d image(s)", len(files)), notify.WithTitle("Images saved"))
	return stored, nil
}

func (m *Manager) newEntry(f File) (*entry, error) {
	mt := MediaType(f)
	p, err := m.previews.Create(f.Name, mt, f.Data)
	if err != nil {
		return nil, err
	}
	w, h := dimensions(f.Name, f.Data)
	return &entry{
		item: Item{
			ID:          fmt.Sprintf("%s-%d", f.Name, f.ModTime.UnixMilli()),
			DisplayName: f.Name,
			MimeType:    mt,
			ByteSize:    f.Size(),
			PreviewURL:  p.URL,
			Width:       w,
			Height:      h,
		},
		file:    f,
		preview: p,
	}, nil
}

func (m *Manager) release(e *entry) {
	if e.preview == nil {
		return
	}
	if err := m.previews.Release(e.preview.Token); err != nil {
		slog.Warn("Unable to release preview", "file", e.item.DisplayName, "token", e.preview.Token, "err", err)
	}
	e.preview = nil
}

func (m *Manager) clearLocked() {
	for _, e := range m.entries {
		m.release(e)
	}
	m.entries = nil
}

// dropLocked removes the entries in batch that are still pending.
func (m *Manager) dropLocked(batch []*entry) {
	uploaded := make(map[*entry]bool, len(batch))
	for _, e := range batch {
		uploaded[e] = true
	}
	kept := m.entries[:0]
	for _, e := range m.entries {
		if uploaded[e] {
			m.release(e)
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
}

func (m *Manager) notify(kind notify.Kind, message string, opts ...notify.Option) {
	if m.notifier == nil {
		return
	}
	m.notifier.Show(kind, message, opts...)
}
