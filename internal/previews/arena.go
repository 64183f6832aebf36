// Package previews keeps the short-lived image previews shown for files that
// have not been uploaded yet. Each preview owns its bytes until it is
// released; the console serves them under PathPrefix.
package previews

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PathPrefix is the URL path previews are served under.
const PathPrefix = "/previews/"

// ErrNotFound is returned for a token that was never minted or has already
// been released.
var ErrNotFound = errors.New("preview not found")

// Preview is a handle to a live preview resource.
type Preview struct {
	Token       string
	URL         string
	Name        string
	ContentType string
	Size        int
	CreatedAt   time.Time
}

type blob struct {
	preview Preview
	data    []byte
}

// Arena owns every live preview. It is safe for concurrent use.
type Arena struct {
	mu    sync.RWMutex
	blobs map[string]*blob
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		blobs: make(map[string]*blob),
	}
}

// Create registers data as a new preview and returns its handle.
func (a *Arena) Create(name, contentType string, data []byte) (*Preview, error) {
	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("failed to mint preview token: %w", err)
	}

	p := Preview{
		Token:       token,
		URL:         PathPrefix + token,
		Name:        name,
		ContentType: contentType,
		Size:        len(data),
		CreatedAt:   time.Now(),
	}

	a.mu.Lock()
	a.blobs[token] = &blob{preview: p, data: data}
	a.mu.Unlock()

	return &p, nil
}

// Release frees the preview identified by token. Nothing is remembered about
// released tokens: releasing twice returns ErrNotFound, and since tokens are
// never reused it cannot affect any other preview.
func (a *Arena) Release(token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.blobs[token]; !ok {
		return ErrNotFound
	}
	delete(a.blobs, token)
	return nil
}

// Open returns the preview metadata and bytes for token.
func (a *Arena) Open(token string) (Preview, []byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	b, ok := a.blobs[token]
	if !ok {
		return Preview{}, nil, ErrNotFound
	}
	return b.preview, b.data, nil
}

// Live reports how many previews are currently held.
func (a *Arena) Live() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.blobs)
}

func newToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}
