package previews

import (
	"errors"
	"strings"
	"testing"
)

func TestCreateAndOpen(t *testing.T) {
	a := NewArena()

	p, err := a.Create("fern.png", "image/png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(p.URL, PathPrefix) || !strings.HasSuffix(p.URL, p.Token) {
		t.Errorf("Unexpected preview URL %q", p.URL)
	}

	meta, data, err := a.Open(p.Token)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(data) != "png-bytes" || meta.ContentType != "image/png" || meta.Size != 9 {
		t.Errorf("Unexpected preview %+v / %q", meta, data)
	}
	if a.Live() != 1 {
		t.Errorf("Expected 1 live preview, got %d", a.Live())
	}
}

func TestReleaseExactlyOnce(t *testing.T) {
	a := NewArena()

	first, _ := a.Create("a.jpg", "image/jpeg", []byte("a"))
	second, _ := a.Create("b.jpg", "image/jpeg", []byte("b"))

	if err := a.Release(first.Token); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := a.Release(first.Token); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second release, got %v", err)
	}
	if err := a.Release("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if a.Live() != 1 {
		t.Fatalf("Expected 1 live preview, got %d", a.Live())
	}
	if _, _, err := a.Open(second.Token); err != nil {
		t.Errorf("Expected second preview to survive, got %v", err)
	}
	if _, _, err := a.Open(first.Token); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected released preview to be gone, got %v", err)
	}
}

func TestTokensAreUnique(t *testing.T) {
	a := NewArena()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		p, err := a.Create("x.png", "image/png", nil)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if seen[p.Token] {
			t.Fatalf("Duplicate token %s", p.Token)
		}
		seen[p.Token] = true
	}
}

func TestReleasedPreviewsLeaveNothingBehind(t *testing.T) {
	a := NewArena()
	const n = 10000

	for i := 0; i < n; i++ {
		p, err := a.Create("x.png", "image/png", []byte{byte(i)})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := a.Release(p.Token); err != nil {
			t.Fatalf("Release: %v", err)
		}
	}

	if a.Live() != 0 {
		t.Errorf("Expected 0 live previews, got %d", a.Live())
	}
	a.mu.RLock()
	held := len(a.blobs)
	a.mu.RUnlock()
	if held != 0 {
		t.Errorf("Expected arena to hold no records, got %d", held)
	}
}
