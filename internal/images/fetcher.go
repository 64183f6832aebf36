package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"path"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// fetchConcurrency caps parallel downloads in AddFromURLs.
const fetchConcurrency = 4

// ErrUnsafeURL is returned for URLs the fetcher refuses to download: schemes
// other than http(s), and hosts on loopback, private or link-local networks.
var ErrUnsafeURL = errors.New("URL not allowed")

// Fetcher downloads remote images so they can be staged like local files.
type Fetcher struct {
	HTTPClient *http.Client
	MaxBytes   int64

	// AllowPrivate permits loopback, private and link-local destinations.
	AllowPrivate bool
}

// NewFetcher creates a new image fetcher. Its client checks every address
// it dials, so redirects and DNS answers cannot reach a private network.
func NewFetcher() *Fetcher {
	f := &Fetcher{MaxBytes: MaxImageBytes}

	dialer := &net.Dialer{Timeout: 10 * time.Second, Control: f.checkDial}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	f.HTTPClient = &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
	return f
}

func (f *Fetcher) checkDial(network, address string, _ syscall.RawConn) error {
	if f.AllowPrivate {
		return nil
	}
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	if blockedIP(net.ParseIP(host)) {
		return fmt.Errorf("%w: %s resolves to a private address", ErrUnsafeURL, host)
	}
	return nil
}

func blockedIP(ip net.IP) bool {
	return ip == nil ||
		ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified()
}

func (f *Fetcher) checkURL(imageURL string) error {
	u, err := url.Parse(imageURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrUnsafeURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: missing host", ErrUnsafeURL)
	}
	if ip := net.ParseIP(u.Hostname()); ip != nil && !f.AllowPrivate && blockedIP(ip) {
		return fmt.Errorf("%w: %s is a private address", ErrUnsafeURL, ip)
	}
	return nil
}

// Fetch downloads imageURL into a File. Bodies larger than MaxBytes are
// rejected without reading them fully.
func (f *Fetcher) Fetch(ctx context.Context, imageURL string) (File, error) {
	if err := f.checkURL(imageURL); err != nil {
		return File{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return File{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return File{}, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return File{}, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = MaxImageBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return File{}, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > limit {
		return File{}, fmt.Errorf("file too large (max %s)", formatBytes(limit))
	}

	modTime := time.Now()
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			modTime = t
		}
	}

	return File{
		Name:        filenameFromURL(imageURL),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
		ModTime:     modTime,
	}, nil
}

func filenameFromURL(imageURL string) string {
	u, err := url.Parse(imageURL)
	if err != nil {
		return "image.jpg"
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "image.jpg"
	}
	return name
}

// AddFromURLs downloads every URL and adds the results under the same rules
// as Add. Download failures are reported per URL alongside validation errors.
func (m *Manager) AddFromURLs(ctx context.Context, urls []string) ([]Item, error) {
	if pending := m.Len(); pending+len(urls) > m.limits.MaxCount {
		return nil, fmt.Errorf("%w: %d pending plus %d selected exceeds the limit of %d",
			ErrTooManyFiles, pending, len(urls), m.limits.MaxCount)
	}

	files := make([]File, len(urls))
	fetchErrs := make([]error, len(urls))

	var g errgroup.Group
	g.SetLimit(fetchConcurrency)
	for i, u := range urls {
		g.Go(func() error {
			file, err := m.fetcher.Fetch(ctx, u)
			if err != nil {
				slog.Warn("Failed to fetch image", "url", u, "err", err)
				fetchErrs[i] = &ValidationError{Filename: u, Reason: err.Error()}
				return nil
			}
			files[i] = file
			return nil
		})
	}
	_ = g.Wait()

	fetched := make([]File, 0, len(urls))
	for i := range urls {
		if fetchErrs[i] == nil {
			fetched = append(fetched, files[i])
		}
	}

	added, err := m.Add(fetched)
	return added, errors.Join(errors.Join(fetchErrs...), err)
}
