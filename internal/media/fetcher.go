// Package media resolves remote image URLs into bytes plus a MIME type.
// The declared Content-Type is preferred; when it is absent or not an
// image type the first bytes are sniffed for PNG, JPEG, and WebP
// signatures. Fetch failures are typed so callers can distinguish a
// transport fault from a URL that served something other than an image.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxBytes = 25 << 20
)

var (
	// ErrNotImage marks a URL that responded successfully but did not
	// serve a recognizable image.
	ErrNotImage = errors.New("media: not an image")
	// ErrTooLarge marks a response body over the configured size cap.
	ErrTooLarge = errors.New("media: response too large")
)

// Image is a fetched remote image.
type Image struct {
	Data     []byte
	MimeType string
}

// Fetcher downloads remote images with a bounded timeout and size cap.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int
}

// Option customizes the fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every fetch.
func WithUserAgent(agent string) Option {
	return func(f *Fetcher) {
		f.userAgent = strings.TrimSpace(agent)
	}
}

// WithMaxBytes caps the accepted response size.
func WithMaxBytes(limit int) Option {
	return func(f *Fetcher) {
		if limit > 0 {
			f.maxBytes = limit
		}
	}
}

// WithTimeout replaces the default per-fetch timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		if timeout > 0 {
			f.httpClient.Timeout = timeout
		}
	}
}

// NewFetcher constructs a fetcher with the supplied options.
func NewFetcher(opts ...Option) *Fetcher {
	fetcher := &Fetcher{
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxBytes:   defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Fetch downloads url and returns its bytes with a resolved MIME type.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Image, error) {
	var empty Image
	url = strings.TrimSpace(url)
	if url == "" {
		return empty, errors.New("media fetch: url required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return empty, fmt.Errorf("media fetch: new request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return empty, fmt.Errorf("media fetch: http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return empty, fmt.Errorf("media fetch: http %d for %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.maxBytes)+1))
	if err != nil {
		return empty, fmt.Errorf("media fetch: read body: %w", err)
	}
	if len(data) > f.maxBytes {
		return empty, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, url, f.maxBytes)
	}
	if len(data) == 0 {
		return empty, fmt.Errorf("%w: empty body from %s", ErrNotImage, url)
	}

	mime := resolveMime(resp.Header.Get("Content-Type"), data)
	if mime == "" {
		return empty, fmt.Errorf("%w: %s served unrecognized content", ErrNotImage, url)
	}
	return Image{Data: data, MimeType: mime}, nil
}

func resolveMime(declared string, data []byte) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if idx := strings.Index(declared, ";"); idx >= 0 {
		declared = strings.TrimSpace(declared[:idx])
	}
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	return SniffImage(data)
}

// SniffImage inspects magic bytes and returns the image MIME type, or
// an empty string when no known signature matches.
func SniffImage(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "image/png"
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	default:
		return ""
	}
}

// ExtensionForMime maps an image MIME type to a filename extension.
func ExtensionForMime(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "bin"
	}
}
