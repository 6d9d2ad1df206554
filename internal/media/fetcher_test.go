package media_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vignette/internal/media"
)

var (
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), []byte("payload")...)
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF}, []byte("payload")...)
	webpBytes = []byte("RIFF\x00\x00\x00\x00WEBPpayload")
)

func serveBytes(t *testing.T, contentType string, body []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchDeclaredContentType(t *testing.T) {
	server := serveBytes(t, "image/png; charset=binary", pngBytes)

	img, err := media.NewFetcher().Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if img.MimeType != "image/png" {
		t.Fatalf("unexpected mime %q", img.MimeType)
	}
	if len(img.Data) != len(pngBytes) {
		t.Fatalf("unexpected body length %d", len(img.Data))
	}
}

func TestFetchSniffsWhenUndeclared(t *testing.T) {
	cases := []struct {
		name string
		body []byte
		want string
	}{
		{"png", pngBytes, "image/png"},
		{"jpeg", jpegBytes, "image/jpeg"},
		{"webp", webpBytes, "image/webp"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := serveBytes(t, "application/octet-stream", tc.body)

			img, err := media.NewFetcher().Fetch(context.Background(), server.URL)
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if img.MimeType != tc.want {
				t.Fatalf("sniffed %q, want %q", img.MimeType, tc.want)
			}
		})
	}
}

func TestFetchRejectsNonImage(t *testing.T) {
	server := serveBytes(t, "text/html", []byte("<html>not an image</html>"))

	_, err := media.NewFetcher().Fetch(context.Background(), server.URL)
	if !errors.Is(err, media.ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
}

func TestFetchRejectsEmptyBody(t *testing.T) {
	server := serveBytes(t, "image/png", nil)

	_, err := media.NewFetcher().Fetch(context.Background(), server.URL)
	if !errors.Is(err, media.ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
}

func TestFetchEnforcesSizeCap(t *testing.T) {
	large := append([]byte(nil), pngBytes...)
	large = append(large, make([]byte, 100)...)
	server := serveBytes(t, "image/png", large)

	_, err := media.NewFetcher(media.WithMaxBytes(32)).Fetch(context.Background(), server.URL)
	if !errors.Is(err, media.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	_, err := media.NewFetcher().Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected an error for 404")
	}
	if errors.Is(err, media.ErrNotImage) {
		t.Fatalf("status errors must not be ErrNotImage: %v", err)
	}
}

func TestFetchSendsUserAgent(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
	t.Cleanup(server.Close)

	fetcher := media.NewFetcher(media.WithUserAgent("vignette/1.0"))
	if _, err := fetcher.Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotAgent != "vignette/1.0" {
		t.Fatalf("unexpected user agent %q", gotAgent)
	}
}

func TestExtensionForMime(t *testing.T) {
	cases := map[string]string{
		"image/png":  "png",
		"image/jpeg": "jpg",
		"image/jpg":  "jpg",
		"image/webp": "webp",
		"image/gif":  "bin",
		"":           "bin",
	}
	for mime, want := range cases {
		if got := media.ExtensionForMime(mime); got != want {
			t.Fatalf("ExtensionForMime(%q) = %q, want %q", mime, got, want)
		}
	}
}
