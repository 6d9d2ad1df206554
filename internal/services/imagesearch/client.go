// Package imagesearch wraps the Wikimedia Commons search API used to
// source stock reference imagery for catalog entries.
package imagesearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://commons.wikimedia.org/w/api.php"
	defaultHTTPTimeout = 15 * time.Second
	defaultLimit       = 10
	maxLimit           = 50
	thumbnailWidth     = 400
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// Config captures the runtime settings for the Wikimedia client.
type Config struct {
	BaseURL        string
	UserAgent      string
	TimeoutSeconds int
}

// Result is a single image search hit.
type Result struct {
	URL         string `json:"url"`
	Thumbnail   string `json:"thumbnail"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Attribution string `json:"attribution,omitempty"`
}

// Client talks to the Wikimedia Commons API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a search client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			UserAgent:      strings.TrimSpace(cfg.UserAgent),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

type searchResponse struct {
	Query struct {
		Pages map[string]struct {
			Title     string `json:"title"`
			ImageInfo []struct {
				URL         string `json:"url"`
				ThumbURL    string `json:"thumburl"`
				ExtMetadata map[string]struct {
					Value string `json:"value"`
				} `json:"extmetadata"`
			} `json:"imageinfo"`
		} `json:"pages"`
	} `json:"query"`
}

// Search finds bitmap images matching query, returning at most limit
// results.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("image search: query required")
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("generator", "search")
	params.Set("gsrsearch", "filetype:bitmap "+query)
	params.Set("gsrnamespace", "6")
	params.Set("gsrlimit", strconv.Itoa(limit))
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url|extmetadata")
	params.Set("iiurlwidth", strconv.Itoa(thumbnailWidth))
	params.Set("format", "json")
	params.Set("origin", "*")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("image search: new request: %w", err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image search: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("image search: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image search: http %d: %s", resp.StatusCode, summarize(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("image search: decode response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Query.Pages))
	for _, page := range parsed.Query.Pages {
		if len(page.ImageInfo) == 0 {
			continue
		}
		info := page.ImageInfo[0]
		if info.URL == "" {
			continue
		}
		thumbnail := info.ThumbURL
		if thumbnail == "" {
			thumbnail = info.URL
		}
		results = append(results, Result{
			URL:         info.URL,
			Thumbnail:   thumbnail,
			Title:       strings.TrimPrefix(page.Title, "File:"),
			Description: stripHTML(info.ExtMetadata["ImageDescription"].Value, 200),
			Attribution: stripHTML(info.ExtMetadata["Artist"].Value, 0),
		})
	}
	return results, nil
}

// stripHTML removes markup from Wikimedia metadata values and optionally
// truncates to limit runes.
func stripHTML(value string, limit int) string {
	cleaned := strings.TrimSpace(htmlTagPattern.ReplaceAllString(value, ""))
	if limit > 0 {
		runes := []rune(cleaned)
		if len(runes) > limit {
			cleaned = string(runes[:limit])
		}
	}
	return cleaned
}

func summarize(body []byte) string {
	const limit = 160
	text := strings.TrimSpace(string(body))
	if len(text) > limit {
		return text[:limit] + "..."
	}
	return text
}
