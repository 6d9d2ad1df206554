package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vignette/internal/placement"
)

const defaultHTTPTimeout = 120 * time.Second

// Config captures the runtime settings required to talk to the
// generative model API.
type Config struct {
	APIKey         string
	BaseURL        string
	TextModel      string
	ImageModel     string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Media is one binary attachment exchanged with the capability.
type Media struct {
	Data     []byte
	MimeType string
}

// Result is the outcome of a single capability call.
type Result struct {
	Text   string
	Images []Media
	Usage  placement.Usage
}

// Client wraps an OpenRouter-compatible chat completion API with
// multimodal support. Calls are not retried; callers treat each failure
// as an isolated per-item loss.
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

// NewClient constructs a capability client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			TextModel:      strings.TrimSpace(cfg.TextModel),
			ImageModel:     strings.TrimSpace(cfg.ImageModel),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("genai request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// GenerateText issues a text-only completion and returns the model's reply.
func (c *Client) GenerateText(ctx context.Context, prompt string) (Result, error) {
	var empty Result
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return empty, errors.New("genai text: prompt required")
	}
	if c.cfg.APIKey == "" {
		return empty, errors.New("genai text: api key required")
	}
	payload := chatCompletionRequest{
		Model:    c.cfg.TextModel,
		Messages: []chatMessage{userMessage(prompt, nil)},
	}
	result, err := c.complete(ctx, payload, "genai text")
	if err != nil {
		return empty, err
	}
	if result.Text == "" {
		return empty, errors.New("genai text: empty response content")
	}
	return result, nil
}

// GenerateImage asks the image model to render prompt and returns at
// least one image.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (Result, error) {
	return c.imageRequest(ctx, prompt, nil, "genai image")
}

// EditImage sends prompt plus input media to the image model and returns
// the edited result. Input order is preserved on the wire; prompts that
// reference "the first image" depend on it.
func (c *Client) EditImage(ctx context.Context, prompt string, inputs []Media) (Result, error) {
	if len(inputs) == 0 {
		return Result{}, errors.New("genai edit: input media required")
	}
	return c.imageRequest(ctx, prompt, inputs, "genai edit")
}

func (c *Client) imageRequest(ctx context.Context, prompt string, inputs []Media, op string) (Result, error) {
	var empty Result
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return empty, fmt.Errorf("%s: prompt required", op)
	}
	if c.cfg.APIKey == "" {
		return empty, fmt.Errorf("%s: api key required", op)
	}
	payload := chatCompletionRequest{
		Model:      c.cfg.ImageModel,
		Messages:   []chatMessage{userMessage(prompt, inputs)},
		Modalities: []string{"image", "text"},
	}
	result, err := c.complete(ctx, payload, op)
	if err != nil {
		return empty, err
	}
	if len(result.Images) == 0 {
		return empty, fmt.Errorf("%s: response contained no images", op)
	}
	return result, nil
}

type chatCompletionRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Modalities []string      `json:"modalities,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
			Images  []struct {
				ImageURL imageURL `json:"image_url"`
			} `json:"images"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func userMessage(prompt string, inputs []Media) chatMessage {
	parts := make([]contentPart, 0, len(inputs)+1)
	parts = append(parts, contentPart{Type: "text", Text: prompt})
	for _, input := range inputs {
		parts = append(parts, contentPart{
			Type:     "image_url",
			ImageURL: &imageURL{URL: encodeDataURI(input)},
		})
	}
	return chatMessage{Role: "user", Content: parts}
}

func (c *Client) complete(ctx context.Context, payload chatCompletionRequest, op string) (Result, error) {
	var empty Result
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "chat/completions")
	if err != nil {
		return empty, fmt.Errorf("%s: build url: %w", op, err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return empty, fmt.Errorf("%s: encode body: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return empty, fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return empty, fmt.Errorf("%s: http error: %w", op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return empty, fmt.Errorf("%s: read body: %w", op, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return empty, &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return empty, fmt.Errorf("%s: decode response: %w", op, err)
	}
	if completion.Error != nil {
		return empty, fmt.Errorf("%s: api error: %s", op, strings.TrimSpace(completion.Error.Message))
	}
	if len(completion.Choices) == 0 {
		return empty, fmt.Errorf("%s: empty choices", op)
	}

	result := Result{
		Usage: placement.Usage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		},
	}

	choice := completion.Choices[0]
	result.Text = decodeContent(choice.Message.Content)
	for _, image := range choice.Message.Images {
		media, err := decodeDataURI(image.ImageURL.URL)
		if err != nil {
			return empty, fmt.Errorf("%s: decode image payload: %w", op, err)
		}
		result.Images = append(result.Images, media)
	}
	return result, nil
}

// decodeContent tolerates both the plain-string and the content-parts
// response schemas.
func decodeContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err == nil {
		var builder strings.Builder
		for _, part := range parts {
			if part.Type == "text" {
				builder.WriteString(part.Text)
			}
		}
		return strings.TrimSpace(builder.String())
	}
	return ""
}

func encodeDataURI(media Media) string {
	mime := media.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(media.Data)
}

func decodeDataURI(uri string) (Media, error) {
	const scheme = "data:"
	if !strings.HasPrefix(uri, scheme) {
		return Media{}, fmt.Errorf("unexpected image url scheme in %q", summarize(uri))
	}
	rest := uri[len(scheme):]
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Media{}, fmt.Errorf("malformed data uri %q", summarize(uri))
	}
	mime := strings.TrimSuffix(meta, ";base64")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Media{}, fmt.Errorf("decode data uri payload: %w", err)
	}
	if mime == "" {
		mime = "application/octet-stream"
	}
	return Media{Data: data, MimeType: mime}, nil
}

func summarize(value string) string {
	const limit = 48
	if len(value) > limit {
		return value[:limit] + "..."
	}
	return value
}
