// Package api implements the HTTP client for the noodlemap backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// TokenSource supplies the current bearer credential. An empty string means
// no session; requests then go out unauthenticated.
type TokenSource interface {
	Token() string
}

// Client handles HTTP API communication. Every call attaches the current
// bearer credential, serializes bodies as JSON (multipart for photo
// uploads), and classifies failures into *Error. It never retries: retry
// policy belongs to the caller.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	limiter        *rate.Limiter
	tokens         TokenSource
	onUnauthorized func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying transport (tests use this).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// NewClient creates a new API client.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(20), 40),
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetOnUnauthorized registers the hook invoked whenever the server answers
// 401. The session store uses it to transition to logged-out; nothing else
// may clear the credential.
func (c *Client) SetOnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// doRequest performs an HTTP request with common handling.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	contentType := ""
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, query, bodyReader, contentType)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-ID", uuid.New().String())
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "request failed", cause: err}
	}

	if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized()
	}

	return resp, nil
}

// envelope mirrors the response wrapper every endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// decodeEnvelope reads the response envelope and unmarshals data into target.
// Non-2xx statuses and success=false envelopes both become *Error carrying
// the server message.
func decodeEnvelope(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{
			Kind:       classifyStatus(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	}

	if decodeErr != nil {
		return &Error{Kind: KindDecode, StatusCode: resp.StatusCode, Message: "malformed response body", cause: decodeErr}
	}

	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request failed"
		}
		return &Error{Kind: KindUnknown, StatusCode: resp.StatusCode, Message: msg}
	}

	if target != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return &Error{Kind: KindDecode, StatusCode: resp.StatusCode, Message: "malformed response data", cause: err}
		}
	}

	return nil
}

// PhotoUpload is one file part of a multipart review submission.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// sendMultipart posts a JSON payload part plus photo file parts. Content-type
// negotiation for the parts is left to the multipart writer.
func (c *Client) sendMultipart(ctx context.Context, method, path string, fieldName string, payload interface{}, photos []PhotoUpload) (*http.Response, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s part: %w", fieldName, err)
		}
		if err := w.WriteField(fieldName, string(jsonData)); err != nil {
			return nil, fmt.Errorf("failed to write %s part: %w", fieldName, err)
		}
	}

	for _, photo := range photos {
		part, err := w.CreateFormFile("photos", photo.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create photo part: %w", err)
		}
		if _, err := io.Copy(part, photo.Reader); err != nil {
			return nil, fmt.Errorf("failed to write photo %s: %w", photo.Filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return c.send(ctx, method, path, nil, &buf, w.FormDataContentType())
}
