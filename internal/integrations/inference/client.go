// Package inference holds the HTTP client for the external model host that
// serves both the chat assistant and the price-prediction model.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrNotConfigured is returned when the endpoint URL or bearer credential
// required for a call has not been provided.
var ErrNotConfigured = errors.New("inference: endpoint not configured")

// chatRequest is the request shape for the chat endpoint.
type chatRequest struct {
	Message string `json:"message"`
}

// chatResponse is the minimal response shape returned by the chat endpoint.
type chatResponse struct {
	Response string `json:"response"`
}

// PredictInputs is the payload forwarded to the prediction endpoint.
type PredictInputs struct {
	Ticker    string `json:"ticker"`
	DaysAhead int    `json:"daysAhead"`
	Model     string `json:"model"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

type predictRequest struct {
	Inputs PredictInputs `json:"inputs"`
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("inference: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client is a focused client for the model host's chat and predict endpoints.
type Client struct {
	chatURL    string
	predictURL string
	httpClient *http.Client

	getter      Getter
	tokenParam  string
	staticToken string

	tokenOnce sync.Once
	token     string
	tokenErr  error
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithToken supplies the bearer credential directly (env-provided deployments).
func WithToken(token string) Option {
	return func(c *Client) {
		c.staticToken = strings.TrimSpace(token)
	}
}

// WithTokenParameter resolves the bearer credential from the parameter store
// on first use and caches it for the process lifetime.
func WithTokenParameter(getter Getter, name string) Option {
	return func(c *Client) {
		c.getter = getter
		c.tokenParam = strings.TrimSpace(name)
	}
}

// NewClient creates a Client for the given chat and predict endpoint URLs.
// Either URL may be empty; calls against an empty endpoint fail with
// ErrNotConfigured so the handler can report the missing configuration.
func NewClient(chatURL, predictURL string, opts ...Option) *Client {
	c := &Client{
		chatURL:    strings.TrimSpace(chatURL),
		predictURL: strings.TrimSpace(predictURL),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// resolveToken returns the bearer credential, fetching it from the parameter
// store on the first call when no static token was supplied. The fetched
// token fields are only touched inside the Once and read after it, so
// concurrent callers never race on them.
func (c *Client) resolveToken(ctx context.Context) (string, error) {
	if c.staticToken != "" {
		return c.staticToken, nil
	}
	if c.getter == nil || c.tokenParam == "" {
		return "", fmt.Errorf("%w: bearer token", ErrNotConfigured)
	}
	c.tokenOnce.Do(func() {
		c.token, c.tokenErr = c.getter.GetParameter(ctx, c.tokenParam)
		if c.tokenErr == nil && strings.TrimSpace(c.token) == "" {
			c.tokenErr = errors.New("inference: token parameter is empty")
		}
	})
	return c.token, c.tokenErr
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// Chat sends one user message to the chat endpoint and returns the model's
// reply text.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	if c.chatURL == "" {
		return "", fmt.Errorf("%w: chat endpoint", ErrNotConfigured)
	}

	raw, err := c.postJSON(ctx, c.chatURL, chatRequest{Message: message})
	if err != nil {
		return "", err
	}

	var payload chatResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return "", fmt.Errorf("inference: decode chat response: %w", decErr)
	}
	if payload.Response == "" {
		return "", errors.New("inference: empty response field in chat reply")
	}
	return payload.Response, nil
}

// Predict forwards the prediction inputs and returns the decoded response
// body untouched so the handler can pass it through.
func (c *Client) Predict(ctx context.Context, inputs PredictInputs) (map[string]any, error) {
	if c.predictURL == "" {
		return nil, fmt.Errorf("%w: predict endpoint", ErrNotConfigured)
	}

	raw, err := c.postJSON(ctx, c.predictURL, predictRequest{Inputs: inputs})
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return nil, fmt.Errorf("inference: decode predict response: %w", decErr)
	}
	return payload, nil
}

func (c *Client) postJSON(ctx context.Context, url string, payload any) ([]byte, error) {
	token, err := c.resolveToken(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("inference: marshal request: %w", err)
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return nil, fmt.Errorf("inference: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("inference: request failed: %w", doErr)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        url,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("inference: read response body: %w", err)
	}
	return buf, nil
}
