// Package shortener provides a client for the tiny.cc shortening endpoint.
package shortener

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the shortening endpoint.
	DefaultBaseURL = "https://api.qasimdev.dpdns.org/api/shortener/tinycc"
	// DefaultAPIKey is used when no key is configured.
	DefaultAPIKey = "qasim-dev"
	// DefaultTimeout bounds one shortening request.
	DefaultTimeout = 20 * time.Second

	maxBodyBytes = 1 << 20
)

// Config holds the configuration for the shortener client.
// Timeout bounds each Shorten call, also when HTTPClient is supplied.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the shortening API.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

// NewClient creates a new shortener client with the provided configuration.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIKey == "" {
		cfg.APIKey = DefaultAPIKey
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		client:  httpClient,
	}
}

// Shorten asks the API for a short link to longURL.
// Any HTTP status is accepted; success is decided from the body alone.
func (c *Client) Shorten(ctx context.Context, longURL string) (*Result, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	q := endpoint.Query()
	q.Set("apiKey", c.apiKey)
	q.Set("url", longURL)
	endpoint.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrRequest, err)
	}

	res, err := decodeResponse(resp.StatusCode, body)
	if err != nil {
		return nil, err
	}
	if res.LongURL == "" {
		res.LongURL = longURL
	}
	return res, nil
}
