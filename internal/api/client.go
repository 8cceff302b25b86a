package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// TokenPath is the path template of the access token endpoint
const TokenPath = "/api/AppUser/GetAccessToken/"

// maxTokenBytes is the largest response body accepted as a token
const maxTokenBytes = 64 << 10

var (
	// ErrNotFound is returned when the phone number is not registered
	ErrNotFound = errors.New("phone number not registered")
	// ErrTokenTooLarge is returned when the response body exceeds maxTokenBytes
	ErrTokenTooLarge = errors.New("token response too large")
)

// TokenSource exchanges a phone number for an access token
type TokenSource interface {
	GetAccessToken(ctx context.Context, phoneNumber string) (string, error)
}

// APIError represents a non-success HTTP response
type APIError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("token API error (%d): %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Options configures a Client
type Options struct {
	BaseURL string
	Timeout time.Duration
	// StrictStatus rejects non-2xx bodies instead of treating them as tokens
	StrictStatus bool
	HTTPClient   *http.Client
	Logger       *log.Logger
}

// Client talks to the remote identity service
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	logger       *log.Logger
	strictStatus bool
}

// NewClient creates a token client for the given service base URL
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("base URL is required")
	}

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", base.Scheme)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("base URL %q has no host", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     30 * time.Second,
			},
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr)
	}

	return &Client{
		baseURL:      base,
		httpClient:   httpClient,
		logger:       logger,
		strictStatus: opts.StrictStatus,
	}, nil
}

// TokenURL returns the endpoint URL for a phone number
func (c *Client) TokenURL(phoneNumber string) string {
	return c.baseURL.String() + TokenPath + url.PathEscape(phoneNumber)
}

// GetAccessToken performs a single GET against the token endpoint.
// A 404 yields an error matching ErrNotFound. Any other response body is
// returned verbatim as the token. No retries are attempted.
func (c *Client) GetAccessToken(ctx context.Context, phoneNumber string) (string, error) {
	requestID := uuid.NewString()
	headers := map[string]string{
		"accept":       "*/*",
		"X-Request-ID": requestID,
	}

	start := time.Now()
	resp, err := MakeHTTPRequest(ctx, c.httpClient, http.MethodGet, c.TokenURL(phoneNumber), headers, nil)
	if err != nil {
		c.logger.Debug("Token request failed", "request_id", requestID, "error", err)
		return "", err
	}
	defer resp.Body.Close()

	c.logger.Debug("Token response received",
		"request_id", requestID,
		"status", resp.StatusCode,
		"latency", time.Since(start))

	if resp.StatusCode == http.StatusNotFound {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxTokenBytes))
		return "", &APIError{StatusCode: resp.StatusCode, Message: "user not registered"}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if len(body) > maxTokenBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrTokenTooLarge, maxTokenBytes)
	}

	if c.strictStatus && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Retryable:  isRetryableStatusCode(resp.StatusCode),
		}
	}

	return string(body), nil
}

// MakeHTTPRequest creates and executes an HTTP request
func MakeHTTPRequest(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// IsNotFound reports whether err signals an unregistered phone number
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// isRetryableStatusCode checks if an HTTP status code is retryable
func isRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}
