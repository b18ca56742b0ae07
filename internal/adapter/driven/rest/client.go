// Package rest implements the backend resource ports over the logistics REST
// API. A single resilient Client carries the timeout/retry policy and the
// response shape normalization every resource adapter shares.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/cargolink/cargolink/internal/domain/model"
)

// DefaultReadTimeout is the bounded timeout T for read requests. Writes and
// the one read retry use 2T.
const DefaultReadTimeout = 10 * time.Second

// HeaderSource supplies the request headers for every call. The credential
// layer provides one that omits Authorization when unauthenticated.
type HeaderSource func() http.Header

// Client is the resilient HTTP wrapper shared by the resource adapters.
//
// Read requests get one bounded attempt with timeout T and, on any failure
// that is not a 401, exactly one retry with timeout 2T. A 401 is escalated
// immediately: retrying with a stale credential cannot succeed. Writes get a
// single attempt with timeout 2T and are never retried, because a timed-out
// write may still have had a server-side effect.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	headers     HeaderSource
	readTimeout time.Duration
}

// NewClient creates a Client against the given base URL with the production
// transport stack: an in-memory ETag cache in front of the default transport.
func NewClient(baseURL string, headers HeaderSource, readTimeout time.Duration) *Client {
	httpClient := &http.Client{
		Transport: httpcache.NewMemoryCacheTransport(),
	}
	return newClient(httpClient, baseURL, headers, readTimeout)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client. This
// constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, headers HeaderSource, readTimeout time.Duration) *Client {
	return newClient(httpClient, baseURL, headers, readTimeout)
}

func newClient(httpClient *http.Client, baseURL string, headers HeaderSource, readTimeout time.Duration) *Client {
	if headers == nil {
		headers = func() http.Header { return http.Header{} }
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		httpClient:  httpClient,
		headers:     headers,
		readTimeout: readTimeout,
	}
}

// get performs a read with the retry policy and returns the raw body for a
// 2xx response.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	body, err := c.attempt(ctx, http.MethodGet, path, nil, c.readTimeout)
	if err == nil || !retryable(err) {
		return body, err
	}

	slog.Debug("retrying read", "path", path, "error", err)
	return c.attempt(ctx, http.MethodGet, path, nil, 2*c.readTimeout)
}

// post performs a single-attempt write and returns the raw body, which may be
// empty even on success.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.write(ctx, http.MethodPost, path, payload)
}

// put performs a single-attempt write and returns the raw body, which may be
// empty even on success.
func (c *Client) put(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.write(ctx, http.MethodPut, path, payload)
}

// delete performs a single-attempt delete. A 404 counts as success: absence
// after delete is what the caller asked for.
func (c *Client) delete(ctx context.Context, path string) error {
	_, err := c.attempt(ctx, http.MethodDelete, path, nil, 2*c.readTimeout)
	if err != nil {
		if asNotFound(err) {
			return nil
		}
		return err
	}
	return nil
}

func (c *Client) write(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload for %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}
	return c.attempt(ctx, method, path, body, 2*c.readTimeout)
}

// attempt runs one bounded request and maps the outcome onto the error
// taxonomy. A nil error always means a 2xx response.
func (c *Client) attempt(ctx context.Context, method, path string, body io.Reader, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request %s %s: %w", method, path, err)
	}
	for key, values := range c.headers() {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &model.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.NetworkError{Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}
	return nil, statusError(resp.StatusCode, data)
}

// statusError maps a non-2xx response to a typed error.
func statusError(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized:
		return model.ErrSessionExpired
	case status == http.StatusBadRequest || status == http.StatusUnsupportedMediaType:
		return &model.ValidationError{Message: serverMessage(body, "please check your input")}
	case status == http.StatusNotFound:
		return &notFoundError{}
	case status >= 500:
		return &model.ServerError{StatusCode: status, Message: serverMessage(body, http.StatusText(status))}
	default:
		return &model.ServerError{StatusCode: status, Message: serverMessage(body, http.StatusText(status))}
	}
}

// serverMessage extracts the most specific message the server provided:
// a "message" property, then an "error" property, then the raw body.
func serverMessage(body []byte, fallback string) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" && len(trimmed) < 200 {
		return trimmed
	}
	return fallback
}

// notFoundError marks a 404 so delete can treat it as success and reads can
// report a missing entity.
type notFoundError struct{}

func (e *notFoundError) Error() string { return "resource not found" }

func asNotFound(err error) bool {
	var nf *notFoundError
	return errors.As(err, &nf)
}

// retryable reports whether a read failure is worth one more attempt.
// 401 is never retried; neither is a context the caller already cancelled.
func retryable(err error) bool {
	if errors.Is(err, model.ErrSessionExpired) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// resourceURL joins a collection path with a numeric id.
func resourceURL(base string, id int64) string {
	return fmt.Sprintf("%s/%d", base, id)
}
