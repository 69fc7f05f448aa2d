// Package http implements aira.Transport against the chat backend's
// streaming endpoint.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/aira"
	"github.com/fwojciec/aira/sse"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultBaseURL is the address of a locally running backend.
	DefaultBaseURL = "http://localhost:5000"

	streamPath = "/stream"

	// maxErrorBody caps how much of an error response is kept.
	maxErrorBody = 512
)

// Interface compliance check.
var _ aira.Transport = (*Client)(nil)

// Client implements [aira.Transport]. Each call to Stream issues one POST
// whose response body is decoded as it arrives.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	chunkSize  int
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the backend base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds a whole turn, including reading the response body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithChunkSize sets the read buffer size of returned streams.
func WithChunkSize(n int) Option {
	return func(c *Client) { c.chunkSize = n }
}

// New creates a [Client]. Without WithHTTPClient, requests go through an
// OpenTelemetry-instrumented transport.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return operation + " " + r.URL.Path
			}),
		)},
	}
	for _, o := range opts {
		o(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// Stream posts the message and returns a stream over the response body.
// Failures to connect and non-2xx responses are returned as
// *aira.TransportError.
func (c *Client) Stream(ctx context.Context, req aira.Request) (aira.Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+streamPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &aira.TransportError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	return sse.NewStream(ctx, resp.Body, sse.WithChunkSize(c.chunkSize)), nil
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &aira.TransportError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to read body: %w", err),
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &aira.TransportError{StatusCode: resp.StatusCode, Err: errors.New(msg)}
}
