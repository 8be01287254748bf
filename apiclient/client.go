// Package apiclient talks to the remote console API.
//
// Client dispatches requests as they are given and is used for the public
// endpoints (login, registration, credential renewal). Authenticated wraps a
// Client, attaches the stored bearer credential and repairs an expired one
// before handing the response back.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/agent-console/internal/errors"
	"github.com/jrsteele09/agent-console/internal/metrics"
)

const (
	HeaderRequestID = "X-Request-ID"
	userAgent       = "agent-console/1.0"
	defaultTimeout  = 30 * time.Second
)

// Requester builds and sends requests against the remote API.
type Requester interface {
	NewRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error)
	Send(req *http.Request) (*http.Response, error)
}

var _ Requester = (*Client)(nil)

// Client is the unauthenticated transport to the remote API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	metrics    *metrics.Metrics
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the transport timeout. Expiry surfaces as ErrTransport.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client for the API at baseURL, with every path resolved under prefix.
func New(baseURL, prefix string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("[apiclient New] invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[apiclient New] base url %q must be absolute", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.Trim(prefix, "/")
	u.Path = strings.TrimRight(u.Path, "/")

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the resolved API root including the prefix.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// NewRequest builds a request for path (relative to the API prefix, optionally with
// a query string). A non-nil body is sent as JSON unless it is already a []byte.
// The body is buffered so the request can be replayed.
func (c *Client) NewRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("[apiclient NewRequest] invalid path %q: %w", path, err)
	}
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(rel.Path, "/")
	u.RawQuery = rel.RawQuery

	var reader io.Reader
	if body != nil {
		var data []byte
		switch b := body.(type) {
		case []byte:
			data = b
		default:
			data, err = json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("[apiclient NewRequest] encode body: %w", err)
			}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("[apiclient NewRequest] %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, uuid.NewString())
	return req, nil
}

// Send dispatches req without credentials.
func (c *Client) Send(req *http.Request) (*http.Response, error) {
	return c.Do(req)
}

// Do dispatches req exactly once. Transport failures, including cancellation and
// timeouts, are returned wrapped in ErrTransport; any HTTP response is returned
// unchanged.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(0)
		log.Debug().Err(err).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Str("request_id", req.Header.Get(HeaderRequestID)).
			Msg("API request failed")
		return nil, fmt.Errorf("%w: %s %s: %w", errors.ErrTransport, req.Method, req.URL.Path, err)
	}

	c.metrics.ObserveRequest(resp.StatusCode)
	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Str("request_id", req.Header.Get(HeaderRequestID)).
		Msg("API request")
	return resp, nil
}
