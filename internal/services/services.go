package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodx/internal/session"
	"github.com/desertthunder/moodx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	restPrefix   = "/rest/v1"
	authPrefix   = "/auth/v1"
	EntriesTable = restPrefix + "/mood_entries"
	ProfileTable = restPrefix + "/profiles"
)

// Prefer header values understood by the backend.
const (
	PreferRepresentation = "return=representation"
	PreferCountExact     = "count=exact"
)

// Client performs requests against the hosted backend.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// ClientOption configures a [Client].
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying [http.Client].
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the backend at baseURL using the project key apiKey.
func NewClient(baseURL, apiKey string, opts ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: remote url", shared.ErrMissingConfig)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: remote api key", shared.ErrMissingCredentials)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = shared.NewLogger(nil)
	}
	c.logger = shared.WithLogger(c.logger, "component", "remote")
	return c, nil
}

// WithTokenSource returns a copy of c that authenticates every request with a bearer token from ts.
func (c *Client) WithTokenSource(ts oauth2.TokenSource) *Client {
	base := c.httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	cp := *c
	cp.httpClient = &http.Client{
		Transport: &oauth2.Transport{Source: ts, Base: base},
		Timeout:   c.httpClient.Timeout,
	}
	return &cp
}

// ForSession returns a copy of c authenticated as the session's owner.
func (c *Client) ForSession(s *session.Session) *Client {
	return c.WithTokenSource(s.TokenSource())
}

// AsService returns a copy of c that authenticates with the service key, bypassing per-owner policies.
func (c *Client) AsService(serviceKey string) (*Client, error) {
	if serviceKey == "" {
		return nil, fmt.Errorf("%w: service key", shared.ErrMissingCredentials)
	}
	cp := c.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: serviceKey, TokenType: "Bearer"}))
	cp.apiKey = serviceKey
	return cp, nil
}

// request describes one call to the backend.
type request struct {
	method string
	path   string
	query  *Query
	body   any
	prefer []string
}

// errorBody is the backend's error payload.
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// do performs r and decodes a successful JSON response into result, returning the response headers.
func (c *Client) do(ctx context.Context, r request, result any) (http.Header, error) {
	url := c.baseURL + r.path
	if r.query != nil {
		if q := r.query.Encode(); q != "" {
			url += "?" + q
		}
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(r.prefer) > 0 {
		req.Header.Set("Prefer", strings.Join(r.prefer, ","))
	}

	c.logger.Debug("request", "method", r.method, "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", shared.ErrNetworkFailure, r.method, r.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.Header, statusError(resp)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil && !errors.Is(err, io.EOF) {
			return resp.Header, fmt.Errorf("%w: failed to decode response: %v", shared.ErrNetworkFailure, err)
		}
	}
	return resp.Header, nil
}

// statusError maps a non-2xx response to a sentinel error.
func statusError(resp *http.Response) error {
	msg := http.StatusText(resp.StatusCode)
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var eb errorBody
	if json.Unmarshal(data, &eb) == nil && eb.Message != "" {
		msg = eb.Message
	}

	var sentinel error
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		sentinel = shared.ErrNotAuthenticated
	case resp.StatusCode == http.StatusNotFound:
		sentinel = shared.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		sentinel = shared.ErrConflict
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		sentinel = shared.ErrInvalidInput
	default:
		sentinel = shared.ErrNetworkFailure
	}
	return fmt.Errorf("%w: status %d: %s", sentinel, resp.StatusCode, msg)
}

// ParseContentRange extracts the total from a Content-Range header such as "0-9/42" or "*/0".
func ParseContentRange(header string) (int, error) {
	i := strings.LastIndex(header, "/")
	if i < 0 || i == len(header)-1 {
		return 0, fmt.Errorf("%w: content range %q", shared.ErrInvalidInput, header)
	}

	total := header[i+1:]
	if total == "*" {
		return 0, fmt.Errorf("%w: content range %q has no total", shared.ErrInvalidInput, header)
	}
	n, err := strconv.Atoi(total)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: content range %q", shared.ErrInvalidInput, header)
	}
	return n, nil
}
