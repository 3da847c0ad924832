package httpx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/localapp/appbridge_go/internal/telemetry"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used by the helper.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithHeaders assigns default headers added to every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, values := range h {
			for _, v := range values {
				c.headers.Add(k, v)
			}
		}
	}
}

// WithLogger attaches a zap logger. Exchanges are logged at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics registers request counters and latency histograms on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		if reg != nil {
			c.metrics = telemetry.NewClientMetrics(reg)
		}
	}
}

// Client wraps http.Client and pins every request to a fixed origin.
type Client struct {
	origin     *url.URL
	httpClient *http.Client
	headers    http.Header
	logger     *zap.Logger
	metrics    *telemetry.ClientMetrics
}

// Request describes a single outbound request.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   io.Reader
}

// NewClient creates a Client for the provided origin. The origin is parsed
// once and never mutated afterwards.
func NewClient(origin string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(origin) == "" {
		return nil, errors.New("httpx: origin is required")
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("httpx: invalid origin: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("httpx: origin %q must be absolute", origin)
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""

	c := &Client{
		origin:     parsed,
		httpClient: &http.Client{},
		headers:    make(http.Header),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Origin returns a copy of the origin URL the client was built with.
func (c *Client) Origin() *url.URL {
	u := *c.origin
	return &u
}

// Do executes the provided request exactly once. A 2xx response is returned
// with its body open; any other status is drained into an *HTTPError.
// Transport failures are returned exactly as net/http reports them.
func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("httpx: request is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Method == "" {
		return nil, errors.New("httpx: HTTP method is required")
	}

	fullURL := c.BuildURL(req.Path, req.Query)

	body := req.Body
	if body == nil {
		body = http.NoBody
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header = cloneHeader(c.headers)
	for k, values := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("url", fullURL),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		c.metrics.Observe(req.Method, req.Path, "transport_error", elapsed)
		return nil, err
	}

	c.logger.Debug("request completed",
		zap.String("method", req.Method),
		zap.String("url", fullURL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", elapsed),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.Observe(req.Method, req.Path, "remote_error", elapsed)
		return nil, c.handleError(resp)
	}
	c.metrics.Observe(req.Method, req.Path, "ok", elapsed)
	return resp, nil
}

// BuildURL joins path onto the origin path and attaches q when non-empty.
func (c *Client) BuildURL(path string, q url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	full := *c.origin
	full.Path = strings.TrimRight(c.origin.Path, "/") + path
	full.RawPath = ""
	if len(q) > 0 {
		full.RawQuery = q.Encode()
	}
	return full.String()
}

func closeBody(rc io.ReadCloser) {
	if rc != nil {
		_ = rc.Close()
	}
}

func (c *Client) handleError(resp *http.Response) error {
	defer closeBody(resp.Body)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpx: read error body: %w", err)
	}
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Body:       body,
		Header:     resp.Header.Clone(),
	}
}

// ReadAllAndClose drains the reader and ensures it is closed.
func ReadAllAndClose(rc io.ReadCloser) ([]byte, error) {
	defer closeBody(rc)
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// DiscardAndClose drains and closes rc so the connection can be reused.
func DiscardAndClose(rc io.ReadCloser) error {
	defer closeBody(rc)
	_, err := io.Copy(io.Discard, rc)
	return err
}

func cloneHeader(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for k, values := range src {
		vCopy := make([]string, len(values))
		copy(vCopy, values)
		dst[k] = vCopy
	}
	return dst
}
