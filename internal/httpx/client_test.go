package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewClientValidatesOrigin(t *testing.T) {
	for _, origin := range []string{"", "   ", "localhost:8080", "/relative", "http://[::1"} {
		_, err := NewClient(origin)
		require.Error(t, err, origin)
	}

	c, err := NewClient("http://example.test:9000/app/?x=1#frag")
	require.NoError(t, err)
	require.Equal(t, "http://example.test:9000/app/", c.Origin().String())

	// callers cannot mutate the captured origin
	c.Origin().Host = "evil.test"
	require.Equal(t, "example.test:9000", c.Origin().Host)
}

func TestBuildURL(t *testing.T) {
	c, err := NewClient("http://example.test/app/")
	require.NoError(t, err)

	require.Equal(t, "http://example.test/app/api/fs/readtext", c.BuildURL("/api/fs/readtext", nil))
	require.Equal(t, "http://example.test/app/api/x", c.BuildURL("api/x", url.Values{}))
	require.Equal(t, "http://example.test/app/api/x?args=%22a+b%22", c.BuildURL("/api/x", url.Values{"args": {`"a b"`}}))
}

func TestDoMergesHeadersAndReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "default", r.Header.Get("X-Default"))
		require.Equal(t, "override", r.Header.Get("X-Both"))
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithHeaders(http.Header{
		"X-Default": {"default"},
		"X-Both":    {"base"},
	}))
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), &Request{
		Method: http.MethodGet,
		Path:   "/ping",
		Header: http.Header{"X-Both": {"override"}},
	})
	require.NoError(t, err)
	body, err := ReadAllAndClose(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "ok", string(body))
}

func TestDoReturnsHTTPErrorForNon2xx(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	c, err := NewClient(srv.URL, WithMetrics(reg))
	require.NoError(t, err)

	_, err = c.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/x"})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	require.Equal(t, "boom\n", string(httpErr.Body))
	require.Equal(t, 1, calls)
	require.Equal(t, 1.0, testutil.ToFloat64(c.metrics.Requests().WithLabelValues("GET", "/x", "remote_error")))
}

func TestDoPassesTransportErrorsThrough(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	origin := srv.URL
	srv.Close()

	reg := prometheus.NewRegistry()
	c, err := NewClient(origin, WithMetrics(reg))
	require.NoError(t, err)

	_, err = c.Do(context.Background(), &Request{Method: http.MethodGet, Path: "/x"})
	require.Error(t, err)
	var urlErr *url.Error
	require.True(t, errors.As(err, &urlErr))
	var httpErr *HTTPError
	require.False(t, errors.As(err, &httpErr))
	require.Equal(t, 1.0, testutil.ToFloat64(c.metrics.Requests().WithLabelValues("GET", "/x", "transport_error")))
}

func TestDoRejectsIncompleteRequests(t *testing.T) {
	c, err := NewClient("http://example.test")
	require.NoError(t, err)

	_, err = c.Do(context.Background(), nil)
	require.Error(t, err)
	_, err = c.Do(context.Background(), &Request{Path: "/x"})
	require.Error(t, err)
}
