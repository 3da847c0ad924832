// Package appctl controls the app server process itself: asking it to exit
// and starting commands on the server host. Both calls are fire-and-forget;
// they wait for the server to answer but ignore the response body.
package appctl

import (
	"context"
	"fmt"
	"sync"

	"github.com/localapp/appbridge_go/internal/httpx"
	"github.com/localapp/appbridge_go/pkg/bridge"
)

const (
	RouteExit    = "/exit"
	RouteCommand = "/command"
)

// Backend carries out app control calls.
type Backend interface {
	Exit(ctx context.Context) error
	Command(ctx context.Context, args []any) error
}

// Client provides access to the app control operations.
type Client struct {
	backend Backend
}

// New constructs an HTTP-backed client for origin.
func New(origin string, opts ...httpx.Option) (*Client, error) {
	codec, err := bridge.New(origin, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithCodec(codec), nil
}

// NewWithCodec wraps an existing bridge codec.
func NewWithCodec(codec *bridge.Codec) *Client {
	return &Client{backend: &httpBackend{codec: codec}}
}

// NewWithBackend allows callers to provide a custom backend.
func NewWithBackend(b Backend) *Client {
	return &Client{backend: b}
}

// Exit asks the server to shut down.
func (c *Client) Exit(ctx context.Context) error {
	if c == nil || c.backend == nil {
		return fmt.Errorf("appctl: client is nil")
	}
	return c.backend.Exit(ctx)
}

// Command starts a process on the server host. args is the argv, usually
// strings; it is sent as a JSON array.
func (c *Client) Command(ctx context.Context, args ...any) error {
	if c == nil || c.backend == nil {
		return fmt.Errorf("appctl: client is nil")
	}
	if args == nil {
		args = []any{}
	}
	return c.backend.Command(ctx, args)
}

type httpBackend struct {
	codec *bridge.Codec
}

func (b *httpBackend) Exit(ctx context.Context) error {
	_, err := b.codec.Get(ctx, RouteExit, nil, bridge.ResponseNone)
	return err
}

func (b *httpBackend) Command(ctx context.Context, args []any) error {
	_, err := b.codec.Get(ctx, RouteCommand, args, bridge.ResponseNone)
	return err
}

// Recorder is a Backend that records calls without acting on them.
type Recorder struct {
	mu       sync.Mutex
	exits    int
	commands [][]any
}

func (r *Recorder) Exit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	r.exits++
	r.mu.Unlock()
	return nil
}

func (r *Recorder) Command(ctx context.Context, args []any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cmd := make([]any, len(args))
	copy(cmd, args)
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	r.mu.Unlock()
	return nil
}

// Exits reports how many exit requests were received.
func (r *Recorder) Exits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exits
}

// Commands returns a copy of the recorded command argument lists.
func (r *Recorder) Commands() [][]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]any, len(r.commands))
	copy(out, r.commands)
	return out
}
