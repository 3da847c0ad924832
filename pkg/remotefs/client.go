package remotefs

import (
	"context"
	"fmt"

	"github.com/localapp/appbridge_go/internal/httpx"
	"github.com/localapp/appbridge_go/pkg/bridge"
)

// Backend performs the file operations. The HTTP backend maps each method onto
// one bridge call; mocks and the sandbox disk store implement it directly.
type Backend interface {
	ReadText(ctx context.Context, path string) (string, error)
	ReadBinary(ctx context.Context, path string) ([]byte, error)
	ReadFolder(ctx context.Context, path string) ([]Entry, error)
	GetStats(ctx context.Context, path string) (*Stats, error)
	WriteFile(ctx context.Context, path string, contents bridge.Payload) error
	DeleteFiles(ctx context.Context, paths []string) ([]bool, error)
	MakeFolder(ctx context.Context, path string, existOK bool) error
	DeleteFolder(ctx context.Context, path string) error
	CopyFiles(ctx context.Context, specs []CopySpec) error
	RelativePath(ctx context.Context, path string) (string, error)
}

// Client provides access to the remote file operations.
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

// NewWithBackend allows callers to provide a custom backend (e.g., mocks).
func NewWithBackend(b Backend) *Client {
	return &Client{backend: b}
}

// Backend returns the backend the client delegates to.
func (c *Client) Backend() Backend {
	if c == nil {
		return nil
	}
	return c.backend
}

// ReadText returns the contents of a text file.
func (c *Client) ReadText(ctx context.Context, path string) (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}
	return c.backend.ReadText(ctx, path)
}

// ReadBinary returns the raw contents of a file.
func (c *Client) ReadBinary(ctx context.Context, path string) ([]byte, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	return c.backend.ReadBinary(ctx, path)
}

// ReadFolder lists the entries of a folder.
func (c *Client) ReadFolder(ctx context.Context, path string) ([]Entry, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	return c.backend.ReadFolder(ctx, path)
}

// GetStats returns type and timestamps of a file or folder.
func (c *Client) GetStats(ctx context.Context, path string) (*Stats, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	return c.backend.GetStats(ctx, path)
}

// WriteFile creates or replaces a file.
func (c *Client) WriteFile(ctx context.Context, path string, contents bridge.Payload) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.backend.WriteFile(ctx, path, contents)
}

// WriteText is WriteFile with a text payload.
func (c *Client) WriteText(ctx context.Context, path, contents string) error {
	return c.WriteFile(ctx, path, bridge.Text(contents))
}

// WriteBytes is WriteFile with a binary payload.
func (c *Client) WriteBytes(ctx context.Context, path string, contents []byte) error {
	return c.WriteFile(ctx, path, bridge.Binary(contents))
}

// DeleteFiles removes files and reports per path whether removal succeeded.
// A failed removal does not fail the call.
func (c *Client) DeleteFiles(ctx context.Context, paths ...string) ([]bool, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if paths == nil {
		paths = []string{}
	}
	return c.backend.DeleteFiles(ctx, paths)
}

// MakeFolder creates a folder and any missing parents.
func (c *Client) MakeFolder(ctx context.Context, path string, existOK bool) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.backend.MakeFolder(ctx, path, existOK)
}

// DeleteFolder removes an empty folder.
func (c *Client) DeleteFolder(ctx context.Context, path string) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.backend.DeleteFolder(ctx, path)
}

// CopyFiles copies each src to dest.
func (c *Client) CopyFiles(ctx context.Context, specs ...CopySpec) error {
	if err := c.check(); err != nil {
		return err
	}
	if specs == nil {
		specs = []CopySpec{}
	}
	return c.backend.CopyFiles(ctx, specs)
}

// CopyFile copies a single file.
func (c *Client) CopyFile(ctx context.Context, src, dest string) error {
	return c.CopyFiles(ctx, CopySpec{Src: src, Dest: dest})
}

// RelativePath returns path relative to the server root.
func (c *Client) RelativePath(ctx context.Context, path string) (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}
	return c.backend.RelativePath(ctx, path)
}

func (c *Client) check() error {
	if c == nil || c.backend == nil {
		return fmt.Errorf("remotefs: client is nil")
	}
	return nil
}

type httpBackend struct {
	codec *bridge.Codec
}

func (b *httpBackend) ReadText(ctx context.Context, path string) (string, error) {
	v, err := b.codec.Get(ctx, RouteReadText, path, bridge.ResponseText)
	if err != nil {
		return "", err
	}
	return v.Text(), nil
}

func (b *httpBackend) ReadBinary(ctx context.Context, path string) ([]byte, error) {
	v, err := b.codec.Get(ctx, RouteReadBinary, path, bridge.ResponseBinary)
	if err != nil {
		return nil, err
	}
	return v.Bytes(), nil
}

func (b *httpBackend) ReadFolder(ctx context.Context, path string) ([]Entry, error) {
	entries, err := bridge.GetJSON[[]Entry](ctx, b.codec, RouteReadFolder, path)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (b *httpBackend) GetStats(ctx context.Context, path string) (*Stats, error) {
	stats, err := bridge.GetJSON[*Stats](ctx, b.codec, RouteGetStats, path)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (b *httpBackend) WriteFile(ctx context.Context, path string, contents bridge.Payload) error {
	form := bridge.Form{
		{Name: "path", Value: bridge.Text(path)},
		{Name: "contents", Value: contents},
	}
	_, err := b.codec.Put(ctx, RouteWriteFile, form, bridge.ContentMultipart, bridge.ResponseNone)
	return err
}

func (b *httpBackend) DeleteFiles(ctx context.Context, paths []string) ([]bool, error) {
	return bridge.PutJSON[[]bool](ctx, b.codec, RouteDeleteFile, paths, bridge.ContentJSON)
}

func (b *httpBackend) MakeFolder(ctx context.Context, path string, existOK bool) error {
	_, err := b.codec.Put(ctx, RouteMakeFolder, MakeFolderArgs{Path: path, ExistOK: existOK}, bridge.ContentJSON, bridge.ResponseNone)
	return err
}

func (b *httpBackend) DeleteFolder(ctx context.Context, path string) error {
	_, err := b.codec.Put(ctx, RouteDeleteFolder, path, bridge.ContentJSON, bridge.ResponseNone)
	return err
}

func (b *httpBackend) CopyFiles(ctx context.Context, specs []CopySpec) error {
	var args any = specs
	if specs == nil {
		args = []CopySpec{}
	}
	if len(specs) == 1 {
		args = specs[0]
	}
	_, err := b.codec.Put(ctx, RouteCopyFile, args, bridge.ContentJSON, bridge.ResponseNone)
	return err
}

func (b *httpBackend) RelativePath(ctx context.Context, path string) (string, error) {
	v, err := b.codec.Get(ctx, RouteRelativePath, path, bridge.ResponseText)
	if err != nil {
		return "", err
	}
	return v.Text(), nil
}
