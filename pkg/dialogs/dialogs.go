// Package dialogs asks the app server to show native file-choice dialogs.
// Each call blocks until the user picks a path or cancels; a cancelled
// dialog yields an empty string.
package dialogs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/localapp/appbridge_go/internal/httpx"
	"github.com/localapp/appbridge_go/pkg/bridge"
)

const (
	RouteChooseOpenFile = "/ui/chooseopenfile"
	RouteChooseSaveFile = "/ui/choosesavefile"
	RouteChooseFolder   = "/ui/choosefolder"
)

// Kind identifies a dialog.
type Kind string

const (
	KindOpenFile Kind = "openfile"
	KindSaveFile Kind = "savefile"
	KindFolder   Kind = "folder"
)

// Route returns the remote route for k.
func (k Kind) Route() string {
	switch k {
	case KindOpenFile:
		return RouteChooseOpenFile
	case KindSaveFile:
		return RouteChooseSaveFile
	case KindFolder:
		return RouteChooseFolder
	}
	return ""
}

// FileType is one entry of the dialog's file type filter.
type FileType struct {
	Label   string
	Pattern string
}

// MarshalJSON encodes f as a [label, pattern] pair.
func (f FileType) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{f.Label, f.Pattern})
}

func (f *FileType) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("dialogs: file type must be a [label, pattern] pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("dialogs: file type must have 2 elements, got %d", len(pair))
	}
	f.Label, f.Pattern = pair[0], pair[1]
	return nil
}

// Options configures a dialog. Empty fields are not sent.
type Options struct {
	Title            string     `json:"title,omitempty"`
	InitialDir       string     `json:"initialdir,omitempty"`
	InitialFile      string     `json:"initialfile,omitempty"`
	FileTypes        []FileType `json:"filetypes,omitempty"`
	DefaultExtension string     `json:"defaultextension,omitempty"`
}

// Backend shows dialogs.
type Backend interface {
	Choose(ctx context.Context, kind Kind, opts *Options) (string, error)
}

// Client provides access to the dialog operations.
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

// ChooseOpenFile asks the user for an existing file.
func (c *Client) ChooseOpenFile(ctx context.Context, opts *Options) (string, error) {
	return c.choose(ctx, KindOpenFile, opts)
}

// ChooseSaveFile asks the user for a file name to save to.
func (c *Client) ChooseSaveFile(ctx context.Context, opts *Options) (string, error) {
	return c.choose(ctx, KindSaveFile, opts)
}

// ChooseFolder asks the user for a folder.
func (c *Client) ChooseFolder(ctx context.Context, opts *Options) (string, error) {
	return c.choose(ctx, KindFolder, opts)
}

func (c *Client) choose(ctx context.Context, kind Kind, opts *Options) (string, error) {
	if c == nil || c.backend == nil {
		return "", fmt.Errorf("dialogs: client is nil")
	}
	return c.backend.Choose(ctx, kind, opts)
}

type httpBackend struct {
	codec *bridge.Codec
}

func (b *httpBackend) Choose(ctx context.Context, kind Kind, opts *Options) (string, error) {
	route := kind.Route()
	if route == "" {
		return "", fmt.Errorf("dialogs: unknown dialog kind %q", kind)
	}
	v, err := b.codec.Get(ctx, route, opts, bridge.ResponseText)
	if err != nil {
		return "", err
	}
	return v.Text(), nil
}

// Scripted answers dialogs with a function instead of a user. It backs
// mock mode and the sandbox server.
type Scripted func(kind Kind, opts *Options) string

// Choose implements Backend.
func (s Scripted) Choose(ctx context.Context, kind Kind, opts *Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s == nil {
		return "", nil
	}
	return s(kind, opts), nil
}

// Cancel is a Scripted backend that cancels every dialog.
var Cancel = Scripted(func(Kind, *Options) string { return "" })

// Answer returns a Scripted backend that always picks path.
func Answer(path string) Scripted {
	return func(Kind, *Options) string { return path }
}
