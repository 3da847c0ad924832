// Package mock provides an in-memory remotefs.Backend for tests, mock mode
// and the sandbox server.
package mock

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/localapp/appbridge_go/internal/devseed"
	"github.com/localapp/appbridge_go/pkg/bridge"
	"github.com/localapp/appbridge_go/pkg/remotefs"
)

type node struct {
	folder   bool
	data     []byte
	created  time.Time
	modified time.Time
	accessed time.Time
}

// Mock implements an in-memory filesystem rooted at "/". Relative paths are
// resolved against Root.
type Mock struct {
	mu    sync.RWMutex
	nodes map[string]*node
	root  string
	now   func() time.Time
}

var _ remotefs.Backend = (*Mock)(nil)

// Option configures a Mock.
type Option func(*Mock)

// WithRoot sets the folder relative paths resolve against. It is created if
// missing.
func WithRoot(root string) Option {
	return func(m *Mock) {
		m.root = path.Clean("/" + root)
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Mock) {
		if now != nil {
			m.now = now
		}
	}
}

// New constructs an empty filesystem containing only the root folder.
func New(opts ...Option) *Mock {
	m := &Mock{
		nodes: make(map[string]*node),
		root:  "/",
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.nodes["/"] = m.newFolder()
	m.mkdirAll(m.root)
	return m
}

// Root returns the folder relative paths resolve against.
func (m *Mock) Root() string { return m.root }

// Seed loads files and folders from seed entries. Missing parent folders are
// created.
func (m *Mock) Seed(entries []devseed.FSSeedEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		if strings.TrimSpace(e.Path) == "" {
			return fmt.Errorf("mock remotefs: seed entry missing path")
		}
		p := m.abs(e.Path)
		if e.Folder {
			m.mkdirAll(p)
			continue
		}
		var data []byte
		switch {
		case e.Text != nil:
			data = []byte(*e.Text)
		default:
			decoded, err := base64.StdEncoding.DecodeString(e.Base64)
			if err != nil {
				return fmt.Errorf("mock remotefs: decode base64 for %s: %w", e.Path, err)
			}
			data = decoded
		}
		m.mkdirAll(path.Dir(p))
		n := m.newFile(data)
		if e.Modified != nil {
			n.modified = *e.Modified
		}
		m.nodes[p] = n
	}
	return nil
}

func (m *Mock) ReadText(ctx context.Context, p string) (string, error) {
	data, err := m.ReadBinary(ctx, p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (m *Mock) ReadBinary(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	abs := m.abs(p)
	n, ok := m.nodes[abs]
	if !ok {
		return nil, fmt.Errorf("%w: %s", remotefs.ErrNotFound, abs)
	}
	if n.folder {
		return nil, fmt.Errorf("%w: %s", remotefs.ErrIsFolder, abs)
	}
	n.accessed = m.now()
	return append([]byte(nil), n.data...), nil
}

func (m *Mock) ReadFolder(ctx context.Context, p string) ([]remotefs.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	dir := m.abs(p)
	n, ok := m.nodes[dir]
	if !ok {
		return nil, fmt.Errorf("%w: %s", remotefs.ErrNotFound, dir)
	}
	if !n.folder {
		return nil, fmt.Errorf("%w: %s", remotefs.ErrNotFolder, dir)
	}

	entries := make([]remotefs.Entry, 0)
	for child, cn := range m.nodes {
		if child == "/" || path.Dir(child) != dir {
			continue
		}
		typ := remotefs.TypeFile
		if cn.folder {
			typ = remotefs.TypeFolder
		}
		entries = append(entries, remotefs.Entry{Name: path.Base(child), Path: child, Type: typ})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *Mock) GetStats(ctx context.Context, p string) (*remotefs.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	abs := m.abs(p)
	n, ok := m.nodes[abs]
	if !ok {
		return nil, fmt.Errorf("%w: %s", remotefs.ErrNotFound, abs)
	}
	typ := remotefs.TypeFile
	if n.folder {
		typ = remotefs.TypeFolder
	}
	return &remotefs.Stats{
		Path:     abs,
		Type:     typ,
		Accessed: remotefs.NewTimestamp(n.accessed),
		Modified: remotefs.NewTimestamp(n.modified),
		Created:  remotefs.NewTimestamp(n.created),
	}, nil
}

func (m *Mock) WriteFile(ctx context.Context, p string, contents bridge.Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	abs := m.abs(p)
	if err := m.requireFolder(path.Dir(abs)); err != nil {
		return err
	}
	data := append([]byte(nil), contents.Bytes()...)
	if n, ok := m.nodes[abs]; ok {
		if n.folder {
			return fmt.Errorf("%w: %s", remotefs.ErrIsFolder, abs)
		}
		n.data = data
		n.modified = m.now()
		return nil
	}
	m.nodes[abs] = m.newFile(data)
	return nil
}

func (m *Mock) DeleteFiles(ctx context.Context, paths []string) ([]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]bool, len(paths))
	for i, p := range paths {
		abs := m.abs(p)
		n, ok := m.nodes[abs]
		if !ok || n.folder {
			continue
		}
		delete(m.nodes, abs)
		result[i] = true
	}
	return result, nil
}

func (m *Mock) MakeFolder(ctx context.Context, p string, existOK bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	abs := m.abs(p)
	if n, ok := m.nodes[abs]; ok {
		if n.folder && existOK {
			return nil
		}
		return fmt.Errorf("%w: %s", remotefs.ErrExists, abs)
	}
	for dir := path.Dir(abs); dir != "/"; dir = path.Dir(dir) {
		if n, ok := m.nodes[dir]; ok && !n.folder {
			return fmt.Errorf("%w: %s", remotefs.ErrNotFolder, dir)
		}
	}
	m.mkdirAll(abs)
	return nil
}

func (m *Mock) DeleteFolder(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	abs := m.abs(p)
	if abs == "/" {
		return fmt.Errorf("mock remotefs: cannot remove root folder")
	}
	if err := m.requireFolder(abs); err != nil {
		return err
	}
	for child := range m.nodes {
		if child != "/" && path.Dir(child) == abs {
			return fmt.Errorf("%w: %s", remotefs.ErrNotEmpty, abs)
		}
	}
	delete(m.nodes, abs)
	return nil
}

func (m *Mock) CopyFiles(ctx context.Context, specs []remotefs.CopySpec) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, spec := range specs {
		src := m.abs(spec.Src)
		sn, ok := m.nodes[src]
		if !ok {
			return fmt.Errorf("%w: %s", remotefs.ErrNotFound, src)
		}
		if sn.folder {
			return fmt.Errorf("%w: %s", remotefs.ErrIsFolder, src)
		}
		dest := m.abs(spec.Dest)
		if dn, ok := m.nodes[dest]; ok && dn.folder {
			dest = path.Join(dest, path.Base(src))
		}
		if err := m.requireFolder(path.Dir(dest)); err != nil {
			return err
		}
		m.nodes[dest] = m.newFile(append([]byte(nil), sn.data...))
	}
	return nil
}

func (m *Mock) RelativePath(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rel, err := filepath.Rel(filepath.FromSlash(m.root), filepath.FromSlash(m.abs(p)))
	if err != nil {
		return "", fmt.Errorf("mock remotefs: relative path: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

func (m *Mock) abs(p string) string {
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	return path.Join(m.root, p)
}

func (m *Mock) requireFolder(dir string) error {
	n, ok := m.nodes[dir]
	if !ok {
		return fmt.Errorf("%w: %s", remotefs.ErrNotFound, dir)
	}
	if !n.folder {
		return fmt.Errorf("%w: %s", remotefs.ErrNotFolder, dir)
	}
	return nil
}

// mkdirAll creates dir and its parents. Callers hold the write lock.
func (m *Mock) mkdirAll(dir string) {
	for d := dir; ; d = path.Dir(d) {
		if _, ok := m.nodes[d]; !ok {
			m.nodes[d] = m.newFolder()
		}
		if d == "/" {
			return
		}
	}
}

func (m *Mock) newFolder() *node {
	now := m.now()
	return &node{folder: true, created: now, modified: now, accessed: now}
}

func (m *Mock) newFile(data []byte) *node {
	now := m.now()
	return &node{data: data, created: now, modified: now, accessed: now}
}
