package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/localapp/appbridge_go/pkg/bridge"
	"github.com/localapp/appbridge_go/pkg/remotefs"
)

// DiskStore serves the file operations from the local filesystem. Relative
// paths resolve against Root.
type DiskStore struct {
	root string
}

var _ remotefs.Backend = (*DiskStore)(nil)

// NewDiskStore returns a store rooted at root, which must be an existing
// folder.
func NewDiskStore(root string) (*DiskStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("sandbox: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("sandbox: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sandbox: root %s is not a folder", abs)
	}
	return &DiskStore{root: abs}, nil
}

// Root returns the absolute root folder.
func (d *DiskStore) Root() string { return d.root }

func (d *DiskStore) abs(p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(d.root, p)
}

func (d *DiskStore) ReadText(ctx context.Context, p string) (string, error) {
	data, err := d.ReadBinary(ctx, p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (d *DiskStore) ReadBinary(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(d.abs(p))
}

func (d *DiskStore) ReadFolder(ctx context.Context, p string) ([]remotefs.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := d.abs(p)
	names, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]remotefs.Entry, 0, len(names))
	for _, de := range names {
		full := filepath.Join(dir, de.Name())
		entries = append(entries, remotefs.Entry{
			Name: de.Name(),
			Path: full,
			Type: entryType(full),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// entryType follows symlinks, so a link to a folder lists as a folder.
func entryType(full string) remotefs.EntryType {
	info, err := os.Stat(full)
	switch {
	case err != nil:
		return remotefs.TypeOther
	case info.Mode().IsRegular():
		return remotefs.TypeFile
	case info.IsDir():
		return remotefs.TypeFolder
	default:
		return remotefs.TypeOther
	}
}

func (d *DiskStore) GetStats(ctx context.Context, p string) (*remotefs.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs := d.abs(p)
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	typ := remotefs.TypeFile
	if info.IsDir() {
		typ = remotefs.TypeFolder
	}
	times := statTimes(info)
	return &remotefs.Stats{
		Path:     abs,
		Type:     typ,
		Accessed: remotefs.NewTimestamp(times.accessed),
		Modified: remotefs.NewTimestamp(info.ModTime()),
		Created:  remotefs.NewTimestamp(times.created),
	}, nil
}

func (d *DiskStore) WriteFile(ctx context.Context, p string, contents bridge.Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(d.abs(p), contents.Bytes(), 0o644)
}

func (d *DiskStore) DeleteFiles(ctx context.Context, paths []string) ([]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := make([]bool, len(paths))
	for i, p := range paths {
		abs := d.abs(p)
		info, err := os.Lstat(abs)
		if err != nil || info.IsDir() {
			continue
		}
		result[i] = os.Remove(abs) == nil
	}
	return result, nil
}

func (d *DiskStore) MakeFolder(ctx context.Context, p string, existOK bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs := d.abs(p)
	info, err := os.Stat(abs)
	if err == nil {
		if info.IsDir() && existOK {
			return nil
		}
		return fmt.Errorf("%w: %s", remotefs.ErrExists, abs)
	}
	return os.MkdirAll(abs, 0o755)
}

func (d *DiskStore) DeleteFolder(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs := d.abs(p)
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", remotefs.ErrNotFolder, abs)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("%w: %s", remotefs.ErrNotEmpty, abs)
	}
	return os.Remove(abs)
}

func (d *DiskStore) CopyFiles(ctx context.Context, specs []remotefs.CopySpec) error {
	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := copyFile(d.abs(spec.Src), d.abs(spec.Dest)); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s", remotefs.ErrIsFolder, src)
	}
	if di, err := os.Stat(dest); err == nil && di.IsDir() {
		dest = filepath.Join(dest, filepath.Base(src))
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func (d *DiskStore) RelativePath(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return filepath.Rel(d.root, d.abs(p))
}

// IsNotFound reports whether err means a missing file or folder, for either
// store.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, remotefs.ErrNotFound)
}
