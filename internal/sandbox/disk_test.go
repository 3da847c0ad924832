package sandbox

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/localapp/appbridge_go/pkg/bridge"
	"github.com/localapp/appbridge_go/pkg/remotefs"
)

func newDisk(t *testing.T) (*DiskStore, string) {
	t.Helper()
	root := t.TempDir()
	d, err := NewDiskStore(root)
	require.NoError(t, err)
	return d, d.Root()
}

func TestNewDiskStoreRejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err := NewDiskStore(file)
	require.Error(t, err)

	_, err = NewDiskStore(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestDiskRelativePathsResolveAgainstRoot(t *testing.T) {
	d, root := newDisk(t)
	ctx := context.Background()

	require.NoError(t, d.WriteFile(ctx, "note.txt", bridge.Text("hi")))
	data, err := os.ReadFile(filepath.Join(root, "note.txt"))
	require.NoError(t, err)
	require.Equal(t, "hi", string(data))

	rel, err := d.RelativePath(ctx, "note.txt")
	require.NoError(t, err)
	require.Equal(t, "note.txt", rel)
}

func TestDiskReadMissing(t *testing.T) {
	d, _ := newDisk(t)
	_, err := d.ReadText(context.Background(), "nope")
	require.True(t, errors.Is(err, fs.ErrNotExist))
	require.True(t, IsNotFound(err))
}

func TestDiskMakeFolder(t *testing.T) {
	d, root := newDisk(t)
	ctx := context.Background()

	require.NoError(t, d.MakeFolder(ctx, "a/b", false))
	info, err := os.Stat(filepath.Join(root, "a", "b"))
	require.NoError(t, err)
	require.True(t, info.IsDir())

	require.NoError(t, d.MakeFolder(ctx, "a/b", true))
	require.ErrorIs(t, d.MakeFolder(ctx, "a/b", false), remotefs.ErrExists)

	require.NoError(t, d.WriteFile(ctx, "file", bridge.Text("x")))
	require.ErrorIs(t, d.MakeFolder(ctx, "file", true), remotefs.ErrExists)
}

func TestDiskDeleteFolder(t *testing.T) {
	d, _ := newDisk(t)
	ctx := context.Background()

	require.NoError(t, d.MakeFolder(ctx, "full", false))
	require.NoError(t, d.WriteFile(ctx, "full/x", bridge.Text("x")))
	require.ErrorIs(t, d.DeleteFolder(ctx, "full"), remotefs.ErrNotEmpty)
	require.ErrorIs(t, d.DeleteFolder(ctx, "full/x"), remotefs.ErrNotFolder)

	deleted, err := d.DeleteFiles(ctx, []string{"full/x", "full"})
	require.NoError(t, err)
	require.Equal(t, []bool{true, false}, deleted)
	require.NoError(t, d.DeleteFolder(ctx, "full"))
}

func TestDiskCopyFiles(t *testing.T) {
	d, root := newDisk(t)
	ctx := context.Background()

	require.NoError(t, d.WriteFile(ctx, "src.bin", bridge.Binary([]byte{1, 2, 3})))
	require.NoError(t, d.MakeFolder(ctx, "out", false))
	require.NoError(t, d.CopyFiles(ctx, []remotefs.CopySpec{
		{Src: "src.bin", Dest: "out"},
		{Src: "src.bin", Dest: "copy.bin"},
	}))

	for _, p := range []string{"out/src.bin", "copy.bin"} {
		data, err := os.ReadFile(filepath.Join(root, p))
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3}, data)
	}

	require.ErrorIs(t, d.CopyFiles(ctx, []remotefs.CopySpec{{Src: "out", Dest: "x"}}), remotefs.ErrIsFolder)
}

func TestDiskReadFolderAndStats(t *testing.T) {
	d, root := newDisk(t)
	ctx := context.Background()

	require.NoError(t, d.WriteFile(ctx, "b.txt", bridge.Text("b")))
	require.NoError(t, d.MakeFolder(ctx, "a", false))
	require.NoError(t, os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "dangling")))

	entries, err := d.ReadFolder(ctx, ".")
	require.NoError(t, err)
	require.Equal(t, []remotefs.Entry{
		{Name: "a", Path: filepath.Join(root, "a"), Type: remotefs.TypeFolder},
		{Name: "b.txt", Path: filepath.Join(root, "b.txt"), Type: remotefs.TypeFile},
		{Name: "dangling", Path: filepath.Join(root, "dangling"), Type: remotefs.TypeOther},
	}, entries)

	stats, err := d.GetStats(ctx, "b.txt")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "b.txt"), stats.Path)
	require.Equal(t, remotefs.TypeFile, stats.Type)
	require.False(t, stats.Accessed.Time.IsZero())
	require.False(t, stats.Created.Time.IsZero())
}
