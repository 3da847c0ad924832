package devseed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFSSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	seed := `[
		{"path":"/docs","folder":true},
		{"path":"/docs/a.txt","text":"hello","modified":"2024-01-02T03:04:05Z"},
		{"path":"/b.bin","base64":"AAE="}
	]`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	entries, err := LoadFSSeed(path)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.True(t, entries[0].Folder)
	require.NotNil(t, entries[1].Text)
	require.Equal(t, "hello", *entries[1].Text)
	require.NotNil(t, entries[1].Modified)
	require.Equal(t, 2024, entries[1].Modified.Year())
	require.Equal(t, "AAE=", entries[2].Base64)
}

func TestLoadFSSeedErrors(t *testing.T) {
	_, err := LoadFSSeed(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
	_, err = LoadFSSeed(path)
	require.Error(t, err)
}
