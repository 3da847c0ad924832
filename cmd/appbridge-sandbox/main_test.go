package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/localapp/appbridge_go/internal/sandbox"
)

func TestApplyEntryDefaults(t *testing.T) {
	o, err := applyEntry(flags{root: "."}, nil)
	require.NoError(t, err)
	require.Equal(t, ".", o.root)
	require.Equal(t, sandbox.DefaultEntryFile, o.entry)
}

func TestApplyEntrySetsRoot(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "app.html")
	require.NoError(t, os.WriteFile(page, []byte("<html></html>"), 0o600))

	o, err := applyEntry(flags{root: "."}, []string{page})
	require.NoError(t, err)
	require.Equal(t, dir, o.root)
	require.Equal(t, "app.html", o.entry)

	_, err = applyEntry(flags{}, []string{filepath.Join(dir, "missing", "x.html")})
	require.Error(t, err)
}
