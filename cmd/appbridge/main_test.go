package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/localapp/appbridge_go/internal/sandbox"
	"github.com/localapp/appbridge_go/pkg/appctl"
	"github.com/localapp/appbridge_go/pkg/dialogs"
	"github.com/localapp/appbridge_go/pkg/remotefs"
	"github.com/localapp/appbridge_go/pkg/remotefs/mock"
)

func startServer(t *testing.T, cfg sandbox.Config) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h, err := sandbox.NewHandler(cfg)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

// resetFlags restores defaults; cobra keeps flag values between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFilesystemCommands(t *testing.T) {
	store := mock.New()
	origin := startServer(t, sandbox.Config{FS: store})

	_, err := execute(t, "hello", "--origin", origin, "-o", "text", "put", "--text", "/a.txt")
	require.NoError(t, err)

	out, err := execute(t, "", "--origin", origin, "-o", "text", "cat", "/a.txt")
	require.NoError(t, err)
	require.Equal(t, "hello", out)

	_, err = execute(t, "", "--origin", origin, "-o", "text", "mkdir", "-p", "/docs")
	require.NoError(t, err)
	_, err = execute(t, "", "--origin", origin, "-o", "text", "cp", "/a.txt", "/docs")
	require.NoError(t, err)

	out, err = execute(t, "", "--origin", origin, "-o", "json", "ls", "/docs")
	require.NoError(t, err)
	var entries []remotefs.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Equal(t, []remotefs.Entry{{Name: "a.txt", Path: "/docs/a.txt", Type: remotefs.TypeFile}}, entries)

	out, err = execute(t, "", "--origin", origin, "-o", "text", "rm", "/docs/a.txt", "/missing")
	require.NoError(t, err)
	require.Equal(t, "deleted\t/docs/a.txt\nfailed\t/missing\n", out)

	_, err = execute(t, "", "--origin", origin, "-o", "text", "rmdir", "/docs")
	require.NoError(t, err)

	out, err = execute(t, "", "--origin", origin, "-o", "text", "relpath", "/a.txt")
	require.NoError(t, err)
	require.Equal(t, "a.txt\n", out)
}

func TestGetWritesLocalFile(t *testing.T) {
	store := mock.New()
	origin := startServer(t, sandbox.Config{FS: store})
	local := filepath.Join(t.TempDir(), "in.bin")
	require.NoError(t, os.WriteFile(local, []byte{0, 1, 2}, 0o644))

	_, err := execute(t, "", "--origin", origin, "-o", "text", "put", "/blob.bin", local)
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "out.bin")
	_, err = execute(t, "", "--origin", origin, "-o", "text", "get", "/blob.bin", dest)
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 1, 2}, data)
}

func TestRemoteFailureIsReturned(t *testing.T) {
	origin := startServer(t, sandbox.Config{FS: mock.New()})
	_, err := execute(t, "", "--origin", origin, "-o", "text", "cat", "/missing.txt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestDialogAndAppCommands(t *testing.T) {
	rec := &appctl.Recorder{}
	origin := startServer(t, sandbox.Config{FS: mock.New(), Dialogs: dialogs.Answer("/picked"), App: rec})

	out, err := execute(t, "", "--origin", origin, "-o", "text", "open", "--title", "Pick", "--filetype", "Text=*.txt")
	require.NoError(t, err)
	require.Equal(t, "/picked\n", out)

	_, err = execute(t, "", "--origin", origin, "-o", "text", "run", "--numbers", "sleep", "1")
	require.NoError(t, err)
	_, err = execute(t, "", "--origin", origin, "-o", "text", "exit")
	require.NoError(t, err)

	require.Equal(t, [][]any{{"sleep", float64(1)}}, rec.Commands())
	require.Equal(t, 1, rec.Exits())
}

func TestDialogFlagsWithoutValuesSendNoOptions(t *testing.T) {
	opts, err := dialogFlags{}.options()
	require.NoError(t, err)
	require.Nil(t, opts)

	_, err = dialogFlags{fileTypes: []string{"bad"}}.options()
	require.Error(t, err)
}
