package appctl_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/localapp/appbridge_go/pkg/appctl"
	"github.com/localapp/appbridge_go/pkg/bridge"
)

func TestExitAndCommandWireShape(t *testing.T) {
	type hit struct {
		method, path, rawQuery, args string
	}
	var hits []hit
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, hit{r.Method, r.URL.Path, r.URL.RawQuery, r.URL.Query().Get("args")})
		if r.URL.Path == "/api/exit" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte("done"))
	}))
	defer srv.Close()

	client, err := appctl.New(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, client.Command(ctx, "notepad", "a b.txt"))
	require.NoError(t, client.Exit(ctx))

	require.Len(t, hits, 2)
	require.Equal(t, http.MethodGet, hits[0].method)
	require.Equal(t, "/api/command", hits[0].path)
	require.JSONEq(t, `["notepad","a b.txt"]`, hits[0].args)
	require.Equal(t, "/api/exit", hits[1].path)
	require.Empty(t, hits[1].rawQuery)
}

func TestCommandFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "FileNotFoundError: nope", http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := appctl.New(srv.URL)
	require.NoError(t, err)
	err = client.Command(context.Background(), "nope")
	require.True(t, bridge.IsRemoteCallFailed(err))
}

func TestRecorder(t *testing.T) {
	rec := &appctl.Recorder{}
	client := appctl.NewWithBackend(rec)
	ctx := context.Background()

	require.NoError(t, client.Command(ctx, "ls", 1))
	require.NoError(t, client.Command(ctx))
	require.NoError(t, client.Exit(ctx))

	require.Equal(t, 1, rec.Exits())
	require.Equal(t, [][]any{{"ls", 1}, {}}, rec.Commands())
}
