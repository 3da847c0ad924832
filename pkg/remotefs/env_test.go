package remotefs_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/localapp/appbridge_go/pkg/remotefs"
)

func TestNewFromEnv(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("docs/a.txt"))
	}))
	defer srv.Close()

	t.Setenv(remotefs.EnvOrigin, srv.URL)
	client, err := remotefs.NewFromEnv()
	require.NoError(t, err)

	rel, err := client.RelativePath(context.Background(), "/x/docs/a.txt")
	require.NoError(t, err)
	require.Equal(t, "docs/a.txt", rel)
}

func TestNewFromEnvMissingOrigin(t *testing.T) {
	t.Setenv(remotefs.EnvOrigin, "")
	_, err := remotefs.NewFromEnv()
	require.Error(t, err)

	t.Setenv(remotefs.EnvOrigin, "not-a-url")
	_, err = remotefs.NewFromEnv()
	require.Error(t, err)
}
