package sandbox_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/localapp/appbridge_go/internal/httpx"
	"github.com/localapp/appbridge_go/internal/sandbox"
	"github.com/localapp/appbridge_go/pkg/remotefs"
	"github.com/localapp/appbridge_go/pkg/remotefs/mock"
)

// writeKeyPair stores a self-signed localhost certificate under dir.
func writeKeyPair(t *testing.T, dir, certName, keyName string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "localhost"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})
	require.NoError(t, os.WriteFile(filepath.Join(dir, certName), certPEM, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, keyName), keyPEM, 0o600))
}

func TestResolveTLSWithoutKeyPairIsPlainHTTP(t *testing.T) {
	cfg, err := sandbox.ResolveTLS("", "", t.TempDir())
	require.NoError(t, err)
	require.Nil(t, cfg)
}

func TestResolveTLSFindsDefaultKeyPair(t *testing.T) {
	empty, dir := t.TempDir(), t.TempDir()
	writeKeyPair(t, dir, sandbox.DefaultCertFile, sandbox.DefaultKeyFile)

	cfg, err := sandbox.ResolveTLS("", "", empty, dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Len(t, cfg.Certificates, 1)
}

func TestResolveTLSExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	writeKeyPair(t, dir, "cert.pem", "key.pem")

	cfg, err := sandbox.ResolveTLS(filepath.Join(dir, "cert.pem"), filepath.Join(dir, "key.pem"))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	_, err = sandbox.ResolveTLS(filepath.Join(dir, "cert.pem"), "")
	require.ErrorContains(t, err, "must be set together")

	_, err = sandbox.ResolveTLS(filepath.Join(dir, "missing.pem"), filepath.Join(dir, "key.pem"))
	require.ErrorContains(t, err, "load key pair")
}

func TestSandboxOverTLS(t *testing.T) {
	dir := t.TempDir()
	writeKeyPair(t, dir, sandbox.DefaultCertFile, sandbox.DefaultKeyFile)
	cfg, err := sandbox.ResolveTLS("", "", dir)
	require.NoError(t, err)

	h, err := sandbox.NewHandler(sandbox.Config{FS: mock.New()})
	require.NoError(t, err)
	srv := httptest.NewUnstartedServer(h)
	srv.TLS = cfg
	srv.StartTLS()
	t.Cleanup(srv.Close)
	require.Contains(t, srv.URL, "https://")

	fs, err := remotefs.New(srv.URL, httpx.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, fs.WriteText(ctx, "/hello.txt", "over tls"))
	text, err := fs.ReadText(ctx, "/hello.txt")
	require.NoError(t, err)
	require.Equal(t, "over tls", text)
}

func TestSplitEntry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.html"), []byte("<html></html>"), 0o600))

	root, entry, err := sandbox.SplitEntry(filepath.Join(dir, "app.html"))
	require.NoError(t, err)
	require.Equal(t, dir, root)
	require.Equal(t, "app.html", entry)

	root, entry, err = sandbox.SplitEntry(dir)
	require.NoError(t, err)
	require.Equal(t, dir, root)
	require.Equal(t, sandbox.DefaultEntryFile, entry)

	// The page itself may not exist yet, only its folder must.
	_, entry, err = sandbox.SplitEntry(filepath.Join(dir, "later.html"))
	require.NoError(t, err)
	require.Equal(t, "later.html", entry)

	_, _, err = sandbox.SplitEntry(filepath.Join(dir, "nope", "page.html"))
	require.ErrorContains(t, err, "does not exist")
}

func TestEntryURL(t *testing.T) {
	require.Equal(t, "http://127.0.0.1:8787/index.html", sandbox.EntryURL("http", "127.0.0.1:8787", "index.html"))
	require.Equal(t, "https://localhost:4443/app.html", sandbox.EntryURL("https", ":4443", "app.html"))
	require.Equal(t, "https://localhost:4443/api", sandbox.EntryURL("https", "0.0.0.0:4443", "api"))
	require.Equal(t, "http://localhost/index.html", sandbox.EntryURL("http", "localhost", "index.html"))
}
