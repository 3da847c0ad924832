package sandbox

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
)

const (
	// DefaultEntryFile is opened when no entry page is named.
	DefaultEntryFile = "index.html"

	// DefaultCertFile and DefaultKeyFile are picked up from the search
	// folders when no certificate is configured.
	DefaultCertFile = "localhost.pem"
	DefaultKeyFile  = "localhost-key.pem"
)

// SplitEntry turns an entry page argument into the folder to serve and the
// page to open. A folder argument opens DefaultEntryFile inside it.
func SplitEntry(arg string) (root, entry string, err error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", "", fmt.Errorf("sandbox: resolve entry page: %w", err)
	}
	info, err := os.Stat(abs)
	if err == nil && info.IsDir() {
		return abs, DefaultEntryFile, nil
	}
	root, entry = filepath.Split(abs)
	root = filepath.Clean(root)
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return "", "", fmt.Errorf("sandbox: entry page folder %s does not exist", root)
	}
	if entry == "" {
		entry = DefaultEntryFile
	}
	return root, entry, nil
}

// EntryURL is the address a browser should open for entry.
func EntryURL(scheme, addr, entry string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host, port = addr, ""
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	if port != "" {
		host = net.JoinHostPort(host, port)
	}
	u := url.URL{Scheme: scheme, Host: host, Path: "/" + filepath.ToSlash(entry)}
	return u.String()
}

// ResolveTLS loads the configured key pair. With neither file configured it
// looks for DefaultCertFile and DefaultKeyFile in searchDirs and returns a
// nil config, meaning plain HTTP, when no pair is found.
func ResolveTLS(certFile, keyFile string, searchDirs ...string) (*tls.Config, error) {
	switch {
	case certFile != "" && keyFile != "":
	case certFile != "" || keyFile != "":
		return nil, errors.New("sandbox: --tls-cert and --tls-key must be set together")
	default:
		var ok bool
		certFile, keyFile, ok = findKeyPair(searchDirs)
		if !ok {
			return nil, nil
		}
	}
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("sandbox: load key pair: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func findKeyPair(dirs []string) (string, string, bool) {
	for _, dir := range dirs {
		cert := filepath.Join(dir, DefaultCertFile)
		key := filepath.Join(dir, DefaultKeyFile)
		if fileExists(cert) && fileExists(key) {
			return cert, key, true
		}
	}
	return "", "", false
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
