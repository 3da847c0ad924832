package appbridge_sdk

import (
	"fmt"
	"os"
	"strings"

	"github.com/localapp/appbridge_go/internal/devseed"
	"github.com/localapp/appbridge_go/internal/httpx"
	"github.com/localapp/appbridge_go/pkg/appctl"
	"github.com/localapp/appbridge_go/pkg/bridge"
	"github.com/localapp/appbridge_go/pkg/dialogs"
	"github.com/localapp/appbridge_go/pkg/remotefs"
	remotefsmock "github.com/localapp/appbridge_go/pkg/remotefs/mock"
)

const (
	EnvMode             = "APPBRIDGE_RUNTIME_MODE"
	EnvOrigin           = remotefs.EnvOrigin
	EnvMockFSSeed       = "APPBRIDGE_MOCK_FS_SEED"
	EnvMockFSRoot       = "APPBRIDGE_MOCK_FS_ROOT"
	EnvMockDialogAnswer = "APPBRIDGE_MOCK_DIALOG_ANSWER"

	ModeAuto = "auto"
	ModeHTTP = "http"
	ModeMock = "mock"
)

// Clients groups the call surface bound to one origin.
type Clients struct {
	FS      *remotefs.Client
	Dialogs *dialogs.Client
	App     *appctl.Client

	// Recorder is set in mock mode and captures exit and command calls.
	Recorder *appctl.Recorder
}

// New builds HTTP clients sharing a single codec for origin.
func New(origin string, opts ...httpx.Option) (*Clients, error) {
	codec, err := bridge.New(origin, opts...)
	if err != nil {
		return nil, err
	}
	return &Clients{
		FS:      remotefs.NewWithCodec(codec),
		Dialogs: dialogs.NewWithCodec(codec),
		App:     appctl.NewWithCodec(codec),
	}, nil
}

// NewFromEnv initialises the clients based on environment variables and
// returns the resolved mode ("http" or "mock").
func NewFromEnv(opts ...httpx.Option) (*Clients, string, error) {
	mode := strings.ToLower(strings.TrimSpace(os.Getenv(EnvMode)))
	origin := strings.TrimSpace(os.Getenv(EnvOrigin))

	switch mode {
	case "", ModeAuto:
		if origin != "" {
			return newHTTPClients(origin, opts)
		}
		return newMockClients()
	case ModeHTTP:
		if origin == "" {
			return nil, "", fmt.Errorf("appbridge_sdk: HTTP mode requires %s", EnvOrigin)
		}
		return newHTTPClients(origin, opts)
	case ModeMock:
		return newMockClients()
	default:
		return nil, "", fmt.Errorf("appbridge_sdk: unsupported %s value %q", EnvMode, mode)
	}
}

func newHTTPClients(origin string, opts []httpx.Option) (*Clients, string, error) {
	clients, err := New(origin, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("appbridge_sdk: init HTTP clients: %w", err)
	}
	return clients, ModeHTTP, nil
}

func newMockClients() (*Clients, string, error) {
	var fsOpts []remotefsmock.Option
	if root := strings.TrimSpace(os.Getenv(EnvMockFSRoot)); root != "" {
		fsOpts = append(fsOpts, remotefsmock.WithRoot(root))
	}
	fsMock := remotefsmock.New(fsOpts...)
	if path := strings.TrimSpace(os.Getenv(EnvMockFSSeed)); path != "" {
		entries, err := devseed.LoadFSSeed(path)
		if err != nil {
			return nil, "", fmt.Errorf("appbridge_sdk: load fs seed: %w", err)
		}
		if err := fsMock.Seed(entries); err != nil {
			return nil, "", fmt.Errorf("appbridge_sdk: apply fs seed: %w", err)
		}
	}

	answer := dialogs.Cancel
	if path, ok := os.LookupEnv(EnvMockDialogAnswer); ok {
		answer = dialogs.Answer(path)
	}

	rec := &appctl.Recorder{}
	return &Clients{
		FS:       remotefs.NewWithBackend(fsMock),
		Dialogs:  dialogs.NewWithBackend(answer),
		App:      appctl.NewWithBackend(rec),
		Recorder: rec,
	}, ModeMock, nil
}
