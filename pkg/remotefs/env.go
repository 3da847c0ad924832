package remotefs

import (
	"fmt"
	"os"
	"strings"

	"github.com/localapp/appbridge_go/internal/httpx"
)

// EnvOrigin names the variable holding the app server origin.
const EnvOrigin = "APPBRIDGE_ORIGIN"

// NewFromEnv initialises an HTTP client from APPBRIDGE_ORIGIN.
func NewFromEnv(opts ...httpx.Option) (*Client, error) {
	origin := strings.TrimSpace(os.Getenv(EnvOrigin))
	if origin == "" {
		return nil, fmt.Errorf("remotefs: HTTP mode requires %s", EnvOrigin)
	}
	client, err := New(origin, opts...)
	if err != nil {
		return nil, fmt.Errorf("remotefs: init HTTP client: %w", err)
	}
	return client, nil
}
