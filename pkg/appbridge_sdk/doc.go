// Package appbridge_sdk bootstraps the remotefs, dialogs and appctl clients
// from environment variables. APPBRIDGE_RUNTIME_MODE selects "http", "mock"
// or "auto" (the default): auto uses HTTP when APPBRIDGE_ORIGIN is set and
// falls back to in-memory mocks otherwise. The mocks stay API compatible with
// the HTTP clients.
package appbridge_sdk
