package bridge

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a RemoteCallError.
type ErrorKind uint8

const (
	// KindRemoteCallFailed is reported for every non-2xx response.
	KindRemoteCallFailed ErrorKind = iota + 1
)

func (k ErrorKind) String() string {
	if k == KindRemoteCallFailed {
		return "RemoteCallFailed"
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// RemoteCallError reports that the remote side answered with a failure
// status. Message is the response body, unmodified. StatusCode is kept for
// diagnostics only; callers distinguish failures by Message.
type RemoteCallError struct {
	Kind       ErrorKind
	Method     string
	Route      string
	StatusCode int
	Message    string
}

func (e *RemoteCallError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("bridge: %s %s: %s: %s", e.Method, e.Route, e.Kind, e.Message)
}

// IsRemoteCallFailed reports whether err wraps a RemoteCallError.
func IsRemoteCallFailed(err error) bool {
	var rce *RemoteCallError
	return errors.As(err, &rce) && rce.Kind == KindRemoteCallFailed
}

// RemoteMessage returns the remote error text carried by err, if any.
func RemoteMessage(err error) (string, bool) {
	var rce *RemoteCallError
	if errors.As(err, &rce) {
		return rce.Message, true
	}
	return "", false
}
