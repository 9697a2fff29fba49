package pinning

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnexpectedResponse marks a response that does not match the
	// endpoint's contract.
	ErrUnexpectedResponse = errors.New("unexpected response shape")

	// ErrNetwork marks a transport-level failure.
	ErrNetwork = errors.New("network failure")
)

// APIError is a non-2xx answer from the pinning service. Payload holds the
// decoded JSON body (map, string, ...) or the raw text when the body was not
// JSON.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Payload any
}

func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.Status, msg)
	}
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
}

// Unauthorized reports whether the service rejected the bearer token.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Message extracts a human readable message from the payload: the error
// field, then message, then a bare string body.
func (e *APIError) Message() string {
	switch p := e.Payload.(type) {
	case string:
		return strings.TrimSpace(p)
	case map[string]any:
		for _, key := range []string{"error", "message"} {
			if s, ok := p[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// RemoteMessage returns the remote-provided message carried by err, if any.
func RemoteMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}
	return ""
}

func decodePayload(body []byte) any {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil
	}
	var payload any
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return trimmed
	}
	return payload
}
