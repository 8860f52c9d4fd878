package apiclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoToken is returned by a refresh attempt when no refresh token is stored
var ErrNoToken = errors.New("apiclient: no refresh token stored")

// messagePaths are the body fields the backend puts human-readable errors in,
// most specific first
var messagePaths = []string{"detail", "non_field_errors.0", "message"}

// APIError is a non-2xx response from the backend
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
	// Message is the first server-provided message found in Body, if any
	Message string
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	e := &APIError{Method: method, Path: path, StatusCode: status, Body: body}
	e.Message, _ = firstString(body, messagePaths...)
	return e
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// ServerMessage returns the first non-empty string found at paths in the body
// of the APIError wrapped by err
func ServerMessage(err error, paths ...string) (string, bool) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "", false
	}
	return firstString(apiErr.Body, paths...)
}

// MessageFrom turns err into a message fit for display: the server's own
// detail, non_field_errors or message text when present, otherwise fallback.
// Transport errors always map to fallback.
func MessageFrom(err error, fallback string) string {
	if msg, ok := ServerMessage(err, messagePaths...); ok {
		return msg
	}
	return fallback
}

func firstString(body []byte, paths ...string) (string, bool) {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return "", false
	}
	for _, p := range paths {
		v := gjson.GetBytes(body, p)
		if v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
			return v.Str, true
		}
	}
	return "", false
}
