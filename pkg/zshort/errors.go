package zshort

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/samvad-hq/zshort-go/pkg/httpclient"
)

// DefaultErrorMessage is used when a 4xx response carries no "error" field.
const DefaultErrorMessage = "Missing required arguments"

var (
	// ErrNotAuthenticated is returned by Create, Edit and Delete when the
	// client has no token. No request is sent.
	ErrNotAuthenticated = errors.New("zshort: not authenticated, call Login or Register first")

	// ErrClientClosed is returned by every call made after Close.
	ErrClientClosed = errors.New("zshort: client is closed")
)

// ErrorKind separates caller faults from service faults.
type ErrorKind int

const (
	// KindUnknown is the zero value.
	KindUnknown ErrorKind = iota
	// KindClient covers 4xx responses.
	KindClient
	// KindServer covers 5xx responses.
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// HTTPError is returned when the service answers with a 4xx or 5xx status.
// Message is only populated for 4xx responses.
type HTTPError struct {
	Kind    ErrorKind
	Status  int
	Reason  string
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("zshort: %d|%s", e.Status, e.Reason)
	}
	return fmt.Sprintf("zshort: %d|%s: %s", e.Status, e.Reason, e.Message)
}

// ValidationError reports a response that does not have the expected shape.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("zshort: invalid %s: %s", e.Field, e.Reason)
}

// TransportError wraps failures below the HTTP layer (DNS, connect, reset).
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("zshort: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsClientError reports whether err is a 4xx response from the service.
func IsClientError(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Kind == KindClient
}

// IsServerError reports whether err is a 5xx response from the service.
func IsServerError(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Kind == KindServer
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Status == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 or 403 response.
func IsUnauthorized(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && (he.Status == http.StatusUnauthorized || he.Status == http.StatusForbidden)
}

// Interpret turns a service response into its decoded JSON object, or into an
// *HTTPError for 4xx/5xx statuses. An empty success body decodes to an empty map.
func Interpret(resp httpclient.Response) (map[string]json.RawMessage, error) {
	status := resp.StatusCode()
	switch {
	case status >= 400 && status < 500:
		message := DefaultErrorMessage
		if fields, err := decodeObject(resp.Body()); err == nil {
			if raw, ok := fields["error"]; ok {
				var s string
				if json.Unmarshal(raw, &s) == nil && s != "" {
					message = s
				}
			}
		}
		return nil, &HTTPError{
			Kind:    KindClient,
			Status:  status,
			Reason:  reasonPhrase(resp),
			Message: message,
		}
	case status >= 500:
		return nil, &HTTPError{
			Kind:   KindServer,
			Status: status,
			Reason: reasonPhrase(resp),
		}
	default:
		fields, err := decodeObject(resp.Body())
		if err != nil {
			return nil, &ValidationError{Field: "body", Reason: err.Error()}
		}
		return fields, nil
	}
}

func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(body)) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode json object: %w", err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return fields, nil
}

// reasonPhrase strips the numeric code from the status line.
func reasonPhrase(resp httpclient.Response) string {
	code := strconv.Itoa(resp.StatusCode())
	if reason := strings.TrimSpace(strings.TrimPrefix(resp.Status(), code)); reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode())
}
