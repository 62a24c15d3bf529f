package backend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Generic message used when the backend could not be reached or its error
// body could not be understood.
const networkErrorMessage = "Network error occurred"

// Kind classifies a backend failure
type Kind int

const (
	// KindTransport covers unreachable backends, unparsable error bodies and
	// malformed success payloads.
	KindTransport Kind = iota
	// KindAuth is a 401/403 reply.
	KindAuth
	// KindValidation is any other 4xx reply carrying a structured message.
	KindValidation
	// KindServer is a 5xx reply carrying a structured message.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "transport"
	}
}

// Error is the uniform failure returned by every Client call
type Error struct {
	Kind       Kind   `json:"-"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

func (e *Error) Error() string {
	return e.Message
}

// AsError extracts a *Error from err
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsAuth reports whether err is a 401/403 backend reply
func IsAuth(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindAuth
}

// IsValidation reports whether err is a structured 4xx backend reply
func IsValidation(err error) bool {
	e, ok := AsError(err)
	return ok && e.Kind == KindValidation
}

// MessageOr returns the backend message carried by err, or fallback
func MessageOr(err error, fallback string) string {
	if e, ok := AsError(err); ok && e.Message != "" {
		return e.Message
	}
	return fallback
}

func transportError(status int) *Error {
	return &Error{Kind: KindTransport, Message: networkErrorMessage, StatusCode: status}
}

func malformedError(status int, what string) *Error {
	return &Error{Kind: KindTransport, Message: "Malformed response: " + what, StatusCode: status}
}

// errorBody mirrors {message, statusCode}; message may also be a list of
// validation messages.
type errorBody struct {
	Message    json.RawMessage `json:"message"`
	StatusCode int             `json:"statusCode"`
}

// parseError turns a non-2xx body into an *Error
func parseError(status int, body []byte) *Error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Message) == 0 {
		return transportError(status)
	}

	msg, ok := decodeMessage(eb.Message)
	if !ok {
		return transportError(status)
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	code := eb.StatusCode
	if code == 0 {
		code = status
	}

	return &Error{Kind: classify(code), Message: msg, StatusCode: code}
}

func decodeMessage(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; "), true
	}
	return "", false
}

func classify(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status >= 400 && status < 500:
		return KindValidation
	case status >= 500:
		return KindServer
	default:
		return KindTransport
	}
}
