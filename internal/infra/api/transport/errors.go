package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies an attempt failure.
type Kind int

const (
	KindOther              Kind = iota // Request build, body read or caller abort
	KindNetworkUnreachable             // Connection refused, DNS failure, reset
	KindTimeout                        // Per-attempt deadline exceeded
	KindHTTPStatus                     // Response with status >= 400
)

// String implements fmt.Stringer
func (k Kind) String() string {
	switch k {
	case KindNetworkUnreachable:
		return "network_unreachable"
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http_status"
	default:
		return "other"
	}
}

// Error is a classified attempt failure.
type Error struct {
	Kind       Kind
	StatusCode int    // set for KindHTTPStatus
	Message    string // backend "message" field or a short description
	Body       []byte
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Kind == KindHTTPStatus {
		fmt.Fprintf(&sb, " %d", e.StatusCode)
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap allows errors.Is and errors.As to reach the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code, or 0 when the failure had no response.
func (e *Error) Status() int {
	if e.Kind != KindHTTPStatus {
		return 0
	}
	return e.StatusCode
}

// statusError builds a KindHTTPStatus error, pulling a message out of the body.
func statusError(code int, body []byte) *Error {
	msg := backendMessage(body)
	if msg == "" {
		msg = strings.ToLower(http.StatusText(code))
	}
	return &Error{
		Kind:       KindHTTPStatus,
		StatusCode: code,
		Message:    msg,
		Body:       body,
	}
}

// backendMessage extracts {"message": ...}. Validation errors may carry a
// list of messages instead of a single string.
func backendMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if len(payload.Message) > 0 {
		var s string
		if err := json.Unmarshal(payload.Message, &s); err == nil {
			return s
		}
		var list []string
		if err := json.Unmarshal(payload.Message, &list); err == nil {
			return strings.Join(list, "; ")
		}
	}
	return payload.Error
}
