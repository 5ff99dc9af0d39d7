// Package api is the resilient client for the clinic backend.
//
// A dispatch signs the request from a session snapshot, runs the attempt loop
// of package retry over a transport.Doer and, for cache-eligible requests,
// writes or consults the fallback cache. Every clinic service sends its
// requests through Client.Dispatch.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vietddude/vetclinic/internal/core/session"
	"github.com/vietddude/vetclinic/internal/infra/api/retry"
	"github.com/vietddude/vetclinic/internal/infra/api/transport"
)

// RequestIDHeader carries an id that stays constant across the retries of
// one dispatch.
const RequestIDHeader = "X-Request-ID"

// ErrCancelled is matched by errors.Is when the caller cancelled a dispatch.
var ErrCancelled = retry.ErrCancelled

// Result is a successful dispatch, live or served from the fallback cache.
type Result struct {
	StatusCode int
	Header     http.Header
	Payload    []byte

	// FromCache is set when the live path failed and Payload is the last
	// good response. StoredAt is when that response was recorded.
	FromCache bool
	StoredAt  time.Time

	// Attempts made on the live path.
	Attempts int
}

// Decode unmarshals the payload into v. An empty payload leaves v untouched.
func (r *Result) Decode(v any) error {
	if len(r.Payload) == 0 || v == nil {
		return nil
	}
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// DispatchError is a terminal failure with no usable cached response.
type DispatchError struct {
	Operation string
	Attempts  int
	Err       *transport.Error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Operation, e.Attempts, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Message returns the backend's message when one was sent, else the error text.
func (e *DispatchError) Message() string {
	if e.Err != nil && e.Err.Message != "" {
		return e.Err.Message
	}
	return e.Error()
}

// StatusCode returns the HTTP status of the last attempt, or 0.
func (e *DispatchError) StatusCode() int {
	if e.Err == nil {
		return 0
	}
	return e.Err.Status()
}

// ErrorMessage extracts a user-facing message from a dispatch error.
func ErrorMessage(err error) string {
	var derr *DispatchError
	if errors.As(err, &derr) {
		return derr.Message()
	}
	if errors.Is(err, ErrCancelled) {
		return "operation cancelled"
	}
	return err.Error()
}

// authorize attaches the bearer token of snap. Without a token the
// descriptor is returned unchanged.
func authorize(d transport.Descriptor, snap session.Snapshot) transport.Descriptor {
	if !snap.Authenticated() {
		return d
	}
	return d.WithHeader("Authorization", "Bearer "+snap.Token)
}
