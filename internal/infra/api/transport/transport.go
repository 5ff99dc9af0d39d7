// Package transport performs single HTTP attempts against the clinic backend.
//
// This package contains:
//   - Descriptor: the immutable description of one logical request
//   - Response: a successful attempt's status, headers and body
//   - Error: the classified failure of an attempt (network, timeout, HTTP status, other)
//   - HTTPTransport: the net/http implementation of Doer
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// Doer executes exactly one attempt for a descriptor.
type Doer interface {
	Do(ctx context.Context, d Descriptor) (*Response, error)
}

// Descriptor describes one logical request. It is a value type: the With*
// helpers return modified copies and never touch the receiver's maps, so a
// descriptor can be reused unchanged across retries.
type Descriptor struct {
	// Name is the logical operation (e.g. "pets.list"), used for logs,
	// metrics and fallback keys.
	Name string

	Method string
	Path   string

	Body        []byte
	ContentType string

	Query  url.Values
	Header http.Header

	// Timeout overrides the transport default when > 0.
	Timeout time.Duration

	// NoRetry disables automatic retries regardless of the error kind.
	NoRetry bool

	// CacheKey marks the request as cache-eligible. Empty means no fallback.
	CacheKey string
}

// NewDescriptor creates a descriptor for method and path.
func NewDescriptor(name, method, path string) Descriptor {
	return Descriptor{
		Name:   name,
		Method: method,
		Path:   path,
	}
}

// Get is shorthand for a GET descriptor.
func Get(name, path string) Descriptor {
	return NewDescriptor(name, http.MethodGet, path)
}

// WithJSON marshals v as the request body.
func (d Descriptor) WithJSON(v any) (Descriptor, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return d, &Error{Kind: KindOther, Message: "marshal request body", Err: err}
	}
	return d.WithBody("application/json", data), nil
}

// WithBody sets a raw body and its content type.
func (d Descriptor) WithBody(contentType string, body []byte) Descriptor {
	d.ContentType = contentType
	d.Body = body
	return d
}

// WithQuery adds a query parameter. Empty values are skipped.
func (d Descriptor) WithQuery(key, value string) Descriptor {
	if value == "" {
		return d
	}
	q := make(url.Values, len(d.Query)+1)
	for k, vs := range d.Query {
		q[k] = slices.Clone(vs)
	}
	q.Add(key, value)
	d.Query = q
	return d
}

// WithHeader sets a header on a copy of the descriptor.
func (d Descriptor) WithHeader(key, value string) Descriptor {
	h := d.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(key, value)
	d.Header = h
	return d
}

// WithTimeout overrides the per-attempt timeout.
func (d Descriptor) WithTimeout(timeout time.Duration) Descriptor {
	d.Timeout = timeout
	return d
}

// WithoutRetry opts the request out of automatic retries.
func (d Descriptor) WithoutRetry() Descriptor {
	d.NoRetry = true
	return d
}

// WithCacheKey marks the request as cache-eligible under key.
func (d Descriptor) WithCacheKey(key string) Descriptor {
	d.CacheKey = key
	return d
}

// Validate checks the descriptor can be sent.
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Path) == "" {
		return fmt.Errorf("descriptor %q: empty path", d.Name)
	}
	if d.Timeout < 0 {
		return fmt.Errorf("descriptor %q: negative timeout", d.Name)
	}
	return nil
}

// String implements fmt.Stringer
func (d Descriptor) String() string {
	method := d.Method
	if method == "" {
		method = http.MethodGet
	}
	return method + " " + d.Path
}

// Response is the result of a successful attempt.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}
