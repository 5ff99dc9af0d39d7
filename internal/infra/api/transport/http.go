package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single attempt when the descriptor has no override.
const DefaultTimeout = 8 * time.Second

// HTTPTransport implements Doer over net/http.
type HTTPTransport struct {
	baseURL    *url.URL
	timeout    time.Duration
	httpClient *http.Client
}

// NewHTTPTransport creates a transport rooted at baseURL. A timeout <= 0
// falls back to DefaultTimeout.
func NewHTTPTransport(baseURL string, timeout time.Duration) (*HTTPTransport, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &url.Error{Op: "parse", URL: baseURL, Err: errors.New("missing scheme or host")}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPTransport{
		baseURL: u,
		timeout: timeout,
		httpClient: &http.Client{
			// Per-attempt deadlines come from the request context.
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// BaseURL returns the backend root this transport targets.
func (t *HTTPTransport) BaseURL() string {
	return t.baseURL.String()
}

// Do performs one attempt. Failures are always returned as *Error.
func (t *HTTPTransport) Do(ctx context.Context, d Descriptor) (*Response, error) {
	if err := d.Validate(); err != nil {
		return nil, &Error{Kind: KindOther, Message: "invalid descriptor", Err: err}
	}

	timeout := t.timeout
	if d.Timeout > 0 {
		timeout = d.Timeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := d.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if d.Body != nil {
		body = bytes.NewReader(d.Body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, t.resolve(d), body)
	if err != nil {
		return nil, &Error{Kind: KindOther, Message: "create request", Err: err}
	}
	for k, vs := range d.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if d.ContentType != "" {
		req.Header.Set("Content-Type", d.ContentType)
	} else if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, attemptCtx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, attemptCtx, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, statusError(resp.StatusCode, data)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// Close releases idle connections.
func (t *HTTPTransport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}

func (t *HTTPTransport) resolve(d Descriptor) string {
	u := *t.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(d.Path, "/")
	u.RawPath = ""
	if len(d.Query) > 0 {
		u.RawQuery = d.Query.Encode()
	}
	return u.String()
}

// classify maps a round-trip failure onto a Kind. A done parent context
// means the caller aborted; a done attempt context means our own deadline.
func classify(parent, attempt context.Context, err error) *Error {
	if parent.Err() != nil {
		return &Error{Kind: KindOther, Message: "aborted by caller", Err: context.Cause(parent)}
	}
	if errors.Is(attempt.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "attempt deadline exceeded", Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: "network timeout", Err: err}
	}
	return &Error{Kind: KindNetworkUnreachable, Message: "no response", Err: err}
}
