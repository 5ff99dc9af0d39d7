// Package retry decides whether failed attempts are retried and drives the
// sequential attempt loop for a single dispatch.
package retry

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/vietddude/vetclinic/internal/infra/api/transport"
)

// Policy defines retry behavior.
type Policy struct {
	// MaxAttempts bounds attempts per dispatch, the first one included.
	MaxAttempts int
	// BaseDelay scales the backoff: delay after attempt n is 2^n * BaseDelay.
	BaseDelay time.Duration
	// RetryStatuses lists the HTTP statuses considered transient.
	RetryStatuses []int
}

// DefaultPolicy: one attempt plus three retries, waiting 1s, 2s and 4s.
var DefaultPolicy = Policy{
	MaxAttempts:   4,
	BaseDelay:     500 * time.Millisecond,
	RetryStatuses: []int{429, 502, 503, 504},
}

// Decision is the outcome of Decide.
type Decision struct {
	Retry  bool
	Delay  time.Duration
	Reason string
}

// withDefaults fills unset fields from DefaultPolicy.
func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultPolicy.BaseDelay
	}
	if p.RetryStatuses == nil {
		p.RetryStatuses = DefaultPolicy.RetryStatuses
	}
	return p
}

// Transient reports whether err is worth retrying after a delay.
func (p Policy) Transient(err error) bool {
	var terr *transport.Error
	if !errors.As(err, &terr) {
		return false
	}
	switch terr.Kind {
	case transport.KindNetworkUnreachable, transport.KindTimeout:
		return true
	case transport.KindHTTPStatus:
		return slices.Contains(p.withDefaults().RetryStatuses, terr.StatusCode)
	default:
		return false
	}
}

// Decide determines whether attempt (1-based) should be followed by another.
func (p Policy) Decide(err error, attempt int, noRetry bool) Decision {
	p = p.withDefaults()

	switch {
	case err == nil:
		return Decision{Reason: "succeeded"}
	case noRetry:
		return Decision{Reason: "retry disabled for request"}
	case !p.Transient(err):
		return Decision{Reason: "terminal error"}
	case attempt >= p.MaxAttempts:
		return Decision{Reason: fmt.Sprintf("exhausted after %d attempts", attempt)}
	}

	return Decision{
		Retry:  true,
		Delay:  p.Backoff(attempt),
		Reason: "transient error",
	}
}

// Backoff returns the wait after failed attempt n: 2^n * BaseDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	p = p.withDefaults()
	if attempt < 1 {
		attempt = 1
	}
	// Cap the shift so absurd MaxAttempts values cannot overflow.
	if attempt > 30 {
		attempt = 30
	}
	return p.BaseDelay * time.Duration(1<<attempt)
}
