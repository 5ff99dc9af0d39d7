package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/vetclinic/internal/infra/api/transport"
)

// ErrCancelled is returned when the caller cancels a dispatch, either during
// an attempt or while waiting to retry.
var ErrCancelled = errors.New("dispatch cancelled")

// State is a step of the attempt loop.
type State int

const (
	StateAttempting State = iota
	StateBackoff
	StateSucceeded
	StateFailed
	StateCancelled
)

// String implements fmt.Stringer
func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateBackoff:
		return "backoff"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transitions follow.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}

// Transition is emitted each time the loop enters a state.
type Transition struct {
	State   State
	Attempt int
	Err     error         // failure that led here, if any
	Delay   time.Duration // set for StateBackoff
	Until   time.Time     // set for StateBackoff
	Reason  string
}

// Attempt records one physical request of a dispatch.
type Attempt struct {
	Number    int
	StartedAt time.Time
	Err       error
}

// Trace summarises a finished run.
type Trace struct {
	Attempts []Attempt
	Final    State
}

// Count returns the number of attempts made.
func (t Trace) Count() int {
	return len(t.Attempts)
}

// Clock abstracts time so backoff can be observed in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock is the wall clock.
var SystemClock Clock = realClock{}

// AttemptFunc performs attempt n (1-based).
type AttemptFunc func(ctx context.Context, n int) (*transport.Response, error)

// Option configures Run.
type Option func(o *runOpts)

type runOpts struct {
	clock   Clock
	observe func(Transition)
}

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(o *runOpts) {
		if c != nil {
			o.clock = c
		}
	}
}

// OnTransition registers a hook called synchronously on every state entry.
func OnTransition(fn func(Transition)) Option {
	return func(o *runOpts) {
		o.observe = fn
	}
}

// Run drives Attempting(n) -> Backoff(n, until) -> Attempting(n+1) until the
// loop reaches Succeeded, Failed or Cancelled. Attempts are strictly
// sequential and cancellation is checked at every transition.
func Run(
	ctx context.Context,
	policy Policy,
	noRetry bool,
	fn AttemptFunc,
	options ...Option,
) (*transport.Response, Trace, error) {
	o := &runOpts{clock: SystemClock}
	for _, opt := range options {
		opt(o)
	}
	emit := func(t Transition) {
		if o.observe != nil {
			o.observe(t)
		}
	}

	var (
		trace   Trace
		state   = StateAttempting
		attempt = 1
		lastErr error
		delay   time.Duration
	)

	cancelled := func() (*transport.Response, Trace, error) {
		trace.Final = StateCancelled
		emit(Transition{State: StateCancelled, Attempt: attempt, Err: lastErr, Reason: "cancelled by caller"})
		return nil, trace, fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
	}

	for {
		switch state {
		case StateAttempting:
			if ctx.Err() != nil {
				return cancelled()
			}
			emit(Transition{State: StateAttempting, Attempt: attempt, Err: lastErr})

			rec := Attempt{Number: attempt, StartedAt: o.clock.Now()}
			resp, err := fn(ctx, attempt)
			rec.Err = err
			trace.Attempts = append(trace.Attempts, rec)

			if err == nil {
				trace.Final = StateSucceeded
				emit(Transition{State: StateSucceeded, Attempt: attempt})
				return resp, trace, nil
			}
			lastErr = err
			if ctx.Err() != nil {
				return cancelled()
			}

			decision := policy.Decide(err, attempt, noRetry)
			if !decision.Retry {
				trace.Final = StateFailed
				emit(Transition{State: StateFailed, Attempt: attempt, Err: err, Reason: decision.Reason})
				return nil, trace, err
			}
			delay = decision.Delay
			state = StateBackoff

		case StateBackoff:
			emit(Transition{
				State:   StateBackoff,
				Attempt: attempt,
				Err:     lastErr,
				Delay:   delay,
				Until:   o.clock.Now().Add(delay),
				Reason:  "transient error",
			})
			select {
			case <-ctx.Done():
				return cancelled()
			case <-o.clock.After(delay):
				attempt++
				state = StateAttempting
			}

		default:
			return nil, trace, fmt.Errorf("retry: unexpected state %s", state)
		}
	}
}
