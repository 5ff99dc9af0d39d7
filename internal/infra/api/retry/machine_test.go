package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/vetclinic/internal/infra/api/transport"
)

// fakeClock advances instantly by whatever delay is requested.
type fakeClock struct {
	now   time.Time
	waits []time.Duration
	block bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.waits = append(c.waits, d)
	if c.block {
		return nil
	}
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func failing(err error, calls *int) AttemptFunc {
	return func(ctx context.Context, n int) (*transport.Response, error) {
		*calls++
		return nil, err
	}
}

func TestRun_BackoffSchedule(t *testing.T) {
	clock := newFakeClock()
	calls := 0
	unavailable := &transport.Error{Kind: transport.KindHTTPStatus, StatusCode: 503}

	_, trace, err := Run(context.Background(), DefaultPolicy, false, failing(unavailable, &calls), WithClock(clock))

	if !errors.Is(err, unavailable) {
		t.Fatalf("expected last classified error, got %v", err)
	}
	if calls != 4 || trace.Count() != 4 {
		t.Fatalf("expected 4 attempts, got calls=%d trace=%d", calls, trace.Count())
	}
	if trace.Final != StateFailed {
		t.Errorf("expected final state failed, got %s", trace.Final)
	}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i := 1; i < len(trace.Attempts); i++ {
		gap := trace.Attempts[i].StartedAt.Sub(trace.Attempts[i-1].StartedAt)
		if gap != want[i-1] {
			t.Errorf("gap before attempt %d = %v, want %v", i+1, gap, want[i-1])
		}
	}
	if len(clock.waits) != 3 {
		t.Errorf("expected 3 backoff waits, got %v", clock.waits)
	}
}

func TestRun_NoRetryOptOut(t *testing.T) {
	clock := newFakeClock()
	calls := 0
	timeout := &transport.Error{Kind: transport.KindTimeout}

	_, trace, err := Run(context.Background(), DefaultPolicy, true, failing(timeout, &calls), WithClock(clock))

	if !errors.Is(err, timeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if calls != 1 || trace.Count() != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", calls)
	}
	if len(clock.waits) != 0 {
		t.Errorf("expected no backoff, got %v", clock.waits)
	}
}

func TestRun_TerminalStatusShortCircuit(t *testing.T) {
	calls := 0
	notFound := &transport.Error{Kind: transport.KindHTTPStatus, StatusCode: 404}

	_, trace, err := Run(context.Background(), DefaultPolicy, false, failing(notFound, &calls), WithClock(newFakeClock()))

	var terr *transport.Error
	if !errors.As(err, &terr) || terr.StatusCode != 404 {
		t.Fatalf("expected 404 error, got %v", err)
	}
	if calls != 1 || trace.Final != StateFailed {
		t.Errorf("expected 1 attempt ending failed, got %d attempts, final %s", calls, trace.Final)
	}
}

func TestRun_SucceedsAfterRetry(t *testing.T) {
	calls := 0
	fn := func(ctx context.Context, n int) (*transport.Response, error) {
		calls++
		if n < 3 {
			return nil, &transport.Error{Kind: transport.KindNetworkUnreachable}
		}
		return &transport.Response{StatusCode: 200, Body: []byte(`{}`)}, nil
	}

	var states []State
	resp, trace, err := Run(context.Background(), DefaultPolicy, false, fn,
		WithClock(newFakeClock()),
		OnTransition(func(tr Transition) { states = append(states, tr.State) }),
	)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 || calls != 3 || trace.Final != StateSucceeded {
		t.Errorf("got status=%d calls=%d final=%s", resp.StatusCode, calls, trace.Final)
	}

	want := []State{
		StateAttempting, StateBackoff,
		StateAttempting, StateBackoff,
		StateAttempting, StateSucceeded,
	}
	if len(states) != len(want) {
		t.Fatalf("transitions = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, states[i], want[i])
		}
	}
}

func TestRun_CancelDuringBackoff(t *testing.T) {
	clock := newFakeClock()
	clock.block = true
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	_, trace, err := Run(ctx, DefaultPolicy, false,
		failing(&transport.Error{Kind: transport.KindTimeout}, &calls),
		WithClock(clock),
		OnTransition(func(tr Transition) {
			if tr.State == StateBackoff {
				cancel()
			}
		}),
	)

	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected error to wrap context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("pending retry was performed: %d attempts", calls)
	}
	if trace.Final != StateCancelled {
		t.Errorf("expected final state cancelled, got %s", trace.Final)
	}
}

func TestRun_CancelDuringAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	fn := func(ctx context.Context, n int) (*transport.Response, error) {
		calls++
		cancel()
		<-ctx.Done()
		return nil, &transport.Error{Kind: transport.KindOther, Err: ctx.Err()}
	}

	_, trace, err := Run(ctx, DefaultPolicy, false, fn, WithClock(newFakeClock()))

	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if calls != 1 || trace.Final != StateCancelled {
		t.Errorf("expected 1 cancelled attempt, got %d, final %s", calls, trace.Final)
	}
}

func TestRun_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, trace, err := Run(ctx, DefaultPolicy, false,
		failing(&transport.Error{Kind: transport.KindTimeout}, &calls))

	if !errors.Is(err, ErrCancelled) || calls != 0 || trace.Count() != 0 {
		t.Errorf("expected cancellation before any attempt, got err=%v calls=%d", err, calls)
	}
}
