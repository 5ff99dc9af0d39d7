package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/vetclinic/internal/core/domain"
	"github.com/vietddude/vetclinic/internal/core/session"
	"github.com/vietddude/vetclinic/internal/infra/api/fallback"
	"github.com/vietddude/vetclinic/internal/infra/api/retry"
	"github.com/vietddude/vetclinic/internal/infra/api/transport"
	"github.com/vietddude/vetclinic/internal/infra/kv"
)

// fakeClock advances instantly by whatever delay is requested. When onAfter
// is set it runs before the wait and the wait never fires.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	onAfter func()
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	if c.onAfter != nil {
		c.onAfter()
		return nil
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

type call struct {
	at     time.Time
	header http.Header
}

// stubDoer answers attempts from a script; the last step repeats.
type stubDoer struct {
	clock *fakeClock
	steps []func(n int) (*transport.Response, error)
	hook  func(n int)
	calls []call
	mu    sync.Mutex
}

func (s *stubDoer) Do(ctx context.Context, d transport.Descriptor) (*transport.Response, error) {
	s.mu.Lock()
	n := len(s.calls) + 1
	s.calls = append(s.calls, call{at: s.clock.Now(), header: d.Header.Clone()})
	s.mu.Unlock()

	if s.hook != nil {
		s.hook(n)
	}
	step := s.steps[min(n, len(s.steps))-1]
	return step(n)
}

func ok(body string) func(int) (*transport.Response, error) {
	return func(int) (*transport.Response, error) {
		return &transport.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
	}
}

func fail(err *transport.Error) func(int) (*transport.Response, error) {
	return func(int) (*transport.Response, error) {
		return nil, err
	}
}

var unavailable = &transport.Error{Kind: transport.KindHTTPStatus, StatusCode: 503, Message: "service unavailable"}

func newTestClient(doer *stubDoer, sess *session.Session, cache *fallback.Cache, opts ...Option) *Client {
	opts = append([]Option{
		WithClock(doer.clock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithFallback(cache),
	}, opts...)
	return New(doer, sess, opts...)
}

func TestDispatch_BackoffSchedule(t *testing.T) {
	doer := &stubDoer{clock: newFakeClock(), steps: []func(int) (*transport.Response, error){fail(unavailable)}}
	c := newTestClient(doer, nil, nil)

	_, err := c.Dispatch(context.Background(), transport.Get("reports.total", "/reportes/total-pacientes"))

	var derr *DispatchError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DispatchError, got %v", err)
	}
	if derr.Attempts != 4 || len(doer.calls) != 4 {
		t.Fatalf("expected 4 attempts, got %d (calls %d)", derr.Attempts, len(doer.calls))
	}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, w := range want {
		if gap := doer.calls[i+1].at.Sub(doer.calls[i].at); gap != w {
			t.Errorf("gap %d = %v, want %v", i+1, gap, w)
		}
	}
}

func TestDispatch_NoRetryOptOut(t *testing.T) {
	timeout := &transport.Error{Kind: transport.KindTimeout, Message: "attempt timed out"}
	doer := &stubDoer{clock: newFakeClock(), steps: []func(int) (*transport.Response, error){fail(timeout)}}
	c := newTestClient(doer, nil, nil)

	_, err := c.Dispatch(context.Background(), transport.NewDescriptor("auth.login", http.MethodPost, "/users/login").WithoutRetry())

	if !errors.Is(err, timeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if len(doer.calls) != 1 {
		t.Errorf("expected 1 attempt, got %d", len(doer.calls))
	}
}

func TestDispatch_TerminalStatus(t *testing.T) {
	notFound := &transport.Error{Kind: transport.KindHTTPStatus, StatusCode: 404, Message: "Mascota no encontrada"}
	doer := &stubDoer{clock: newFakeClock(), steps: []func(int) (*transport.Response, error){fail(notFound)}}
	c := newTestClient(doer, nil, nil)

	_, err := c.Dispatch(context.Background(), transport.Get("pets.get", "/mascotas/9"))

	var derr *DispatchError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DispatchError, got %v", err)
	}
	if derr.Attempts != 1 || derr.StatusCode() != 404 {
		t.Errorf("expected one 404 attempt, got attempts=%d status=%d", derr.Attempts, derr.StatusCode())
	}
	if derr.Message() != "Mascota no encontrada" {
		t.Errorf("Message() = %q", derr.Message())
	}
}

func TestDispatch_FallbackActivation(t *testing.T) {
	ctx := context.Background()
	cache := fallback.New(kv.NewMemoryStore())
	key := fallback.Key("distribucion-especies", nil)
	if err := cache.Store(ctx, key, []byte(`[{"especie":"perro","count":3}]`)); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	doer := &stubDoer{clock: newFakeClock(), steps: []func(int) (*transport.Response, error){fail(unavailable)}}
	c := newTestClient(doer, nil, cache)

	res, err := c.Dispatch(ctx, transport.Get("reports.species", "/reportes/distribucion-especies").WithCacheKey(key))
	if err != nil {
		t.Fatalf("expected cached result, got %v", err)
	}
	if !res.FromCache || res.Attempts != 4 {
		t.Errorf("expected FromCache after 4 attempts, got %+v", res)
	}
	var shares []domain.SpeciesShare
	if err := res.Decode(&shares); err != nil || len(shares) != 1 || shares[0].Species != "perro" {
		t.Errorf("decoded %+v (%v)", shares, err)
	}
	if served, _ := cache.Served(ctx, key); !served {
		t.Error("expected served flag to be set")
	}
}

func TestDispatch_FallbackAbsent(t *testing.T) {
	cache := fallback.New(kv.NewMemoryStore())
	key := fallback.Key("distribucion-especies", nil)
	doer := &stubDoer{clock: newFakeClock(), steps: []func(int) (*transport.Response, error){fail(unavailable)}}
	c := newTestClient(doer, nil, cache)

	_, err := c.Dispatch(context.Background(), transport.Get("reports.species", "/reportes/distribucion-especies").WithCacheKey(key))

	var derr *DispatchError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DispatchError, got %v", err)
	}
	if derr.Err != unavailable {
		t.Errorf("expected last classified error, got %v", derr.Err)
	}
}

func TestDispatch_CacheOverwrite(t *testing.T) {
	ctx := context.Background()
	cache := fallback.New(kv.NewMemoryStore())
	key := fallback.Key("vacunas-aplicadas", map[string]string{"start": "2024-01-01"})
	d := transport.Get("reports.vaccines", "/reportes/vacunas-aplicadas").WithCacheKey(key)

	for _, body := range []string{`{"total":1}`, `{"total":2}`} {
		doer := &stubDoer{clock: newFakeClock(), steps: []func(int) (*transport.Response, error){ok(body)}}
		if _, err := newTestClient(doer, nil, cache).Dispatch(ctx, d); err != nil {
			t.Fatalf("dispatch: %v", err)
		}
	}

	e, err := cache.Lookup(ctx, key)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if string(e.Payload) != `{"total":2}` {
		t.Errorf("expected latest payload, got %s", e.Payload)
	}
}

func TestDispatch_NonRetryableSkipsFallback(t *testing.T) {
	ctx := context.Background()
	cache := fallback.New(kv.NewMemoryStore())
	key := fallback.Key("distribucion-especies", nil)
	if err := cache.Store(ctx, key, []byte(`[{"especie":"gato","count":1}]`)); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	unauthorized := &transport.Error{Kind: transport.KindHTTPStatus, StatusCode: 401, Message: "Token expirado"}
	doer := &stubDoer{clock: newFakeClock(), steps: []func(int) (*transport.Response, error){fail(unauthorized)}}
	d := transport.Get("reports.species", "/reportes/distribucion-especies").WithCacheKey(key)

	res, err := newTestClient(doer, nil, cache).Dispatch(ctx, d)
	var derr *DispatchError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DispatchError, got res=%+v err=%v", res, err)
	}
	if derr.Attempts != 1 || derr.StatusCode() != 401 {
		t.Errorf("expected one 401 attempt, got attempts=%d status=%d", derr.Attempts, derr.StatusCode())
	}
	if served, _ := cache.Served(ctx, key); served {
		t.Error("served flag should stay unset")
	}
}

func TestDispatch_AnyFailureFallback(t *testing.T) {
	ctx := context.Background()
	cache := fallback.New(kv.NewMemoryStore())
	key := fallback.Key("actividad-mensual", nil)
	_ = cache.Store(ctx, key, []byte(`[]`))

	badRequest := &transport.Error{Kind: transport.KindHTTPStatus, StatusCode: 400}
	d := transport.Get("reports.activity", "/reportes/actividad-mensual").WithCacheKey(key)

	doer := &stubDoer{clock: newFakeClock(), steps: []func(int) (*transport.Response, error){fail(badRequest)}}
	if _, err := newTestClient(doer, nil, cache).Dispatch(ctx, d); err == nil {
		t.Error("default mode should surface non-retryable errors")
	}

	doer = &stubDoer{clock: newFakeClock(), steps: []func(int) (*transport.Response, error){fail(badRequest)}}
	res, err := newTestClient(doer, nil, cache, WithAnyFailureFallback(true)).Dispatch(ctx, d)
	if err != nil || !res.FromCache {
		t.Errorf("any-failure mode should fall back on a 400, got %+v %v", res, err)
	}
}

func TestDispatch_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := fallback.New(kv.NewMemoryStore())
	key := fallback.Key("distribucion-especies", nil)
	_ = cache.Store(ctx, key, []byte(`[]`))

	clock := newFakeClock()
	clock.onAfter = cancel
	doer := &stubDoer{clock: clock, steps: []func(int) (*transport.Response, error){fail(unavailable)}}
	c := newTestClient(doer, nil, cache)

	res, err := c.Dispatch(ctx, transport.Get("reports.species", "/reportes/distribucion-especies").WithCacheKey(key))

	if !errors.Is(err, ErrCancelled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %+v %v", res, err)
	}
	if len(doer.calls) != 1 {
		t.Errorf("pending retry must not run, got %d attempts", len(doer.calls))
	}
	if served, _ := cache.Served(context.Background(), key); served {
		t.Error("cancellation must not read the cache")
	}
}

func TestDispatch_SessionSnapshot(t *testing.T) {
	ctx := context.Background()
	sess := session.New(kv.NewMemoryStore())
	if err := sess.Login(ctx, "old", nil); err != nil {
		t.Fatalf("Login: %v", err)
	}

	doer := &stubDoer{
		clock: newFakeClock(),
		steps: []func(int) (*transport.Response, error){fail(unavailable), ok(`{}`)},
	}
	doer.hook = func(n int) {
		if n == 1 {
			if err := sess.Login(ctx, "new", nil); err != nil {
				t.Errorf("Login during dispatch: %v", err)
			}
		}
	}
	c := newTestClient(doer, sess, nil)

	if _, err := c.Dispatch(ctx, transport.Get("owners.list", "/propietarios")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(doer.calls) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(doer.calls))
	}
	for i, cl := range doer.calls {
		if got := cl.header.Get("Authorization"); got != "Bearer old" {
			t.Errorf("attempt %d Authorization = %q, want Bearer old", i+1, got)
		}
	}
	if doer.calls[0].header.Get(RequestIDHeader) != doer.calls[1].header.Get(RequestIDHeader) {
		t.Error("request id must be stable across retries")
	}

	doer.hook = nil
	if _, err := c.Dispatch(ctx, transport.Get("owners.list", "/propietarios")); err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if got := doer.calls[2].header.Get("Authorization"); got != "Bearer new" {
		t.Errorf("new dispatch Authorization = %q, want Bearer new", got)
	}
}

func TestDispatch_AnonymousHasNoAuthorization(t *testing.T) {
	doer := &stubDoer{clock: newFakeClock(), steps: []func(int) (*transport.Response, error){ok(`{}`)}}
	c := newTestClient(doer, session.New(kv.NewMemoryStore()), nil)

	if _, err := c.Dispatch(context.Background(), transport.Get("owners.list", "/propietarios")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if got := doer.calls[0].header.Get("Authorization"); got != "" {
		t.Errorf("expected no Authorization header, got %q", got)
	}
}

func TestDispatch_OverHTTP(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"total":12}`)
	}))
	defer srv.Close()

	tr, err := transport.NewHTTPTransport(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewHTTPTransport: %v", err)
	}
	defer tr.Close()

	c := New(tr, nil,
		WithClock(newFakeClock()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithPolicy(retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}),
	)
	res, err := c.Dispatch(context.Background(), transport.Get("reports.total", "/reportes/total-pacientes"))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	var total domain.Total
	if err := res.Decode(&total); err != nil || total.Total != 12 {
		t.Errorf("decoded %+v (%v)", total, err)
	}
	if res.Attempts != 2 || res.FromCache {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestErrorMessage(t *testing.T) {
	derr := &DispatchError{Operation: "x", Attempts: 1, Err: &transport.Error{Kind: transport.KindHTTPStatus, StatusCode: 400, Message: "correo requerido"}}
	if got := ErrorMessage(derr); got != "correo requerido" {
		t.Errorf("ErrorMessage = %q", got)
	}
	if got := ErrorMessage(ErrCancelled); got != "operation cancelled" {
		t.Errorf("ErrorMessage(cancelled) = %q", got)
	}
}
