package control

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/vietddude/vetclinic/internal/core/config"
	"github.com/vietddude/vetclinic/internal/core/domain"
	"github.com/vietddude/vetclinic/internal/devserver"
	"github.com/vietddude/vetclinic/internal/infra/kv"
)

type instantClock struct{}

func (instantClock) Now() time.Time { return time.Now() }

func (instantClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

func TestApp_SessionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	dev := devserver.New(devserver.Config{Token: "tok", Seed: true}, discard)
	srv := httptest.NewServer(dev.Handler())
	defer srv.Close()

	t.Setenv("VETCLINIC_API_URL", srv.URL)
	t.Setenv("VETCLINIC_STORE_PATH", filepath.Join(t.TempDir(), "state.db"))
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	app, err := NewApp(ctx, cfg, Options{Logger: discard, Clock: instantClock{}})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	if _, err := app.Services.Auth.Login(ctx, domain.Credentials{Email: "admin@clinic.local", Password: "admin"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := app.Services.Reports.SpeciesDistribution(ctx); err != nil {
		t.Fatalf("SpeciesDistribution: %v", err)
	}
	if err := app.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	restarted, err := NewApp(ctx, cfg, Options{Logger: discard, Clock: instantClock{}})
	if err != nil {
		t.Fatalf("NewApp after restart: %v", err)
	}
	defer restarted.Close()

	if !restarted.Session.Authenticated() {
		t.Fatal("session should be restored from the bolt store")
	}
	if _, err := restarted.Services.Owners.List(ctx); err != nil {
		t.Errorf("restored token should authorize requests: %v", err)
	}
	entries, err := restarted.Cache.Entries(ctx)
	if err != nil || len(entries) != 1 {
		t.Errorf("expected one persisted fallback entry, got %+v (%v)", entries, err)
	}
}

type unreachableStore struct{ *kv.MemoryStore }

func (unreachableStore) Health(context.Context) error { return errors.New("dial tcp: connection refused") }

func TestApp_StoreHealth(t *testing.T) {
	ctx := context.Background()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	app, err := NewApp(ctx, cfg, Options{Store: kv.NewMemoryStore(), Logger: discard})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	if err := app.StoreHealth(ctx); err != nil {
		t.Errorf("memory store should be healthy, got %v", err)
	}
	_ = app.Close()

	app, err = NewApp(ctx, cfg, Options{Store: unreachableStore{kv.NewMemoryStore()}, Logger: discard})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	defer app.Close()
	if err := app.StoreHealth(ctx); err == nil {
		t.Error("expected the store's health error")
	}
}
