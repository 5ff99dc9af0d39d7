package kv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// exerciseStore runs the behavior every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "session:token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}

	if err := s.Put(ctx, "session:token", []byte("abc")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Put(ctx, "session:token", []byte("def")); err != nil {
		t.Fatalf("Put overwrite failed: %v", err)
	}
	got, err := s.Get(ctx, "session:token")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "def" {
		t.Errorf("expected overwritten value def, got %q", got)
	}

	for _, k := range []string{
		"fallback:vacunas-aplicadas?end=2024-02-01&start=2024-01-01",
		"fallback:distribucion-especies",
		"fallbackx:other",
	} {
		if err := s.Put(ctx, k, []byte("{}")); err != nil {
			t.Fatalf("Put %s failed: %v", k, err)
		}
	}

	keys, err := s.Keys(ctx, "fallback:")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	want := []string{
		"fallback:distribucion-especies",
		"fallback:vacunas-aplicadas?end=2024-02-01&start=2024-01-01",
	}
	if len(keys) != len(want) {
		t.Fatalf("Keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}

	if err := s.Delete(ctx, "session:token"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "session:token"); err != nil {
		t.Fatalf("Delete of missing key failed: %v", err)
	}
	if _, err := s.Get(ctx, "session:token"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)
}

func TestBoltStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	if err := s.Put(ctx, "session:user", []byte(`{"nombre":"Ana"}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "session:user")
	if err != nil || string(got) != `{"nombre":"Ana"}` {
		t.Errorf("expected persisted value, got %q (%v)", got, err)
	}
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Driver: "memory"}, RedisConfig{}, PostgresConfig{})
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("expected *MemoryStore, got %T", s)
	}

	s, err = Open(ctx, Config{Driver: "bolt", Path: filepath.Join(t.TempDir(), "s.db")}, RedisConfig{}, PostgresConfig{})
	if err != nil {
		t.Fatalf("Open bolt: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*BoltStore); !ok {
		t.Errorf("expected *BoltStore, got %T", s)
	}

	if _, err := Open(ctx, Config{Driver: "etcd"}, RedisConfig{}, PostgresConfig{}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("VETCLINIC_TEST_REDIS_URL")
	if url == "" {
		t.Skip("VETCLINIC_TEST_REDIS_URL not set")
	}
	s, err := NewRedisStore(context.Background(), RedisConfig{URL: url}, "vetclinic-test-"+t.Name())
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer s.Close()

	if err := Health(context.Background(), s); err != nil {
		t.Errorf("Health: %v", err)
	}
	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("VETCLINIC_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("VETCLINIC_TEST_DATABASE_URL not set")
	}
	s, err := NewPostgresStore(context.Background(), PostgresConfig{URL: url}, "vetclinic-test-"+t.Name())
	if err != nil {
		t.Fatalf("NewPostgresStore: %v", err)
	}
	defer s.Close()

	if err := Health(context.Background(), s); err != nil {
		t.Errorf("Health: %v", err)
	}

	exerciseStore(t, s)
}

type downStore struct{ *MemoryStore }

func (downStore) Health(context.Context) error { return errors.New("connection refused") }

func TestHealth(t *testing.T) {
	ctx := context.Background()
	if err := Health(ctx, NewMemoryStore()); err != nil {
		t.Errorf("Health(memory) = %v, want nil", err)
	}
	if err := Health(ctx, downStore{NewMemoryStore()}); err == nil {
		t.Error("Health should report the backend's failure")
	}
}
