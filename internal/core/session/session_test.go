package session

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vietddude/vetclinic/internal/core/domain"
	"github.com/vietddude/vetclinic/internal/infra/kv"
)

func TestSession_LoginPersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := kv.NewBoltStore(path)
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}

	s := New(store)
	if s.Authenticated() {
		t.Fatal("new session should not be authenticated")
	}
	user := &domain.User{ID: 4, FirstName: "Ana", Rol: "veterinario"}
	if err := s.Login(ctx, "tok-1", user); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	raw, err := store.Get(ctx, UserKey)
	if err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if strings.Contains(string(raw), "tok-1") {
		t.Errorf("persisted profile must not contain the token: %s", raw)
	}
	store.Close()

	reopened, err := kv.NewBoltStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	restored := New(reopened)
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	snap := restored.Snapshot()
	if snap.Token != "tok-1" {
		t.Errorf("restored token = %q, want tok-1", snap.Token)
	}
	if snap.User == nil || snap.User.FirstName != "Ana" || snap.User.RoleName() != domain.RoleVeterinarian {
		t.Errorf("restored user = %+v", snap.User)
	}
}

func TestSession_Logout(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	s := New(store)

	if err := s.Login(ctx, "tok", &domain.User{FirstName: "Ana"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if s.Authenticated() {
		t.Error("session should be logged out")
	}
	for _, k := range []string{TokenKey, UserKey} {
		if _, err := store.Get(ctx, k); !errors.Is(err, kv.ErrNotFound) {
			t.Errorf("%s should be deleted, got %v", k, err)
		}
	}
}

func TestSession_SnapshotIsIsolated(t *testing.T) {
	ctx := context.Background()
	s := New(kv.NewMemoryStore())
	if err := s.Login(ctx, "tok", &domain.User{FirstName: "Ana"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	snap := s.Snapshot()
	snap.User.FirstName = "changed"
	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if snap.Token != "tok" {
		t.Errorf("snapshot token changed after logout: %q", snap.Token)
	}
	if s.Snapshot().User != nil {
		t.Error("expected no user after logout")
	}
}

func TestSession_RestoreEmptyStore(t *testing.T) {
	s := New(kv.NewMemoryStore())
	if err := s.Restore(context.Background()); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if s.Authenticated() {
		t.Error("empty store should restore a logged-out session")
	}
}

func TestSession_LoginRejectsEmptyToken(t *testing.T) {
	if err := New(kv.NewMemoryStore()).Login(context.Background(), "", nil); err == nil {
		t.Error("expected error for empty token")
	}
}
