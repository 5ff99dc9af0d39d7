// Package session holds the authenticated identity used to sign API requests.
//
// The token and profile are persisted in a kv.Store so a restart keeps the
// user logged in. Login and Logout are the only mutators; request paths read
// an immutable Snapshot.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/vietddude/vetclinic/internal/core/domain"
	"github.com/vietddude/vetclinic/internal/infra/kv"
)

const (
	TokenKey = "session:token"
	UserKey  = "session:user"
)

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	Token string
	User  *domain.User
}

// Authenticated reports whether the snapshot carries a token.
func (s Snapshot) Authenticated() bool {
	return s.Token != ""
}

type Session struct {
	store kv.Store

	mu    sync.RWMutex
	token string
	user  *domain.User
}

// New creates an empty session backed by store. Call Restore to load a
// previously persisted login.
func New(store kv.Store) *Session {
	return &Session{store: store}
}

// Restore loads the persisted token and profile. Missing keys leave the
// session logged out; an unreadable profile is dropped.
func (s *Session) Restore(ctx context.Context) error {
	token, err := s.store.Get(ctx, TokenKey)
	if errors.Is(err, kv.ErrNotFound) {
		token = nil
	} else if err != nil {
		return fmt.Errorf("load token: %w", err)
	}

	var user *domain.User
	data, err := s.store.Get(ctx, UserKey)
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		return fmt.Errorf("load user: %w", err)
	default:
		var u domain.User
		if json.Unmarshal(data, &u) == nil {
			user = &u
		}
	}

	s.mu.Lock()
	s.token = string(token)
	s.user = user
	s.mu.Unlock()
	return nil
}

// Login stores token and user. The profile is persisted without the token.
func (s *Session) Login(ctx context.Context, token string, user *domain.User) error {
	if token == "" {
		return errors.New("session: empty token")
	}

	var profile *domain.User
	if user != nil {
		u := *user
		profile = &u
		data, err := json.Marshal(profile)
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}
		if err := s.store.Put(ctx, UserKey, data); err != nil {
			return fmt.Errorf("persist user: %w", err)
		}
	} else if err := s.store.Delete(ctx, UserKey); err != nil {
		return fmt.Errorf("clear user: %w", err)
	}
	if err := s.store.Put(ctx, TokenKey, []byte(token)); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = profile
	s.mu.Unlock()
	return nil
}

// Logout clears the session in memory and in the store. The in-memory state
// is cleared even when the store fails.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	return errors.Join(
		s.store.Delete(ctx, TokenKey),
		s.store.Delete(ctx, UserKey),
	)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{Token: s.token}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}
