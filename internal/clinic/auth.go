package clinic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vietddude/vetclinic/internal/core/domain"
	"github.com/vietddude/vetclinic/internal/infra/api"
	"github.com/vietddude/vetclinic/internal/infra/api/transport"
)

// ErrNoSession is returned by AuthService when the client has no session.
var ErrNoSession = errors.New("clinic: client has no session")

type AuthService struct {
	client       *api.Client
	loginTimeout time.Duration
}

// Login authenticates and stores the token and profile in the client's
// session. Login is a single attempt: slow backends are given a longer
// timeout instead of retries.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResponse, error) {
	sess := s.client.Session()
	if sess == nil {
		return nil, ErrNoSession
	}

	d := transport.NewDescriptor("auth.login", http.MethodPost, "users/login").
		WithTimeout(s.loginTimeout).
		WithoutRetry()
	resp, err := sendJSON[domain.LoginResponse](ctx, s.client, d, creds)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}

	if err := sess.Login(ctx, resp.Token, &resp.User); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &resp, nil
}

// Logout clears the local session. The backend keeps no server-side state.
func (s *AuthService) Logout(ctx context.Context) error {
	sess := s.client.Session()
	if sess == nil {
		return ErrNoSession
	}
	return sess.Logout(ctx)
}

func (s *AuthService) Authenticated() bool {
	sess := s.client.Session()
	return sess != nil && sess.Authenticated()
}

// CurrentUser returns the stored profile, or nil.
func (s *AuthService) CurrentUser() *domain.User {
	sess := s.client.Session()
	if sess == nil {
		return nil
	}
	return sess.Snapshot().User
}
