// Package clinic exposes the backend resources as typed services.
//
// Services only shape requests and decode responses; retries, signing and
// the fallback cache are handled by api.Client.
package clinic

import (
	"context"
	"net/http"
	"time"

	"github.com/vietddude/vetclinic/internal/infra/api"
	"github.com/vietddude/vetclinic/internal/infra/api/transport"
)

// DefaultLoginTimeout bounds the single login attempt.
const DefaultLoginTimeout = 10 * time.Second

// Services groups every resource service around one client.
type Services struct {
	Auth    *AuthService
	Owners  *OwnerService
	Pets    *PetService
	History *HistoryService
	Vets    *VetService
	Users   *UserService
	Reports *ReportService
}

// Options tunes service behavior.
type Options struct {
	LoginTimeout time.Duration
}

// New builds all services over client.
func New(client *api.Client, opts Options) *Services {
	if opts.LoginTimeout <= 0 {
		opts.LoginTimeout = DefaultLoginTimeout
	}
	return &Services{
		Auth:    &AuthService{client: client, loginTimeout: opts.LoginTimeout},
		Owners:  &OwnerService{client: client},
		Pets:    &PetService{client: client},
		History: &HistoryService{client: client},
		Vets:    &VetService{client: client},
		Users:   &UserService{client: client},
		Reports: &ReportService{client: client},
	}
}

// Cached is a value that may have been served from the fallback cache.
type Cached[T any] struct {
	Value     T
	FromCache bool
	StoredAt  time.Time
}

// send dispatches d and decodes the payload into T.
func send[T any](ctx context.Context, c *api.Client, d transport.Descriptor) (T, error) {
	v, _, err := sendResult[T](ctx, c, d)
	return v, err
}

func sendResult[T any](ctx context.Context, c *api.Client, d transport.Descriptor) (T, *api.Result, error) {
	var out T
	res, err := c.Dispatch(ctx, d)
	if err != nil {
		return out, nil, err
	}
	if err := res.Decode(&out); err != nil {
		return out, res, err
	}
	return out, res, nil
}

// sendJSON dispatches d with body encoded as JSON.
func sendJSON[T any](ctx context.Context, c *api.Client, d transport.Descriptor, body any) (T, error) {
	d, err := d.WithJSON(body)
	if err != nil {
		var zero T
		return zero, err
	}
	return send[T](ctx, c, d)
}

func cached[T any](ctx context.Context, c *api.Client, d transport.Descriptor) (Cached[T], error) {
	v, res, err := sendResult[T](ctx, c, d)
	if err != nil {
		return Cached[T]{}, err
	}
	return Cached[T]{Value: v, FromCache: res.FromCache, StoredAt: res.StoredAt}, nil
}

func del(ctx context.Context, c *api.Client, name, path string) error {
	_, err := c.Dispatch(ctx, transport.NewDescriptor(name, http.MethodDelete, path))
	return err
}
