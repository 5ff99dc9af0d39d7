package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietddude/vetclinic/internal/core/domain"
	"github.com/vietddude/vetclinic/internal/infra/api"
	"github.com/vietddude/vetclinic/internal/infra/api/transport"
)

type VetService struct {
	client *api.Client
}

func (s *VetService) Get(ctx context.Context, id int) (*domain.Vet, error) {
	v, err := send[domain.Vet](ctx, s.client, transport.Get("vets.get", fmt.Sprintf("/veterinarios/%d", id)))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

type UserService struct {
	client *api.Client
}

// Veterinarians lists users with the veterinarian role. Deployments disagree
// on the filter name, so a failed "rol" query is repeated once with "role".
// When both fail the first error is returned.
func (s *UserService) Veterinarians(ctx context.Context) ([]domain.User, error) {
	users, err := send[[]domain.User](ctx, s.client,
		transport.Get("users.veterinarians", "/users").WithQuery("rol", string(domain.RoleVeterinarian)))
	if err == nil {
		return users, nil
	}
	if errors.Is(err, api.ErrCancelled) {
		return nil, err
	}

	users, retryErr := send[[]domain.User](ctx, s.client,
		transport.Get("users.veterinarians", "/users").WithQuery("role", string(domain.RoleVeterinarian)))
	if retryErr != nil {
		return nil, err
	}
	return users, nil
}
