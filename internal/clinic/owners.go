package clinic

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vietddude/vetclinic/internal/core/domain"
	"github.com/vietddude/vetclinic/internal/infra/api"
	"github.com/vietddude/vetclinic/internal/infra/api/transport"
)

type OwnerService struct {
	client *api.Client
}

func (s *OwnerService) List(ctx context.Context) ([]domain.Owner, error) {
	return send[[]domain.Owner](ctx, s.client, transport.Get("owners.list", "/propietarios"))
}

func (s *OwnerService) Create(ctx context.Context, in domain.OwnerInput) (*domain.Owner, error) {
	d := transport.NewDescriptor("owners.create", http.MethodPost, "/propietarios")
	o, err := sendJSON[domain.Owner](ctx, s.client, d, in)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Detail returns the owner together with their pets.
func (s *OwnerService) Detail(ctx context.Context, id int) (*domain.OwnerDetail, error) {
	d := transport.Get("owners.detail", fmt.Sprintf("/propietarios/%d/detalle", id))
	detail, err := send[domain.OwnerDetail](ctx, s.client, d)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// Update replaces the owner's fields; zero fields are omitted from the body.
func (s *OwnerService) Update(ctx context.Context, id int, in domain.OwnerInput) (*domain.Owner, error) {
	d := transport.NewDescriptor("owners.update", http.MethodPut, fmt.Sprintf("/propietarios/%d", id))
	o, err := sendJSON[domain.Owner](ctx, s.client, d, in)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *OwnerService) Delete(ctx context.Context, id int) error {
	return del(ctx, s.client, "owners.delete", fmt.Sprintf("/propietarios/%d", id))
}
