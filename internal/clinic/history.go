package clinic

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vietddude/vetclinic/internal/core/domain"
	"github.com/vietddude/vetclinic/internal/infra/api"
	"github.com/vietddude/vetclinic/internal/infra/api/transport"
)

type HistoryService struct {
	client *api.Client
}

// ByPet returns the history records of one pet.
func (s *HistoryService) ByPet(ctx context.Context, petID int) ([]domain.Record, error) {
	d := transport.Get("history.by_pet", fmt.Sprintf("/historiales/%d", petID))
	return send[[]domain.Record](ctx, s.client, d)
}

func (s *HistoryService) List(ctx context.Context) ([]domain.Record, error) {
	return send[[]domain.Record](ctx, s.client, transport.Get("history.list", "/historiales"))
}

func (s *HistoryService) Create(ctx context.Context, in domain.RecordInput) (*domain.Record, error) {
	d := transport.NewDescriptor("history.create", http.MethodPost, "/historiales")
	rec, err := sendJSON[domain.Record](ctx, s.client, d, in)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Update patches a record.
func (s *HistoryService) Update(ctx context.Context, id int, in domain.RecordInput) (*domain.Record, error) {
	d := transport.NewDescriptor("history.update", http.MethodPatch, fmt.Sprintf("/historiales/%d", id))
	rec, err := sendJSON[domain.Record](ctx, s.client, d, in)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *HistoryService) Delete(ctx context.Context, id int) error {
	return del(ctx, s.client, "history.delete", fmt.Sprintf("/historiales/%d", id))
}
