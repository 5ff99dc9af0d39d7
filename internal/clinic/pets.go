package clinic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/vietddude/vetclinic/internal/core/domain"
	"github.com/vietddude/vetclinic/internal/infra/api"
	"github.com/vietddude/vetclinic/internal/infra/api/transport"
)

type PetService struct {
	client *api.Client
}

func (s *PetService) List(ctx context.Context) ([]domain.Pet, error) {
	return send[[]domain.Pet](ctx, s.client, transport.Get("pets.list", "/mascotas"))
}

func (s *PetService) Create(ctx context.Context, in domain.PetInput) (*domain.Pet, error) {
	d := transport.NewDescriptor("pets.create", http.MethodPost, "/mascotas")
	p, err := sendJSON[domain.Pet](ctx, s.client, d, in)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UploadPhoto sends the image as multipart field "file" and returns the
// stored photo reference. The backend answers with either the updated pet or
// just {"foto": ...}; both carry the field.
func (s *PetService) UploadPhoto(ctx context.Context, id int, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	d := transport.NewDescriptor("pets.photo", http.MethodPost, fmt.Sprintf("/mascotas/%d/foto", id)).
		WithBody(w.FormDataContentType(), buf.Bytes())
	out, err := send[struct {
		Photo *string `json:"foto"`
	}](ctx, s.client, d)
	if err != nil {
		return "", err
	}
	if out.Photo == nil {
		return "", nil
	}
	return *out.Photo, nil
}
