package devserver

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/vietddude/vetclinic/internal/core/domain"
)

// account is a login the stub accepts.
type account struct {
	user     domain.User
	password string
}

// data is the in-memory clinic database.
type data struct {
	mu sync.RWMutex

	accounts []account
	owners   map[int]domain.Owner
	pets     map[int]domain.Pet
	records  map[int]domain.Record
	vets     map[int]domain.Vet
	nextID   int
}

func newData() *data {
	return &data{
		owners:  make(map[int]domain.Owner),
		pets:    make(map[int]domain.Pet),
		records: make(map[int]domain.Record),
		vets:    make(map[int]domain.Vet),
		nextID:  1,
	}
}

func (d *data) id() int {
	id := d.nextID
	d.nextID++
	return id
}

func ptr[T any](v T) *T { return &v }

// seed loads a small fixed clinic so every endpoint has something to return.
func (d *data) seed(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.accounts = []account{
		{user: domain.User{ID: 1, FirstName: "Admin", LastName: "Clinica", Email: "admin@clinic.local", Rol: string(domain.RoleAdministrator), Status: domain.UserStatusActive, CreatedAt: "2024-01-01"}, password: "admin"},
		{user: domain.User{ID: 2, FirstName: "Lucia", LastName: "Ruiz", Email: "lucia@clinic.local", Rol: string(domain.RoleVeterinarian), Status: domain.UserStatusActive, CreatedAt: "2024-01-02"}, password: "lucia"},
	}

	vetID := d.id()
	d.vets[vetID] = domain.Vet{VetID: ptr(vetID), FirstName: ptr("Lucia"), LastName: ptr("Ruiz"), FullName: ptr("Dra. Lucia Ruiz")}

	ownerID := d.id()
	d.owners[ownerID] = domain.Owner{
		ID: ownerID, FirstName: "Marta", LastName: "Gomez", Email: "marta@example.com",
		Phone: "555-0101", Address: "Calle 1", Status: "activo", LastVisit: now.Format(time.DateOnly),
	}

	dog := d.id()
	d.pets[dog] = domain.Pet{
		ID: dog, Name: "Luna", Species: "perro", Breed: ptr("mestizo"), Age: ptr(3),
		Gender: ptr(domain.GenderFemale), OwnerID: ptr(ownerID), OwnerName: ptr("Marta Gomez"),
		Status: ptr(domain.PetStatusHealthy),
	}
	cat := d.id()
	d.pets[cat] = domain.Pet{
		ID: cat, Name: "Tom", Species: "gato", Age: ptr(5),
		Gender: ptr(domain.GenderMale), OwnerID: ptr(ownerID), OwnerName: ptr("Marta Gomez"),
		Status: ptr(domain.PetStatusInTreatment),
	}

	today := now.Format(time.DateOnly)
	lastMonth := now.AddDate(0, -1, 0).Format(time.DateOnly)
	for _, r := range []domain.Record{
		{PetID: dog, Type: domain.RecordTypeVaccine, Title: "Rabia", AppliedAt: ptr(today), VetID: ptr(vetID)},
		{PetID: dog, Type: domain.RecordTypeConsultation, Title: "Control anual", AppliedAt: ptr(today), Weight: ptr("12.5")},
		{PetID: cat, Type: domain.RecordTypeTreatment, Title: "Antibiotico", AppliedAt: ptr(lastMonth), Urgency: ptr(domain.UrgencyNormal)},
	} {
		r.ID = d.id()
		d.records[r.ID] = r
	}
}

func (d *data) authenticate(email, password string) (domain.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, a := range d.accounts {
		if a.user.Email == email && a.password == password {
			return a.user, true
		}
	}
	return domain.User{}, false
}

func (d *data) usersWithRole(role domain.Role) []domain.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []domain.User{}
	for _, a := range d.accounts {
		if role == "" || a.user.RoleName() == role {
			out = append(out, a.user)
		}
	}
	return out
}

// sortedValues returns map values ordered by id.
func sortedValues[T any](m map[int]T) []T {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func ownerInput(o domain.Owner, in domain.OwnerInput, partial bool) domain.Owner {
	set := func(dst *string, v string) {
		if v != "" || !partial {
			*dst = v
		}
	}
	set(&o.FirstName, in.FirstName)
	set(&o.LastName, in.LastName)
	set(&o.Email, in.Email)
	set(&o.Phone, in.Phone)
	set(&o.Address, in.Address)
	set(&o.Status, in.Status)
	set(&o.Notes, in.Notes)
	set(&o.LastVisit, in.LastVisit)
	return o
}

func recordFromInput(id int, in domain.RecordInput) domain.Record {
	r := domain.Record{
		ID:          id,
		PetID:       in.PetID,
		Type:        in.Type,
		Title:       in.Title,
		Description: in.Description,
		AppliedAt:   in.AppliedAt,
		NextDate:    in.NextDate,
		Status:      in.Status,
		Urgency:     in.Urgency,
		Medications: in.Medications,
		Notes:       in.Notes,
		VetID:       in.VetID,
	}
	if in.Weight != nil {
		r.Weight = ptr(strconv.FormatFloat(*in.Weight, 'f', -1, 64))
	}
	if in.Temperature != nil {
		r.Temperature = ptr(strconv.FormatFloat(*in.Temperature, 'f', -1, 64))
	}
	return r
}
