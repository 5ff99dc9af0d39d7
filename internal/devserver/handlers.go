package devserver

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vietddude/vetclinic/internal/core/domain"
)

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"message": what + " no encontrado"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

func paramID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		badRequest(c, "id invalido")
		return 0, false
	}
	return id, true
}

func (s *Server) handleLogin(c *gin.Context) {
	var creds domain.Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		badRequest(c, "correo y contrasena son requeridos")
		return
	}
	user, ok := s.data.authenticate(creds.Email, creds.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Credenciales invalidas"})
		return
	}
	c.JSON(http.StatusOK, domain.LoginResponse{User: user, Token: s.token})
}

// handleUsers filters by ?rol= or ?role=.
func (s *Server) handleUsers(c *gin.Context) {
	role := c.Query("rol")
	if role == "" {
		role = c.Query("role")
	}
	c.JSON(http.StatusOK, s.data.usersWithRole(domain.Role(role)))
}

func (s *Server) handleListOwners(c *gin.Context) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	c.JSON(http.StatusOK, sortedValues(s.data.owners))
}

func (s *Server) handleCreateOwner(c *gin.Context) {
	var in domain.OwnerInput
	if err := c.ShouldBindJSON(&in); err != nil || in.FirstName == "" {
		badRequest(c, "nombre es requerido")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	o := ownerInput(domain.Owner{ID: s.data.id()}, in, false)
	s.data.owners[o.ID] = o
	c.JSON(http.StatusCreated, o)
}

func (s *Server) handleOwnerDetail(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	o, ok := s.data.owners[id]
	if !ok {
		notFound(c, "Propietario")
		return
	}
	pets := []domain.PetSummary{}
	for _, p := range sortedValues(s.data.pets) {
		if p.OwnerID == nil || *p.OwnerID != id {
			continue
		}
		sum := domain.PetSummary{ID: p.ID, Name: p.Name, Species: p.Species}
		if p.Breed != nil {
			sum.Breed = *p.Breed
		}
		if p.Age != nil {
			sum.Age = *p.Age
		}
		if p.Photo != nil {
			sum.Photo = *p.Photo
		}
		pets = append(pets, sum)
	}
	c.JSON(http.StatusOK, domain.OwnerDetail{Owner: o, Pets: pets})
}

func (s *Server) handleUpdateOwner(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in domain.OwnerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "cuerpo invalido")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	o, ok := s.data.owners[id]
	if !ok {
		notFound(c, "Propietario")
		return
	}
	o = ownerInput(o, in, true)
	s.data.owners[id] = o
	c.JSON(http.StatusOK, o)
}

func (s *Server) handleDeleteOwner(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if _, ok := s.data.owners[id]; !ok {
		notFound(c, "Propietario")
		return
	}
	delete(s.data.owners, id)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListPets(c *gin.Context) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	c.JSON(http.StatusOK, sortedValues(s.data.pets))
}

func (s *Server) handleCreatePet(c *gin.Context) {
	var in domain.PetInput
	if err := c.ShouldBindJSON(&in); err != nil || in.Name == "" || in.Species == "" {
		badRequest(c, "nombre y especie son requeridos")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	ownerID := in.Owner.Connect.ID
	owner, ok := s.data.owners[ownerID]
	if !ok {
		notFound(c, "Propietario")
		return
	}
	p := domain.Pet{
		ID:        s.data.id(),
		Name:      in.Name,
		Species:   in.Species,
		Breed:     in.Breed,
		Age:       in.Age,
		Gender:    in.Gender,
		BirthDate: in.BirthDate,
		OwnerID:   ptr(ownerID),
		OwnerName: ptr(strings.TrimSpace(owner.FirstName + " " + owner.LastName)),
		Status:    in.Status,
		Color:     in.Color,
		Microchip: in.Microchip,
		Weight:    in.Weight,
		Notes:     in.Notes,
		Photo:     in.Photo,
	}
	s.data.pets[p.ID] = p
	c.JSON(http.StatusCreated, p)
}

func (s *Server) handleUploadPhoto(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "archivo requerido en el campo file")
		return
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "archivo ilegible")
		return
	}
	size, _ := io.Copy(io.Discard, f)
	f.Close()
	if size == 0 {
		badRequest(c, "archivo vacio")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	p, ok := s.data.pets[id]
	if !ok {
		notFound(c, "Mascota")
		return
	}
	p.Photo = ptr(fmt.Sprintf("/uploads/mascotas/%d%s", id, filepath.Ext(fh.Filename)))
	s.data.pets[id] = p
	c.JSON(http.StatusOK, gin.H{"foto": *p.Photo})
}

func (s *Server) handleListRecords(c *gin.Context) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	c.JSON(http.StatusOK, sortedValues(s.data.records))
}

func (s *Server) handleRecordsByPet(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	if _, ok := s.data.pets[id]; !ok {
		notFound(c, "Mascota")
		return
	}
	out := []domain.Record{}
	for _, r := range sortedValues(s.data.records) {
		if r.PetID == id {
			out = append(out, r)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateRecord(c *gin.Context) {
	var in domain.RecordInput
	if err := c.ShouldBindJSON(&in); err != nil || in.Title == "" || in.Type == "" {
		badRequest(c, "tipoRegistro y titulo son requeridos")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if _, ok := s.data.pets[in.PetID]; !ok {
		notFound(c, "Mascota")
		return
	}
	r := recordFromInput(s.data.id(), in)
	s.data.records[r.ID] = r
	c.JSON(http.StatusCreated, r)
}

func (s *Server) handleUpdateRecord(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var in domain.RecordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "cuerpo invalido")
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if _, ok := s.data.records[id]; !ok {
		notFound(c, "Historial")
		return
	}
	r := recordFromInput(id, in)
	s.data.records[id] = r
	c.JSON(http.StatusOK, r)
}

func (s *Server) handleDeleteRecord(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if _, ok := s.data.records[id]; !ok {
		notFound(c, "Historial")
		return
	}
	delete(s.data.records, id)
	c.JSON(http.StatusOK, gin.H{"message": "Historial eliminado"})
}

func (s *Server) handleGetVet(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	v, ok := s.data.vets[id]
	if !ok {
		notFound(c, "Veterinario")
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) handleTotalPatients(c *gin.Context) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	c.JSON(http.StatusOK, domain.Total{Total: len(s.data.pets)})
}

func (s *Server) handleConsultationsThisMonth(c *gin.Context) {
	month := s.now().Format("2006-01")

	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	total := 0
	for _, r := range s.data.records {
		if r.Type == domain.RecordTypeConsultation && r.AppliedAt != nil && strings.HasPrefix(*r.AppliedAt, month) {
			total++
		}
	}
	c.JSON(http.StatusOK, domain.Total{Total: total})
}

// inRange compares ISO dates as strings; empty bounds are open.
func inRange(date *string, start, end string) bool {
	if date == nil {
		return false
	}
	d := *date
	if len(d) > len(time.DateOnly) {
		d = d[:len(time.DateOnly)]
	}
	return (start == "" || d >= start) && (end == "" || d <= end)
}

func (s *Server) handleVaccinesApplied(c *gin.Context) {
	start, end := c.Query("start"), c.Query("end")

	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	total := 0
	for _, r := range s.data.records {
		if r.Type == domain.RecordTypeVaccine && inRange(r.AppliedAt, start, end) {
			total++
		}
	}
	c.JSON(http.StatusOK, domain.Total{Total: total})
}

// handleMonthlyActivity answers one aggregate object when both bounds are
// given and per-month rows otherwise, as the real backend does.
func (s *Server) handleMonthlyActivity(c *gin.Context) {
	start, end := c.Query("start"), c.Query("end")

	s.data.mu.RLock()
	defer s.data.mu.RUnlock()

	if start != "" && end != "" {
		agg := map[string]int{"vacuna": 0, "tratamiento": 0, "cirugia": 0, "consulta": 0}
		for _, r := range s.data.records {
			if inRange(r.AppliedAt, start, end) {
				agg[string(r.Type)]++
			}
		}
		c.JSON(http.StatusOK, agg)
		return
	}

	type row struct {
		Month         string `json:"mes"`
		Consultations int    `json:"consultas"`
		Vaccines      int    `json:"vacunas"`
		Treatments    int    `json:"tratamientos"`
		Surgeries     int    `json:"cirugias"`
	}
	byMonth := map[string]*row{}
	var months []string
	for _, r := range sortedValues(s.data.records) {
		if r.AppliedAt == nil || len(*r.AppliedAt) < 7 {
			continue
		}
		m := (*r.AppliedAt)[:7]
		if !inRange(r.AppliedAt, start, end) {
			continue
		}
		rw, ok := byMonth[m]
		if !ok {
			rw = &row{Month: m}
			byMonth[m] = rw
			months = append(months, m)
		}
		switch r.Type {
		case domain.RecordTypeConsultation:
			rw.Consultations++
		case domain.RecordTypeVaccine:
			rw.Vaccines++
		case domain.RecordTypeTreatment:
			rw.Treatments++
		case domain.RecordTypeSurgery:
			rw.Surgeries++
		}
	}
	slices.Sort(months)
	out := make([]row, 0, len(months))
	for _, m := range months {
		out = append(out, *byMonth[m])
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleSpeciesDistribution(c *gin.Context) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()

	counts := map[string]int{}
	var species []string
	for _, p := range sortedValues(s.data.pets) {
		if _, ok := counts[p.Species]; !ok {
			species = append(species, p.Species)
		}
		counts[p.Species]++
	}

	out := make([]domain.SpeciesShare, 0, len(species))
	for _, sp := range species {
		pct := float64(counts[sp]) * 100 / float64(len(s.data.pets))
		out = append(out, domain.SpeciesShare{Species: sp, Count: counts[sp], Percentage: ptr(pct)})
	}
	c.JSON(http.StatusOK, out)
}
