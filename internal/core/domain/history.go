package domain

// Record is one medical history entry of a pet. Weight and temperature come
// back as strings; the input form sends numbers.
type Record struct {
	ID          int        `json:"idHistorial"`
	PetID       int        `json:"mascotaId"`
	Type        RecordType `json:"tipoRegistro"`
	Title       string     `json:"titulo"`
	Description *string    `json:"descripcion,omitempty"`
	AppliedAt   *string    `json:"fechaAplicacion,omitempty"`
	NextDate    *string    `json:"proximaFecha,omitempty"`
	Status      *string    `json:"estado,omitempty"`
	Urgency     *Urgency   `json:"urgencia,omitempty"`
	Weight      *string    `json:"peso,omitempty"`
	Temperature *string    `json:"temperatura,omitempty"`
	Medications *string    `json:"medicamentos,omitempty"`
	Notes       *string    `json:"notas,omitempty"`
	VetID       *int       `json:"veterinarioId,omitempty"`
}

// RecordInput is the create/update body for a history entry.
type RecordInput struct {
	PetID       int        `json:"mascotaId"`
	Type        RecordType `json:"tipoRegistro"`
	Title       string     `json:"titulo"`
	Description *string    `json:"descripcion,omitempty"`
	AppliedAt   *string    `json:"fechaAplicacion,omitempty"`
	NextDate    *string    `json:"proximaFecha,omitempty"`
	Status      *string    `json:"estado,omitempty"`
	Urgency     *Urgency   `json:"urgencia,omitempty"`
	Weight      *float64   `json:"peso,omitempty"`
	Temperature *float64   `json:"temperatura,omitempty"`
	Medications *string    `json:"medicamentos,omitempty"`
	Notes       *string    `json:"notas,omitempty"`
	VetID       *int       `json:"veterinarioId,omitempty"`
}
