package domain

// Owner is a pet owner ("propietario").
type Owner struct {
	ID        int    `json:"id"`
	FirstName string `json:"nombre"`
	LastName  string `json:"apellidos"`
	Email     string `json:"correo"`
	Phone     string `json:"telefono"`
	Address   string `json:"direccion"`
	Status    string `json:"estado"`
	Notes     string `json:"notas"`
	LastVisit string `json:"fechaUltimaVisita"`
}

// OwnerInput is the create/update body; the backend assigns the id.
type OwnerInput struct {
	FirstName string `json:"nombre,omitempty"`
	LastName  string `json:"apellidos,omitempty"`
	Email     string `json:"correo,omitempty"`
	Phone     string `json:"telefono,omitempty"`
	Address   string `json:"direccion,omitempty"`
	Status    string `json:"estado,omitempty"`
	Notes     string `json:"notas,omitempty"`
	LastVisit string `json:"fechaUltimaVisita,omitempty"`
}

// OwnerDetail is an owner together with their pets.
type OwnerDetail struct {
	Owner Owner        `json:"propietario"`
	Pets  []PetSummary `json:"mascotas"`
}

// PetSummary is the reduced pet shape embedded in OwnerDetail.
type PetSummary struct {
	ID        int    `json:"idMascota"`
	Name      string `json:"nombre"`
	Species   string `json:"especie"`
	Breed     string `json:"raza"`
	Age       int    `json:"edad"`
	LastVisit string `json:"fechaUltimaVisita"`
	Photo     string `json:"foto"`
}
