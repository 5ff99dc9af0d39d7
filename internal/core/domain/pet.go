package domain

// Pet is a patient ("mascota"). Optional fields are nil when the backend
// returns null.
type Pet struct {
	ID        int        `json:"idMascota"`
	Name      string     `json:"nombre"`
	Species   string     `json:"especie"`
	Breed     *string    `json:"raza"`
	Age       *int       `json:"edad"`
	Gender    *Gender    `json:"genero"`
	BirthDate *string    `json:"fechaNacimiento"`
	OwnerID   *int       `json:"propietarioId"`
	OwnerName *string    `json:"propietarioNombre"`
	Status    *PetStatus `json:"estado"`
	Color     *string    `json:"color"`
	Microchip *string    `json:"microchip"`
	Weight    *string    `json:"peso"`
	Notes     *string    `json:"notas"`
	Photo     *string    `json:"foto"`
}

// PetInput is the create body. The owner is linked through a nested connect
// object.
type PetInput struct {
	Name      string     `json:"nombre"`
	Species   string     `json:"especie"`
	Breed     *string    `json:"raza,omitempty"`
	Age       *int       `json:"edad,omitempty"`
	Gender    *Gender    `json:"genero,omitempty"`
	BirthDate *string    `json:"fechaNacimiento,omitempty"`
	Status    *PetStatus `json:"estado,omitempty"`
	Color     *string    `json:"color,omitempty"`
	Microchip *string    `json:"microchip,omitempty"`
	Weight    *string    `json:"peso,omitempty"`
	Notes     *string    `json:"notas,omitempty"`
	Photo     *string    `json:"foto,omitempty"`
	Owner     OwnerLink  `json:"propietario"`
}

type OwnerLink struct {
	Connect OwnerRef `json:"connect"`
}

type OwnerRef struct {
	ID int `json:"idPropietario"`
}

// LinkOwner returns an OwnerLink for id.
func LinkOwner(id int) OwnerLink {
	return OwnerLink{Connect: OwnerRef{ID: id}}
}
