package domain

import "strings"

// User is a clinic account as returned by the backend. Some deployments name
// the role field "role" instead of "rol"; both are kept and RoleName picks.
type User struct {
	ID        int        `json:"idUsuario,omitempty"`
	FirstName string     `json:"nombre,omitempty"`
	LastName  string     `json:"apellidos,omitempty"`
	Email     string     `json:"correo,omitempty"`
	Rol       string     `json:"rol,omitempty"`
	Role      string     `json:"role,omitempty"`
	Status    UserStatus `json:"estado,omitempty"`
	CreatedAt string     `json:"fechaCreacion,omitempty"`
}

// RoleName resolves the role: "rol" first, then "role".
func (u User) RoleName() Role {
	if u.Rol != "" {
		return Role(u.Rol)
	}
	return Role(u.Role)
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"correo"`
	Password string `json:"contrasena"`
}

// LoginResponse is the user profile plus its bearer token.
type LoginResponse struct {
	User
	Token string `json:"token"`
}

// Vet is a veterinarian record. The backend is inconsistent about the id and
// name fields, so all variants are optional.
type Vet struct {
	ID        *int    `json:"id,omitempty"`
	VetID     *int    `json:"idVeterinario,omitempty"`
	FirstName *string `json:"nombre,omitempty"`
	LastName  *string `json:"apellidos,omitempty"`
	FullName  *string `json:"nombreCompleto,omitempty"`
}

// Key resolves the identifier: idVeterinario first, then id. Zero if neither.
func (v Vet) Key() int {
	switch {
	case v.VetID != nil:
		return *v.VetID
	case v.ID != nil:
		return *v.ID
	default:
		return 0
	}
}

// DisplayName resolves nombreCompleto first, then nombre + apellidos.
func (v Vet) DisplayName() string {
	if v.FullName != nil && strings.TrimSpace(*v.FullName) != "" {
		return strings.TrimSpace(*v.FullName)
	}
	var parts []string
	if v.FirstName != nil {
		parts = append(parts, *v.FirstName)
	}
	if v.LastName != nil {
		parts = append(parts, *v.LastName)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
