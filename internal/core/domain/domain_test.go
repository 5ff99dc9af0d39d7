package domain

import (
	"encoding/json"
	"testing"
)

func TestUser_RoleName(t *testing.T) {
	tests := []struct {
		body string
		want Role
	}{
		{`{"rol":"veterinario"}`, RoleVeterinarian},
		{`{"role":"asistente"}`, RoleAssistant},
		{`{"rol":"administrador","role":"asistente"}`, RoleAdministrator},
		{`{}`, ""},
	}

	for _, tt := range tests {
		var u User
		if err := json.Unmarshal([]byte(tt.body), &u); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.body, err)
		}
		if got := u.RoleName(); got != tt.want {
			t.Errorf("RoleName(%s) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestVet_Resolution(t *testing.T) {
	tests := []struct {
		body    string
		key     int
		display string
	}{
		{`{"idVeterinario":7,"id":3,"nombreCompleto":"Dra. Ruiz","nombre":"Ana"}`, 7, "Dra. Ruiz"},
		{`{"id":3,"nombre":"Ana","apellidos":"Ruiz"}`, 3, "Ana Ruiz"},
		{`{"id":3,"nombre":"Ana","apellidos":null,"nombreCompleto":""}`, 3, "Ana"},
		{`{}`, 0, ""},
	}

	for _, tt := range tests {
		var v Vet
		if err := json.Unmarshal([]byte(tt.body), &v); err != nil {
			t.Fatalf("unmarshal %s: %v", tt.body, err)
		}
		if got := v.Key(); got != tt.key {
			t.Errorf("Key(%s) = %d, want %d", tt.body, got, tt.key)
		}
		if got := v.DisplayName(); got != tt.display {
			t.Errorf("DisplayName(%s) = %q, want %q", tt.body, got, tt.display)
		}
	}
}

func TestMonthlyActivity_Rows(t *testing.T) {
	body := `[
		{"month":"Ene","consultas":4,"vacuna":2},
		{"mes":"Feb","consulta":1,"vacunas":3,"tratamientos":2,"cirugia":1},
		{"nombre":"Mar","consultas":null,"consulta":5},
		{"label":"","consultas":"6"}
	]`
	var m MonthlyActivity
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Aggregate {
		t.Fatal("expected row form")
	}

	want := []ActivityPoint{
		{Label: "Ene", Consultations: 4, Vaccines: 2},
		{Label: "Feb", Consultations: 1, Vaccines: 3, Treatments: 2, Surgeries: 1},
		{Label: "Mar", Consultations: 5},
		{Label: "-", Consultations: 6},
	}
	if len(m.Points) != len(want) {
		t.Fatalf("got %d points, want %d", len(m.Points), len(want))
	}
	for i := range want {
		if m.Points[i] != want[i] {
			t.Errorf("Points[%d] = %+v, want %+v", i, m.Points[i], want[i])
		}
	}
}

func TestMonthlyActivity_Aggregate(t *testing.T) {
	var m MonthlyActivity
	body := `{"vacuna":3,"tratamiento":2,"cirugia":1,"consulta":9,"consultas":100}`
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !m.Aggregate || len(m.Points) != 1 {
		t.Fatalf("expected one aggregate point, got %+v", m)
	}
	want := ActivityPoint{Label: "Periodo", Consultations: 9, Vaccines: 3, Treatments: 2, Surgeries: 1}
	if m.Points[0] != want {
		t.Errorf("aggregate = %+v, want %+v", m.Points[0], want)
	}

	m.Labelled("2024-01-01", "2024-01-31")
	if m.Points[0].Label != "2024-01-01 - 2024-01-31" {
		t.Errorf("Labelled label = %q", m.Points[0].Label)
	}
}

func TestSpeciesShare(t *testing.T) {
	var shares []SpeciesShare
	body := `[{"especie":"perro","count":3,"percentage":60},{"name":"gato","value":2}]`
	if err := json.Unmarshal([]byte(body), &shares); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(shares) != 2 {
		t.Fatalf("got %d shares", len(shares))
	}
	if shares[0].Species != "perro" || shares[0].Count != 3 || shares[0].Percentage == nil || *shares[0].Percentage != 60 {
		t.Errorf("shares[0] = %+v", shares[0])
	}
	if shares[1].Species != "gato" || shares[1].Count != 2 || shares[1].Percentage != nil {
		t.Errorf("shares[1] = %+v", shares[1])
	}
}

func TestPetInput_OwnerLink(t *testing.T) {
	data, err := json.Marshal(PetInput{Name: "Luna", Species: "perro", Owner: LinkOwner(12)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"nombre":"Luna","especie":"perro","propietario":{"connect":{"idPropietario":12}}}`
	if string(data) != want {
		t.Errorf("PetInput json = %s, want %s", data, want)
	}
}

func TestLabel(t *testing.T) {
	if got := Label(PetStatusInTreatment); got != "En tratamiento" {
		t.Errorf("Label(en_tratamiento) = %q", got)
	}
	if got := Label(Role("otro")); got != "otro" {
		t.Errorf("Label(otro) = %q", got)
	}
}
