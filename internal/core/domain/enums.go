package domain

// Role of a clinic user.
type Role string

const (
	RoleAdministrator Role = "administrador"
	RoleAssistant     Role = "asistente"
	RoleVeterinarian  Role = "veterinario"
)

// UserStatus is the backend's single-letter account state.
type UserStatus string

const (
	UserStatusActive   UserStatus = "A"
	UserStatusInactive UserStatus = "I"
)

type Gender string

const (
	GenderMale   Gender = "macho"
	GenderFemale Gender = "hembra"
)

type PetStatus string

const (
	PetStatusHealthy     PetStatus = "saludable"
	PetStatusInTreatment PetStatus = "en_tratamiento"
	PetStatusVaccination PetStatus = "vacunacion"
)

type VaccineStatus string

const (
	VaccineStatusComplete   VaccineStatus = "completo"
	VaccineStatusInProgress VaccineStatus = "progreso"
	VaccineStatusScheduled  VaccineStatus = "programado"
)

type Urgency string

const (
	UrgencyLow    Urgency = "baja"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "alta"
)

// RecordType is the kind of medical history entry.
type RecordType string

const (
	RecordTypeVaccine      RecordType = "vacuna"
	RecordTypeTreatment    RecordType = "tratamiento"
	RecordTypeSurgery      RecordType = "cirugia"
	RecordTypeConsultation RecordType = "consulta"
)

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pendiente"
	AppointmentCompleted AppointmentStatus = "completada"
	AppointmentCancelled AppointmentStatus = "cancelada"
)

// Labels maps enum values to their display labels.
var Labels = map[string]string{
	string(RoleAdministrator):       "Administrador",
	string(RoleAssistant):           "Asistente",
	string(RoleVeterinarian):        "Veterinario",
	string(UserStatusActive):        "Activo",
	string(UserStatusInactive):      "Inactivo",
	string(GenderMale):              "Macho",
	string(GenderFemale):            "Hembra",
	string(PetStatusHealthy):        "Saludable",
	string(PetStatusInTreatment):    "En tratamiento",
	string(PetStatusVaccination):    "Vacunación",
	string(VaccineStatusComplete):   "Completado",
	string(VaccineStatusInProgress): "En progreso",
	string(VaccineStatusScheduled):  "Programado",
	string(UrgencyLow):              "Baja",
	string(UrgencyNormal):           "Normal",
	string(UrgencyHigh):             "Alta",
	string(RecordTypeVaccine):       "Vacuna",
	string(RecordTypeTreatment):     "Tratamiento",
	string(RecordTypeSurgery):       "Cirugía",
	string(RecordTypeConsultation):  "Consulta",
	string(AppointmentPending):      "Pendiente",
	string(AppointmentCompleted):    "Completada",
	string(AppointmentCancelled):    "Cancelada",
}

// Label returns the display label for an enum value, or the value itself.
func Label[T ~string](v T) string {
	if l, ok := Labels[string(v)]; ok {
		return l
	}
	return string(v)
}
