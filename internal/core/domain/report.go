package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Total is the body of the single-number report endpoints.
type Total struct {
	Total int `json:"total"`
}

// ActivityPoint is one row of the monthly activity chart.
type ActivityPoint struct {
	Label         string `json:"label"`
	Consultations int    `json:"consultas"`
	Vaccines      int    `json:"vacunas"`
	Treatments    int    `json:"tratamientos"`
	Surgeries     int    `json:"cirugias"`
}

// MonthlyActivity is the actividad-mensual report. The backend answers with
// either an array of month rows or one aggregate object for the whole range;
// Aggregate is true in the second case and Points then holds a single row.
type MonthlyActivity struct {
	Points    []ActivityPoint
	Aggregate bool
}

func (m *MonthlyActivity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = MonthlyActivity{}
		return nil
	}

	if data[0] == '[' {
		var rows []map[string]json.RawMessage
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("decode activity rows: %w", err)
		}
		points := make([]ActivityPoint, 0, len(rows))
		for _, row := range rows {
			p := ActivityPoint{Label: firstString(row, "-", "month", "mes", "label", "nombre")}
			p.Consultations = firstInt(row, "consultas", "consulta")
			p.Vaccines = firstInt(row, "vacunas", "vacuna")
			p.Treatments = firstInt(row, "tratamientos", "tratamiento")
			p.Surgeries = firstInt(row, "cirugias", "cirugia")
			points = append(points, p)
		}
		*m = MonthlyActivity{Points: points}
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode activity aggregate: %w", err)
	}
	// The aggregate object uses singular names.
	*m = MonthlyActivity{
		Aggregate: true,
		Points: []ActivityPoint{{
			Label:         "Periodo",
			Consultations: firstInt(obj, "consulta", "consultas"),
			Vaccines:      firstInt(obj, "vacuna", "vacunas"),
			Treatments:    firstInt(obj, "tratamiento", "tratamientos"),
			Surgeries:     firstInt(obj, "cirugia", "cirugias"),
		}},
	}
	return nil
}

// Labelled sets the label of an aggregate result to the queried range.
func (m *MonthlyActivity) Labelled(start, end string) {
	if m.Aggregate && len(m.Points) == 1 && start != "" && end != "" {
		m.Points[0].Label = start + " - " + end
	}
}

// SpeciesShare is one slice of the species distribution report.
type SpeciesShare struct {
	Species    string
	Count      int
	Percentage *float64
}

func (s *SpeciesShare) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode species share: %w", err)
	}
	*s = SpeciesShare{
		Species: firstString(obj, "-", "especie", "name"),
		Count:   firstInt(obj, "count", "value"),
	}
	if raw, ok := obj["percentage"]; ok {
		var pct *float64
		if err := json.Unmarshal(raw, &pct); err == nil {
			s.Percentage = pct
		}
	}
	return nil
}

func (s SpeciesShare) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Species    string   `json:"especie"`
		Count      int      `json:"count"`
		Percentage *float64 `json:"percentage,omitempty"`
	}{s.Species, s.Count, s.Percentage})
}

// firstString returns the first non-empty string among keys, else def.
func firstString(obj map[string]json.RawMessage, def string, keys ...string) string {
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err == nil && v != "" {
			return v
		}
	}
	return def
}

// firstInt returns the first non-null number among keys, else 0. Numeric
// strings are accepted.
func firstInt(obj map[string]json.RawMessage, keys ...string) int {
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			continue
		}
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
	}
	return 0
}
