package canonical

import (
	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

// ValidatePrescription coerces a provider object into a Prescription and
// reports uncertain paths the same way ValidateReport does.
func ValidatePrescription(raw map[string]any) (domain.Prescription, []string) {
	t := newTracker()

	prescription := domain.Prescription{
		DoctorName: optionalString(raw, "doctorName", "doctorName", t, "doctor"),
		Date:       optionalString(raw, "date", "date", t),
		Notes:      optionalString(raw, "notes", "notes", t),
		Medicines:  medicines(raw, t),
	}
	return prescription, t.result()
}

func medicines(raw map[string]any, t *tracker) []domain.Medicine {
	out := []domain.Medicine{}
	for idx, item := range objectList(raw, "medicines", t) {
		path := itemPath("medicines", idx)
		obj, ok := item.(map[string]any)
		if !ok {
			t.mark(path)
			continue
		}
		medicine := domain.Medicine{
			MedicationName: optionalString(obj, "medicationName", path+".medicationName", t, "name", "medicineName"),
			Dosage:         dosage(obj["dosage"], path+".dosage", t),
			Instructions:   optionalString(obj, "instructions", path+".instructions", t),
			Frequency:      optionalString(obj, "frequency", path+".frequency", t),
			Duration:       optionalString(obj, "duration", path+".duration", t),
		}
		if medicine.MedicationName == "" {
			t.mark(path)
			continue
		}
		out = append(out, medicine)
	}
	return out
}

func dosage(v any, path string, t *tracker) domain.Dosage {
	if v == nil {
		return domain.Dosage{}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		t.mark(path)
		return domain.Dosage{}
	}
	return domain.Dosage{
		Morning:   coerceCount(obj["morning"], path+".morning", t),
		Noon:      coerceCount(obj["noon"], path+".noon", t),
		Afternoon: coerceCount(obj["afternoon"], path+".afternoon", t),
		Night:     coerceCount(obj["night"], path+".night", t),
	}
}
