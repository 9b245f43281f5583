package canonical

import (
	"strings"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

// ValidateReport coerces a provider object into a ClinicalReport. The second
// return value lists the paths that were coerced, defaulted or dropped, in the
// order they were met. Indices in paths refer to the provider's arrays.
func ValidateReport(raw map[string]any) (domain.ClinicalReport, []string) {
	t := newTracker()

	report := domain.ClinicalReport{
		ReportType:      reportType(raw, t),
		PatientName:     optionalString(raw, "patientName", "patientName", t, "patient"),
		DoctorName:      optionalString(raw, "doctorName", "doctorName", t, "doctor"),
		HospitalName:    optionalString(raw, "hospitalName", "hospitalName", t, "hospital"),
		Date:            optionalString(raw, "date", "date", t),
		VitalSigns:      vitalSigns(raw, t),
		LabResults:      labResults(raw, t),
		Findings:        findings(raw, t),
		Diagnosis:       stringList(raw, "diagnosis", t),
		Recommendations: stringList(raw, "recommendations", t),
		Summary:         optionalString(raw, "summary", "summary", t),
		NextAppointment: optionalString(raw, "nextAppointment", "nextAppointment", t),
	}
	return report, t.result()
}

func reportType(raw map[string]any, t *tracker) string {
	value, _ := raw["reportType"].(string)
	if strings.TrimSpace(value) == "" {
		t.mark("reportType")
		return domain.UnknownReportType
	}
	return CanonicalizeReportType(value)
}

var vitalSignKeys = []struct {
	key     string
	aliases []string
	set     func(*domain.VitalSigns, string)
}{
	{"bloodPressure", []string{"bp"}, func(v *domain.VitalSigns, s string) { v.BloodPressure = s }},
	{"heartRate", []string{"pulse"}, func(v *domain.VitalSigns, s string) { v.HeartRate = s }},
	{"temperature", nil, func(v *domain.VitalSigns, s string) { v.Temperature = s }},
	{"weight", nil, func(v *domain.VitalSigns, s string) { v.Weight = s }},
	{"height", nil, func(v *domain.VitalSigns, s string) { v.Height = s }},
	{"respiratoryRate", nil, func(v *domain.VitalSigns, s string) { v.RespiratoryRate = s }},
	{"oxygenSaturation", []string{"spo2"}, func(v *domain.VitalSigns, s string) { v.OxygenSaturation = s }},
}

func vitalSigns(raw map[string]any, t *tracker) domain.VitalSigns {
	var out domain.VitalSigns
	v, ok := raw["vitalSigns"]
	if !ok || v == nil {
		return out
	}
	group, ok := v.(map[string]any)
	if !ok {
		t.mark("vitalSigns")
		return out
	}
	for _, member := range vitalSignKeys {
		member.set(&out, optionalString(group, member.key, "vitalSigns."+member.key, t, member.aliases...))
	}
	return out
}

func labResults(raw map[string]any, t *tracker) []domain.LabResult {
	out := []domain.LabResult{}
	for idx, item := range objectList(raw, "labResults", t) {
		path := itemPath("labResults", idx)
		obj, ok := item.(map[string]any)
		if !ok {
			t.mark(path)
			continue
		}
		result := domain.LabResult{
			TestName:       optionalString(obj, "testName", path+".testName", t, "test", "name"),
			Value:          optionalString(obj, "value", path+".value", t, "result"),
			Unit:           optionalString(obj, "unit", path+".unit", t),
			ReferenceRange: optionalString(obj, "referenceRange", path+".referenceRange", t, "normalRange", "range"),
			Status:         coerceEnum(obj["status"], domain.LabStatuses, path+".status", t),
		}
		if result.TestName == "" || result.Value == "" {
			t.mark(path)
			continue
		}
		out = append(out, result)
	}
	return out
}

func findings(raw map[string]any, t *tracker) []domain.Finding {
	out := []domain.Finding{}
	for idx, item := range objectList(raw, "findings", t) {
		path := itemPath("findings", idx)
		obj, ok := item.(map[string]any)
		if !ok {
			t.mark(path)
			continue
		}
		finding := domain.Finding{
			Category: optionalString(obj, "category", path+".category", t),
			Finding:  optionalString(obj, "finding", path+".finding", t, "description"),
			Severity: coerceEnum(obj["severity"], domain.Severities, path+".severity", t),
		}
		if finding.Category == "" {
			t.mark(path)
			continue
		}
		out = append(out, finding)
	}
	return out
}
