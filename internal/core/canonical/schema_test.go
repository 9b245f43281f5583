package canonical

import (
	"testing"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

func TestConformsRejectsOutOfSchemaRecords(t *testing.T) {
	bad := domain.Prescription{
		Medicines: []domain.Medicine{{MedicationName: "X", Dosage: domain.Dosage{Morning: -1}}},
	}
	if err := Conforms(domain.SchemaPrescription, bad); err == nil {
		t.Fatalf("expected negative dosage to violate schema")
	}

	report := domain.ClinicalReport{
		ReportType:      "Blood Test",
		LabResults:      []domain.LabResult{{TestName: "Hb", Value: "13", Status: "Elevated"}},
		Findings:        []domain.Finding{},
		Diagnosis:       []string{},
		Recommendations: []string{},
	}
	if err := Conforms(domain.SchemaReport, report); err == nil {
		t.Fatalf("expected unknown status to violate schema")
	}
}

func TestConformsAcceptsValidatorOutput(t *testing.T) {
	report, _ := ValidateReport(map[string]any{})
	if err := Conforms(domain.SchemaReport, report); err != nil {
		t.Fatalf("Conforms(report) error = %v", err)
	}
	prescription, _ := ValidatePrescription(map[string]any{})
	if err := Conforms(domain.SchemaPrescription, prescription); err != nil {
		t.Fatalf("Conforms(prescription) error = %v", err)
	}
}
